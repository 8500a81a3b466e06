package localdb

import (
	"fmt"
	"strconv"

	"github.com/nantokaworks/safari-raffle/internal/shared/logger"
	"github.com/nantokaworks/safari-raffle/internal/types"
	"go.uber.org/zap"
)

// GetSettings returns the current raffle settings. Missing keys read as the
// documented defaults.
func GetSettings() (types.Settings, error) {
	db := GetDB()
	if db == nil {
		return types.DefaultSettings, fmt.Errorf("database not initialized")
	}

	settings := types.DefaultSettings

	rows, err := db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		logger.Error("Failed to query settings", zap.Error(err))
		return settings, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			logger.Error("Failed to scan setting", zap.Error(err))
			continue
		}
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			logger.Warn("Ignoring non-boolean setting value",
				zap.String("key", key), zap.String("value", value))
			continue
		}
		switch key {
		case "auto_prize_selection":
			settings.AutoPrizeSelection = parsed
		case "allow_multiple_wins":
			settings.AllowMultipleWins = parsed
		}
	}
	if err := rows.Err(); err != nil {
		return settings, fmt.Errorf("failed to iterate settings: %w", err)
	}

	return settings, nil
}

// UpdateSettings merges the patch into the stored settings. Keys the patch
// does not carry keep their prior value.
func UpdateSettings(patch types.SettingsPatch) (types.Settings, error) {
	db := GetDB()
	if db == nil {
		return types.DefaultSettings, fmt.Errorf("database not initialized")
	}

	tx, err := db.Begin()
	if err != nil {
		return types.DefaultSettings, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	pairs := map[string]*bool{
		"auto_prize_selection": patch.AutoPrizeSelection,
		"allow_multiple_wins":  patch.AllowMultipleWins,
	}
	for key, value := range pairs {
		if value == nil {
			continue
		}
		if _, err := tx.Exec(`
			INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)
		`, key, strconv.FormatBool(*value)); err != nil {
			logger.Error("Failed to update setting", zap.String("key", key), zap.Error(err))
			return types.DefaultSettings, fmt.Errorf("failed to update setting %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return types.DefaultSettings, fmt.Errorf("failed to commit settings update: %w", err)
	}

	logger.Info("Settings updated")

	return GetSettings()
}
