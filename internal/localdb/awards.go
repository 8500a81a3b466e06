package localdb

import (
	"database/sql"
	"fmt"

	"github.com/nantokaworks/safari-raffle/internal/shared/logger"
	"go.uber.org/zap"
)

// AwardPrize links one unit of a prize to a participant. The capacity
// checks and the insert run inside a single transaction so two concurrent
// awards cannot both pass the check on the last remaining unit.
func AwardPrize(participantID, prizeID int64) error {
	db := GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var tickets, awarded int
	err = tx.QueryRow(`
		SELECT tickets, (SELECT COUNT(*) FROM participant_prizes WHERE participant_id = participants.id)
		FROM participants
		WHERE id = ?
	`, participantID).Scan(&tickets, &awarded)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: participant %d", ErrNotFound, participantID)
	}
	if err != nil {
		return fmt.Errorf("failed to look up participant: %w", err)
	}
	if awarded >= tickets {
		return fmt.Errorf("%w: participant has reached their maximum number of prizes", ErrCapacityExceeded)
	}

	var quantity, assigned int
	err = tx.QueryRow(`
		SELECT quantity, (SELECT COUNT(*) FROM participant_prizes WHERE prize_id = prizes.id)
		FROM prizes
		WHERE id = ?
	`, prizeID).Scan(&quantity, &assigned)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: prize %d", ErrNotFound, prizeID)
	}
	if err != nil {
		return fmt.Errorf("failed to look up prize: %w", err)
	}
	if assigned >= quantity {
		return fmt.Errorf("%w: prize has reached its maximum quantity", ErrCapacityExceeded)
	}

	if _, err := tx.Exec(`
		INSERT INTO participant_prizes (participant_id, prize_id)
		VALUES (?, ?)
	`, participantID, prizeID); err != nil {
		logger.Error("Failed to insert award link",
			zap.Int64("participant_id", participantID),
			zap.Int64("prize_id", prizeID),
			zap.Error(err))
		return fmt.Errorf("failed to insert award link: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit award: %w", err)
	}

	logger.Info("Prize awarded",
		zap.Int64("participant_id", participantID),
		zap.Int64("prize_id", prizeID))

	return nil
}

// RemoveAward deletes one of a participant's award links by position in the
// awards ordered oldest-first (index 0 = first prize won).
func RemoveAward(participantID int64, index int) error {
	db := GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(`
		SELECT id
		FROM participant_prizes
		WHERE participant_id = ?
		ORDER BY created_at ASC, id ASC
	`, participantID)
	if err != nil {
		return fmt.Errorf("failed to query award links: %w", err)
	}

	awardIDs := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan award link: %w", err)
		}
		awardIDs = append(awardIDs, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("failed to iterate award links: %w", err)
	}
	rows.Close()

	if len(awardIDs) == 0 {
		return fmt.Errorf("%w: no prizes found for this participant", ErrInvalidState)
	}
	if index < 0 || index >= len(awardIDs) {
		return fmt.Errorf("%w: invalid prize index", ErrInvalidState)
	}

	if _, err := tx.Exec(`DELETE FROM participant_prizes WHERE id = ?`, awardIDs[index]); err != nil {
		logger.Error("Failed to delete award link",
			zap.Int64("participant_id", participantID),
			zap.Int("index", index),
			zap.Error(err))
		return fmt.Errorf("failed to delete award link: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit award removal: %w", err)
	}

	logger.Info("Award removed",
		zap.Int64("participant_id", participantID),
		zap.Int("index", index))

	return nil
}

// ClearAllAwards removes every award link.
func ClearAllAwards() error {
	db := GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	res, err := db.Exec(`DELETE FROM participant_prizes`)
	if err != nil {
		logger.Error("Failed to clear awards", zap.Error(err))
		return fmt.Errorf("failed to clear awards: %w", err)
	}

	cleared, _ := res.RowsAffected()
	logger.Info("All awards cleared", zap.Int64("rows_affected", cleared))

	return nil
}

// ClearEverything removes all participants, prizes and award links in one
// transaction. It returns every stored photo reference so the caller can
// delete the files.
func ClearEverything() ([]string, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	photoPaths := []string{}
	for _, query := range []string{
		`SELECT photo_path FROM participants WHERE photo_path IS NOT NULL AND photo_path != ''`,
		`SELECT photo_path FROM prizes WHERE photo_path IS NOT NULL AND photo_path != ''`,
	} {
		rows, err := tx.Query(query)
		if err != nil {
			return nil, fmt.Errorf("failed to collect photo paths: %w", err)
		}
		for rows.Next() {
			var path string
			if err := rows.Scan(&path); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan photo path: %w", err)
			}
			photoPaths = append(photoPaths, path)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to iterate photo paths: %w", err)
		}
		rows.Close()
	}

	for _, query := range []string{
		`DELETE FROM participant_prizes`,
		`DELETE FROM prizes`,
		`DELETE FROM participants`,
	} {
		if _, err := tx.Exec(query); err != nil {
			logger.Error("Failed to clear table", zap.String("query", query), zap.Error(err))
			return nil, fmt.Errorf("failed to clear data: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit clear: %w", err)
	}

	logger.Info("All raffle data cleared", zap.Int("photos_to_delete", len(photoPaths)))

	return photoPaths, nil
}
