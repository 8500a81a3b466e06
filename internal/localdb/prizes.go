package localdb

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/nantokaworks/safari-raffle/internal/shared/logger"
	"github.com/nantokaworks/safari-raffle/internal/types"
	"go.uber.org/zap"
)

// PrizeUpdate carries only the fields the caller wants to change.
type PrizeUpdate struct {
	Name        *string
	Description *string
	PhotoPath   *string
	Quantity    *int
}

// AddPrize adds a prize to the pool.
func AddPrize(name, description, photoPath string, quantity int) (*types.Prize, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: prize name is required", ErrInvalidInput)
	}
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", ErrInvalidInput)
	}

	res, err := db.Exec(`
		INSERT INTO prizes (name, description, photo_path, quantity)
		VALUES (?, ?, ?, ?)
	`, name, description, photoPath, quantity)
	if err != nil {
		logger.Error("Failed to add prize", zap.String("name", name), zap.Error(err))
		return nil, fmt.Errorf("failed to add prize: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get prize id: %w", err)
	}

	logger.Info("Prize added",
		zap.Int64("id", id),
		zap.String("name", name),
		zap.Int("quantity", quantity))

	return GetPrize(id)
}

// GetPrize returns one prize with its computed remaining count and winners.
func GetPrize(id int64) (*types.Prize, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	var p types.Prize
	var awarded int
	err := db.QueryRow(`
		SELECT id, name, COALESCE(description, ''), COALESCE(photo_path, ''), quantity, created_at,
			(SELECT COUNT(*) FROM participant_prizes WHERE prize_id = prizes.id)
		FROM prizes
		WHERE id = ?
	`, id).Scan(&p.ID, &p.Name, &p.Description, &p.PhotoPath, &p.Quantity, &p.CreatedAt, &awarded)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: prize %d", ErrNotFound, id)
	}
	if err != nil {
		logger.Error("Failed to get prize", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get prize: %w", err)
	}
	p.Remaining = p.Quantity - awarded

	winners, err := prizeWinnerNames(db, id)
	if err != nil {
		return nil, err
	}
	p.Winners = winners

	return &p, nil
}

// GetPrizes returns all prizes, newest first.
func GetPrizes() ([]types.Prize, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	rows, err := db.Query(`
		SELECT id, name, COALESCE(description, ''), COALESCE(photo_path, ''), quantity, created_at,
			(SELECT COUNT(*) FROM participant_prizes WHERE prize_id = prizes.id)
		FROM prizes
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		logger.Error("Failed to query prizes", zap.Error(err))
		return nil, fmt.Errorf("failed to query prizes: %w", err)
	}
	defer rows.Close()

	prizes := []types.Prize{}
	for rows.Next() {
		var p types.Prize
		var awarded int
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.PhotoPath, &p.Quantity, &p.CreatedAt, &awarded); err != nil {
			logger.Error("Failed to scan prize", zap.Error(err))
			continue
		}
		p.Remaining = p.Quantity - awarded
		p.Winners = []string{}
		prizes = append(prizes, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate prizes: %w", err)
	}

	winners, err := allPrizeWinnerNames(db)
	if err != nil {
		return nil, err
	}
	for i := range prizes {
		if won, ok := winners[prizes[i].ID]; ok {
			prizes[i].Winners = won
		}
	}

	return prizes, nil
}

// UpdatePrize applies a partial update. Reducing quantity below the number
// of already-awarded units fails with ErrInvalidState.
func UpdatePrize(id int64, update PrizeUpdate) (*types.Prize, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return nil, fmt.Errorf("%w: prize name is required", ErrInvalidInput)
	}
	if update.Quantity != nil && *update.Quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", ErrInvalidInput)
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int64
	err = tx.QueryRow(`SELECT id FROM prizes WHERE id = ?`, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: prize %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up prize: %w", err)
	}

	setClauses := []string{}
	args := []interface{}{}
	if update.Name != nil {
		setClauses = append(setClauses, "name = ?")
		args = append(args, *update.Name)
	}
	if update.Description != nil {
		setClauses = append(setClauses, "description = ?")
		args = append(args, *update.Description)
	}
	if update.PhotoPath != nil {
		setClauses = append(setClauses, "photo_path = ?")
		args = append(args, *update.PhotoPath)
	}
	if update.Quantity != nil {
		var awarded int
		if err := tx.QueryRow(`
			SELECT COUNT(*) FROM participant_prizes WHERE prize_id = ?
		`, id).Scan(&awarded); err != nil {
			return nil, fmt.Errorf("failed to count awarded units: %w", err)
		}
		if awarded > *update.Quantity {
			return nil, fmt.Errorf("%w: cannot reduce quantity below number of assigned prizes", ErrInvalidState)
		}
		setClauses = append(setClauses, "quantity = ?")
		args = append(args, *update.Quantity)
	}

	if len(setClauses) > 0 {
		args = append(args, id)
		query := "UPDATE prizes SET " + strings.Join(setClauses, ", ") + " WHERE id = ?"
		if _, err := tx.Exec(query, args...); err != nil {
			logger.Error("Failed to update prize", zap.Int64("id", id), zap.Error(err))
			return nil, fmt.Errorf("failed to update prize: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit prize update: %w", err)
	}

	logger.Info("Prize updated", zap.Int64("id", id))

	return GetPrize(id)
}

// RemovePrize deletes a prize from the pool. A prize with any award link
// cannot be removed. The stored photo reference is returned for cleanup.
func RemovePrize(id int64) (string, error) {
	db := GetDB()
	if db == nil {
		return "", fmt.Errorf("database not initialized")
	}

	tx, err := db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var photoPath string
	err = tx.QueryRow(`
		SELECT COALESCE(photo_path, '') FROM prizes WHERE id = ?
	`, id).Scan(&photoPath)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%w: prize %d", ErrNotFound, id)
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up prize: %w", err)
	}

	var awarded int
	if err := tx.QueryRow(`
		SELECT COUNT(*) FROM participant_prizes WHERE prize_id = ?
	`, id).Scan(&awarded); err != nil {
		return "", fmt.Errorf("failed to count awarded units: %w", err)
	}
	if awarded > 0 {
		return "", fmt.Errorf("%w: cannot remove prize that is assigned to a participant", ErrInvalidState)
	}

	if _, err := tx.Exec(`DELETE FROM prizes WHERE id = ?`, id); err != nil {
		logger.Error("Failed to delete prize", zap.Int64("id", id), zap.Error(err))
		return "", fmt.Errorf("failed to delete prize: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit prize delete: %w", err)
	}

	logger.Info("Prize removed", zap.Int64("id", id))

	return photoPath, nil
}

func prizeWinnerNames(db *sql.DB, prizeID int64) ([]string, error) {
	rows, err := db.Query(`
		SELECT p.name
		FROM participant_prizes pr
		JOIN participants p ON pr.participant_id = p.id
		WHERE pr.prize_id = ?
		ORDER BY pr.created_at ASC, pr.id ASC
	`, prizeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query prize winners: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan winner name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate prize winners: %w", err)
	}
	return names, nil
}

func allPrizeWinnerNames(db *sql.DB) (map[int64][]string, error) {
	rows, err := db.Query(`
		SELECT pr.prize_id, p.name
		FROM participant_prizes pr
		JOIN participants p ON pr.participant_id = p.id
		ORDER BY pr.created_at ASC, pr.id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query prize winners: %w", err)
	}
	defer rows.Close()

	names := map[int64][]string{}
	for rows.Next() {
		var prizeID int64
		var name string
		if err := rows.Scan(&prizeID, &name); err != nil {
			return nil, fmt.Errorf("failed to scan prize winner: %w", err)
		}
		names[prizeID] = append(names[prizeID], name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate prize winners: %w", err)
	}
	return names, nil
}
