package localdb

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/nantokaworks/safari-raffle/internal/shared/logger"
	"github.com/nantokaworks/safari-raffle/internal/types"
	"go.uber.org/zap"
)

// ParticipantUpdate carries only the fields the caller wants to change.
type ParticipantUpdate struct {
	Name      *string
	Tickets   *int
	PhotoPath *string
}

// AddParticipant creates a new participant.
func AddParticipant(name string, tickets int, animal string, photoPath string) (*types.Participant, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: participant name is required", ErrInvalidInput)
	}
	if tickets < 1 {
		return nil, fmt.Errorf("%w: tickets must be at least 1", ErrInvalidInput)
	}

	res, err := db.Exec(`
		INSERT INTO participants (name, tickets, animal, photo_path)
		VALUES (?, ?, ?, ?)
	`, name, tickets, animal, photoPath)
	if err != nil {
		logger.Error("Failed to add participant", zap.String("name", name), zap.Error(err))
		return nil, fmt.Errorf("failed to add participant: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get participant id: %w", err)
	}

	logger.Info("Participant added",
		zap.Int64("id", id),
		zap.String("name", name),
		zap.Int("tickets", tickets))

	return GetParticipant(id)
}

// GetParticipant returns one participant with its awarded prize names.
func GetParticipant(id int64) (*types.Participant, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	var p types.Participant
	err := db.QueryRow(`
		SELECT id, name, tickets, animal, COALESCE(photo_path, ''), created_at
		FROM participants
		WHERE id = ?
	`, id).Scan(&p.ID, &p.Name, &p.Tickets, &p.Animal, &p.PhotoPath, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: participant %d", ErrNotFound, id)
	}
	if err != nil {
		logger.Error("Failed to get participant", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}

	prizes, err := awardedPrizeNames(db, id)
	if err != nil {
		return nil, err
	}
	p.Prizes = prizes

	return &p, nil
}

// GetParticipants returns all participants, newest first, each with its
// awarded prize names in award order.
func GetParticipants() ([]types.Participant, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	rows, err := db.Query(`
		SELECT id, name, tickets, animal, COALESCE(photo_path, ''), created_at
		FROM participants
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		logger.Error("Failed to query participants", zap.Error(err))
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	defer rows.Close()

	participants := []types.Participant{}
	for rows.Next() {
		var p types.Participant
		if err := rows.Scan(&p.ID, &p.Name, &p.Tickets, &p.Animal, &p.PhotoPath, &p.CreatedAt); err != nil {
			logger.Error("Failed to scan participant", zap.Error(err))
			continue
		}
		p.Prizes = []string{}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}

	// Prize names are joined per participant instead of string-concatenated
	// in SQL, so names containing commas survive intact.
	names, err := allAwardedPrizeNames(db)
	if err != nil {
		return nil, err
	}
	for i := range participants {
		if won, ok := names[participants[i].ID]; ok {
			participants[i].Prizes = won
		}
	}

	return participants, nil
}

// UpdateParticipant applies a partial update. Only supplied fields change.
func UpdateParticipant(id int64, update ParticipantUpdate) (*types.Participant, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return nil, fmt.Errorf("%w: participant name is required", ErrInvalidInput)
	}
	if update.Tickets != nil && *update.Tickets < 1 {
		return nil, fmt.Errorf("%w: tickets must be at least 1", ErrInvalidInput)
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int64
	err = tx.QueryRow(`SELECT id FROM participants WHERE id = ?`, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: participant %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up participant: %w", err)
	}

	setClauses := []string{}
	args := []interface{}{}
	if update.Name != nil {
		setClauses = append(setClauses, "name = ?")
		args = append(args, *update.Name)
	}
	if update.Tickets != nil {
		var awarded int
		if err := tx.QueryRow(`
			SELECT COUNT(*) FROM participant_prizes WHERE participant_id = ?
		`, id).Scan(&awarded); err != nil {
			return nil, fmt.Errorf("failed to count awarded prizes: %w", err)
		}
		if awarded > *update.Tickets {
			return nil, fmt.Errorf("%w: cannot reduce tickets below number of prizes won", ErrInvalidState)
		}
		setClauses = append(setClauses, "tickets = ?")
		args = append(args, *update.Tickets)
	}
	if update.PhotoPath != nil {
		setClauses = append(setClauses, "photo_path = ?")
		args = append(args, *update.PhotoPath)
	}

	if len(setClauses) > 0 {
		args = append(args, id)
		query := "UPDATE participants SET " + strings.Join(setClauses, ", ") + " WHERE id = ?"
		if _, err := tx.Exec(query, args...); err != nil {
			logger.Error("Failed to update participant", zap.Int64("id", id), zap.Error(err))
			return nil, fmt.Errorf("failed to update participant: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit participant update: %w", err)
	}

	logger.Info("Participant updated", zap.Int64("id", id))

	return GetParticipant(id)
}

// DeleteParticipant removes a participant and all its award links in one
// transaction. The stored photo reference is returned so the caller can
// clean up the file.
func DeleteParticipant(id int64) (string, error) {
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
		SELECT COALESCE(photo_path, '') FROM participants WHERE id = ?
	`, id).Scan(&photoPath)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%w: participant %d", ErrNotFound, id)
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up participant: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM participant_prizes WHERE participant_id = ?`, id); err != nil {
		logger.Error("Failed to delete award links", zap.Int64("participant_id", id), zap.Error(err))
		return "", fmt.Errorf("failed to delete award links: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM participants WHERE id = ?`, id); err != nil {
		logger.Error("Failed to delete participant", zap.Int64("id", id), zap.Error(err))
		return "", fmt.Errorf("failed to delete participant: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit participant delete: %w", err)
	}

	logger.Info("Participant deleted", zap.Int64("id", id))

	return photoPath, nil
}

// awardedPrizeNames returns one participant's prize names in award order.
func awardedPrizeNames(db *sql.DB, participantID int64) ([]string, error) {
	rows, err := db.Query(`
		SELECT ap.name
		FROM participant_prizes pr
		JOIN prizes ap ON pr.prize_id = ap.id
		WHERE pr.participant_id = ?
		ORDER BY pr.created_at ASC, pr.id ASC
	`, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query awarded prizes: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan prize name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate awarded prizes: %w", err)
	}
	return names, nil
}

// allAwardedPrizeNames returns award-ordered prize names per participant id.
func allAwardedPrizeNames(db *sql.DB) (map[int64][]string, error) {
	rows, err := db.Query(`
		SELECT pr.participant_id, ap.name
		FROM participant_prizes pr
		JOIN prizes ap ON pr.prize_id = ap.id
		ORDER BY pr.created_at ASC, pr.id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query awarded prizes: %w", err)
	}
	defer rows.Close()

	names := map[int64][]string{}
	for rows.Next() {
		var participantID int64
		var name string
		if err := rows.Scan(&participantID, &name); err != nil {
			return nil, fmt.Errorf("failed to scan awarded prize: %w", err)
		}
		names[participantID] = append(names[participantID], name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate awarded prizes: %w", err)
	}
	return names, nil
}
