package localdb

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/nantokaworks/safari-raffle/internal/shared/logger"
	"go.uber.org/zap"
)

var DBClient *sql.DB

// SetupDB opens the raffle database and creates all tables.
func SetupDB(dbPath string) (*sql.DB, error) {
	if DBClient != nil {
		return DBClient, nil
	}

	// WALモードとBusy Timeoutを設定（Race Condition対策）
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	// SQLiteは単一ライターなので接続プールを1に制限
	db.SetMaxOpenConns(1)

	DBClient = db

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS participants (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		tickets INTEGER NOT NULL,
		animal TEXT NOT NULL,
		photo_path TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		logger.Error("Failed to create participants table", zap.Error(err))
		return nil, fmt.Errorf("failed to create participants table: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS prizes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		photo_path TEXT NOT NULL DEFAULT '',
		quantity INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		logger.Error("Failed to create prizes table", zap.Error(err))
		return nil, fmt.Errorf("failed to create prizes table: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS participant_prizes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		participant_id INTEGER NOT NULL,
		prize_id INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (participant_id) REFERENCES participants (id),
		FOREIGN KEY (prize_id) REFERENCES prizes (id)
	)`); err != nil {
		logger.Error("Failed to create participant_prizes table", zap.Error(err))
		return nil, fmt.Errorf("failed to create participant_prizes table: %w", err)
	}

	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_participant_prizes_participant
		ON participant_prizes(participant_id, created_at)`); err != nil {
		logger.Warn("Failed to create participant_prizes index", zap.Error(err))
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		logger.Error("Failed to create settings table", zap.Error(err))
		return nil, fmt.Errorf("failed to create settings table: %w", err)
	}

	if _, err := db.Exec(`INSERT OR IGNORE INTO settings (key, value) VALUES
		('auto_prize_selection', 'true'),
		('allow_multiple_wins', 'true')`); err != nil {
		logger.Error("Failed to insert default settings", zap.Error(err))
		return nil, fmt.Errorf("failed to insert default settings: %w", err)
	}

	return db, nil
}

// GetDB は現在のデータベース接続を返します
func GetDB() *sql.DB {
	return DBClient
}

// CloseDB closes the database connection.
func CloseDB() {
	if DBClient != nil {
		if err := DBClient.Close(); err != nil {
			logger.Error("Failed to close database", zap.Error(err))
		}
		DBClient = nil
	}
}
