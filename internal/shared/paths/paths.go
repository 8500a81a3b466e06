package paths

import (
	"os"
	"path/filepath"
)

// DataDir is the root for everything the server persists.
// Overridable via the DATA_DIR environment variable.
var DataDir = "./data"

func init() {
	if dir := os.Getenv("DATA_DIR"); dir != "" {
		DataDir = dir
	}
}

// GetDBPath returns the sqlite database file path.
func GetDBPath() string {
	return filepath.Join(DataDir, "raffle.db")
}

// GetUploadsDir returns the root directory for uploaded photos.
func GetUploadsDir() string {
	return filepath.Join(DataDir, "uploads")
}

// GetParticipantPhotosDir returns the directory for participant photos.
func GetParticipantPhotosDir() string {
	return filepath.Join(GetUploadsDir(), "participants")
}

// GetPrizePhotosDir returns the directory for prize photos.
func GetPrizePhotosDir() string {
	return filepath.Join(GetUploadsDir(), "prizes")
}

// EnsureDataDirs creates all data directories if they do not exist.
func EnsureDataDirs() error {
	dirs := []string{
		DataDir,
		GetUploadsDir(),
		GetParticipantPhotosDir(),
		GetPrizePhotosDir(),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}
