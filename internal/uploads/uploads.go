package uploads

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/nantokaworks/safari-raffle/internal/shared/logger"
	"github.com/nantokaworks/safari-raffle/internal/shared/paths"
	"go.uber.org/zap"
)

// Kind selects which upload directory a photo belongs to.
type Kind string

const (
	KindParticipant Kind = "participants"
	KindPrize       Kind = "prizes"
)

var (
	ErrInvalidFormat = errors.New("unsupported image format")
	ErrInvalidImage  = errors.New("invalid image data")
)

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

func dirFor(kind Kind) string {
	if kind == KindPrize {
		return paths.GetPrizePhotosDir()
	}
	return paths.GetParticipantPhotosDir()
}

// refFor builds the opaque reference stored in the database and served over
// HTTP. The store never interprets it.
func refFor(kind Kind, filename string) string {
	return fmt.Sprintf("/api/uploads/%s/%s", kind, filename)
}

// SaveFile persists an uploaded image and returns its reference.
func SaveFile(kind Kind, originalName string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("%w: %s", ErrInvalidFormat, ext)
	}

	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("failed to generate file id: %w", err)
	}
	filename := id + ext

	dst, err := os.Create(filepath.Join(dirFor(kind), filename))
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		return "", fmt.Errorf("failed to write upload file: %w", err)
	}

	logger.Debug("Photo saved",
		zap.String("kind", string(kind)),
		zap.String("filename", filename))

	return refFor(kind, filename), nil
}

// SaveBase64 decodes a base64 image (optionally a data URL from a webcam
// capture) and persists it as a JPEG.
func SaveBase64(kind Kind, data string) (string, error) {
	// Strip the data URL header if present.
	if idx := strings.Index(data, ","); idx >= 0 {
		data = data[idx+1:]
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if len(raw) == 0 {
		return "", ErrInvalidImage
	}

	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("failed to generate file id: %w", err)
	}
	filename := id + ".jpg"

	if err := os.WriteFile(filepath.Join(dirFor(kind), filename), raw, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image file: %w", err)
	}

	logger.Debug("Base64 photo saved",
		zap.String("kind", string(kind)),
		zap.String("filename", filename))

	return refFor(kind, filename), nil
}

// FilePath resolves a stored reference back to the file on disk. Only the
// base name is used, so references cannot escape the upload directories.
func FilePath(ref string) (string, bool) {
	name := filepath.Base(ref)
	if name == "." || name == "/" {
		return "", false
	}

	var kind Kind
	switch {
	case strings.Contains(ref, "/uploads/participants/"):
		kind = KindParticipant
	case strings.Contains(ref, "/uploads/prizes/"):
		kind = KindPrize
	default:
		return "", false
	}

	return filepath.Join(dirFor(kind), name), true
}

// Delete removes the file behind a reference. A missing file is not an
// error; cleanup is best effort.
func Delete(ref string) {
	if ref == "" {
		return
	}
	path, ok := FilePath(ref)
	if !ok {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Warn("Failed to delete photo", zap.String("path", path), zap.Error(err))
	}
}

// DeleteAll removes the files behind every given reference.
func DeleteAll(refs []string) {
	for _, ref := range refs {
		Delete(ref)
	}
}
