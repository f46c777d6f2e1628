package filestorage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yigit/examadmin/internal/pkg/logger"
)

// LocalStorage saves uploads to the local filesystem
type LocalStorage struct {
	basePath string
	now      func() time.Time
}

// NewLocalStorage creates a new LocalStorage rooted at basePath, creating it when missing
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		logger.Error().Err(err).Str("path", basePath).Msg("Failed to create storage directory")
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	logger.Info().Str("path", basePath).Msg("Local storage directory ensured")

	return &LocalStorage{basePath: basePath, now: time.Now}, nil
}

// SaveUpload writes content to <base>/<category>/<yyyy-mm-dd>/<uuid><ext>
func (ls *LocalStorage) SaveUpload(category, originalName string, content []byte) (string, error) {
	category = filepath.Base(filepath.Clean("/" + category))
	if category == "/" || category == "." {
		return "", fmt.Errorf("invalid upload category %q", category)
	}

	rel := filepath.Join(category, ls.now().Format("2006-01-02"))
	dir := filepath.Join(ls.basePath, rel)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Error().Err(err).Str("path", dir).Msg("Failed to create subdirectory")
		return "", fmt.Errorf("failed to create subdirectory: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	if ext == "" {
		ext = ".csv"
	}
	name := uuid.New().String() + ext
	dst := filepath.Join(dir, name)

	if err := os.WriteFile(dst, content, 0o644); err != nil {
		logger.Error().Err(err).Str("path", dst).Msg("Failed to write uploaded file")
		_ = os.Remove(dst)
		return "", fmt.Errorf("failed to save file content: %w", err)
	}

	stored := filepath.ToSlash(filepath.Join(rel, name))
	logger.Info().Str("filename", originalName).Str("stored", stored).Int("bytes", len(content)).Msg("Upload archived")
	return stored, nil
}

// DeleteFile removes a stored file. A missing file is not an error.
func (ls *LocalStorage) DeleteFile(storedPath string) error {
	full := ls.GetFullPath(storedPath)
	if full == "" {
		return fmt.Errorf("invalid file path: %s", storedPath)
	}

	if err := os.Remove(full); err != nil {
		if os.IsNotExist(err) {
			logger.Warn().Str("path", full).Msg("File to delete does not exist")
			return nil
		}
		logger.Error().Err(err).Str("path", full).Msg("Failed to delete file")
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// GetFullPath returns the filesystem path for storedPath, or "" when it escapes the base directory
func (ls *LocalStorage) GetFullPath(storedPath string) string {
	if storedPath == "" {
		return ""
	}
	clean := filepath.Clean(filepath.FromSlash(storedPath))
	if filepath.IsAbs(clean) || clean == "." || strings.HasPrefix(clean, "..") {
		return ""
	}
	return filepath.Join(ls.basePath, clean)
}
