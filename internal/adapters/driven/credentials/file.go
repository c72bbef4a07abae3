// Package credentials provides sources that obtain portal access tokens
// for session construction. Sources are composable: a file written by an
// external collector is tried first, with a collector command as fallback.
package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/kirillbelykh/kontur-api/internal/core/domain"
	"github.com/kirillbelykh/kontur-api/internal/core/ports"
)

// FileSource loads credential tokens from a local JSON or YAML file.
// The file holds a flat name-to-value object, the format the browser
// collector writes.
type FileSource struct {
	path   string
	logger *zap.Logger
}

// NewFileSource creates a file-based credential source.
func NewFileSource(path string, logger *zap.Logger) *FileSource {
	return &FileSource{path: path, logger: logger}
}

// Path returns the file the source reads from.
func (s *FileSource) Path() string {
	return s.path
}

// Fetch reads and parses the credentials file. The capture time is the
// file's modification time, so callers can judge how old the tokens are.
func (s *FileSource) Fetch(ctx context.Context) (domain.CredentialSet, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return domain.CredentialSet{}, fmt.Errorf("read credentials file: %w", err)
	}

	var tokens map[string]string
	ext := strings.ToLower(filepath.Ext(s.path))
	if ext == ".yaml" || ext == ".yml" {
		if err := yaml.Unmarshal(data, &tokens); err != nil {
			return domain.CredentialSet{}, fmt.Errorf("parse YAML credentials file: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, &tokens); err != nil {
			return domain.CredentialSet{}, fmt.Errorf("parse JSON credentials file: %w", err)
		}
	}

	capturedAt := time.Now()
	if info, err := os.Stat(s.path); err == nil {
		capturedAt = info.ModTime()
	}

	if s.logger != nil {
		s.logger.Debug("loaded credentials file",
			zap.String("path", s.path),
			zap.Int("tokens", len(tokens)),
			zap.Time("captured_at", capturedAt))
	}

	return domain.NewCredentialSet(tokens, capturedAt), nil
}

// Watch invokes onChange whenever the credentials file is rewritten.
// The parent directory is watched rather than the file itself so that
// atomic replace-by-rename updates are caught. Watching stops when ctx
// is cancelled.
func (s *FileSource) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}

	watchDir, _ := filepath.Split(s.path)
	if watchDir == "" {
		watchDir = "."
	}
	if err := watcher.Add(watchDir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", watchDir, err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(s.path) {
					continue
				}
				if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
					continue
				}
				if s.logger != nil {
					s.logger.Debug("credentials file changed",
						zap.String("path", s.path),
						zap.String("op", event.Op.String()))
				}
				onChange()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				if s.logger != nil {
					s.logger.Warn("credentials file watcher error", zap.Error(err))
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Ensure FileSource implements ports.CredentialSource
var _ ports.CredentialSource = (*FileSource)(nil)
var _ ports.CredentialWatcher = (*FileSource)(nil)
