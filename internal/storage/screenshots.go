package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"pb-tracker/internal/config"
	"pb-tracker/internal/constants"
	"pb-tracker/internal/domain"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

const nameAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

var ErrInvalidRef = errors.New("invalid evidence reference")

// ScreenshotStore keeps evidence files on disk under <root>/<boss>[/<difficulty>].
type ScreenshotStore struct {
	root   string
	logger zerolog.Logger
}

func NewScreenshotStore(cfg *config.Config, logger zerolog.Logger) (*ScreenshotStore, error) {
	return NewScreenshotStoreAt(cfg.ScreenshotsPath, logger)
}

func NewScreenshotStoreAt(root string, logger zerolog.Logger) (*ScreenshotStore, error) {
	if err := os.MkdirAll(root, constants.EvidenceDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create screenshot root: %w", err)
	}
	logger.Info().Str("root", root).Msg("screenshot store ready")
	return &ScreenshotStore{root: root, logger: logger}, nil
}

// Name builds a fresh file name from the player, damage, time and extension.
func Name(playerName string, damage int64, at time.Time, ext string) (string, error) {
	suffix, err := gonanoid.Generate(nameAlphabet, constants.EvidenceIDLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate evidence id: %w", err)
	}
	return fmt.Sprintf("%s_%d_%d_%s.%s",
		sanitize(playerName),
		damage,
		at.Unix(),
		suffix,
		strings.TrimPrefix(strings.ToLower(ext), "."),
	), nil
}

// Save writes data under name and returns the reference to store on the record.
// The file is written to a temp name and renamed so readers never see a partial blob.
func (s *ScreenshotStore) Save(ctx context.Context, key domain.PBKey, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := checkRef(name); err != nil {
		return "", err
	}

	dir := s.dir(key)
	if err := os.MkdirAll(dir, constants.EvidenceDirPerm); err != nil {
		return "", fmt.Errorf("failed to create evidence dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp evidence file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write evidence: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to sync evidence: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close evidence: %w", err)
	}
	if err := os.Chmod(tmpName, constants.EvidenceFilePerm); err != nil {
		return "", fmt.Errorf("failed to chmod evidence: %w", err)
	}

	final := filepath.Join(dir, name)
	if err := os.Rename(tmpName, final); err != nil {
		return "", fmt.Errorf("failed to move evidence into place: %w", err)
	}

	s.logger.Debug().
		Str("key", key.String()).
		Str("ref", name).
		Int("bytes", len(data)).
		Msg("evidence stored")
	return name, nil
}

// Delete removes a stored file. A missing file is not an error.
func (s *ScreenshotStore) Delete(key domain.PBKey, ref string) error {
	if ref == "" {
		return nil
	}
	if err := checkRef(ref); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.dir(key), ref))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete evidence %s: %w", ref, err)
	}
	s.logger.Debug().Str("key", key.String()).Str("ref", ref).Msg("evidence deleted")
	return nil
}

func (s *ScreenshotStore) Path(key domain.PBKey, ref string) (string, error) {
	if err := checkRef(ref); err != nil {
		return "", err
	}
	return filepath.Join(s.dir(key), ref), nil
}

func (s *ScreenshotStore) Exists(key domain.PBKey, ref string) bool {
	p, err := s.Path(key, ref)
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

func (s *ScreenshotStore) dir(key domain.PBKey) string {
	if key.Difficulty == "" {
		return filepath.Join(s.root, key.Boss)
	}
	return filepath.Join(s.root, key.Boss, key.Difficulty)
}

func checkRef(ref string) error {
	if ref == "" || ref != filepath.Base(ref) || strings.HasPrefix(ref, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	return nil
}

// sanitize keeps names portable across filesystems.
func sanitize(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "player"
	}
	if len(out) > 32 {
		out = out[:32]
	}
	return out
}
