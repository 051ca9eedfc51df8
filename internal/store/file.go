package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/osu-uwrt/data-collection-webapp/internal/annotation"
	"github.com/osu-uwrt/data-collection-webapp/internal/codec"
)

// FileStore keeps annotation files next to the extracted frames of each
// video: <dir>/<videoID>/boxes.json and <dir>/<videoID>/polygons.json.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) path(videoID string, kind annotation.Kind) string {
	return filepath.Join(s.dir, videoID, codec.FileName(kind))
}

func (s *FileStore) Load(_ context.Context, videoID string, kind annotation.Kind) ([]byte, error) {
	if err := checkKey(videoID, kind); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(videoID, kind))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s/%s: %w", videoID, kind, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s annotations: %w", kind, err)
	}
	return data, nil
}

// Save writes through a temporary file so a crash never leaves a truncated
// annotation file behind.
func (s *FileStore) Save(_ context.Context, videoID string, kind annotation.Kind, data []byte) error {
	if err := checkKey(videoID, kind); err != nil {
		return err
	}
	dst := s.path(videoID, kind)
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("create video dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".annotations-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s annotations: %w", kind, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("replace %s annotations: %w", kind, err)
	}
	return nil
}
