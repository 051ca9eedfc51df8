// Package video manages the extracted frames of uploaded videos. Each video
// is a directory of frame<N>.jpg files, N counting from 0; its annotation
// files live in the same directory.
package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrNotFound = errors.New("video not found")
	ErrBadName  = errors.New("invalid video name")
)

// Info describes one video's frames.
type Info struct {
	ID          string `json:"id"`
	TotalFrames int    `json:"totalFrames"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}

// Library is the directory tree of extracted frames.
type Library struct {
	dir        string
	ffmpegPath string
}

func NewLibrary(dir, ffmpegPath string) *Library {
	return &Library{dir: dir, ffmpegPath: ffmpegPath}
}

func (l *Library) Dir() string { return l.dir }

// FrameName is the file name of frame n.
func FrameName(n int) string {
	return "frame" + strconv.Itoa(n) + ".jpg"
}

// ValidName reports whether s can be used as a video ID.
func ValidName(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	for _, r := range s {
		if !(r >= 'a' && r <= 'z') && !(r >= 'A' && r <= 'Z') && !(r >= '0' && r <= '9') && r != '-' && r != '_' && r != '.' {
			return false
		}
	}
	return true
}

// SanitizeName turns an upload file name into a video ID: the extension is
// dropped and unsupported characters become '-'.
func SanitizeName(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, base)
}

func (l *Library) path(videoID string) (string, error) {
	if !ValidName(videoID) {
		return "", fmt.Errorf("%q: %w", videoID, ErrBadName)
	}
	return filepath.Join(l.dir, videoID), nil
}

// Info counts the frames of a video and reads the size of its first frame.
func (l *Library) Info(videoID string) (Info, error) {
	dir, err := l.path(videoID)
	if err != nil {
		return Info{}, err
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return Info{}, fmt.Errorf("%s: %w", videoID, ErrNotFound)
	}
	if err != nil {
		return Info{}, fmt.Errorf("read video dir: %w", err)
	}

	info := Info{ID: videoID}
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "frame") && strings.HasSuffix(e.Name(), ".jpg") {
			info.TotalFrames++
		}
	}
	if info.TotalFrames == 0 {
		return info, nil
	}

	f, err := os.Open(filepath.Join(dir, FrameName(0)))
	if err != nil {
		return Info{}, fmt.Errorf("open first frame: %w", err)
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return Info{}, fmt.Errorf("decode first frame: %w", err)
	}
	info.Width, info.Height = cfg.Width, cfg.Height
	return info, nil
}

// List returns the IDs of all videos, sorted.
func (l *Library) List() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read frames dir: %w", err)
	}
	ids := []string{}
	for _, e := range entries {
		if e.IsDir() && ValidName(e.Name()) {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Extract splits the video file at src into frames of a new video named
// videoID and returns its info.
func (l *Library) Extract(ctx context.Context, src, videoID string) (Info, error) {
	dir, err := l.path(videoID)
	if err != nil {
		return Info{}, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Info{}, fmt.Errorf("create video dir: %w", err)
	}

	err = l.runFfmpeg(ctx,
		"-i", src,
		"-start_number", "0",
		"-q:v", "2",
		filepath.Join(dir, "frame%d.jpg"),
	)
	if err != nil {
		return Info{}, err
	}
	return l.Info(videoID)
}

func (l *Library) runFfmpeg(ctx context.Context, args ...string) error {
	// Prepend -y to overwrite output without prompting
	fullArgs := append([]string{"-y"}, args...)
	cmd := exec.CommandContext(ctx, l.ffmpegPath, fullArgs...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg: %v: %s", err, stderr.String())
	}
	return nil
}
