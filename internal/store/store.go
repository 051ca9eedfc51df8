// Package store persists annotation files, one per video and shape kind.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/osu-uwrt/data-collection-webapp/internal/annotation"
)

var (
	ErrNotFound    = errors.New("annotation file not found")
	ErrBadVideoID  = errors.New("invalid video id")
	ErrUnknownKind = errors.New("unknown shape kind")
	ErrNoHistory   = errors.New("store does not keep versions")
)

// Store loads and saves the persisted JSON of one layer. Data is opaque to
// the store.
type Store interface {
	Load(ctx context.Context, videoID string, kind annotation.Kind) ([]byte, error)
	Save(ctx context.Context, videoID string, kind annotation.Kind, data []byte) error
}

// Versioned is implemented by stores that keep every save.
type Versioned interface {
	History(ctx context.Context, videoID string, kind annotation.Kind) ([]Version, error)
}

func checkKey(videoID string, kind annotation.Kind) error {
	if videoID == "" || videoID == "." || videoID == ".." || strings.ContainsAny(videoID, `/\`) {
		return fmt.Errorf("%q: %w", videoID, ErrBadVideoID)
	}
	if kind != annotation.KindBox && kind != annotation.KindPolygon {
		return fmt.Errorf("%q: %w", kind, ErrUnknownKind)
	}
	return nil
}
