package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osu-uwrt/data-collection-webapp/internal/annotation"
	"github.com/osu-uwrt/data-collection-webapp/internal/typeid"
)

// Postgres keeps every save as a new version row in annotation_files and
// loads the latest one.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Version describes one saved revision of an annotation file.
type Version struct {
	ID        string    `json:"id"`
	Version   int32     `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *Postgres) Load(ctx context.Context, videoID string, kind annotation.Kind) ([]byte, error) {
	if err := checkKey(videoID, kind); err != nil {
		return nil, err
	}
	var data []byte
	err := s.pool.QueryRow(ctx, `
		SELECT data FROM annotation_files
		WHERE video_id = $1 AND kind = $2
		ORDER BY version DESC
		LIMIT 1`, videoID, string(kind)).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s/%s: %w", videoID, kind, ErrNotFound)
		}
		return nil, fmt.Errorf("load %s annotations: %w", kind, err)
	}
	return data, nil
}

func (s *Postgres) Save(ctx context.Context, videoID string, kind annotation.Kind, data []byte) error {
	if err := checkKey(videoID, kind); err != nil {
		return err
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var current int32
		err := tx.QueryRow(ctx, `
			SELECT COALESCE(MAX(version), 0) FROM annotation_files
			WHERE video_id = $1 AND kind = $2`, videoID, string(kind)).Scan(&current)
		if err != nil {
			return fmt.Errorf("get current version: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO annotation_files (id, video_id, kind, version, data)
			VALUES ($1, $2, $3, $4, $5)`,
			typeid.NewAnnotationFileID(), videoID, string(kind), current+1, data)
		if err != nil {
			return fmt.Errorf("insert version %d: %w", current+1, err)
		}
		return nil
	})
}

// History lists the saved versions of a file, newest first.
func (s *Postgres) History(ctx context.Context, videoID string, kind annotation.Kind) ([]Version, error) {
	if err := checkKey(videoID, kind); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, version, created_at FROM annotation_files
		WHERE video_id = $1 AND kind = $2
		ORDER BY version DESC`, videoID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	versions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Version, error) {
		var v Version
		err := row.Scan(&v.ID, &v.Version, &v.CreatedAt)
		return v, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan versions: %w", err)
	}
	return versions, nil
}
