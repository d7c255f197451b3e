package imagestore

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const refPrefix = "img:"

// PG stores image blobs in Postgres and hands out "img:<uuid>"
// references.
type PG struct {
	db *pgxpool.Pool
}

func NewPG(db *pgxpool.Pool) *PG {
	return &PG{db: db}
}

// EnsureSchema creates the images table if it is missing.
func (s *PG) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS images (
			id UUID PRIMARY KEY,
			content_type TEXT NOT NULL,
			data BYTEA NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	return err
}

func (s *PG) Put(ctx context.Context, data []byte, contentType string) (string, error) {
	id := uuid.New()
	_, err := s.db.Exec(ctx,
		`INSERT INTO images (id, content_type, data) VALUES ($1, $2, $3)`,
		id, contentType, data)
	if err != nil {
		return "", err
	}
	return refPrefix + id.String(), nil
}

func (s *PG) Get(ctx context.Context, ref string) ([]byte, string, error) {
	idStr, ok := strings.CutPrefix(ref, refPrefix)
	if !ok {
		return nil, "", ErrNotFound
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, "", ErrNotFound
	}

	var data []byte
	var contentType string
	err = s.db.QueryRow(ctx,
		`SELECT data, content_type FROM images WHERE id = $1`, id).
		Scan(&data, &contentType)
	if err == pgx.ErrNoRows {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", err
	}
	return data, contentType, nil
}
