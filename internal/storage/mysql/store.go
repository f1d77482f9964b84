package mysql

import (
	"context"
	"database/sql"
	"errors"
)

// Store is a KeyValueStore backed by a single MySQL table.
type Store struct{ db *sql.DB }

func New(db *sql.DB) *Store { return &Store{db: db} }

// Migrate creates the kv table when missing.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, createKVSQL)
	return err
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var v []byte
	if err := s.db.QueryRowContext(ctx, getKVSQL, key).Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return v, true, nil
}

func (s *Store) Set(ctx context.Context, key string, blob []byte) error {
	_, err := s.db.ExecContext(ctx, upsertKVSQL, key, blob)
	return err
}

func (s *Store) Del(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, deleteKVSQL, key)
	return err
}
