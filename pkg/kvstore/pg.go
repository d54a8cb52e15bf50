package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// EntryDao is a data access object that maps directly to the 'kv_entries'
// table in PostgreSQL.
type EntryDao struct {
	bun.BaseModel `bun:"table:kv_entries,alias:kv"`
	Key           string    `bun:"key,pk,type:varchar(255)"`
	Value         string    `bun:"value,notnull,type:text"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,default:current_timestamp"`
}

type pgStore struct {
	db *bun.DB
}

// NewStore creates a new postgres implementation of the key/value store
func NewStore(db *bun.DB) Store {
	return &pgStore{db: db}
}

func (s *pgStore) Get(ctx context.Context, key string) (string, error) {
	dao := new(EntryDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("key = ?", key).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrKeyNotFound
		}
		return "", fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return dao.Value, nil
}

func (s *pgStore) Set(ctx context.Context, key, value string) error {
	dao := &EntryDao{Key: key, Value: value, UpdatedAt: time.Now()}
	_, err := s.db.NewInsert().
		Model(dao).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value, updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return nil
}

func (s *pgStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.NewDelete().
		Model((*EntryDao)(nil)).
		Where("key = ?", key).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}
