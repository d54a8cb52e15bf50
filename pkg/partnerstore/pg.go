package partnerstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/xhedge/vault-middleware/pkg/partner"
)

type pgStore struct {
	db *bun.DB
}

// NewStore creates a new postgres implementation of the partner store
func NewStore(db *bun.DB) Store {
	return &pgStore{db: db}
}

func (s *pgStore) CreatePartner(ctx context.Context, p *partner.Partner, passwordHash string) error {
	dao := toPartnerDao(p, passwordHash)

	_, err := s.db.NewInsert().
		Model(dao).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create partner: %w", err)
	}

	return nil
}

func (s *pgStore) GetPartner(ctx context.Context, opts ...QueryOption) (*partner.Partner, error) {
	dao, err := s.getDao(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return toPartner(dao), nil
}

func (s *pgStore) GetCredentials(ctx context.Context, email string) (*partner.Partner, string, error) {
	dao, err := s.getDao(ctx, WithEmail(email))
	if err != nil {
		return nil, "", err
	}
	return toPartner(dao), dao.PasswordHash, nil
}

func (s *pgStore) TouchLastLogin(ctx context.Context, id string) error {
	now := time.Now()
	_, err := s.db.NewUpdate().
		Model((*PartnerDao)(nil)).
		Set("last_login_at = ?", now).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

func (s *pgStore) getDao(ctx context.Context, opts ...QueryOption) (*PartnerDao, error) {
	options := &QueryOptions{}
	for _, opt := range opts {
		opt(options)
	}

	query := s.db.NewSelect().Model(new(PartnerDao))
	switch {
	case options.ID != nil:
		query = query.Where("id = ?", *options.ID)
	case options.Email != nil:
		query = query.Where("lower(email) = lower(?)", *options.Email)
	default:
		return nil, fmt.Errorf("no query filter provided")
	}

	dao := new(PartnerDao)
	if err := query.Scan(ctx, dao); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPartnerNotFound
		}
		return nil, fmt.Errorf("failed to query partner: %w", err)
	}
	return dao, nil
}
