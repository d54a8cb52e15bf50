package service

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/xhedge/vault-middleware/pkg/partner"
	"github.com/xhedge/vault-middleware/pkg/partnerstore"
)

type mockPartnerStore struct {
	createPartner  func(ctx context.Context, p *partner.Partner, passwordHash string) error
	getPartner     func(ctx context.Context, opts ...partnerstore.QueryOption) (*partner.Partner, error)
	getCredentials func(ctx context.Context, email string) (*partner.Partner, string, error)
	touchLastLogin func(ctx context.Context, id string) error
}

func (m *mockPartnerStore) CreatePartner(ctx context.Context, p *partner.Partner, passwordHash string) error {
	return m.createPartner(ctx, p, passwordHash)
}

func (m *mockPartnerStore) GetPartner(ctx context.Context, opts ...partnerstore.QueryOption) (*partner.Partner, error) {
	return m.getPartner(ctx, opts...)
}

func (m *mockPartnerStore) GetCredentials(ctx context.Context, email string) (*partner.Partner, string, error) {
	return m.getCredentials(ctx, email)
}

func (m *mockPartnerStore) TouchLastLogin(ctx context.Context, id string) error {
	return m.touchLastLogin(ctx, id)
}

// singlePartnerStore backs the service with one fixed partner and password.
func singlePartnerStore(p *partner.Partner, password string) *mockPartnerStore {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}

	return &mockPartnerStore{
		getCredentials: func(_ context.Context, email string) (*partner.Partner, string, error) {
			if email != p.Email {
				return nil, "", partnerstore.ErrPartnerNotFound
			}
			return p, string(hash), nil
		},
		getPartner: func(_ context.Context, opts ...partnerstore.QueryOption) (*partner.Partner, error) {
			options := &partnerstore.QueryOptions{}
			for _, opt := range opts {
				opt(options)
			}
			if options.ID != nil && *options.ID == p.ID {
				return p, nil
			}
			return nil, partnerstore.ErrPartnerNotFound
		},
		touchLastLogin: func(context.Context, string) error { return nil },
	}
}
