// Package partnerstore persists partner accounts and their credentials.
package partnerstore

import (
	"context"
	"errors"

	"github.com/xhedge/vault-middleware/pkg/partner"
)

// ErrPartnerNotFound is returned when a partner lookup finds no matching record.
var ErrPartnerNotFound = errors.New("partner not found")

// Store defines the interface for partner data persistence
type Store interface {
	CreatePartner(ctx context.Context, p *partner.Partner, passwordHash string) error
	GetPartner(ctx context.Context, opts ...QueryOption) (*partner.Partner, error)
	// GetCredentials returns the partner and its password hash for login checks.
	GetCredentials(ctx context.Context, email string) (*partner.Partner, string, error)
	TouchLastLogin(ctx context.Context, id string) error
}

// QueryOptions defines options for querying partners
type QueryOptions struct {
	ID    *string
	Email *string
}

// QueryOption is a functional option for querying partners
type QueryOption func(*QueryOptions)

// WithID sets the partner id filter
func WithID(id string) QueryOption {
	return func(opts *QueryOptions) {
		opts.ID = &id
	}
}

// WithEmail sets the email filter
func WithEmail(email string) QueryOption {
	return func(opts *QueryOptions) {
		opts.Email = &email
	}
}
