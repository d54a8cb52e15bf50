// Package prefs stores operator UI preferences in the key/value store, with
// sensible defaults for a first run.
package prefs

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/xhedge/vault-middleware/pkg/kvstore"
	"github.com/xhedge/vault-middleware/pkg/network"
)

// Preference keys in the kv store.
const (
	keyNetwork         = "pref_network"
	keyCurrency        = "pref_currency"
	keyTermsAccepted   = "pref_terms_accepted"
	keyPrivacyAccepted = "pref_privacy_accepted"
	keyTourCompleted   = "pref_tour_completed"
)

// Preferences is the operator-facing settings bundle.
type Preferences struct {
	Network         string `json:"network"`
	Currency        string `json:"currency"`
	TermsAccepted   bool   `json:"termsAccepted"`
	PrivacyAccepted bool   `json:"privacyAccepted"`
	TourCompleted   bool   `json:"tourCompleted"`
}

// Service reads and writes preferences. Missing keys resolve to defaults, so
// a fresh deployment needs no seeding.
type Service struct {
	kv       kvstore.Store
	defaults Preferences
}

func NewService(kv kvstore.Store, defaultNetwork network.ID) *Service {
	return &Service{
		kv: kv,
		defaults: Preferences{
			Network:  string(defaultNetwork),
			Currency: "USD",
		},
	}
}

// Get assembles the current preferences.
func (s *Service) Get(ctx context.Context) (*Preferences, error) {
	p := s.defaults

	var err error
	if p.Network, err = s.getString(ctx, keyNetwork, p.Network); err != nil {
		return nil, err
	}
	if p.Currency, err = s.getString(ctx, keyCurrency, p.Currency); err != nil {
		return nil, err
	}
	if p.TermsAccepted, err = s.getBool(ctx, keyTermsAccepted); err != nil {
		return nil, err
	}
	if p.PrivacyAccepted, err = s.getBool(ctx, keyPrivacyAccepted); err != nil {
		return nil, err
	}
	if p.TourCompleted, err = s.getBool(ctx, keyTourCompleted); err != nil {
		return nil, err
	}
	return &p, nil
}

// Update persists the full bundle.
func (s *Service) Update(ctx context.Context, p *Preferences) error {
	entries := map[string]string{
		keyNetwork:         p.Network,
		keyCurrency:        p.Currency,
		keyTermsAccepted:   strconv.FormatBool(p.TermsAccepted),
		keyPrivacyAccepted: strconv.FormatBool(p.PrivacyAccepted),
		keyTourCompleted:   strconv.FormatBool(p.TourCompleted),
	}
	for key, value := range entries {
		if err := s.kv.Set(ctx, key, value); err != nil {
			return fmt.Errorf("store preference %s: %w", key, err)
		}
	}
	return nil
}

func (s *Service) getString(ctx context.Context, key, fallback string) (string, error) {
	value, err := s.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, kvstore.ErrKeyNotFound) {
			return fallback, nil
		}
		return "", fmt.Errorf("read preference %s: %w", key, err)
	}
	return value, nil
}

func (s *Service) getBool(ctx context.Context, key string) (bool, error) {
	value, err := s.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, kvstore.ErrKeyNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("read preference %s: %w", key, err)
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		// Treat a mangled flag as unset rather than failing the whole read.
		return false, nil
	}
	return parsed, nil
}
