// Package service implements partner authentication: login, the durable
// session record, expiry and logout.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/xhedge/vault-middleware/internal/metrics"
	"github.com/xhedge/vault-middleware/pkg/auth"
	"github.com/xhedge/vault-middleware/pkg/kvstore"
	"github.com/xhedge/vault-middleware/pkg/partner"
	"github.com/xhedge/vault-middleware/pkg/partnerstore"
)

var (
	// ErrInvalidCredentials covers both unknown emails and wrong passwords;
	// callers must not be able to tell the two apart.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrLoginInProgress    = errors.New("a login attempt is already in progress")
	ErrNotAuthenticated   = errors.New("no active partner session")
)

// sessionKey is where the durable session record lives in the kv store.
const sessionKey = "partner_auth"

// sessionRecord is the persisted session: who logged in and when. The age
// check runs against IssuedAt on every restore.
type sessionRecord struct {
	SubjectID string    `json:"subjectId"`
	IssuedAt  time.Time `json:"issuedAt"`
}

// Service owns partner authentication.
type Service struct {
	store  partnerstore.Store
	kv     kvstore.Store
	tokens *auth.TokenIssuer
	maxAge time.Duration
	logger *zap.Logger
	now    func() time.Time

	mu              sync.Mutex
	loginInProgress bool
}

func New(store partnerstore.Store, kv kvstore.Store, tokens *auth.TokenIssuer, maxAge time.Duration, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		kv:     kv,
		tokens: tokens,
		maxAge: maxAge,
		logger: logger,
		now:    time.Now,
	}
}

// Login verifies credentials and establishes the session. Concurrent login
// attempts are rejected, not queued.
func (s *Service) Login(ctx context.Context, email, password string) (*partner.Partner, string, error) {
	if !s.beginLogin() {
		return nil, "", ErrLoginInProgress
	}
	defer s.endLogin()

	p, hash, err := s.store.GetCredentials(ctx, email)
	if err != nil {
		if errors.Is(err, partnerstore.ErrPartnerNotFound) {
			metrics.PartnerLogins.WithLabelValues("denied").Inc()
			return nil, "", ErrInvalidCredentials
		}
		metrics.PartnerLogins.WithLabelValues("error").Inc()
		return nil, "", fmt.Errorf("look up partner: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		metrics.PartnerLogins.WithLabelValues("denied").Inc()
		return nil, "", ErrInvalidCredentials
	}

	record, err := json.Marshal(&sessionRecord{SubjectID: p.ID, IssuedAt: s.now()})
	if err != nil {
		return nil, "", fmt.Errorf("encode session record: %w", err)
	}
	if err := s.kv.Set(ctx, sessionKey, string(record)); err != nil {
		metrics.PartnerLogins.WithLabelValues("error").Inc()
		return nil, "", fmt.Errorf("persist session: %w", err)
	}

	if err := s.store.TouchLastLogin(ctx, p.ID); err != nil {
		s.logger.Warn("failed to record last login", zap.String("partner_id", p.ID), zap.Error(err))
	}

	token, err := s.tokens.Issue(p.ID, p.Role)
	if err != nil {
		return nil, "", err
	}

	metrics.PartnerLogins.WithLabelValues("success").Inc()
	s.logger.Info("partner logged in", zap.String("partner_id", p.ID), zap.String("role", p.Role))
	return p, token, nil
}

// CheckAuth restores the partner from the durable session record. Expired or
// corrupt records are purged before reporting ErrNotAuthenticated, so a bad
// record cannot wedge the login flow.
func (s *Service) CheckAuth(ctx context.Context) (*partner.Partner, error) {
	raw, err := s.kv.Get(ctx, sessionKey)
	if err != nil {
		if errors.Is(err, kvstore.ErrKeyNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("read session: %w", err)
	}

	var record sessionRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		s.purgeSession(ctx, "corrupt session record")
		return nil, ErrNotAuthenticated
	}

	if s.now().Sub(record.IssuedAt) > s.maxAge {
		s.purgeSession(ctx, "session expired")
		return nil, ErrNotAuthenticated
	}

	p, err := s.store.GetPartner(ctx, partnerstore.WithID(record.SubjectID))
	if err != nil {
		if errors.Is(err, partnerstore.ErrPartnerNotFound) {
			s.purgeSession(ctx, "session subject no longer exists")
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("restore session partner: %w", err)
	}
	return p, nil
}

// Logout drops the session record. Logging out without a session is not an
// error.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.kv.Delete(ctx, sessionKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.logger.Info("partner logged out")
	return nil
}

func (s *Service) beginLogin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loginInProgress {
		return false
	}
	s.loginInProgress = true
	return true
}

func (s *Service) endLogin() {
	s.mu.Lock()
	s.loginInProgress = false
	s.mu.Unlock()
}

func (s *Service) purgeSession(ctx context.Context, reason string) {
	s.logger.Info("purging partner session", zap.String("reason", reason))
	if err := s.kv.Delete(ctx, sessionKey); err != nil {
		s.logger.Warn("failed to purge session", zap.Error(err))
	}
}
