package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/xhedge/vault-middleware/pkg/auth"
	"github.com/xhedge/vault-middleware/pkg/kvstore"
	"github.com/xhedge/vault-middleware/pkg/partner"
)

const testPassword = "PartnerAccess2024!"

func testPartner() *partner.Partner {
	return &partner.Partner{
		ID:          "partner_001",
		Email:       "partner@ecosystem.com",
		Role:        "admin",
		Permissions: []string{partner.PermViewMetrics},
	}
}

func newTestService(kv kvstore.Store) *Service {
	return New(
		singlePartnerStore(testPartner(), testPassword),
		kv,
		auth.NewTokenIssuer("test-secret", time.Hour),
		24*time.Hour,
		zap.NewNop(),
	)
}

func TestLoginAndCheckAuth(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(kvstore.NewMemoryStore())

	p, token, err := svc.Login(ctx, "partner@ecosystem.com", testPassword)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if p.ID != "partner_001" || token == "" {
		t.Errorf("unexpected login result %+v %q", p, token)
	}

	restored, err := svc.CheckAuth(ctx)
	if err != nil {
		t.Fatalf("CheckAuth failed: %v", err)
	}
	if restored.ID != "partner_001" {
		t.Errorf("unexpected restored partner %+v", restored)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc := newTestService(kvstore.NewMemoryStore())

	_, _, err := svc.Login(context.Background(), "partner@ecosystem.com", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_UnknownEmailIndistinguishable(t *testing.T) {
	svc := newTestService(kvstore.NewMemoryStore())

	_, _, unknownErr := svc.Login(context.Background(), "nobody@example.com", testPassword)
	_, _, wrongErr := svc.Login(context.Background(), "partner@ecosystem.com", "wrong")

	if !errors.Is(unknownErr, ErrInvalidCredentials) || !errors.Is(wrongErr, ErrInvalidCredentials) {
		t.Fatalf("both failures must be ErrInvalidCredentials, got %v and %v", unknownErr, wrongErr)
	}
	if unknownErr.Error() != wrongErr.Error() {
		t.Error("unknown email and wrong password must be indistinguishable")
	}
}

func TestCheckAuth_NoSession(t *testing.T) {
	svc := newTestService(kvstore.NewMemoryStore())

	if _, err := svc.CheckAuth(context.Background()); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestCheckAuth_ExpiredSessionPurged(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemoryStore()
	svc := newTestService(kv)

	if _, _, err := svc.Login(ctx, "partner@ecosystem.com", testPassword); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	// Move the clock past the max session age.
	svc.now = func() time.Time { return time.Now().Add(25 * time.Hour) }

	if _, err := svc.CheckAuth(ctx); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated for expired session, got %v", err)
	}
	if _, err := kv.Get(ctx, "partner_auth"); !errors.Is(err, kvstore.ErrKeyNotFound) {
		t.Error("expired session record must be purged")
	}
}

func TestCheckAuth_CorruptSessionPurged(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemoryStore()
	svc := newTestService(kv)

	if err := kv.Set(ctx, "partner_auth", "{not json"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, err := svc.CheckAuth(ctx); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated for corrupt record, got %v", err)
	}
	if _, err := kv.Get(ctx, "partner_auth"); !errors.Is(err, kvstore.ErrKeyNotFound) {
		t.Error("corrupt session record must be purged")
	}
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(kvstore.NewMemoryStore())

	if _, _, err := svc.Login(ctx, "partner@ecosystem.com", testPassword); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if err := svc.Logout(ctx); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, err := svc.CheckAuth(ctx); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated after logout, got %v", err)
	}

	// Logging out twice is harmless.
	if err := svc.Logout(ctx); err != nil {
		t.Fatalf("second Logout failed: %v", err)
	}
}

func TestLogin_ConcurrentAttemptRejected(t *testing.T) {
	svc := newTestService(kvstore.NewMemoryStore())

	if !svc.beginLogin() {
		t.Fatal("beginLogin failed on idle service")
	}
	defer svc.endLogin()

	_, _, err := svc.Login(context.Background(), "partner@ecosystem.com", testPassword)
	if !errors.Is(err, ErrLoginInProgress) {
		t.Fatalf("expected ErrLoginInProgress, got %v", err)
	}
}
