package partnerstore

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/xhedge/vault-middleware/pkg/partner"
	"github.com/xhedge/vault-middleware/pkg/pgutil"
	mghelper "github.com/xhedge/vault-middleware/pkg/pgutil/migrations"
)

func setupStore(t *testing.T) (context.Context, Store) {
	t.Helper()
	requireDockerAccess(t)

	ctx := context.Background()
	db, cleanup := pgutil.SetupTestDB(t)
	t.Cleanup(cleanup)

	if err := mghelper.CreateSchema(ctx, db, &PartnerDao{}); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	return ctx, NewStore(db)
}

func requireDockerAccess(t *testing.T) {
	t.Helper()

	candidates := []string{
		"/var/run/docker.sock",
		filepath.Join(os.Getenv("HOME"), ".docker/run/docker.sock"),
	}

	for _, sock := range candidates {
		if sock == "" {
			continue
		}
		if _, err := os.Stat(sock); err != nil {
			continue
		}
		conn, err := (&net.Dialer{}).DialContext(context.Background(), "unix", sock)
		if err == nil {
			_ = conn.Close()
			return
		}
	}

	t.Skip("docker is not available; skipping container-backed test")
}

func testPartner() *partner.Partner {
	return &partner.Partner{
		ID:           "partner_001",
		Email:        "partner@ecosystem.com",
		Name:         "Ecosystem Partner",
		Organization: "Ecosystem Capital",
		Role:         "admin",
		Permissions:  []string{partner.PermViewMetrics, partner.PermExportData},
	}
}

func TestCreateAndGetPartner(t *testing.T) {
	ctx, store := setupStore(t)

	if err := store.CreatePartner(ctx, testPartner(), "hash"); err != nil {
		t.Fatalf("CreatePartner failed: %v", err)
	}

	got, err := store.GetPartner(ctx, WithID("partner_001"))
	if err != nil {
		t.Fatalf("GetPartner failed: %v", err)
	}
	if got.Email != "partner@ecosystem.com" || got.Role != "admin" {
		t.Errorf("unexpected partner %+v", got)
	}
	if len(got.Permissions) != 2 {
		t.Errorf("permissions not persisted: %+v", got.Permissions)
	}
}

func TestGetCredentials(t *testing.T) {
	ctx, store := setupStore(t)

	if err := store.CreatePartner(ctx, testPartner(), "bcrypt-hash"); err != nil {
		t.Fatalf("CreatePartner failed: %v", err)
	}

	// Email lookup is case insensitive.
	got, hash, err := store.GetCredentials(ctx, "Partner@Ecosystem.com")
	if err != nil {
		t.Fatalf("GetCredentials failed: %v", err)
	}
	if got.ID != "partner_001" || hash != "bcrypt-hash" {
		t.Errorf("unexpected credentials %+v %q", got, hash)
	}
}

func TestGetPartner_NotFound(t *testing.T) {
	ctx, store := setupStore(t)

	if _, err := store.GetPartner(ctx, WithID("missing")); !errors.Is(err, ErrPartnerNotFound) {
		t.Fatalf("expected ErrPartnerNotFound, got %v", err)
	}
	if _, _, err := store.GetCredentials(ctx, "nobody@example.com"); !errors.Is(err, ErrPartnerNotFound) {
		t.Fatalf("expected ErrPartnerNotFound, got %v", err)
	}
}

func TestTouchLastLogin(t *testing.T) {
	ctx, store := setupStore(t)

	if err := store.CreatePartner(ctx, testPartner(), "hash"); err != nil {
		t.Fatalf("CreatePartner failed: %v", err)
	}
	if err := store.TouchLastLogin(ctx, "partner_001"); err != nil {
		t.Fatalf("TouchLastLogin failed: %v", err)
	}
}
