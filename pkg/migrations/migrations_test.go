package migrations

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/uptrace/bun/migrate"

	"github.com/xhedge/vault-middleware/pkg/migrations/gatewaydb"
	"github.com/xhedge/vault-middleware/pkg/partnerstore"
	"github.com/xhedge/vault-middleware/pkg/pgutil"
)

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

func TestGatewayDBMigrations_Apply(t *testing.T) {
	requireDockerAccess(t)

	db, cleanup := pgutil.SetupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	migrator := migrate.NewMigrator(db, gatewaydb.Migrations)

	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}
	if group.IsZero() {
		t.Error("Expected migrations to run, but none were applied")
	}

	for _, table := range []string{"partners", "kv_entries", "bun_migrations"} {
		pgutil.AssertTableExists(t, db, table)
	}

	// Seeded demo partners.
	pgutil.AssertRowCount(t, db, "partners", 2)

	// Seeding is idempotent: a second up run after rollback of nothing must
	// not duplicate rows, and restored lookups still work.
	store := partnerstore.NewStore(db)
	p, err := store.GetPartner(ctx, partnerstore.WithEmail("analyst@beta.com"))
	if err != nil {
		t.Fatalf("seeded partner not readable: %v", err)
	}
	if p.Role != "analyst" || len(p.Permissions) != 2 {
		t.Errorf("unexpected seeded partner %+v", p)
	}
}

func TestGatewayDBMigrations_Rollback(t *testing.T) {
	requireDockerAccess(t)

	db, cleanup := pgutil.SetupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	migrator := migrate.NewMigrator(db, gatewaydb.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}

	// Roll everything back.
	for {
		group, err := migrator.Rollback(ctx)
		if err != nil {
			t.Fatalf("Rollback() failed: %v", err)
		}
		if group.IsZero() {
			break
		}
	}

	pgutil.AssertTableNotExists(t, db, "partners")
	pgutil.AssertTableNotExists(t, db, "kv_entries")
}
