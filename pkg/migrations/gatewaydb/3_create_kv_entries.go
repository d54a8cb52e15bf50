package gatewaydb

import (
	"context"
	"log"

	"github.com/uptrace/bun"

	"github.com/xhedge/vault-middleware/pkg/kvstore"
	mghelper "github.com/xhedge/vault-middleware/pkg/pgutil/migrations"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating kv_entries table...")
		return mghelper.CreateSchema(ctx, db, &kvstore.EntryDao{})
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping kv_entries table...")
		return mghelper.DropTables(ctx, db, &kvstore.EntryDao{})
	})
}
