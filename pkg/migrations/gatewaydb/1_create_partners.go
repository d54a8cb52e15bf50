package gatewaydb

import (
	"context"
	"log"

	"github.com/uptrace/bun"

	"github.com/xhedge/vault-middleware/pkg/partnerstore"
	mghelper "github.com/xhedge/vault-middleware/pkg/pgutil/migrations"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating partners table...")
		if err := mghelper.CreateSchema(ctx, db, &partnerstore.PartnerDao{}); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &partnerstore.PartnerDao{}, "role")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping partners table...")
		return mghelper.DropTables(ctx, db, &partnerstore.PartnerDao{})
	})
}
