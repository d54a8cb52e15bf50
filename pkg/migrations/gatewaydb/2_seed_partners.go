package gatewaydb

import (
	"context"
	"log"

	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"

	"github.com/xhedge/vault-middleware/pkg/partner"
	"github.com/xhedge/vault-middleware/pkg/partnerstore"
)

// Demo partner accounts for non-production environments. Passwords are
// hashed at migration time so no hash material lives in the source tree.
var seedPartners = []struct {
	partner  partner.Partner
	password string
}{
	{
		partner: partner.Partner{
			ID:           "partner_001",
			Email:        "partner@ecosystem.com",
			Name:         "Ecosystem Partner",
			Organization: "Ecosystem Capital",
			Role:         "admin",
			Permissions: []string{
				partner.PermViewMetrics,
				partner.PermExportData,
				partner.PermManageUsers,
				partner.PermViewAnalytics,
			},
		},
		password: "PartnerAccess2024!",
	},
	{
		partner: partner.Partner{
			ID:           "partner_002",
			Email:        "analyst@beta.com",
			Name:         "Beta Analyst",
			Organization: "Beta Analytics",
			Role:         "analyst",
			Permissions: []string{
				partner.PermViewMetrics,
				partner.PermViewAnalytics,
			},
		},
		password: "Analyst2024!",
	},
}

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("seeding partners table...")
		for _, seed := range seedPartners {
			hash, err := bcrypt.GenerateFromPassword([]byte(seed.password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}

			dao := &partnerstore.PartnerDao{
				ID:           seed.partner.ID,
				Email:        seed.partner.Email,
				Name:         seed.partner.Name,
				Organization: seed.partner.Organization,
				Role:         seed.partner.Role,
				Permissions:  seed.partner.Permissions,
				PasswordHash: string(hash),
			}
			if _, err := db.NewInsert().
				Model(dao).
				On("CONFLICT (id) DO NOTHING").
				Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("removing seeded partners...")
		_, err := db.NewDelete().
			Model((*partnerstore.PartnerDao)(nil)).
			Where("id IN ('partner_001', 'partner_002')").
			Exec(ctx)
		return err
	})
}
