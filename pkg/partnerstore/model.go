package partnerstore

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/xhedge/vault-middleware/pkg/partner"
)

// PartnerDao is a data access object that maps directly to the 'partners'
// table in PostgreSQL.
type PartnerDao struct {
	bun.BaseModel `bun:"table:partners,alias:p"`
	ID            string     `bun:"id,pk,type:varchar(64)"`
	Email         string     `bun:"email,unique,notnull,type:varchar(255)"`
	Name          string     `bun:"name,notnull,type:varchar(255)"`
	Organization  string     `bun:"organization,notnull,type:varchar(255)"`
	Role          string     `bun:"role,notnull,type:varchar(64)"`
	Permissions   []string   `bun:"permissions,type:jsonb"`
	PasswordHash  string     `bun:"password_hash,notnull,type:varchar(255)"`
	LastLoginAt   *time.Time `bun:"last_login_at"`
	CreatedAt     time.Time  `bun:"created_at,nullzero,default:current_timestamp"`
}

// toPartnerDao converts a partner.Partner plus credentials to PartnerDao.
func toPartnerDao(p *partner.Partner, passwordHash string) *PartnerDao {
	return &PartnerDao{
		ID:           p.ID,
		Email:        p.Email,
		Name:         p.Name,
		Organization: p.Organization,
		Role:         p.Role,
		Permissions:  p.Permissions,
		PasswordHash: passwordHash,
	}
}

// toPartner converts a PartnerDao to partner.Partner.
func toPartner(dao *PartnerDao) *partner.Partner {
	return &partner.Partner{
		ID:           dao.ID,
		Email:        dao.Email,
		Name:         dao.Name,
		Organization: dao.Organization,
		Role:         dao.Role,
		Permissions:  dao.Permissions,
	}
}
