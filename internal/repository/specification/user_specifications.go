package specification

import (
	"gorm.io/gorm"

	"github.com/google/uuid"
)

type UserOwnedBy struct {
	UserID uuid.UUID
}

func (s UserOwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}

// CompanyOwnedBy scopes business data to one tenant. Every fleet query goes
// through it.
type CompanyOwnedBy struct {
	CompanyID uuid.UUID
}

func (s CompanyOwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("company_id = ?", s.CompanyID)
}
