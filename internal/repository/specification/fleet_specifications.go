package specification

import (
	"strings"

	"gorm.io/gorm"
)

type ByPlate struct {
	Plate string
}

func (s ByPlate) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("UPPER(plate) = ?", strings.ToUpper(strings.TrimSpace(s.Plate)))
}

type BySku struct {
	Sku string
}

func (s BySku) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("sku = ?", s.Sku)
}

// CriticalStock matches parts at or below their reorder threshold.
type CriticalStock struct{}

func (s CriticalStock) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("stock <= min_stock")
}

type StatusIn struct {
	Statuses []string
}

func (s StatusIn) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status IN ?", s.Statuses)
}
