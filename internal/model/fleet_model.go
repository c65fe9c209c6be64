package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Vehicle struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyId  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_vehicles_company_plate,priority:1"`
	Plate      string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_vehicles_company_plate,priority:2"`
	Make       string    `gorm:"type:varchar(100)"`
	Model      string    `gorm:"type:varchar(100)"`
	Year       int
	Status     string    `gorm:"type:varchar(30);not null;default:'active'"`
	OdometerKm int       `gorm:"default:0"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (Vehicle) TableName() string {
	return "vehicles"
}

func (v *Vehicle) BeforeCreate(tx *gorm.DB) error {
	ensureId(&v.Id)
	return nil
}

type SparePart struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyId uuid.UUID `gorm:"type:uuid;not null;index"`
	Sku       string    `gorm:"type:varchar(64);not null"`
	Name      string    `gorm:"type:varchar(255);not null"`
	Stock     int       `gorm:"not null;default:0"`
	MinStock  int       `gorm:"not null;default:0"`
	UnitCost  float64   `gorm:"type:decimal(12,2);default:0"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (SparePart) TableName() string {
	return "spare_parts"
}

func (p *SparePart) BeforeCreate(tx *gorm.DB) error {
	ensureId(&p.Id)
	return nil
}

type MaintenanceOrder struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyId    uuid.UUID `gorm:"type:uuid;not null;index"`
	VehicleId    uuid.UUID `gorm:"type:uuid;not null;index"`
	Title        string    `gorm:"type:varchar(255);not null"`
	Description  string    `gorm:"type:text"`
	Priority     string    `gorm:"type:varchar(20);not null;default:'medium'"`
	Status       string    `gorm:"type:varchar(30);not null;default:'open'"`
	ScheduledFor *time.Time
	CreatedBy    uuid.UUID `gorm:"type:uuid"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`

	Vehicle *Vehicle `gorm:"foreignKey:VehicleId"`
}

func (MaintenanceOrder) TableName() string {
	return "maintenance_orders"
}

func (o *MaintenanceOrder) BeforeCreate(tx *gorm.DB) error {
	ensureId(&o.Id)
	return nil
}

type PurchaseOrder struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyId   uuid.UUID `gorm:"type:uuid;not null;index"`
	SparePartId uuid.UUID `gorm:"type:uuid;not null;index"`
	Quantity    int       `gorm:"not null"`
	Supplier    string    `gorm:"type:varchar(255)"`
	Status      string    `gorm:"type:varchar(20);not null;default:'draft'"`
	CreatedBy   uuid.UUID `gorm:"type:uuid"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`

	SparePart *SparePart `gorm:"foreignKey:SparePartId"`
}

func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

func (o *PurchaseOrder) BeforeCreate(tx *gorm.DB) error {
	ensureId(&o.Id)
	return nil
}

// Models lists every table the service owns, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&Plan{},
		&Subscription{},
		&Conversation{},
		&Message{},
		&Action{},
		&Vehicle{},
		&SparePart{},
		&MaintenanceOrder{},
		&PurchaseOrder{},
	}
}
