package medicine

import (
	"time"

	"github.com/google/uuid"
)

// Medicine is a stock-tracked item owned by a single doctor. Medicines are
// never shared across doctors; DoctorID is the tenant boundary.
type Medicine struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	DoctorID uuid.UUID `gorm:"column:doctor_id;type:uuid;not null;index"`

	Name        string `gorm:"column:name;type:varchar(255);not null"`
	Description string `gorm:"column:description;type:text"`

	// Stock is never persisted as negative; decrements clamp at zero.
	Stock int `gorm:"column:stock;not null;default:0"`
}

func (Medicine) TableName() string {
	return "clinical.medicines"
}

// ApplyDecrement reduces stock by qty, clamped at zero, and returns the
// resulting stock. Non-positive qty is a no-op.
func (m *Medicine) ApplyDecrement(qty int) int {
	if qty > 0 {
		m.Stock -= qty
		if m.Stock < 0 {
			m.Stock = 0
		}
	}
	return m.Stock
}

type CreateMedicineCommand struct {
	DoctorID    uuid.UUID
	Name        string
	Description string
	Stock       int
}

type UpdateMedicineCommand struct {
	Name        *string
	Description *string
	Stock       *int
}

type ListMedicinesQuery struct {
	DoctorID uuid.UUID
	Search   string
	Page     int
	PageSize int
}

type PagedMedicines struct {
	Medicines  []*Medicine
	TotalCount int64
	Page       int
	PageSize   int
	TotalPages int
}
