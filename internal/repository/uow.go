package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/curaflow/curaflow-api/internal/service"
)

// UnitOfWork runs a function against transaction-bound repositories. Every
// write made through the provided repositories commits or rolls back as one
// atomic unit; this is what makes the appointment-completion path
// all-or-nothing.
type UnitOfWork struct {
	db *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

var _ service.UnitOfWork = (*UnitOfWork)(nil)

func (u *UnitOfWork) Do(ctx context.Context, fn func(tx service.TxRepos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(service.TxRepos{
			Appointments: NewAppointmentRepository(tx),
			Medicines:    NewMedicineRepository(tx),
		})
	})
}

func totalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	pages := int(total) / pageSize
	if int(total)%pageSize != 0 {
		pages++
	}
	return pages
}
