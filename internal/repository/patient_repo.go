package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/curaflow/curaflow-api/internal/domain/patient"
)

type PatientRepository struct {
	db *gorm.DB
}

func NewPatientRepository(db *gorm.DB) *PatientRepository {
	return &PatientRepository{db: db}
}

var _ patient.Repository = (*PatientRepository)(nil)

func (r *PatientRepository) Create(ctx context.Context, p *patient.Patient) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("inserting patient: %w", err)
	}
	return nil
}

func (r *PatientRepository) GetByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	var p patient.Patient
	err := r.db.WithContext(ctx).First(&p, "id = ? AND deleted_at IS NULL", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, patient.ErrPatientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying patient: %w", err)
	}
	return &p, nil
}

func (r *PatientRepository) Update(ctx context.Context, id uuid.UUID, cmd *patient.UpdatePatientCommand) (*patient.Patient, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if cmd.FirstName != nil {
		p.FirstName = *cmd.FirstName
	}
	if cmd.LastName != nil {
		p.LastName = *cmd.LastName
	}
	if cmd.Gender != nil {
		p.Gender = *cmd.Gender
	}
	if cmd.Phone != nil {
		p.Phone = *cmd.Phone
	}
	if cmd.Email != nil {
		p.Email = *cmd.Email
	}
	if cmd.Address != nil {
		p.Address = *cmd.Address
	}
	if cmd.City != nil {
		p.City = *cmd.City
	}
	if cmd.EmergencyContact != nil {
		p.EmergencyContact = cmd.EmergencyContact
	}
	if cmd.Allergies != nil {
		p.Allergies = *cmd.Allergies
	}
	if cmd.ChronicConditions != nil {
		p.ChronicConditions = *cmd.ChronicConditions
	}
	if cmd.Notes != nil {
		p.Notes = *cmd.Notes
	}

	if err := r.db.WithContext(ctx).Save(p).Error; err != nil {
		return nil, fmt.Errorf("saving patient: %w", err)
	}
	return p, nil
}

func (r *PatientRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&patient.Patient{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", gorm.Expr("now()"))
	if res.Error != nil {
		return fmt.Errorf("deleting patient: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return patient.ErrPatientNotFound
	}
	return nil
}

func (r *PatientRepository) List(ctx context.Context, q *patient.ListPatientsQuery) (*patient.PagedPatients, error) {
	db := r.db.WithContext(ctx).
		Model(&patient.Patient{}).
		Where("deleted_at IS NULL")

	if q.DoctorID != nil {
		db = db.Where("doctor_id = ?", *q.DoctorID)
	}
	if q.Status != nil {
		db = db.Where("status = ?", *q.Status)
	}
	if q.Search != "" {
		db = db.Where("first_name || ' ' || last_name ILIKE ?", "%"+q.Search+"%")
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting patients: %w", err)
	}

	var patients []*patient.Patient
	err := db.Order("last_name asc, first_name asc").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&patients).Error
	if err != nil {
		return nil, fmt.Errorf("listing patients: %w", err)
	}

	return &patient.PagedPatients{
		Patients:   patients,
		TotalCount: total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: totalPages(total, q.PageSize),
	}, nil
}
