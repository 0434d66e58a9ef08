package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/curaflow/curaflow-api/internal/domain/record"
)

type RecordRepository struct {
	db *gorm.DB
}

func NewRecordRepository(db *gorm.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

var _ record.Repository = (*RecordRepository)(nil)

func (r *RecordRepository) Create(ctx context.Context, rec *record.ClinicalRecord) error {
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("inserting clinical record: %w", err)
	}
	return nil
}

func (r *RecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*record.ClinicalRecord, error) {
	var rec record.ClinicalRecord
	err := r.db.WithContext(ctx).
		Preload("Addenda").
		First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, record.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying clinical record: %w", err)
	}
	return &rec, nil
}

func (r *RecordRepository) AddAddendum(ctx context.Context, a *record.Addendum) error {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&record.ClinicalRecord{}).
		Where("id = ?", a.RecordID).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("verifying clinical record: %w", err)
	}
	if count == 0 {
		return record.ErrRecordNotFound
	}

	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("inserting addendum: %w", err)
	}
	return nil
}

func (r *RecordRepository) List(ctx context.Context, q *record.ListRecordsQuery) (*record.PagedRecords, error) {
	db := r.db.WithContext(ctx).Model(&record.ClinicalRecord{})

	if q.PatientID != nil {
		db = db.Where("patient_id = ?", *q.PatientID)
	}
	if q.DoctorID != nil {
		db = db.Where("doctor_id = ?", *q.DoctorID)
	}
	if q.Type != nil {
		db = db.Where("type = ?", *q.Type)
	}
	if q.AppointmentID != nil {
		db = db.Where("appointment_id = ?", *q.AppointmentID)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting clinical records: %w", err)
	}

	var records []*record.ClinicalRecord
	err := db.Order("created_at desc").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("listing clinical records: %w", err)
	}

	return &record.PagedRecords{
		Records:    records,
		TotalCount: total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: totalPages(total, q.PageSize),
	}, nil
}

func (r *RecordRepository) GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*record.ClinicalRecord, error) {
	var rec record.ClinicalRecord
	err := r.db.WithContext(ctx).
		Preload("Addenda").
		First(&rec, "appointment_id = ?", appointmentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, record.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying clinical record: %w", err)
	}
	return &rec, nil
}
