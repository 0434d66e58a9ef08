package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/curaflow/curaflow-api/internal/domain/appointment"
)

type AppointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

var _ appointment.Repository = (*AppointmentRepository)(nil)

func (r *AppointmentRepository) Create(ctx context.Context, a *appointment.Appointment) error {
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("inserting appointment: %w", err)
	}
	return nil
}

func (r *AppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	var a appointment.Appointment
	err := r.db.WithContext(ctx).First(&a, "id = ? AND deleted_at IS NULL", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, appointment.ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying appointment: %w", err)
	}
	return &a, nil
}

func (r *AppointmentRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	var a appointment.Appointment
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&a, "id = ? AND deleted_at IS NULL", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, appointment.ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("locking appointment: %w", err)
	}
	return &a, nil
}

func (r *AppointmentRepository) Update(ctx context.Context, id uuid.UUID, cmd *appointment.UpdateAppointmentCommand) (*appointment.Appointment, error) {
	a, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if cmd.ScheduledAt != nil {
		a.ScheduledAt = *cmd.ScheduledAt
	}
	if cmd.PatientRemarks != nil {
		a.PatientRemarks = *cmd.PatientRemarks
	}
	if cmd.DoctorRemarks != nil {
		a.DoctorRemarks = *cmd.DoctorRemarks
	}
	if cmd.PainSeverity != nil {
		a.PainSeverity = cmd.PainSeverity
	}
	if cmd.Symptoms != nil {
		a.Symptoms = *cmd.Symptoms
	}
	if cmd.FollowUpDate != nil {
		a.FollowUpDate = cmd.FollowUpDate
	}
	if cmd.Prescriptions != nil {
		a.Prescriptions = *cmd.Prescriptions
	}

	if err := r.Save(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *AppointmentRepository) Save(ctx context.Context, a *appointment.Appointment) error {
	if err := r.db.WithContext(ctx).Save(a).Error; err != nil {
		return fmt.Errorf("saving appointment: %w", err)
	}
	return nil
}

func (r *AppointmentRepository) UpdateStatus(ctx context.Context, a *appointment.Appointment) error {
	err := r.db.WithContext(ctx).
		Model(a).
		Select("status", "completed_at", "cancelled_at", "cancellation_reason", "updated_at").
		Updates(a).Error
	if err != nil {
		return fmt.Errorf("updating appointment status: %w", err)
	}
	return nil
}

func (r *AppointmentRepository) List(ctx context.Context, q *appointment.ListAppointmentsQuery) (*appointment.PagedAppointments, error) {
	db := r.db.WithContext(ctx).Model(&appointment.Appointment{}).Where("deleted_at IS NULL")

	if q.PatientID != nil {
		db = db.Where("patient_id = ?", *q.PatientID)
	}
	if q.DoctorID != nil {
		db = db.Where("doctor_id = ?", *q.DoctorID)
	}
	if q.Status != nil {
		db = db.Where("status = ?", *q.Status)
	}
	if q.DateFrom != nil {
		db = db.Where("scheduled_at >= ?", *q.DateFrom)
	}
	if q.DateTo != nil {
		db = db.Where("scheduled_at <= ?", *q.DateTo)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting appointments: %w", err)
	}

	var appts []*appointment.Appointment
	err := db.Order("scheduled_at asc").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&appts).Error
	if err != nil {
		return nil, fmt.Errorf("listing appointments: %w", err)
	}

	return &appointment.PagedAppointments{
		Appointments: appts,
		TotalCount:   total,
		Page:         q.Page,
		PageSize:     q.PageSize,
		TotalPages:   totalPages(total, q.PageSize),
	}, nil
}
