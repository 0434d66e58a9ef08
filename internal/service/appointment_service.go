package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/curaflow/curaflow-api/internal/domain/appointment"
	"github.com/curaflow/curaflow-api/internal/domain/medicine"
	"github.com/curaflow/curaflow-api/internal/domain/patient"
	"github.com/curaflow/curaflow-api/internal/domain/prescription"
	"github.com/curaflow/curaflow-api/pkg/metrics"
)

var tracer = otel.Tracer("github.com/curaflow/curaflow-api/internal/service")

type AppointmentService struct {
	repo        appointment.Repository
	patientRepo patient.Repository
	uow         UnitOfWork
	notifySvc   *NotifyService
	auditSvc    *AuditService
	metrics     *metrics.Collector
	alertCfg    medicine.AlertConfig
	log         *zap.Logger
}

func NewAppointmentService(
	repo appointment.Repository,
	patientRepo patient.Repository,
	uow UnitOfWork,
	notifySvc *NotifyService,
	auditSvc *AuditService,
	metrics *metrics.Collector,
	alertCfg medicine.AlertConfig,
	log *zap.Logger,
) *AppointmentService {
	return &AppointmentService{
		repo:        repo,
		patientRepo: patientRepo,
		uow:         uow,
		notifySvc:   notifySvc,
		auditSvc:    auditSvc,
		metrics:     metrics,
		alertCfg:    alertCfg,
		log:         log,
	}
}

func (s *AppointmentService) ScheduleAppointment(
	ctx context.Context,
	cmd *appointment.CreateAppointmentCommand,
	callerID uuid.UUID,
	callerRole string,
	ip string,
) (*appointment.Appointment, error) {
	if cmd.ScheduledAt.Before(time.Now()) {
		return nil, appointment.ErrScheduledInPast
	}

	// ── Verify patient is active and belongs to this doctor ────────────────
	p, err := s.patientRepo.GetByID(ctx, cmd.PatientID)
	if err != nil {
		return nil, fmt.Errorf("verifying patient: %w", err)
	}
	if !p.IsActive() {
		return nil, patient.ErrPatientInactive
	}
	if p.DoctorID != cmd.DoctorID {
		return nil, ErrForbidden
	}

	a := &appointment.Appointment{
		PatientID:      cmd.PatientID,
		DoctorID:       cmd.DoctorID,
		ScheduledAt:    cmd.ScheduledAt,
		Status:         appointment.StatusScheduled,
		PatientRemarks: cmd.PatientRemarks,
		CreatedBy:      cmd.CreatedBy,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		s.log.Error("failed to create appointment", zap.Error(err))
		return nil, fmt.Errorf("creating appointment: %w", err)
	}

	s.metrics.AppointmentsTotal.WithLabelValues(string(appointment.StatusScheduled)).Inc()

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "create",
		ResourceType: "appointment",
		ResourceID:   a.ID.String(),
		IPAddress:    ip,
	})

	return a, nil
}

func (s *AppointmentService) GetAppointment(ctx context.Context, id uuid.UUID, callerID uuid.UUID, callerRole string, callerPatientID *uuid.UUID, ip string) (*appointment.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if callerRole == "patient" {
		if callerPatientID == nil || *callerPatientID != a.PatientID {
			return nil, ErrForbidden
		}
	}
	if callerRole == "doctor" && a.DoctorID != callerID {
		return nil, ErrForbidden
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "read", ResourceType: "appointment", ResourceID: id.String(), IPAddress: ip,
	})

	return a, nil
}

// UpdateAppointment applies doctor edits without touching status or stock.
func (s *AppointmentService) UpdateAppointment(ctx context.Context, id uuid.UUID, cmd *appointment.UpdateAppointmentCommand, callerID uuid.UUID, callerRole string, ip string) (*appointment.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if callerRole == "doctor" && a.DoctorID != callerID {
		return nil, ErrForbidden
	}

	if cmd.PainSeverity != nil && !cmd.PainSeverity.IsValid() {
		return nil, appointment.ErrInvalidPainSeverity
	}
	if cmd.Prescriptions != nil {
		if err := prescription.ValidateLines(*cmd.Prescriptions); err != nil {
			return nil, &ValidationError{Fields: []string{err.Error()}}
		}
	}

	updated, err := s.repo.Update(ctx, id, cmd)
	if err != nil {
		return nil, fmt.Errorf("updating appointment: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "update", ResourceType: "appointment", ResourceID: id.String(), IPAddress: ip,
	})

	return updated, nil
}

func (s *AppointmentService) CancelAppointment(ctx context.Context, id uuid.UUID, cmd *appointment.CancelAppointmentCommand, callerID uuid.UUID, callerRole string, callerPatientID *uuid.UUID, ip string) (*appointment.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if callerRole == "patient" {
		if callerPatientID == nil || *callerPatientID != a.PatientID {
			return nil, ErrForbidden
		}
	}
	if callerRole == "doctor" && a.DoctorID != callerID {
		return nil, ErrForbidden
	}

	if err := a.Cancel(cmd.Reason); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, a); err != nil {
		return nil, fmt.Errorf("updating appointment status: %w", err)
	}

	s.metrics.AppointmentsTotal.WithLabelValues(string(appointment.StatusCancelled)).Inc()

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "update", ResourceType: "appointment", ResourceID: id.String(), IPAddress: ip,
		Changes: fmt.Sprintf(`{"status":"cancelled","reason":"%s"}`, cmd.Reason),
	})

	return a, nil
}

// stockChange records one medicine's decrement outcome for post-commit
// low-stock evaluation.
type stockChange struct {
	medicineID   uuid.UUID
	medicineName string
	quantity     int
	postStock    int
}

// CompleteAppointment marks an appointment completed and applies its
// irreversible side effects: the appointment's final field set and every
// prescribed medicine's stock decrement commit as one atomic batch.
//
// The previous persisted status is re-read under a row lock inside the
// transaction, never trusted from client state. The decrement fires only on
// the transition into completed, so retries and resubmissions of an
// already-completed appointment are safe: they update fields but never touch
// stock again.
func (s *AppointmentService) CompleteAppointment(ctx context.Context, id uuid.UUID, cmd *appointment.CompleteAppointmentCommand, callerID uuid.UUID, callerRole string, ip string) (*appointment.Appointment, error) {
	ctx, span := tracer.Start(ctx, "AppointmentService.CompleteAppointment")
	defer span.End()
	span.SetAttributes(attribute.String("appointment.id", id.String()))

	// Validation errors never reach the transaction.
	if cmd.PainSeverity != nil && !cmd.PainSeverity.IsValid() {
		return nil, appointment.ErrInvalidPainSeverity
	}
	if err := prescription.ValidateLines(cmd.Prescriptions); err != nil {
		return nil, &ValidationError{Fields: []string{err.Error()}}
	}

	var (
		completed   *appointment.Appointment
		changes     []stockChange
		decremented bool
	)

	err := s.uow.Do(ctx, func(tx TxRepos) error {
		a, err := tx.Appointments.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		// Tenant check before any write is attempted.
		if callerRole == "doctor" && a.DoctorID != callerID {
			return ErrForbidden
		}
		if callerRole == "patient" {
			return ErrForbidden
		}

		prevStatus := a.Status

		a.DoctorRemarks = cmd.DoctorRemarks
		a.PainSeverity = cmd.PainSeverity
		a.Symptoms = cmd.Symptoms
		a.FollowUpDate = cmd.FollowUpDate
		a.Prescriptions = cmd.Prescriptions

		// The decrement path runs iff the appointment is transitioning INTO
		// completed. Resubmissions of a terminal appointment are plain field
		// updates.
		if prevStatus == appointment.StatusScheduled {
			if err := a.Complete(); err != nil {
				return err
			}

			totals := prescription.DecrementTotals(a.Prescriptions)
			ids := make([]uuid.UUID, 0, len(totals))
			for mid := range totals {
				ids = append(ids, mid)
			}
			// Lock medicines in a stable order so two concurrent completions
			// sharing medicines cannot deadlock.
			sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

			meds, err := tx.Medicines.GetByIDsForUpdate(ctx, ids)
			if err != nil {
				return err
			}

			for _, m := range meds {
				if m.DoctorID != a.DoctorID {
					return ErrForbidden
				}
				qty := totals[m.ID]
				post := m.ApplyDecrement(qty)
				if err := tx.Medicines.SaveStock(ctx, m); err != nil {
					return err
				}
				changes = append(changes, stockChange{
					medicineID:   m.ID,
					medicineName: m.Name,
					quantity:     qty,
					postStock:    post,
				})
			}
			decremented = true
		}

		if err := tx.Appointments.Save(ctx, a); err != nil {
			return err
		}

		completed = a
		return nil
	})
	if err != nil {
		// Nothing committed; the appointment keeps its prior persisted state
		// and the caller may retry the whole operation.
		s.log.Error("appointment completion failed",
			zap.String("appointment_id", id.String()),
			zap.Error(err),
		)
		return nil, err
	}

	// Post-commit, observational only: metrics and low-stock alerts. One
	// evaluation per medicine, against its final post-decrement stock.
	if decremented {
		s.metrics.AppointmentsTotal.WithLabelValues(string(appointment.StatusCompleted)).Inc()
		for _, c := range changes {
			if c.quantity > 0 {
				s.metrics.StockDecrementsTotal.Add(float64(c.quantity))
			}
			alert, ok := medicine.EvaluateLowStock(c.medicineID.String(), c.medicineName, c.postStock, s.alertCfg)
			if !ok {
				continue
			}
			s.metrics.LowStockAlertsTotal.Inc()
			s.notifySvc.NotifyAsync(Notification{
				Title:    "Low stock",
				Message:  fmt.Sprintf("%s is running low: %d left", alert.MedicineName, alert.Stock),
				Severity: SeverityWarning,
			})
		}
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "update", ResourceType: "appointment", ResourceID: id.String(), IPAddress: ip,
		Changes: `{"status":"completed"}`,
	})

	return completed, nil
}

func (s *AppointmentService) ListAppointments(ctx context.Context, q *appointment.ListAppointmentsQuery, callerID uuid.UUID, callerRole string, callerPatientID *uuid.UUID) (*appointment.PagedAppointments, error) {
	// Patients can only see their own appointments; doctors only their own
	// schedule.
	if callerRole == "patient" && callerPatientID != nil {
		q.PatientID = callerPatientID
	}
	if callerRole == "doctor" {
		q.DoctorID = &callerID
	}
	if q.PageSize <= 0 || q.PageSize > 100 {
		q.PageSize = 20
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	return s.repo.List(ctx, q)
}
