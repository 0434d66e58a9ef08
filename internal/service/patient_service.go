package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/curaflow/curaflow-api/internal/domain/patient"
	"github.com/curaflow/curaflow-api/pkg/metrics"
)

type PatientService struct {
	repo     patient.Repository
	auditSvc *AuditService
	metrics  *metrics.Collector
	log      *zap.Logger
}

func NewPatientService(repo patient.Repository, auditSvc *AuditService, metrics *metrics.Collector, log *zap.Logger) *PatientService {
	return &PatientService{
		repo:     repo,
		auditSvc: auditSvc,
		metrics:  metrics,
		log:      log,
	}
}

func (s *PatientService) CreatePatient(ctx context.Context, cmd *patient.CreatePatientCommand, callerID uuid.UUID, callerRole string, ip string) (*patient.Patient, error) {
	if callerRole != "doctor" && callerRole != "admin" {
		return nil, ErrForbidden
	}
	if err := validateCreateCommand(cmd); err != nil {
		return nil, err
	}

	p := &patient.Patient{
		FirstName:   strings.TrimSpace(cmd.FirstName),
		LastName:    strings.TrimSpace(cmd.LastName),
		DateOfBirth: cmd.DateOfBirth,
		Gender:      cmd.Gender,
		ContactInfo: patient.ContactInfo{
			Phone:   strings.TrimSpace(cmd.Phone),
			Email:   strings.ToLower(strings.TrimSpace(cmd.Email)),
			Address: cmd.Address,
			City:    cmd.City,
		},
		EmergencyContact:  cmd.EmergencyContact,
		Allergies:         cmd.Allergies,
		ChronicConditions: cmd.ChronicConditions,
		DoctorID:          cmd.DoctorID,
		Notes:             cmd.Notes,
		Status:            patient.StatusActive,
		CreatedBy:         cmd.CreatedBy,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		s.log.Error("failed to create patient", zap.Error(err))
		return nil, fmt.Errorf("creating patient: %w", err)
	}

	s.metrics.PatientsCreatedTotal.Inc()

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "create",
		ResourceType: "patient",
		ResourceID:   p.ID.String(),
		IPAddress:    ip,
	})

	s.log.Info("patient created",
		zap.String("patient_id", p.ID.String()),
		zap.String("created_by", callerID.String()),
	)

	return p, nil
}

func (s *PatientService) GetPatient(ctx context.Context, id uuid.UUID, callerID uuid.UUID, callerRole string, callerPatientID *uuid.UUID, ip string) (*patient.Patient, error) {
	// RBAC: patients can only read their own record
	if callerRole == "patient" {
		if callerPatientID == nil || *callerPatientID != id {
			return nil, ErrForbidden
		}
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if callerRole == "doctor" && p.DoctorID != callerID {
		return nil, ErrForbidden
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "read",
		ResourceType: "patient",
		ResourceID:   id.String(),
		IPAddress:    ip,
	})

	return p, nil
}

func (s *PatientService) UpdatePatient(ctx context.Context, id uuid.UUID, cmd *patient.UpdatePatientCommand, callerID uuid.UUID, callerRole string, ip string) (*patient.Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if callerRole == "doctor" && p.DoctorID != callerID {
		return nil, ErrForbidden
	}
	if cmd.Gender != nil && !cmd.Gender.IsValid() {
		return nil, patient.ErrInvalidGender
	}

	updated, err := s.repo.Update(ctx, id, cmd)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "update",
		ResourceType: "patient",
		ResourceID:   id.String(),
		IPAddress:    ip,
	})

	return updated, nil
}

func (s *PatientService) DeactivatePatient(ctx context.Context, id uuid.UUID, callerID uuid.UUID, callerRole string, ip string) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if callerRole == "doctor" && p.DoctorID != callerID {
		return ErrForbidden
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "delete",
		ResourceType: "patient",
		ResourceID:   id.String(),
		IPAddress:    ip,
	})

	return s.repo.SoftDelete(ctx, id)
}

func (s *PatientService) ListPatients(ctx context.Context, q *patient.ListPatientsQuery, callerID uuid.UUID, callerRole string) (*patient.PagedPatients, error) {
	// Doctors only ever see their own roster.
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

func validateCreateCommand(cmd *patient.CreatePatientCommand) error {
	var errs []string

	if strings.TrimSpace(cmd.FirstName) == "" {
		errs = append(errs, "first_name is required")
	}
	if strings.TrimSpace(cmd.LastName) == "" {
		errs = append(errs, "last_name is required")
	}
	if cmd.DateOfBirth.IsZero() {
		errs = append(errs, "date_of_birth is required")
	}
	if cmd.DateOfBirth.After(time.Now()) {
		errs = append(errs, "date_of_birth cannot be in the future")
	}
	if !cmd.Gender.IsValid() {
		errs = append(errs, "gender is invalid")
	}
	if cmd.DoctorID == uuid.Nil {
		errs = append(errs, "doctor_id is required")
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
