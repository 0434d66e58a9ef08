package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/curaflow/curaflow-api/internal/domain/patient"
	"github.com/curaflow/curaflow-api/internal/domain/record"
)

type RecordService struct {
	repo        record.Repository
	patientRepo patient.Repository
	auditSvc    *AuditService
	log         *zap.Logger
}

func NewRecordService(repo record.Repository, patientRepo patient.Repository, auditSvc *AuditService, log *zap.Logger) *RecordService {
	return &RecordService{repo: repo, patientRepo: patientRepo, auditSvc: auditSvc, log: log}
}

func (s *RecordService) CreateRecord(ctx context.Context, cmd *record.CreateRecordCommand, callerID uuid.UUID, callerRole string, ip string) (*record.ClinicalRecord, error) {
	if callerRole != "doctor" && callerRole != "admin" {
		return nil, ErrForbidden
	}
	if !cmd.Type.IsValid() {
		return nil, record.ErrInvalidRecordType
	}

	p, err := s.patientRepo.GetByID(ctx, cmd.PatientID)
	if err != nil {
		return nil, fmt.Errorf("verifying patient: %w", err)
	}
	if callerRole == "doctor" && p.DoctorID != callerID {
		return nil, ErrForbidden
	}

	r := &record.ClinicalRecord{
		PatientID:     cmd.PatientID,
		AppointmentID: cmd.AppointmentID,
		DoctorID:      cmd.DoctorID,
		Type:          cmd.Type,
		Diagnoses:     cmd.Diagnoses,
		Notes:         cmd.Notes,
		CreatedBy:     cmd.CreatedBy,
	}

	if err := s.repo.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("creating clinical record: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       callerID,
		UserRole:     callerRole,
		Action:       "create",
		ResourceType: "clinical_record",
		ResourceID:   r.ID.String(),
		IPAddress:    ip,
	})

	return r, nil
}

func (s *RecordService) GetRecord(ctx context.Context, id uuid.UUID, callerID uuid.UUID, callerRole string, callerPatientID *uuid.UUID, ip string) (*record.ClinicalRecord, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if callerRole == "patient" {
		if callerPatientID == nil || *callerPatientID != r.PatientID {
			return nil, ErrForbidden
		}
	}
	if callerRole == "doctor" && r.DoctorID != callerID {
		return nil, ErrForbidden
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "read", ResourceType: "clinical_record", ResourceID: id.String(), IPAddress: ip,
	})

	return r, nil
}

// AddAddendum appends a correction to an existing record without modifying it.
func (s *RecordService) AddAddendum(ctx context.Context, cmd *record.AddAddendumCommand, callerID uuid.UUID, callerRole string, ip string) (*record.Addendum, error) {
	if callerRole != "doctor" && callerRole != "admin" {
		return nil, ErrForbidden
	}
	if strings.TrimSpace(cmd.Content) == "" {
		return nil, &ValidationError{Fields: []string{"content is required"}}
	}

	r, err := s.repo.GetByID(ctx, cmd.RecordID)
	if err != nil {
		return nil, err
	}
	if callerRole == "doctor" && r.DoctorID != callerID {
		return nil, ErrForbidden
	}

	a := &record.Addendum{
		RecordID:  cmd.RecordID,
		Content:   cmd.Content,
		CreatedBy: cmd.CreatedBy,
	}

	if err := s.repo.AddAddendum(ctx, a); err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "update", ResourceType: "clinical_record", ResourceID: cmd.RecordID.String(), IPAddress: ip,
		Changes: `{"action":"addendum_added"}`,
	})

	return a, nil
}

func (s *RecordService) ListRecords(ctx context.Context, q *record.ListRecordsQuery, callerID uuid.UUID, callerRole string, callerPatientID *uuid.UUID) (*record.PagedRecords, error) {
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
