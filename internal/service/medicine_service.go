package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/curaflow/curaflow-api/internal/domain/medicine"
	"github.com/curaflow/curaflow-api/internal/domain/prescription"
)

type MedicineService struct {
	repo     medicine.Repository
	auditSvc *AuditService
	log      *zap.Logger
}

func NewMedicineService(repo medicine.Repository, auditSvc *AuditService, log *zap.Logger) *MedicineService {
	return &MedicineService{repo: repo, auditSvc: auditSvc, log: log}
}

// Only doctors manage their own medicine catalogue.
func (s *MedicineService) CreateMedicine(ctx context.Context, cmd *medicine.CreateMedicineCommand, callerID uuid.UUID, callerRole string, ip string) (*medicine.Medicine, error) {
	if callerRole != "doctor" && callerRole != "admin" {
		return nil, ErrForbidden
	}
	if strings.TrimSpace(cmd.Name) == "" {
		return nil, medicine.ErrNameRequired
	}
	if cmd.Stock < 0 {
		return nil, medicine.ErrNegativeStock
	}

	m := &medicine.Medicine{
		DoctorID:    cmd.DoctorID,
		Name:        strings.TrimSpace(cmd.Name),
		Description: cmd.Description,
		Stock:       cmd.Stock,
	}

	if err := s.repo.Create(ctx, m); err != nil {
		s.log.Error("failed to create medicine", zap.Error(err))
		return nil, fmt.Errorf("creating medicine: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "create", ResourceType: "medicine", ResourceID: m.ID.String(), IPAddress: ip,
	})

	return m, nil
}

func (s *MedicineService) GetMedicine(ctx context.Context, id uuid.UUID, callerID uuid.UUID, callerRole string) (*medicine.Medicine, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if callerRole == "doctor" && m.DoctorID != callerID {
		return nil, ErrForbidden
	}
	return m, nil
}

func (s *MedicineService) UpdateMedicine(ctx context.Context, id uuid.UUID, cmd *medicine.UpdateMedicineCommand, callerID uuid.UUID, callerRole string, ip string) (*medicine.Medicine, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if callerRole == "doctor" && m.DoctorID != callerID {
		return nil, ErrForbidden
	}

	updated, err := s.repo.Update(ctx, id, cmd)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "update", ResourceType: "medicine", ResourceID: id.String(), IPAddress: ip,
	})

	return updated, nil
}

// DeleteMedicine removes a medicine from the catalogue. Historical
// prescription lines keep their denormalized name and now-orphaned id; they
// are never rewritten.
func (s *MedicineService) DeleteMedicine(ctx context.Context, id uuid.UUID, callerID uuid.UUID, callerRole string, ip string) error {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if callerRole == "doctor" && m.DoctorID != callerID {
		return ErrForbidden
	}

	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID: callerID, UserRole: callerRole,
		Action: "delete", ResourceType: "medicine", ResourceID: id.String(), IPAddress: ip,
	})

	return nil
}

func (s *MedicineService) ListMedicines(ctx context.Context, q *medicine.ListMedicinesQuery, callerID uuid.UUID, callerRole string) (*medicine.PagedMedicines, error) {
	if callerRole == "doctor" {
		q.DoctorID = callerID
	}
	if q.PageSize <= 0 || q.PageSize > 100 {
		q.PageSize = 20
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	return s.repo.List(ctx, q)
}

// LineAvailability is the advisory stock view for one prescription line in
// an in-progress appointment form.
type LineAvailability struct {
	MedicineID   uuid.UUID `json:"medicine_id"`
	DisplayStock int       `json:"display_stock"`
	// Depleted means the medicine may not be chosen on lines that do not
	// already reference it. The referencing line itself stays editable.
	Depleted bool `json:"depleted"`
}

// CheckAvailability recomputes the display stock for every line of an
// in-progress prescription form. Purely advisory: it reads authoritative
// stock but never mutates it, and a line's own reservation is excluded from
// the stock shown for that line.
func (s *MedicineService) CheckAvailability(ctx context.Context, lines []prescription.Line, callerID uuid.UUID, callerRole string) ([]LineAvailability, error) {
	if callerRole != "doctor" && callerRole != "admin" {
		return nil, ErrForbidden
	}

	reserved := prescription.ReservedByMedicine(lines)
	ids := make([]uuid.UUID, 0, len(reserved))
	for id := range reserved {
		ids = append(ids, id)
	}

	meds, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("reading medicine stock: %w", err)
	}

	stocks := make(map[uuid.UUID]int, len(meds))
	for _, m := range meds {
		if callerRole == "doctor" && m.DoctorID != callerID {
			return nil, ErrForbidden
		}
		stocks[m.ID] = m.Stock
	}

	display := prescription.DisplayStocks(lines, stocks)
	out := make([]LineAvailability, len(lines))
	for i, l := range lines {
		out[i] = LineAvailability{
			MedicineID:   l.MedicineID,
			DisplayStock: display[i],
			Depleted:     display[i] <= 0,
		}
	}
	return out, nil
}
