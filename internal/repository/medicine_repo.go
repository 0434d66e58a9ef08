package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/curaflow/curaflow-api/internal/domain/medicine"
)

type MedicineRepository struct {
	db *gorm.DB
}

func NewMedicineRepository(db *gorm.DB) *MedicineRepository {
	return &MedicineRepository{db: db}
}

var _ medicine.Repository = (*MedicineRepository)(nil)

func (r *MedicineRepository) Create(ctx context.Context, m *medicine.Medicine) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("inserting medicine: %w", err)
	}
	return nil
}

func (r *MedicineRepository) GetByID(ctx context.Context, id uuid.UUID) (*medicine.Medicine, error) {
	var m medicine.Medicine
	err := r.db.WithContext(ctx).First(&m, "id = ? AND deleted_at IS NULL", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, medicine.ErrMedicineNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying medicine: %w", err)
	}
	return &m, nil
}

func (r *MedicineRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*medicine.Medicine, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var meds []*medicine.Medicine
	if err := r.db.WithContext(ctx).Where("id IN ? AND deleted_at IS NULL", ids).Find(&meds).Error; err != nil {
		return nil, fmt.Errorf("querying medicines: %w", err)
	}
	return meds, nil
}

func (r *MedicineRepository) GetByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]*medicine.Medicine, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var meds []*medicine.Medicine
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ? AND deleted_at IS NULL", ids).
		Find(&meds).Error
	if err != nil {
		return nil, fmt.Errorf("locking medicines: %w", err)
	}
	return meds, nil
}

func (r *MedicineRepository) Update(ctx context.Context, id uuid.UUID, cmd *medicine.UpdateMedicineCommand) (*medicine.Medicine, error) {
	m, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if cmd.Name != nil {
		m.Name = *cmd.Name
	}
	if cmd.Description != nil {
		m.Description = *cmd.Description
	}
	if cmd.Stock != nil {
		if *cmd.Stock < 0 {
			return nil, medicine.ErrNegativeStock
		}
		m.Stock = *cmd.Stock
	}

	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return nil, fmt.Errorf("saving medicine: %w", err)
	}
	return m, nil
}

func (r *MedicineRepository) SaveStock(ctx context.Context, m *medicine.Medicine) error {
	err := r.db.WithContext(ctx).
		Model(m).
		Update("stock", m.Stock).Error
	if err != nil {
		return fmt.Errorf("saving medicine stock: %w", err)
	}
	return nil
}

func (r *MedicineRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&medicine.Medicine{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", gorm.Expr("now()"))
	if res.Error != nil {
		return fmt.Errorf("deleting medicine: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return medicine.ErrMedicineNotFound
	}
	return nil
}

func (r *MedicineRepository) List(ctx context.Context, q *medicine.ListMedicinesQuery) (*medicine.PagedMedicines, error) {
	db := r.db.WithContext(ctx).
		Model(&medicine.Medicine{}).
		Where("doctor_id = ? AND deleted_at IS NULL", q.DoctorID)

	if q.Search != "" {
		db = db.Where("name ILIKE ?", "%"+q.Search+"%")
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting medicines: %w", err)
	}

	var meds []*medicine.Medicine
	err := db.Order("name asc").
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&meds).Error
	if err != nil {
		return nil, fmt.Errorf("listing medicines: %w", err)
	}

	return &medicine.PagedMedicines{
		Medicines:  meds,
		TotalCount: total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: totalPages(total, q.PageSize),
	}, nil
}
