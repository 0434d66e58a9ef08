package medicine

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, m *Medicine) error

	// GetByID retrieves a medicine by primary key. Returns ErrMedicineNotFound
	// if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*Medicine, error)

	// GetByIDs retrieves the given medicines in one query. Missing ids are
	// simply absent from the result.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*Medicine, error)

	// GetByIDsForUpdate is GetByIDs with a row-level lock. Only meaningful
	// inside a transaction; the completion path uses it to re-read stock
	// under SELECT ... FOR UPDATE before decrementing.
	GetByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]*Medicine, error)

	Update(ctx context.Context, id uuid.UUID, cmd *UpdateMedicineCommand) (*Medicine, error)

	// SaveStock persists a medicine's stock value.
	SaveStock(ctx context.Context, m *Medicine) error

	// SoftDelete removes a medicine from the doctor's catalogue. Historical
	// prescription lines keep their denormalized name and orphaned id.
	SoftDelete(ctx context.Context, id uuid.UUID) error

	List(ctx context.Context, q *ListMedicinesQuery) (*PagedMedicines, error)
}
