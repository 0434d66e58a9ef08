package service

import (
	"context"

	"github.com/curaflow/curaflow-api/internal/domain/appointment"
	"github.com/curaflow/curaflow-api/internal/domain/medicine"
)

// TxRepos bundles the repositories that participate in one atomic batch.
// The completion transaction mixes an appointment write with N medicine
// stock writes; both repositories must be bound to the same transaction.
type TxRepos struct {
	Appointments appointment.Repository
	Medicines    medicine.Repository
}

// UnitOfWork executes fn inside a single database transaction. If fn returns
// an error the whole batch rolls back and nothing is visible; partial
// application (appointment completed but stock untouched, or vice versa) is
// the failure mode this contract exists to prevent.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(tx TxRepos) error) error
}
