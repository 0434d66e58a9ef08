package appointment

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// GetByIDForUpdate re-reads the appointment under a row-level lock. Only
	// meaningful inside a transaction; the completion path uses it so the
	// status guard acts on the persisted status, not on client-held state.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Appointment, error)

	Update(ctx context.Context, id uuid.UUID, cmd *UpdateAppointmentCommand) (*Appointment, error)

	// Save persists the full appointment row, including embedded
	// prescription lines.
	Save(ctx context.Context, a *Appointment) error

	// UpdateStatus persists a status change made through the state machine.
	UpdateStatus(ctx context.Context, a *Appointment) error

	List(ctx context.Context, q *ListAppointmentsQuery) (*PagedAppointments, error)
}
