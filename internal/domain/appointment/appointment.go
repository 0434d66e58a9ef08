package appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/curaflow/curaflow-api/internal/domain/prescription"
)

// PainSeverity is the patient-reported pain level recorded on a visit.
type PainSeverity string

const (
	PainNone     PainSeverity = "none"
	PainMild     PainSeverity = "mild"
	PainModerate PainSeverity = "moderate"
	PainSevere   PainSeverity = "severe"
)

func (p PainSeverity) IsValid() bool {
	switch p {
	case PainNone, PainMild, PainModerate, PainSevere:
		return true
	}
	return false
}

// State transitions possibilities:
//
//	scheduled → completed
//	scheduled → cancelled
//
// Completed and cancelled are terminal. Re-saving a terminal appointment is
// a plain field update; the stock decrement fires only on the transition
// INTO completed.
type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

func (s AppointmentStatus) IsValid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type Appointment struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	PatientID uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index"`
	DoctorID  uuid.UUID `gorm:"column:doctor_id;type:uuid;not null;index"`

	ScheduledAt time.Time         `gorm:"column:scheduled_at;not null;index"`
	Status      AppointmentStatus `gorm:"column:status;type:varchar(30);not null;default:'scheduled';index"`

	// Clinical payload
	PatientRemarks string        `gorm:"column:patient_remarks;type:text"`
	DoctorRemarks  string        `gorm:"column:doctor_remarks;type:text"`
	PainSeverity   *PainSeverity `gorm:"column:pain_severity;type:varchar(20)"`
	Symptoms       []string      `gorm:"column:symptoms;serializer:json"`
	FollowUpDate   *time.Time    `gorm:"column:follow_up_date"`

	// Prescriptions are embedded in the appointment document, in insertion
	// order. Lines carry denormalized medicine names (snapshot at
	// prescribing time).
	Prescriptions []prescription.Line `gorm:"column:prescriptions;serializer:json"`

	CompletedAt *time.Time `gorm:"column:completed_at"`

	// Cancellation tracking
	CancelledAt        *time.Time `gorm:"column:cancelled_at"`
	CancellationReason string     `gorm:"column:cancellation_reason;type:text"`

	CreatedBy uuid.UUID `gorm:"column:created_by;type:uuid;not null"`
}

func (Appointment) TableName() string {
	return "clinical.appointments"
}

func (a *Appointment) CanTransitionTo(newStatus AppointmentStatus) bool {
	allowed := map[AppointmentStatus][]AppointmentStatus{
		StatusScheduled: {StatusCompleted, StatusCancelled},
		StatusCompleted: {},
		StatusCancelled: {},
	}

	for _, s := range allowed[a.Status] {
		if s == newStatus {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the appointment can no longer change status.
func (a *Appointment) IsTerminal() bool {
	return a.Status == StatusCompleted || a.Status == StatusCancelled
}

func (a *Appointment) Cancel(reason string) error {
	if !a.CanTransitionTo(StatusCancelled) {
		return ErrInvalidStatusTransition
	}
	now := time.Now()
	a.Status = StatusCancelled
	a.CancelledAt = &now
	a.CancellationReason = reason
	return nil
}

func (a *Appointment) Complete() error {
	if !a.CanTransitionTo(StatusCompleted) {
		return ErrInvalidStatusTransition
	}
	now := time.Now()
	a.Status = StatusCompleted
	a.CompletedAt = &now
	return nil
}

type CreateAppointmentCommand struct {
	PatientID      uuid.UUID
	DoctorID       uuid.UUID
	ScheduledAt    time.Time
	PatientRemarks string
	CreatedBy      uuid.UUID
}

// UpdateAppointmentCommand applies doctor edits to an appointment without
// touching its status or stock.
type UpdateAppointmentCommand struct {
	ScheduledAt    *time.Time
	PatientRemarks *string
	DoctorRemarks  *string
	PainSeverity   *PainSeverity
	Symptoms       *[]string
	FollowUpDate   *time.Time
	Prescriptions  *[]prescription.Line
	UpdatedBy      uuid.UUID
}

// CompleteAppointmentCommand is the final field set submitted when the
// doctor marks the appointment completed. Prescriptions is the full line
// list as of submission; the stock decrement derives from it.
type CompleteAppointmentCommand struct {
	DoctorRemarks string
	PainSeverity  *PainSeverity
	Symptoms      []string
	FollowUpDate  *time.Time
	Prescriptions []prescription.Line
	CompletedBy   uuid.UUID
}

type CancelAppointmentCommand struct {
	Reason      string
	CancelledBy uuid.UUID
}

type ListAppointmentsQuery struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Status    *AppointmentStatus
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
}

type PagedAppointments struct {
	Appointments []*Appointment
	TotalCount   int64
	Page         int
	PageSize     int
	TotalPages   int
}
