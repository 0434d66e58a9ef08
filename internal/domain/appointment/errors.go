package appointment

import "errors"

var (
	ErrAppointmentNotFound     = errors.New("appointment not found")
	ErrInvalidStatusTransition = errors.New("invalid appointment status transition")
	ErrScheduledInPast         = errors.New("cannot schedule appointment in the past")
	ErrInvalidPainSeverity     = errors.New("invalid pain severity value")
	ErrInvalidStatus           = errors.New("invalid appointment status")
)
