package record

import "errors"

var (
	ErrRecordNotFound    = errors.New("clinical record not found")
	ErrRecordImmutable   = errors.New("clinical records cannot be modified; use addenda")
	ErrInvalidRecordType = errors.New("invalid clinical record type")
)
