package medicine

import "errors"

var (
	ErrMedicineNotFound = errors.New("medicine not found")
	ErrNegativeStock    = errors.New("stock cannot be negative")
	ErrNameRequired     = errors.New("medicine name is required")
)
