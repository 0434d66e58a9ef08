package prescription

import "errors"

var (
	ErrMedicineRequired = errors.New("prescription line must reference a medicine")
	ErrQuantityRequired = errors.New("prescription quantity is required")
	ErrNoRepetitionTime = errors.New("at least one repetition time must be selected")
)
