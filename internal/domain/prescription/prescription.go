package prescription

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Repetition captures when during the day a prescribed medicine is taken.
type Repetition struct {
	Morning   bool `json:"morning"`
	Afternoon bool `json:"afternoon"`
	Evening   bool `json:"evening"`
}

// Any reports whether at least one repetition time is selected.
func (r Repetition) Any() bool {
	return r.Morning || r.Afternoon || r.Evening
}

// Line is a single prescribed medicine embedded in an appointment. Lines are
// kept in insertion order; multiple lines may reference the same medicine and
// each is honored independently.
//
// MedicineName is a snapshot taken at prescribing time and is never re-synced
// with the medicine record. A prescription must read as it was written, even
// if the medicine is later renamed or deleted.
type Line struct {
	MedicineID   uuid.UUID  `json:"medicine_id"`
	MedicineName string     `json:"medicine_name"`
	Quantity     string     `json:"quantity"`
	Repetition   Repetition `json:"repetition"`
	Instructions string     `json:"instructions,omitempty"`
}

// Validate enforces submission-time requirements. A quantity that is present
// but does not parse as a non-negative integer is NOT a validation error: it
// simply contributes nothing to stock arithmetic.
func (l Line) Validate() error {
	if l.MedicineID == uuid.Nil {
		return ErrMedicineRequired
	}
	if strings.TrimSpace(l.Quantity) == "" {
		return ErrQuantityRequired
	}
	if !l.Repetition.Any() {
		return ErrNoRepetitionTime
	}
	return nil
}

// ValidateLines validates every line before submission.
func ValidateLines(lines []Line) error {
	for _, l := range lines {
		if err := l.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ParseQuantity interprets a line's free-text quantity for stock purposes.
// Anything that is not a non-negative integer counts as zero.
func ParseQuantity(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// ParsedQuantity returns the stock-relevant quantity of this line.
func (l Line) ParsedQuantity() int {
	return ParseQuantity(l.Quantity)
}
