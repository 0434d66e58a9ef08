package prescription

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"plain integer", "4", 4},
		{"zero", "0", 0},
		{"whitespace padded", "  7 ", 7},
		{"empty", "", 0},
		{"negative", "-5", 0},
		{"free text", "two tablets", 0},
		{"decimal", "2.5", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseQuantity(tt.input))
		})
	}
}

func TestDisplayStocks_SharedMedicine(t *testing.T) {
	med := uuid.New()
	lines := []Line{
		{MedicineID: med, MedicineName: "Amoxicillin", Quantity: "4", Repetition: Repetition{Morning: true}},
		{MedicineID: med, MedicineName: "Amoxicillin", Quantity: "3", Repetition: Repetition{Evening: true}},
	}
	stocks := map[uuid.UUID]int{med: 10}

	got := DisplayStocks(lines, stocks)

	// Each line sees stock minus what the OTHER lines reserve: 10-3 and 10-4.
	assert.Equal(t, []int{7, 6}, got)
}

func TestDisplayStocks_UnknownMedicineShowsZero(t *testing.T) {
	known := uuid.New()
	unknown := uuid.New()
	lines := []Line{
		{MedicineID: known, Quantity: "2"},
		{MedicineID: unknown, Quantity: "1"},
	}

	got := DisplayStocks(lines, map[uuid.UUID]int{known: 5})

	assert.Equal(t, []int{5, 0}, got)
}

func TestDisplayStock_OwnQuantityExcluded(t *testing.T) {
	med := uuid.New()
	lines := []Line{
		{MedicineID: med, Quantity: "9"},
	}

	// A single line reserving nearly everything still sees the full stock:
	// its own reservation must not count against itself.
	assert.Equal(t, 10, DisplayStock(lines, 0, 10))
}

func TestDisplayStock_UnparseableQuantityContributesNothing(t *testing.T) {
	med := uuid.New()
	lines := []Line{
		{MedicineID: med, Quantity: "as needed"},
		{MedicineID: med, Quantity: "3"},
	}

	assert.Equal(t, 7, DisplayStock(lines, 0, 10))
	assert.Equal(t, 10, DisplayStock(lines, 1, 10))
}

func TestDisplayStock_MayGoNegative(t *testing.T) {
	med := uuid.New()
	lines := []Line{
		{MedicineID: med, Quantity: "8"},
		{MedicineID: med, Quantity: "5"},
	}

	// Advisory value is allowed to go negative; it is never written to stock.
	assert.Equal(t, 5, DisplayStock(lines, 0, 10))
	assert.Equal(t, 2, DisplayStock(lines, 1, 10))
}

func TestSelectable(t *testing.T) {
	med := uuid.New()
	other := uuid.New()
	lines := []Line{
		{MedicineID: med, Quantity: "10"},
		{MedicineID: other, Quantity: "1"},
	}

	// Fully reserved elsewhere: not selectable on a different line.
	assert.False(t, Selectable(lines, 1, med, 10))

	// The line already referencing the medicine stays editable even though
	// the remaining stock is zero.
	assert.True(t, Selectable(lines, 0, med, 10))

	// Partially reserved: still selectable.
	assert.True(t, Selectable(lines, 1, med, 12))
}

func TestDecrementTotals(t *testing.T) {
	amox := uuid.New()
	ibu := uuid.New()
	lines := []Line{
		{MedicineID: amox, Quantity: "4"},
		{MedicineID: amox, Quantity: "3"},
		{MedicineID: ibu, Quantity: "not parseable"},
		{MedicineID: ibu, Quantity: "2"},
		{MedicineID: uuid.Nil, Quantity: "9"},
	}

	totals := DecrementTotals(lines)

	assert.Equal(t, map[uuid.UUID]int{amox: 7, ibu: 2}, totals)
}

func TestDecrementTotals_AllUnparseable(t *testing.T) {
	med := uuid.New()
	lines := []Line{
		{MedicineID: med, Quantity: ""},
		{MedicineID: med, Quantity: "-1"},
	}

	assert.Empty(t, DecrementTotals(lines))
}

func TestLineValidate(t *testing.T) {
	valid := Line{
		MedicineID: uuid.New(),
		Quantity:   "2",
		Repetition: Repetition{Morning: true},
	}
	assert.NoError(t, valid.Validate())

	noMed := valid
	noMed.MedicineID = uuid.Nil
	assert.ErrorIs(t, noMed.Validate(), ErrMedicineRequired)

	blankQty := valid
	blankQty.Quantity = "   "
	assert.ErrorIs(t, blankQty.Validate(), ErrQuantityRequired)

	noRep := valid
	noRep.Repetition = Repetition{}
	assert.ErrorIs(t, noRep.Validate(), ErrNoRepetitionTime)

	// Free-text quantity is allowed at validation time; it only matters for
	// stock arithmetic.
	freeText := valid
	freeText.Quantity = "take as directed"
	assert.NoError(t, freeText.Validate())
}
