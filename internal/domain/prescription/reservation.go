package prescription

import "github.com/google/uuid"

// ReservedByMedicine sums the parsed quantities per medicine across all
// lines of an in-progress prescription form. Unparseable or empty quantities
// contribute zero.
func ReservedByMedicine(lines []Line) map[uuid.UUID]int {
	reserved := make(map[uuid.UUID]int, len(lines))
	for _, l := range lines {
		if l.MedicineID == uuid.Nil {
			continue
		}
		reserved[l.MedicineID] += l.ParsedQuantity()
	}
	return reserved
}

// DisplayStock computes the stock value to show for line i while the form is
// being edited: the authoritative stock minus everything reserved by OTHER
// lines referencing the same medicine. The line's own reservation is added
// back so a line is never penalized by its own quantity when deciding whether
// it can keep its medicine.
//
// The result is advisory only and may be negative; callers use it for display
// and for disabling depleted options, never for mutating stock.
func DisplayStock(lines []Line, i int, authoritative int) int {
	if i < 0 || i >= len(lines) {
		return authoritative
	}
	line := lines[i]
	total := 0
	for _, l := range lines {
		if l.MedicineID == line.MedicineID {
			total += l.ParsedQuantity()
		}
	}
	return authoritative - total + line.ParsedQuantity()
}

// DisplayStocks computes DisplayStock for every line, resolving each line's
// authoritative stock from the lookup. Lines referencing an unknown medicine
// get a display stock of zero.
func DisplayStocks(lines []Line, stocks map[uuid.UUID]int) []int {
	reserved := ReservedByMedicine(lines)
	out := make([]int, len(lines))
	for i, l := range lines {
		authoritative, ok := stocks[l.MedicineID]
		if !ok {
			out[i] = 0
			continue
		}
		out[i] = authoritative - reserved[l.MedicineID] + l.ParsedQuantity()
	}
	return out
}

// Selectable reports whether medicineID may be selected on line i. A medicine
// whose displayed stock would be depleted by other lines is disabled, except
// for a line that already references it: that line stays editable so the user
// can lower its quantity or remove it.
func Selectable(lines []Line, i int, medicineID uuid.UUID, authoritative int) bool {
	if i >= 0 && i < len(lines) && lines[i].MedicineID == medicineID {
		return true
	}
	total := 0
	for _, l := range lines {
		if l.MedicineID == medicineID {
			total += l.ParsedQuantity()
		}
	}
	return authoritative-total > 0
}

// DecrementTotals aggregates the stock decrement to apply per medicine when
// an appointment is completed. Only quantities parsing to a positive integer
// contribute; lines referencing the same medicine are summed so each medicine
// is written exactly once.
func DecrementTotals(lines []Line) map[uuid.UUID]int {
	totals := make(map[uuid.UUID]int, len(lines))
	for _, l := range lines {
		if l.MedicineID == uuid.Nil {
			continue
		}
		if q := l.ParsedQuantity(); q > 0 {
			totals[l.MedicineID] += q
		}
	}
	return totals
}
