package medicine

// AlertConfig is passed explicitly by callers; the low-stock decision never
// reads ambient preference state.
type AlertConfig struct {
	Threshold int
	Enabled   bool
}

// LowStockAlert carries the data a user-facing low-stock notification needs.
// How the alert reaches the user is a delivery concern, not decided here.
type LowStockAlert struct {
	MedicineID   string
	MedicineName string
	Stock        int
}

// EvaluateLowStock decides whether a low-stock alert should fire for a
// medicine after its stock was decremented. It is evaluated once per
// medicine per completion, against the final post-decrement stock.
func EvaluateLowStock(id, name string, postStock int, cfg AlertConfig) (LowStockAlert, bool) {
	if !cfg.Enabled || postStock > cfg.Threshold {
		return LowStockAlert{}, false
	}
	return LowStockAlert{MedicineID: id, MedicineName: name, Stock: postStock}, true
}
