package medicine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateLowStock(t *testing.T) {
	cfg := AlertConfig{Threshold: 5, Enabled: true}

	tests := []struct {
		name      string
		postStock int
		cfg       AlertConfig
		wantFire  bool
	}{
		{"at threshold fires", 5, cfg, true},
		{"below threshold fires", 2, cfg, true},
		{"zero fires", 0, cfg, true},
		{"just above threshold does not fire", 6, cfg, false},
		{"disabled never fires", 0, AlertConfig{Threshold: 5, Enabled: false}, false},
		{"custom threshold", 10, AlertConfig{Threshold: 10, Enabled: true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alert, fired := EvaluateLowStock("id-1", "Amoxicillin", tt.postStock, tt.cfg)
			assert.Equal(t, tt.wantFire, fired)
			if fired {
				assert.Equal(t, "Amoxicillin", alert.MedicineName)
				assert.Equal(t, tt.postStock, alert.Stock)
			}
		})
	}
}

func TestApplyDecrement(t *testing.T) {
	m := &Medicine{Stock: 8}
	assert.Equal(t, 5, m.ApplyDecrement(3))
	assert.Equal(t, 5, m.Stock)
}

func TestApplyDecrement_ClampsAtZero(t *testing.T) {
	m := &Medicine{Stock: 2}
	assert.Equal(t, 0, m.ApplyDecrement(10))
	assert.Equal(t, 0, m.Stock)
}

func TestApplyDecrement_NonPositiveIsNoop(t *testing.T) {
	m := &Medicine{Stock: 4}
	assert.Equal(t, 4, m.ApplyDecrement(0))
	assert.Equal(t, 4, m.ApplyDecrement(-3))
	assert.Equal(t, 4, m.Stock)
}
