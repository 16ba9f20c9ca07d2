package license

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestNewQuote(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		monthlyPrice float64
		cycle        BillingCycle
		subtotal     float64
		tax          float64
		total        float64
	}{
		{
			name:         "monthly is the base price",
			monthlyPrice: 1000,
			cycle:        CycleMonthly,
			subtotal:     1000,
			tax:          180,
			total:        1180,
		},
		{
			name:         "quarterly bills three months with 10% off",
			monthlyPrice: 1000,
			cycle:        CycleQuarterly,
			subtotal:     2700,
			tax:          486,
			total:        3186,
		},
		{
			name:         "yearly bills twelve months with 20% off",
			monthlyPrice: 1000,
			cycle:        CycleYearly,
			subtotal:     9600,
			tax:          1728,
			total:        11328,
		},
		{
			name:         "free plan quotes zero on any cycle",
			monthlyPrice: 0,
			cycle:        CycleYearly,
			subtotal:     0,
			tax:          0,
			total:        0,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			quote := NewQuote(tc.monthlyPrice, tc.cycle)
			if !almostEqual(quote.Subtotal, tc.subtotal) {
				t.Errorf("expected subtotal %v, got %v", tc.subtotal, quote.Subtotal)
			}
			if !almostEqual(quote.Tax, tc.tax) {
				t.Errorf("expected tax %v, got %v", tc.tax, quote.Tax)
			}
			if !almostEqual(quote.Total, tc.total) {
				t.Errorf("expected total %v, got %v", tc.total, quote.Total)
			}
			if !almostEqual(quote.Total, quote.Subtotal*(1+TaxRate)) {
				t.Errorf("total %v is not subtotal with tax applied", quote.Total)
			}
		})
	}
}

func TestBillingCycleBackend(t *testing.T) {
	t.Parallel()

	if got := CycleQuarterly.Backend(); got != CycleMonthly {
		t.Errorf("expected quarterly to collapse to monthly, got %s", got)
	}
	if got := CycleMonthly.Backend(); got != CycleMonthly {
		t.Errorf("expected monthly to stay monthly, got %s", got)
	}
	if got := CycleYearly.Backend(); got != CycleYearly {
		t.Errorf("expected yearly to stay yearly, got %s", got)
	}
}

func TestBillingCycleValid(t *testing.T) {
	t.Parallel()

	for _, cycle := range []BillingCycle{CycleMonthly, CycleQuarterly, CycleYearly} {
		if !cycle.Valid() {
			t.Errorf("expected %s to be valid", cycle)
		}
	}
	if BillingCycle("half-yearly").Valid() {
		t.Errorf("expected half-yearly to be invalid")
	}
}

func TestBillingCycleSavingsPercent(t *testing.T) {
	t.Parallel()

	if got := CycleMonthly.SavingsPercent(); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
	if got := CycleQuarterly.SavingsPercent(); got != 10 {
		t.Errorf("expected 10, got %d", got)
	}
	if got := CycleYearly.SavingsPercent(); got != 20 {
		t.Errorf("expected 20, got %d", got)
	}
}
