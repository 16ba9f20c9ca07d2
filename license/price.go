package license

// BillingCycle is the custom type for the billing frequency a customer picks
type BillingCycle string

// Defining the billing cycles offered on the pricing section
const (
	CycleMonthly   BillingCycle = "monthly"
	CycleQuarterly BillingCycle = "quarterly"
	CycleYearly    BillingCycle = "yearly"
)

// Fixed business constants. Quarterly bills three months with 10% off, yearly
// bills twelve months with 20% off, and GST applies on the discounted subtotal.
const (
	TaxRate           float64 = 0.18
	quarterlyDiscount float64 = 0.9
	yearlyDiscount    float64 = 0.8
	monthsPerQuarter  float64 = 3
	monthsPerYear     float64 = 12
)

// Valid reports whether the cycle is one the pricing section offers
func (b BillingCycle) Valid() bool {
	switch b {
	case CycleMonthly, CycleQuarterly, CycleYearly:
		return true
	}
	return false
}

// Backend collapses the cycle to one the License Service accepts. The service
// only bills monthly or yearly; quarterly is a storefront-side cycle.
func (b BillingCycle) Backend() BillingCycle {
	if b == CycleQuarterly {
		return CycleMonthly
	}
	return b
}

// SavingsPercent is the discount shown next to the cycle on the pricing section
func (b BillingCycle) SavingsPercent() int {
	switch b {
	case CycleQuarterly:
		return 10
	case CycleYearly:
		return 20
	default:
		return 0
	}
}

// Quote is the priced breakdown of a Plan for one billing cycle
type Quote struct {
	Cycle    BillingCycle `json:"cycle"`
	Subtotal float64      `json:"subtotal"`
	Tax      float64      `json:"tax"`
	Total    float64      `json:"total"`
}

// NewQuote prices a monthly base amount for the given cycle
func NewQuote(monthlyPrice float64, cycle BillingCycle) Quote {
	var subtotal float64
	switch cycle {
	case CycleQuarterly:
		subtotal = monthlyPrice * monthsPerQuarter * quarterlyDiscount
	case CycleYearly:
		subtotal = monthlyPrice * monthsPerYear * yearlyDiscount
	default:
		subtotal = monthlyPrice
	}
	tax := subtotal * TaxRate
	return Quote{
		Cycle:    cycle,
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal + tax,
	}
}

// Quote prices this Plan for the given cycle
func (p Plan) Quote(cycle BillingCycle) Quote {
	return NewQuote(p.MonthlyPrice, cycle)
}
