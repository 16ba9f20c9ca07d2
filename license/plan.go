package license

// Plan describes a purchasable license tier as defined by the License Service.
// PlanID identifies the license type (the tier the customer picks on the
// pricing section), LicenseID identifies the concrete license record used when
// purchasing.
type Plan struct {
	LicenseID    string  `json:"licenseId"`
	PlanID       string  `json:"planId"`
	Name         string  `json:"name"`
	MonthlyPrice float64 `json:"monthlyPrice"`
	Currency     string  `json:"currency"`
}

// Free reports whether this Plan carries no charge. Free plans never touch the
// payment gateway.
func (p Plan) Free() bool {
	return p.MonthlyPrice == 0
}

// catalogResponse is the documented schema of the licenses-by-product
// endpoint. The upstream contract used to be probed speculatively across
// multiple shapes; decoding is now strict and a missing field is a hard error.
type catalogResponse struct {
	Licenses []catalogLicense `json:"licenses"`
}

type catalogLicense struct {
	ID          string             `json:"id"`
	LicenseType catalogLicenseType `json:"licenseType"`
}

type catalogLicenseType struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Price catalogPrice `json:"price"`
}

type catalogPrice struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

func (l catalogLicense) toPlan() Plan {
	return Plan{
		LicenseID:    l.ID,
		PlanID:       l.LicenseType.ID,
		Name:         l.LicenseType.Name,
		MonthlyPrice: l.LicenseType.Price.Amount,
		Currency:     l.LicenseType.Price.Currency,
	}
}
