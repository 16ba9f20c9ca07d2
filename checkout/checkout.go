package checkout

import (
	"time"

	"github.com/MrunmayeeCom/Tally-Connector/license"
)

// Attempt is the local ledger record of one checkout submission. The
// transaction itself lives in the License Service; the Attempt exists so that
// abandoned payment popups can be reconciled and so no second payment order is
// ever requested for the same pending transaction.
type Attempt struct {
	ID            string               `json:"id" gorm:"primaryKey"`
	Email         string               `json:"email" gorm:"index"`
	CompanyName   string               `json:"companyName"`
	PlanID        string               `json:"planId"`
	LicenseID     string               `json:"licenseId"`
	BillingCycle  license.BillingCycle `json:"billingCycle"`
	Subtotal      float64              `json:"subtotal"`
	Tax           float64              `json:"tax"`
	Total         float64              `json:"total"`
	Currency      string               `json:"currency"`
	TransactionID string               `json:"transactionId" gorm:"index"`
	UserID        string               `json:"userId"`
	OrderID       string               `json:"orderId"`
	State         State                `json:"state" gorm:"index"`
	PreviousState State                `json:"previousState"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}
