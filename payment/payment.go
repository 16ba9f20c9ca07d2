package payment

import "github.com/MrunmayeeCom/Tally-Connector/license"

// OrderRequest is the payload for creating a payment order against a pending
// transaction. Amount is in minor currency units (paise).
type OrderRequest struct {
	UserID       string               `json:"userId"`
	LicenseID    string               `json:"licenseId"`
	BillingCycle license.BillingCycle `json:"billingCycle"`
	Amount       int64                `json:"amount"`
}

// Order is the ephemeral gateway order the browser popup needs to collect a
// payment. One-to-one with a pending transaction at creation time.
type Order struct {
	OrderID  string `json:"orderId"`
	Key      string `json:"key"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// VerifyRequest carries the signed fields the gateway popup hands back on a
// successful payment, plus the transaction the payment settles.
type VerifyRequest struct {
	TransactionID string `json:"transactionId"`
	PaymentID     string `json:"paymentId"`
	OrderID       string `json:"orderId"`
	Signature     string `json:"signature"`
}
