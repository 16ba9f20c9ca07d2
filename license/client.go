package license

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/MrunmayeeCom/Tally-Connector/external"

	extErrors "github.com/pkg/errors"
	"go.uber.org/zap"
)

// Sentinel errors surfaced by the License Service client
var (
	// ErrPlanNotFound indicates the selected plan is absent from the catalog
	ErrPlanNotFound = errors.New("selected plan not found in catalog")
	// ErrTransactionDataMissing indicates the purchase response lacked the
	// transaction or customer identifier required to create a payment order
	ErrTransactionDataMissing = errors.New("transaction data missing from purchase response")
)

// ClientOptions contains the configuration for the License Service client
type ClientOptions struct {
	Client    *external.Client
	ProductID string
	Logger    *zap.Logger
}

// Client talks to the License Service
type Client struct {
	ClientOptions
}

// NewClient validates the options and returns a License Service client
func NewClient(option ClientOptions) (*Client, error) {
	if option.Client == nil {
		return nil, fmt.Errorf("nil Client is invalid")
	}
	if len(option.ProductID) == 0 {
		return nil, fmt.Errorf("empty ProductID is invalid")
	}
	if option.Logger == nil {
		return nil, fmt.Errorf("nil Logger is invalid")
	}
	return &Client{
		ClientOptions: option,
	}, nil
}

// Catalog fetches the plans defined for this product
func (c *Client) Catalog(ctx context.Context) ([]Plan, error) {
	var res catalogResponse
	status, err := c.Client.Do(ctx, http.MethodGet, "/api/license/licenses-by-product/"+c.ProductID, nil, &res)
	if err != nil {
		return nil, extErrors.Wrap(err, "Cannot fetch license catalog")
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("license catalog returned HTTP %d", status)
	}
	plans := make([]Plan, 0, len(res.Licenses))
	for _, lic := range res.Licenses {
		plans = append(plans, lic.toPlan())
	}
	return plans, nil
}

// ResolvePlan fetches the catalog and matches the selected plan identifier
func (c *Client) ResolvePlan(ctx context.Context, planID string) (Plan, error) {
	plans, err := c.Catalog(ctx)
	if err != nil {
		return Plan{}, err
	}
	for _, plan := range plans {
		if plan.PlanID == planID {
			return plan, nil
		}
	}
	return Plan{}, ErrPlanNotFound
}

// PurchaseRequest is the payload for creating a purchase transaction
type PurchaseRequest struct {
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	LicenseID    string       `json:"licenseId"`
	BillingCycle BillingCycle `json:"billingCycle"`
	Amount       float64      `json:"amount"`
	Currency     string       `json:"currency"`
}

// PurchaseResult carries the identifiers of the pending transaction. Both
// fields are required by the payment order step.
type PurchaseResult struct {
	TransactionID string `json:"transactionId"`
	UserID        string `json:"userId"`
}

// Purchase creates a transaction on the License Service. For paid plans the
// transaction starts out pending and is finalized by payment verification; for
// free plans (amount 0) it is effectively final.
func (c *Client) Purchase(ctx context.Context, req PurchaseRequest) (PurchaseResult, error) {
	var res PurchaseResult
	status, err := c.Client.Do(ctx, http.MethodPost, "/api/license/purchase", req, &res)
	if err != nil {
		return PurchaseResult{}, extErrors.Wrap(err, "Cannot purchase license")
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return PurchaseResult{}, fmt.Errorf("license purchase returned HTTP %d", status)
	}
	if len(res.TransactionID) == 0 || len(res.UserID) == 0 {
		return PurchaseResult{}, ErrTransactionDataMissing
	}
	return res, nil
}

// Probe is the result of the active-license lookup
type Probe struct {
	Active  bool `json:"active"`
	HasPlan bool `json:"hasPlan"`
}

type probeResponse struct {
	ActiveLicense *struct {
		Status string `json:"status"`
	} `json:"activeLicense"`
}

// ActiveLicense reports whether the customer currently holds an active
// license. The probe fails open: any non-200 response, transport failure, or
// undecodable body yields the zero Probe so callers fall back to the least
// privileged UI state.
func (c *Client) ActiveLicense(ctx context.Context, email string) Probe {
	path := "/api/external/actve-license/" + url.PathEscape(email) + "?productId=" + url.QueryEscape(c.ProductID)

	var res probeResponse
	status, err := c.Client.Do(ctx, http.MethodGet, path, nil, &res)
	if err != nil {
		c.Logger.Warn("Active-license probe failed",
			zap.String("Email", email),
			zap.Error(err),
		)
		return Probe{}
	}
	if status != http.StatusOK {
		return Probe{}
	}
	if res.ActiveLicense == nil {
		return Probe{}
	}
	return Probe{
		Active:  res.ActiveLicense.Status == "active",
		HasPlan: true,
	}
}
