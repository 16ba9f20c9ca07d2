package checkout

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/MrunmayeeCom/Tally-Connector/broker"
	"github.com/MrunmayeeCom/Tally-Connector/directory"
	"github.com/MrunmayeeCom/Tally-Connector/license"
	"github.com/MrunmayeeCom/Tally-Connector/payment"

	"github.com/google/uuid"
	extErrors "github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Sentinel errors surfaced by the checkout Manager
var (
	// ErrAttemptNotFound indicates no checkout attempt exists for the id
	ErrAttemptNotFound = errors.New("checkout attempt not found")
	// ErrAttemptNotPending indicates the attempt already reached a terminal
	// state; a pending transaction only ever gets one verification
	ErrAttemptNotPending = errors.New("checkout attempt is not pending")
)

// Directory is the slice of the Customer Directory client the orchestrator needs
type Directory interface {
	Exists(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, req directory.CreateRequest) error
}

// Licenses is the slice of the License Service client the orchestrator needs
type Licenses interface {
	ResolvePlan(ctx context.Context, planID string) (license.Plan, error)
	Purchase(ctx context.Context, req license.PurchaseRequest) (license.PurchaseResult, error)
}

// Gateway is the slice of the Payment Gateway client the orchestrator needs
type Gateway interface {
	CreateOrder(ctx context.Context, req payment.OrderRequest) (*payment.Order, error)
	Verify(ctx context.Context, req payment.VerifyRequest) error
}

// ManagerOptions contains the configuration for the checkout Manager
type ManagerOptions struct {
	DB           *gorm.DB
	Directory    Directory
	Licenses     Licenses
	Gateway      Gateway
	Producer     broker.Producer
	Logger       *zap.Logger
	DashboardURL string
	PendingTTL   time.Duration
	ProbeCache   *license.ProbeCache // optional
}

// Manager drives the end-to-end purchase sequence and keeps the attempt ledger
type Manager struct {
	ManagerOptions
}

// NewManager validates the options and returns a checkout Manager
func NewManager(option ManagerOptions) (*Manager, error) {
	if option.DB == nil {
		return nil, fmt.Errorf("nil DB is invalid")
	}
	if option.Directory == nil {
		return nil, fmt.Errorf("nil Directory is invalid")
	}
	if option.Licenses == nil {
		return nil, fmt.Errorf("nil Licenses is invalid")
	}
	if option.Gateway == nil {
		return nil, fmt.Errorf("nil Gateway is invalid")
	}
	if option.Producer == nil {
		return nil, fmt.Errorf("nil Producer is invalid")
	}
	if option.Logger == nil {
		return nil, fmt.Errorf("nil Logger is invalid")
	}
	if len(option.DashboardURL) == 0 {
		return nil, fmt.Errorf("empty DashboardURL is invalid")
	}
	if option.PendingTTL <= 0 {
		option.PendingTTL = time.Minute * 30
	}
	if err := option.DB.AutoMigrate(&Attempt{}); err != nil {
		return nil, extErrors.Wrap(err, "Cannot initialize checkout.Manager")
	}
	return &Manager{
		ManagerOptions: option,
	}, nil
}

// BeginRequest carries the billing-contact form fields and the plan selection
type BeginRequest struct {
	PlanID       string
	CompanyName  string
	Email        string
	Phone        string
	BillingCycle license.BillingCycle
}

// BeginResult is handed back to the frontend. Order is nil for free plans;
// RedirectURL is set instead and the browser goes straight to the dashboard.
type BeginResult struct {
	Attempt     *Attempt       `json:"attempt"`
	Order       *payment.Order `json:"order,omitempty"`
	RedirectURL string         `json:"redirectUrl,omitempty"`
}

// Begin drives the purchase sequence for one submit: resolve the plan, ensure
// the customer record exists, create the transaction, and (for paid plans)
// create the payment order the browser popup needs. Every step is sequential
// and a failure at any step aborts the whole flow with no retry.
func (m *Manager) Begin(ctx context.Context, req BeginRequest) (*BeginResult, error) {
	logger := m.Logger.With(
		zap.String("Email", req.Email),
		zap.String("PlanID", req.PlanID),
	)

	plan, err := m.Licenses.ResolvePlan(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}

	exists, err := m.Directory.Exists(ctx, req.Email)
	if err != nil {
		return nil, extErrors.Wrap(err, "Cannot check customer existence")
	}
	if !exists {
		// check-then-create is not atomic; the directory enforces email
		// uniqueness and a concurrent duplicate create is benign
		if err := m.Directory.Create(ctx, directory.CreateRequest{
			Name:  req.CompanyName,
			Email: req.Email,
		}); err != nil {
			return nil, extErrors.Wrap(err, "Cannot create customer")
		}
	}

	currency := plan.Currency
	if len(currency) == 0 {
		currency = defaultCurrency
	}

	attempt := &Attempt{
		ID:           uuid.New().String(),
		Email:        req.Email,
		CompanyName:  req.CompanyName,
		PlanID:       plan.PlanID,
		LicenseID:    plan.LicenseID,
		BillingCycle: req.BillingCycle,
		Currency:     currency,
		State:        StatePending,
	}

	if plan.Free() {
		return m.beginFree(ctx, logger, plan, attempt)
	}

	quote := plan.Quote(req.BillingCycle)
	attempt.Subtotal = quote.Subtotal
	attempt.Tax = quote.Tax
	attempt.Total = quote.Total

	result, err := m.Licenses.Purchase(ctx, license.PurchaseRequest{
		Name:         attempt.CompanyName,
		Email:        attempt.Email,
		LicenseID:    plan.LicenseID,
		BillingCycle: req.BillingCycle.Backend(),
		Amount:       quote.Total,
		Currency:     currency,
	})
	if err != nil {
		return nil, err
	}
	attempt.TransactionID = result.TransactionID
	attempt.UserID = result.UserID

	// the gateway receives the storefront cycle as-is; only the License
	// Service needs the collapsed one
	order, err := m.Gateway.CreateOrder(ctx, payment.OrderRequest{
		UserID:       result.UserID,
		LicenseID:    plan.LicenseID,
		BillingCycle: req.BillingCycle,
		Amount:       int64(math.Round(quote.Total * 100)),
	})
	if err != nil {
		attempt.State = StateFailed
		attempt.PreviousState = StatePending
		if saveErr := m.save(ctx, attempt); saveErr != nil {
			logger.Error("Cannot record failed attempt",
				zap.Error(saveErr),
			)
		}
		return nil, extErrors.Wrap(err, "Cannot create payment order")
	}
	attempt.OrderID = order.OrderID

	if err := m.save(ctx, attempt); err != nil {
		return nil, err
	}

	return &BeginResult{
		Attempt: attempt,
		Order:   order,
	}, nil
}

// beginFree activates a zero-price plan. The gateway is never involved: the
// transaction is created with amount 0 and the customer goes straight to the
// dashboard.
func (m *Manager) beginFree(ctx context.Context, logger *zap.Logger, plan license.Plan, attempt *Attempt) (*BeginResult, error) {
	result, err := m.Licenses.Purchase(ctx, license.PurchaseRequest{
		Name:         attempt.CompanyName,
		Email:        attempt.Email,
		LicenseID:    plan.LicenseID,
		BillingCycle: license.CycleMonthly,
		Amount:       0,
		Currency:     attempt.Currency,
	})
	if err != nil {
		return nil, err
	}
	attempt.TransactionID = result.TransactionID
	attempt.UserID = result.UserID
	attempt.PreviousState = StatePending
	attempt.State = StatePaid

	if err := m.save(ctx, attempt); err != nil {
		return nil, err
	}

	logger.Info("Free plan activated")
	m.publish(broker.EventPaid, attempt)
	m.invalidateProbe(attempt.Email)

	return &BeginResult{
		Attempt:     attempt,
		RedirectURL: m.DashboardURL,
	}, nil
}

// Complete verifies the signed payment fields for a pending attempt and
// transitions it to Paid. A failed verification is terminal for the attempt.
func (m *Manager) Complete(ctx context.Context, attemptID string, proof payment.VerifyRequest) (*Attempt, error) {
	attempt, err := m.GetByID(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt == nil {
		return nil, ErrAttemptNotFound
	}
	if attempt.State != StatePending {
		return nil, ErrAttemptNotPending
	}

	proof.TransactionID = attempt.TransactionID
	if err := m.Gateway.Verify(ctx, proof); err != nil {
		attempt.PreviousState = attempt.State
		attempt.State = StateFailed
		if saveErr := m.save(ctx, attempt); saveErr != nil {
			m.Logger.Error("Cannot record failed attempt",
				zap.Error(saveErr),
			)
		}
		m.publish(broker.EventFailed, attempt)
		return nil, err
	}

	attempt.PreviousState = attempt.State
	attempt.State = StatePaid
	if err := m.save(ctx, attempt); err != nil {
		return nil, err
	}

	m.publish(broker.EventPaid, attempt)
	m.invalidateProbe(attempt.Email)

	return attempt, nil
}

// GetByID will try to return the attempt in the database by id
func (m *Manager) GetByID(ctx context.Context, id string) (*Attempt, error) {
	var attempt Attempt

	result := m.DB.WithContext(ctx).First(&attempt, "id = ?", id)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if result.Error != nil {
		m.Logger.Error("Database returned error",
			zap.Error(result.Error),
		)
		return nil, extErrors.Wrap(result.Error, "Cannot get attempt by id")
	}

	return &attempt, nil
}

// ExpireStale sweeps pending attempts whose popup was abandoned past the TTL
// into Expired and publishes a lifecycle event for each
func (m *Manager) ExpireStale(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-m.PendingTTL)

	stale := make([]Attempt, 0)
	result := m.DB.WithContext(ctx).
		Where("state = ? AND updated_at < ?", StatePending, cutoff).
		Find(&stale)
	if result.Error != nil {
		m.Logger.Error("Database returned error",
			zap.Error(result.Error),
		)
		return 0, extErrors.Wrap(result.Error, "Cannot list stale attempts")
	}

	expired := 0
	for k := range stale {
		attempt := &stale[k]
		attempt.PreviousState = attempt.State
		attempt.State = StateExpired
		if err := m.save(ctx, attempt); err != nil {
			continue
		}
		m.publish(broker.EventExpired, attempt)
		expired++
	}

	return expired, nil
}

func (m *Manager) save(ctx context.Context, attempt *Attempt) error {
	result := m.DB.WithContext(ctx).Save(attempt)
	if result.Error != nil {
		m.Logger.Error("Database returned error",
			zap.Error(result.Error),
		)
		return extErrors.Wrap(result.Error, "Cannot save attempt")
	}
	return nil
}

func (m *Manager) publish(eventType broker.EventType, attempt *Attempt) {
	if err := m.Producer.SendTransactionEvent(&broker.TransactionEvent{
		Type:          eventType,
		AttemptID:     attempt.ID,
		TransactionID: attempt.TransactionID,
		Email:         attempt.Email,
		PlanID:        attempt.PlanID,
		Total:         attempt.Total,
		Timestamp:     time.Now(),
	}); err != nil {
		m.Logger.Error("Cannot publish lifecycle event",
			zap.String("AttemptID", attempt.ID),
			zap.Error(err),
		)
	}
}

func (m *Manager) invalidateProbe(email string) {
	if m.ProbeCache == nil {
		return
	}
	m.ProbeCache.Invalidate(email)
}
