package checkout

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/MrunmayeeCom/Tally-Connector/license"
	"github.com/MrunmayeeCom/Tally-Connector/payment"
	resp "github.com/MrunmayeeCom/Tally-Connector/response"

	"github.com/go-chi/chi"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var validate *validator.Validate = validator.New()

// ServiceOptions contains the configuration for Service router
type ServiceOptions struct {
	Manager *Manager
	Logger  *zap.Logger
}

// Service is the checkout API router
type Service struct {
	ServiceOptions
}

// NewService will create an instance of the checkout API router
func NewService(option ServiceOptions) (*Service, error) {
	if option.Manager == nil {
		return nil, fmt.Errorf("nil Manager is invalid")
	}
	if option.Logger == nil {
		return nil, fmt.Errorf("nil Logger is invalid")
	}
	return &Service{
		ServiceOptions: option,
	}, nil
}

// BeginHTTPRequest is the model of a checkout submission
type BeginHTTPRequest struct {
	PlanID       string `json:"planId" validate:"required"`
	CompanyName  string `json:"companyName" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone"`
	BillingCycle string `json:"billingCycle" validate:"required,oneof=monthly quarterly yearly"`
}

func (s *Service) begin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req BeginHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		resp.WriteError(w, r, resp.ErrInvalidJson())
		return
	}
	if err := validate.Struct(&req); err != nil {
		resp.WriteError(w, r, resp.ErrBadRequest().AddMessages("Billing details are incomplete"))
		return
	}

	logger := s.Logger.With(
		zap.String("Email", req.Email),
		zap.String("PlanID", req.PlanID),
	)

	result, err := s.Manager.Begin(ctx, BeginRequest{
		PlanID:       req.PlanID,
		CompanyName:  req.CompanyName,
		Email:        req.Email,
		Phone:        req.Phone,
		BillingCycle: license.BillingCycle(req.BillingCycle),
	})
	if err != nil {
		switch {
		case errors.Is(err, license.ErrPlanNotFound):
			resp.WriteError(w, r, resp.ErrNotFound().AddMessages("Selected plan not found"))
		case errors.Is(err, license.ErrTransactionDataMissing):
			logger.Error("License service omitted transaction identifiers",
				zap.Error(err),
			)
			resp.WriteError(w, r, resp.ErrBadGateway().AddMessages("Transaction data missing. Please try again."))
		default:
			logger.Error("Unable to begin checkout",
				zap.Error(err),
			)
			resp.WriteError(w, r, resp.ErrUnexpected().AddMessages("Something went wrong. Please try again."))
		}
		return
	}

	resp.WriteResponse(w, r, result)
}

// VerifyHTTPRequest carries the signed fields the gateway popup handed back
type VerifyHTTPRequest struct {
	PaymentID string `json:"paymentId" validate:"required"`
	OrderID   string `json:"orderId" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}

func (s *Service) verify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	attemptID := chi.URLParam(r, "id")

	var req VerifyHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		resp.WriteError(w, r, resp.ErrInvalidJson())
		return
	}
	if err := validate.Struct(&req); err != nil {
		resp.WriteError(w, r, resp.ErrBadRequest().AddMessages("Payment fields are incomplete"))
		return
	}

	logger := s.Logger.With(zap.String("AttemptID", attemptID))

	attempt, err := s.Manager.Complete(ctx, attemptID, payment.VerifyRequest{
		PaymentID: req.PaymentID,
		OrderID:   req.OrderID,
		Signature: req.Signature,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrAttemptNotFound):
			resp.WriteError(w, r, resp.ErrNotFound().AddMessages("Checkout attempt not found"))
		case errors.Is(err, ErrAttemptNotPending):
			resp.WriteError(w, r, resp.ErrConflict().AddMessages("Checkout attempt was already settled"))
		case errors.Is(err, payment.ErrVerificationFailed):
			resp.WriteError(w, r, resp.ErrBadRequest().AddMessages("Payment could not be verified"))
		default:
			logger.Error("Unable to complete checkout",
				zap.Error(err),
			)
			resp.WriteError(w, r, resp.ErrUnexpected().AddMessages("Something went wrong. Please try again."))
		}
		return
	}

	resp.WriteResponse(w, r, attempt)
}

func (s *Service) getAttempt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	attemptID := chi.URLParam(r, "id")

	attempt, err := s.Manager.GetByID(ctx, attemptID)
	if err != nil {
		resp.WriteError(w, r, resp.ErrUnexpected().AddMessages("Something went wrong. Please try again."))
		return
	}
	if attempt == nil {
		resp.WriteError(w, r, resp.ErrNotFound().AddMessages("Checkout attempt not found"))
		return
	}

	resp.WriteResponse(w, r, attempt)
}

// Router will return the routes under checkout API
func (s *Service) Router() http.Handler {
	r := chi.NewRouter()

	r.Post("/", s.begin)
	r.Post("/{id}/verify", s.verify)
	r.Get("/{id}", s.getAttempt)

	return r
}
