package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/MrunmayeeCom/Tally-Connector/directory"
	"github.com/MrunmayeeCom/Tally-Connector/license"
	resp "github.com/MrunmayeeCom/Tally-Connector/response"
	"github.com/MrunmayeeCom/Tally-Connector/session"

	"github.com/go-chi/chi"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var validate *validator.Validate = validator.New()

// Destination tells the frontend where to send the customer after login
type Destination string

// define the post-login destinations
const (
	DestinationDashboard Destination = "dashboard"
	DestinationPricing   Destination = "pricing"
)

// CallToAction is the navbar label decided by the license probe
type CallToAction string

// define the navbar call-to-action labels
const (
	CTADashboard  CallToAction = "dashboard"
	CTAUpgrade    CallToAction = "upgrade"
	CTAGetStarted CallToAction = "get-started"
)

// ServiceOptions contains the configuration for Service router
type ServiceOptions struct {
	Auth       *Auth
	Directory  *directory.Client
	License    *license.Client
	Session    *session.Manager
	Logger     *zap.Logger
	ProbeCache *license.ProbeCache // optional
}

// Service is the customer auth API router
type Service struct {
	ServiceOptions
}

// NewService will create an instance of the customer auth API router
func NewService(option ServiceOptions) (*Service, error) {
	if option.Auth == nil {
		return nil, fmt.Errorf("nil Auth is invalid")
	}
	if option.Directory == nil {
		return nil, fmt.Errorf("nil Directory is invalid")
	}
	if option.License == nil {
		return nil, fmt.Errorf("nil License is invalid")
	}
	if option.Session == nil {
		return nil, fmt.Errorf("nil Session is invalid")
	}
	if option.Logger == nil {
		return nil, fmt.Errorf("nil Logger is invalid")
	}
	return &Service{
		ServiceOptions: option,
	}, nil
}

// SignInRequest is the model of a sign-in attempt
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignUpRequest is the model of a sign-up attempt
type SignUpRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// SessionResponse is returned on a successful sign-in or sign-up
type SessionResponse struct {
	Token       string         `json:"token"`
	Customer    session.Record `json:"customer"`
	Destination Destination    `json:"destination"`
}

func (s *Service) probe(ctx context.Context, email string) license.Probe {
	if s.ProbeCache != nil {
		if probe, ok := s.ProbeCache.Get(email); ok {
			return probe
		}
	}
	probe := s.License.ActiveLicense(ctx, email)
	if s.ProbeCache != nil {
		s.ProbeCache.Set(email, probe)
	}
	return probe
}

func (s *Service) establishSession(ctx context.Context, w http.ResponseWriter, r *http.Request, name, email string) {
	record := session.Record{
		Name:  name,
		Email: email,
	}
	s.Session.Put(record)

	token, err := s.Auth.CreateTokenFromClaims(Claims{
		Email: email,
		Name:  name,
	})
	if err != nil {
		s.Logger.Error("Unable to generate token",
			zap.Error(err),
		)
		resp.WriteError(w, r, resp.ErrUnexpected().AddMessages("Something went wrong. Please try again."))
		return
	}

	destination := DestinationPricing
	if s.probe(ctx, email).Active {
		destination = DestinationDashboard
	}

	resp.WriteResponse(w, r, SessionResponse{
		Token:       token,
		Customer:    record,
		Destination: destination,
	})
}

func (s *Service) signIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		resp.WriteError(w, r, resp.ErrInvalidJson())
		return
	}
	if err := validate.Struct(&req); err != nil {
		resp.WriteError(w, r, resp.ErrBadRequest().AddMessages("Email and password are required"))
		return
	}

	logger := s.Logger.With(zap.String("Email", req.Email))

	exists, err := s.Directory.Exists(ctx, req.Email)
	if err != nil {
		logger.Error("Unable to check customer existence",
			zap.Error(err),
		)
		resp.WriteError(w, r, resp.ErrUnexpected().AddMessages("Something went wrong. Please try again."))
		return
	}
	if !exists {
		// the frontend flips to sign-up mode on this message
		resp.WriteError(w, r, resp.ErrNotFound().AddMessages("Account not found. Please create an account."))
		return
	}

	cust, err := s.Directory.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, directory.ErrInvalidCredentials) {
			resp.WriteError(w, r, resp.ErrUnauthorized().AddMessages("Invalid credentials"))
			return
		}
		logger.Error("Unable to login customer",
			zap.Error(err),
		)
		resp.WriteError(w, r, resp.ErrUnexpected().AddMessages("Something went wrong. Please try again."))
		return
	}

	s.establishSession(ctx, w, r, cust.Name, cust.Email)
}

func (s *Service) signUp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		resp.WriteError(w, r, resp.ErrInvalidJson())
		return
	}
	if err := validate.Struct(&req); err != nil {
		resp.WriteError(w, r, resp.ErrBadRequest().AddMessages("Name, email and password are required"))
		return
	}

	logger := s.Logger.With(zap.String("Email", req.Email))

	exists, err := s.Directory.Exists(ctx, req.Email)
	if err != nil {
		logger.Error("Unable to check customer existence",
			zap.Error(err),
		)
		resp.WriteError(w, r, resp.ErrUnexpected().AddMessages("Something went wrong. Please try again."))
		return
	}
	if exists {
		resp.WriteError(w, r, resp.ErrConflict().AddMessages("Account already exists. Please sign in."))
		return
	}

	if err := s.Directory.Create(ctx, directory.CreateRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	}); err != nil {
		logger.Error("Unable to create customer",
			zap.Error(err),
		)
		resp.WriteError(w, r, resp.ErrUnexpected().AddMessages("Something went wrong. Please try again."))
		return
	}

	s.establishSession(ctx, w, r, req.Name, req.Email)
}

// MeResponse carries the session record and the navbar routing state
type MeResponse struct {
	Customer      session.Record `json:"customer"`
	ActiveLicense bool           `json:"activeLicense"`
	HasPlan       bool           `json:"hasPlan"`
	CallToAction  CallToAction   `json:"callToAction"`
}

func (s *Service) me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims := ctx.Value(Context).(*Claims)

	probe := s.probe(ctx, claims.Email)

	cta := CTAGetStarted
	switch {
	case probe.Active:
		cta = CTADashboard
	case probe.HasPlan:
		cta = CTAUpgrade
	}

	resp.WriteResponse(w, r, MeResponse{
		Customer: session.Record{
			Name:  claims.Name,
			Email: claims.Email,
		},
		ActiveLicense: probe.Active,
		HasPlan:       probe.HasPlan,
		CallToAction:  cta,
	})
}

func (s *Service) signOut(w http.ResponseWriter, r *http.Request) {
	s.Session.Clear()
	w.WriteHeader(http.StatusNoContent)
}

// Router will return the routes under customer auth API
func (s *Service) Router() http.Handler {
	r := chi.NewRouter()

	r.Post("/signin", s.signIn)
	r.Post("/signup", s.signUp)

	r.Group(func(r chi.Router) {
		r.Use(s.Auth.Middleware())
		r.Use(s.Auth.ClaimCheck())
		r.Get("/me", s.me)
		r.Post("/signout", s.signOut)
	})

	return r
}
