package license

import (
	"fmt"
	"net/http"

	resp "github.com/MrunmayeeCom/Tally-Connector/response"

	"github.com/go-chi/chi"
	"go.uber.org/zap"
)

// ServiceOptions contains the configuration for the Service router
type ServiceOptions struct {
	Client *Client
	Logger *zap.Logger
}

// Service is the plan catalog API router backing the pricing section
type Service struct {
	ServiceOptions
}

// NewService will create an instance of the plan catalog API router
func NewService(option ServiceOptions) (*Service, error) {
	if option.Client == nil {
		return nil, fmt.Errorf("nil Client is invalid")
	}
	if option.Logger == nil {
		return nil, fmt.Errorf("nil Logger is invalid")
	}
	return &Service{
		ServiceOptions: option,
	}, nil
}

// PricedPlan is a Plan with its quote per billing cycle and the savings label
// shown on the cycle selector
type PricedPlan struct {
	Plan
	Quotes  map[BillingCycle]Quote `json:"quotes"`
	Savings map[BillingCycle]int   `json:"savings"`
}

func (s *Service) listPlans(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	plans, err := s.Client.Catalog(ctx)
	if err != nil {
		s.Logger.Error("Cannot list plans",
			zap.Error(err),
		)
		resp.WriteError(w, r, resp.ErrBadGateway().AddMessages("Unable to load plans"))
		return
	}

	cycles := []BillingCycle{CycleMonthly, CycleQuarterly, CycleYearly}
	priced := make([]PricedPlan, 0, len(plans))
	for _, plan := range plans {
		pp := PricedPlan{
			Plan:    plan,
			Quotes:  make(map[BillingCycle]Quote),
			Savings: make(map[BillingCycle]int),
		}
		for _, cycle := range cycles {
			pp.Quotes[cycle] = plan.Quote(cycle)
			pp.Savings[cycle] = cycle.SavingsPercent()
		}
		priced = append(priced, pp)
	}

	resp.WriteResponse(w, r, priced)
}

// Router will return the routes under the plan catalog API
func (s *Service) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/", s.listPlans)

	return r
}
