package directory

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/MrunmayeeCom/Tally-Connector/external"

	extErrors "github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrInvalidCredentials indicates the directory rejected the email/password pair
var ErrInvalidCredentials = errors.New("invalid credentials")

// ClientOptions contains the configuration for the Customer Directory client
type ClientOptions struct {
	Client *external.Client
	Logger *zap.Logger
	// Source tags every created customer with the product that brought them in
	Source string
}

// Client talks to the Customer Directory
type Client struct {
	ClientOptions
}

// NewClient validates the options and returns a Customer Directory client
func NewClient(option ClientOptions) (*Client, error) {
	if option.Client == nil {
		return nil, fmt.Errorf("nil Client is invalid")
	}
	if option.Logger == nil {
		return nil, fmt.Errorf("nil Logger is invalid")
	}
	if len(option.Source) == 0 {
		return nil, fmt.Errorf("empty Source is invalid")
	}
	return &Client{
		ClientOptions: option,
	}, nil
}

type existsRequest struct {
	Email string `json:"email"`
}

type existsResponse struct {
	Exists bool `json:"exists"`
}

// Exists checks whether a customer record exists for the email
func (c *Client) Exists(ctx context.Context, email string) (bool, error) {
	var res existsResponse
	status, err := c.Client.Do(ctx, http.MethodPost, "/api/customer/exists", existsRequest{Email: email}, &res)
	if err != nil {
		return false, extErrors.Wrap(err, "Cannot check customer existence")
	}
	if status != http.StatusOK {
		return false, fmt.Errorf("customer existence check returned HTTP %d", status)
	}
	return res.Exists, nil
}

// CreateRequest is the payload for creating a customer record. Password is
// only set on the sign-up path; checkout creates passwordless records.
type CreateRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Source   string `json:"source"`
	Password string `json:"password,omitempty"`
}

// Create writes a new customer record to the directory. The check-then-create
// sequence is not atomic; the directory enforces email uniqueness and the last
// write wins on a concurrent race.
func (c *Client) Create(ctx context.Context, req CreateRequest) error {
	req.Source = c.Source
	status, err := c.Client.Do(ctx, http.MethodPost, "/api/customer/sync", req, nil)
	if err != nil {
		return extErrors.Wrap(err, "Cannot create customer")
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return fmt.Errorf("customer create returned HTTP %d", status)
	}
	return nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success  bool      `json:"success"`
	Customer *Customer `json:"customer"`
}

// Login validates the credentials against the directory and returns the
// customer record on success
func (c *Client) Login(ctx context.Context, email, password string) (*Customer, error) {
	var res loginResponse
	status, err := c.Client.Do(ctx, http.MethodPost, "/api/customer/login", loginRequest{
		Email:    email,
		Password: password,
	}, &res)
	if err != nil {
		return nil, extErrors.Wrap(err, "Cannot login customer")
	}
	if status == http.StatusUnauthorized {
		return nil, ErrInvalidCredentials
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("customer login returned HTTP %d", status)
	}
	if !res.Success || res.Customer == nil {
		return nil, ErrInvalidCredentials
	}
	return res.Customer, nil
}
