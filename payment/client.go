package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/MrunmayeeCom/Tally-Connector/external"

	extErrors "github.com/pkg/errors"
	"go.uber.org/zap"
)

// Sentinel errors surfaced by the Payment Gateway client
var (
	// ErrOrderDataMissing indicates the gateway responded without an order id
	ErrOrderDataMissing = errors.New("order data missing from gateway response")
	// ErrVerificationFailed indicates the gateway rejected the signed payment
	ErrVerificationFailed = errors.New("payment verification failed")
)

// ClientOptions contains the configuration for the Payment Gateway client
type ClientOptions struct {
	Client *external.Client
	Logger *zap.Logger
}

// Client talks to the Payment Gateway Order API
type Client struct {
	ClientOptions
}

// NewClient validates the options and returns a Payment Gateway client
func NewClient(option ClientOptions) (*Client, error) {
	if option.Client == nil {
		return nil, fmt.Errorf("nil Client is invalid")
	}
	if option.Logger == nil {
		return nil, fmt.Errorf("nil Logger is invalid")
	}
	return &Client{
		ClientOptions: option,
	}, nil
}

// CreateOrder creates a payment order for a pending transaction. The returned
// Order is handed to the browser popup verbatim.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	var order Order
	status, err := c.Client.Do(ctx, http.MethodPost, "/api/payment/order", req, &order)
	if err != nil {
		return nil, extErrors.Wrap(err, "Cannot create payment order")
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return nil, fmt.Errorf("payment order returned HTTP %d", status)
	}
	if len(order.OrderID) == 0 {
		return nil, ErrOrderDataMissing
	}
	return &order, nil
}

type verifyResponse struct {
	Success bool `json:"success"`
}

// Verify submits the signed payment fields for server-side verification,
// finalizing the transaction on success
func (c *Client) Verify(ctx context.Context, req VerifyRequest) error {
	var res verifyResponse
	status, err := c.Client.Do(ctx, http.MethodPost, "/api/payment/verify", req, &res)
	if err != nil {
		return extErrors.Wrap(err, "Cannot verify payment")
	}
	if status != http.StatusOK || !res.Success {
		c.Logger.Error("Gateway rejected payment verification",
			zap.String("TransactionID", req.TransactionID),
			zap.String("OrderID", req.OrderID),
			zap.Int("Status", status),
		)
		return ErrVerificationFailed
	}
	return nil
}
