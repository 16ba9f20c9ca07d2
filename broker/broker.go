package broker

import (
	"context"
	"time"
)

// EventType is the custom type for the lifecycle transitions of a checkout attempt
type EventType string

// Defining the published lifecycle transitions
const (
	EventPaid    EventType = "Paid"
	EventExpired EventType = "Expired"
	EventFailed  EventType = "Failed"
)

// TransactionEvent is the message published when a checkout attempt reaches a
// terminal state
type TransactionEvent struct {
	Type          EventType `json:"type"`
	AttemptID     string    `json:"attemptId"`
	TransactionID string    `json:"transactionId"`
	Email         string    `json:"email"`
	PlanID        string    `json:"planId"`
	Total         float64   `json:"total"`
	Timestamp     time.Time `json:"timestamp"`
}

// Producer defines a producer sending lifecycle events via message broker
type Producer interface {
	Close()
	SendTransactionEvent(p *TransactionEvent) error
}

// Consumer defines a consumer receiving lifecycle events via message broker
type Consumer interface {
	Close()
	ReceiveTransactionEvents(ctx context.Context) (<-chan *TransactionEvent, error)
}
