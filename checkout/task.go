package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/MrunmayeeCom/Tally-Connector/broker"

	extErrors "github.com/pkg/errors"
	"go.uber.org/zap"
)

// TaskOptions contains the configuration for the background Task
type TaskOptions struct {
	Manager  *Manager
	Consumer broker.Consumer
	Logger   *zap.Logger
	Interval time.Duration
}

// Task is the background reconciler. It sweeps abandoned pending attempts
// into Expired and audit-logs the lifecycle events published by the API.
type Task struct {
	TaskOptions
}

// NewTask validates the options and returns a Task
func NewTask(option TaskOptions) (*Task, error) {
	if option.Manager == nil {
		return nil, fmt.Errorf("nil Manager is invalid")
	}
	if option.Consumer == nil {
		return nil, fmt.Errorf("nil Consumer is invalid")
	}
	if option.Logger == nil {
		return nil, fmt.Errorf("nil Logger is invalid")
	}
	if option.Interval <= 0 {
		option.Interval = time.Minute * 5
	}
	return &Task{
		TaskOptions: option,
	}, nil
}

func (t *Task) sweep(ctx context.Context) {
	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			expired, err := t.Manager.ExpireStale(ctx)
			if err != nil {
				t.Logger.Error("Cannot expire stale attempts",
					zap.Error(err),
				)
				continue
			}
			if expired > 0 {
				t.Logger.Info("Expired stale checkout attempts",
					zap.Int("Count", expired),
				)
			}
		}
	}
}

func (t *Task) audit(ctx context.Context, eChan <-chan *broker.TransactionEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-eChan:
			t.Logger.Info("Checkout lifecycle event",
				zap.String("Type", string(event.Type)),
				zap.String("AttemptID", event.AttemptID),
				zap.String("TransactionID", event.TransactionID),
				zap.String("Email", event.Email),
				zap.Float64("Total", event.Total),
			)
		}
	}
}

// Run starts the expiry sweep and the audit loop until ctx is cancelled
func (t *Task) Run(ctx context.Context) error {
	eChan, err := t.Consumer.ReceiveTransactionEvents(ctx)
	if err != nil {
		return extErrors.Wrap(err, "Cannot get lifecycle event channel")
	}
	go t.audit(ctx, eChan)
	go t.sweep(ctx)
	return nil
}
