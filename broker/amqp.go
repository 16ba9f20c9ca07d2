package broker

import (
	"context"
	"encoding/json"

	extErrors "github.com/pkg/errors"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

var _ Producer = &AMQPBroker{}
var _ Consumer = &AMQPBroker{}

const (
	lifecycleExchange   string = "checkout_lifecycle"
	lifecycleRoutingKey        = "transactions"
	auditQueue                 = "checkout_lifecycle_audit"
)

// AMQPBroker describes a message broker via RabbitMQ
type AMQPBroker struct {
	logger     *zap.Logger
	connection *amqp.Connection
	channel    *amqp.Channel
}

// NewAMQPBroker returns a Message Broker over RabbitMQ
func NewAMQPBroker(logger *zap.Logger, amqpURI string) (*AMQPBroker, error) {
	amqpConn, err := amqp.Dial(amqpURI)
	if err != nil {
		return nil, extErrors.Wrap(err, "Cannot connect to Message Broker")
	}
	amqpChan, err := amqpConn.Channel()
	if err != nil {
		return nil, extErrors.Wrap(err, "Cannot create broker channel")
	}
	broker := &AMQPBroker{
		logger:     logger,
		connection: amqpConn,
		channel:    amqpChan,
	}
	if err := broker.setupLifecycleExchange(); err != nil {
		return nil, extErrors.Wrap(err, "Cannot declare exchange for lifecycle events")
	}

	return broker, nil
}

func (a *AMQPBroker) setupLifecycleExchange() error {
	return a.channel.ExchangeDeclare(
		lifecycleExchange, // name
		"direct",          // type
		true,              // durable
		false,             // auto-deleted
		false,             // internal
		false,             // no-wait
		nil,               // arguments
	)
}

// Close will close the channel and connection to release resources
func (a *AMQPBroker) Close() {
	a.channel.Close()
	a.connection.Close()
}

// SendTransactionEvent will publish a lifecycle event for consumers
func (a *AMQPBroker) SendTransactionEvent(p *TransactionEvent) error {
	jsonBytes, err := json.Marshal(p)
	if err != nil {
		return extErrors.Wrap(err, "Cannot encode message into bytes")
	}
	if err := a.channel.Publish(
		lifecycleExchange,
		lifecycleRoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        jsonBytes,
		},
	); err != nil {
		return extErrors.Wrap(err, "Cannot publish lifecycle event")
	}
	return nil
}

func (a *AMQPBroker) setupQueue(qName string) error {
	_, err := a.channel.QueueDeclare(
		qName,
		true,
		false,
		false,
		false,
		nil,
	)
	return err
}

func (a *AMQPBroker) bindAndGetMsgChan(qName, exchange, routingKey string) (<-chan amqp.Delivery, error) {
	if err := a.channel.QueueBind(
		qName,
		routingKey,
		exchange,
		false,
		nil,
	); err != nil {
		return nil, err
	}
	msgChan, err := a.channel.Consume(
		qName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	return msgChan, err
}

// ReceiveTransactionEvents will stream lifecycle events until ctx is cancelled
func (a *AMQPBroker) ReceiveTransactionEvents(ctx context.Context) (<-chan *TransactionEvent, error) {
	if err := a.setupQueue(auditQueue); err != nil {
		return nil, extErrors.Wrap(err, "Cannot setup queue")
	}
	msgChan, err := a.bindAndGetMsgChan(auditQueue, lifecycleExchange, lifecycleRoutingKey)
	if err != nil {
		return nil, extErrors.Wrap(err, "Cannot setup consumer")
	}
	eChan := make(chan *TransactionEvent)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case d := <-msgChan:
				var event TransactionEvent
				if err := json.Unmarshal(d.Body, &event); err != nil {
					a.logger.Error("Cannot decode lifecycle event",
						zap.Error(err),
					)
					d.Nack(false, false)
					continue
				}
				eChan <- &event
				d.Ack(false)
			}
		}
	}()
	return eChan, nil
}
