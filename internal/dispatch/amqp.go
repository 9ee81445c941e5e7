package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"bnpl-debt-service/internal/domain"
	"bnpl-debt-service/internal/logger"
	"bnpl-debt-service/internal/service"
)

const dialTimeout = 10 * time.Second

// publishChannel is the slice of *amqp.Channel the dispatcher needs.
type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPDispatcher enqueues updates to a durable queue for asynchronous
// processing. When the broker rejects or times out the enqueue, the update is
// applied inline instead so the caller-visible outcome is unchanged.
type AMQPDispatcher struct {
	conn           *amqp.Connection
	ch             publishChannel
	queue          string
	enqueueTimeout time.Duration
	fallback       *InlineDispatcher
}

func NewAMQPDispatcher(amqpURL, queue string, enqueueTimeout time.Duration, fallback *InlineDispatcher) (*AMQPDispatcher, error) {
	conn, err := amqp.DialConfig(amqpURL, amqp.Config{Dial: amqp.DefaultDial(dialTimeout)})
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &AMQPDispatcher{
		conn:           conn,
		ch:             ch,
		queue:          queue,
		enqueueTimeout: enqueueTimeout,
		fallback:       fallback,
	}, nil
}

func (d *AMQPDispatcher) Dispatch(ctx context.Context, upd domain.RefundStatusUpdate) (string, error) {
	body, err := json.Marshal(upd)
	if err != nil {
		return ModeSync, err
	}

	pubCtx, cancel := context.WithTimeout(ctx, d.enqueueTimeout)
	defer cancel()

	err = d.ch.PublishWithContext(pubCtx, "", d.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		logger.Warn("Webhook enqueue failed, processing inline", "transaction_id", upd.TransactionID, "error", err)
		return d.fallback.Dispatch(ctx, upd)
	}

	logger.Debug("Webhook queued", "transaction_id", upd.TransactionID, "status", upd.Status)
	return ModeAsync, nil
}

func (d *AMQPDispatcher) Close() {
	if d.ch != nil {
		d.ch.Close()
	}
	if d.conn != nil {
		d.conn.Close()
	}
}

// Consumer drains queued status updates and applies them through the refund
// workflow.
type Consumer struct {
	conn    *amqp.Connection
	ch      *amqp.Channel
	queue   string
	refunds service.RefundService
}

func NewConsumer(amqpURL, queue string, refunds service.RefundService) (*Consumer, error) {
	conn, err := amqp.DialConfig(amqpURL, amqp.Config{Dial: amqp.DefaultDial(dialTimeout)})
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &Consumer{conn: conn, ch: ch, queue: queue, refunds: refunds}, nil
}

// Start begins consuming in a background goroutine. Updates that fail with a
// transient store error are requeued; everything else is acknowledged and
// dropped, since redelivering a conflicting update can never succeed.
func (c *Consumer) Start(ctx context.Context) error {
	msgs, err := c.ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	go func() {
		for d := range msgs {
			var upd domain.RefundStatusUpdate
			if err := json.Unmarshal(d.Body, &upd); err != nil {
				logger.Error("Dropping malformed webhook message", "error", err)
				d.Ack(false)
				continue
			}

			_, err := c.refunds.ApplyStatusUpdate(ctx, upd)
			var transient *domain.TransientStoreError
			switch {
			case err == nil:
				d.Ack(false)
			case errors.As(err, &transient):
				logger.Warn("Store unavailable, requeuing webhook", "transaction_id", upd.TransactionID, "error", err)
				d.Nack(false, true)
			default:
				logger.Warn("Webhook could not be applied, dropping", "transaction_id", upd.TransactionID, "error", err)
				d.Ack(false)
			}
		}
	}()

	return nil
}

func (c *Consumer) Close() {
	if c.ch != nil {
		c.ch.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
}
