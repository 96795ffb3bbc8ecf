package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/xavierca1/leadtrack/internal/entity"
)

// Notifier tells the team about lead events worth a human look.
type Notifier interface {
	NotifyNewLead(ctx context.Context, ev entity.LeadEvent) error
	NotifyPlanAccepted(ctx context.Context, ev entity.LeadEvent) error
}

type Worker struct {
	Channel  *amqp.Channel
	Notifier Notifier
	Logger   *zap.Logger
}

func NewWorker(ch *amqp.Channel, notifier Notifier, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{Channel: ch, Notifier: notifier, Logger: logger}
}

// Start consumes the queue until ctx ends or the channel closes.
func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	w.Logger.Info("worker waiting for lead events", zap.String("queue", queueName))
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			w.handleDelivery(ctx, d)
		}
	}
}

// handleDelivery acks processed messages and dead-letters the rest.
// Nothing is requeued.
func (w *Worker) handleDelivery(ctx context.Context, d amqp.Delivery) {
	var ev entity.LeadEvent
	if err := json.Unmarshal(d.Body, &ev); err != nil {
		w.Logger.Warn("malformed lead event", zap.Error(err))
		d.Nack(false, false)
		return
	}

	if err := w.processMessage(ctx, ev); err != nil {
		w.Logger.Error("lead notification failed",
			zap.String("type", string(ev.Type)),
			zap.String("lead_id", ev.LeadID),
			zap.Error(err),
		)
		d.Nack(false, false)
		return
	}
	d.Ack(false)
}

func (w *Worker) processMessage(ctx context.Context, ev entity.LeadEvent) error {
	switch ev.Type {
	case entity.LeadCreated:
		if err := w.Notifier.NotifyNewLead(ctx, ev); err != nil {
			return err
		}
		if ev.PlanAccepted {
			return w.Notifier.NotifyPlanAccepted(ctx, ev)
		}
		return nil
	case entity.LeadUpdated:
		if ev.PlanAccepted {
			return w.Notifier.NotifyPlanAccepted(ctx, ev)
		}
		return nil
	default:
		w.Logger.Debug("lead event ignored", zap.String("type", string(ev.Type)), zap.String("lead_id", ev.LeadID))
		return nil
	}
}
