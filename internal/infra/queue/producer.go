package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/xavierca1/leadtrack/internal/entity"
)

// Publisher is the part of an AMQP channel the producer needs.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type RabbitMQProducer struct {
	Ch Publisher
}

func NewProducer(ch Publisher) *RabbitMQProducer {
	return &RabbitMQProducer{Ch: ch}
}

// PublishLeadEvent routes the event by its type, e.g. lead.created.
func (p *RabbitMQProducer) PublishLeadEvent(ctx context.Context, ev entity.LeadEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode lead event: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		string(ev.Type),
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			MessageId:    ev.LeadID,
			Type:         string(ev.Type),
			Timestamp:    ev.OccurredAt,
		},
	)
	if err != nil {
		return fmt.Errorf("publish lead event: %w", err)
	}
	return nil
}
