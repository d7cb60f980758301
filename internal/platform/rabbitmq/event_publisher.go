package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"gopher-accounts/internal/model"
)

// EventPublisher sends user events to a durable topic exchange, routed by
// event type (user.created, user.updated, user.deleted).
type EventPublisher struct {
	conn     *amqp.Connection
	exchange string
}

func NewEventPublisher(conn *amqp.Connection, exchange string) *EventPublisher {
	return &EventPublisher{
		conn:     conn,
		exchange: exchange,
	}
}

// DeclareExchange is called once at startup.
func (p *EventPublisher) DeclareExchange() error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(
		p.exchange,
		amqp.ExchangeTopic,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return fmt.Errorf("declare exchange failed: %w", err)
	}
	return nil
}

func (p *EventPublisher) Publish(ctx context.Context, event model.UserEvent) error {
	publishing, err := buildPublishing(event)
	if err != nil {
		return err
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	if err := ch.PublishWithContext(
		ctx,
		p.exchange,
		event.Type,
		false,
		false,
		publishing,
	); err != nil {
		return fmt.Errorf("publish user event failed: %w", err)
	}
	return nil
}

func buildPublishing(event model.UserEvent) (amqp.Publishing, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal user event failed: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		Type:         event.Type,
		Timestamp:    event.OccurredAt,
		Body:         payload,
		DeliveryMode: amqp.Persistent,
	}, nil
}
