package event

import (
	"encoding/json"
	"log"

	"github.com/streadway/amqp"
)

// EventPublisher emits domain events (user.registered, quiz.created, ...) to
// a topic exchange. The whole publisher is optional: a nil *EventPublisher is
// safe to call and publishes nothing.
type EventPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

func NewEventPublisher(amqpURL, exchange string) (*EventPublisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &EventPublisher{conn: conn, channel: ch, exchange: exchange}, nil
}

// Publish sends the event with the type as the routing key. Failures are
// logged, not returned: events are best-effort and never fail the request
// that produced them.
func (p *EventPublisher) Publish(eventType string, payload any) {
	if p == nil {
		return
	}
	body, err := json.Marshal(map[string]any{
		"type":    eventType,
		"payload": payload,
	})
	if err != nil {
		log.Printf("Error marshaling event %s: %v", eventType, err)
		return
	}

	err = p.channel.Publish(
		p.exchange,
		eventType,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		log.Printf("Error publishing event %s: %v", eventType, err)
	}
}

func (p *EventPublisher) Close() {
	if p == nil {
		return
	}
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}
