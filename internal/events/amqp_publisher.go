package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const appointmentQueueName = "appointment_events"

// AmqpPublisher publishes appointment events to a durable RabbitMQ queue
// in confirm mode. The channel is not safe for concurrent publishes, so a
// mutex serializes them.
type AmqpPublisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	log  *zap.Logger
	mu   sync.Mutex
}

func NewAmqpPublisher(url string, log *zap.Logger) (*AmqpPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		appointmentQueueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", appointmentQueueName, err)
	}

	if err := ch.Confirm(false); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("enable publisher confirms: %w", err)
	}

	return &AmqpPublisher{
		conn: conn,
		ch:   ch,
		log:  log,
	}, nil
}

func (p *AmqpPublisher) Publish(ctx context.Context, event AppointmentEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.EventType, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	confirmation, err := p.ch.PublishWithDeferredConfirmWithContext(ctx,
		"",                   // default exchange
		appointmentQueueName, // routing key
		false,                // mandatory
		false,                // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.AppointmentID.String(),
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("publish %s event: %w", event.EventType, err)
	}

	if ok, err := confirmation.WaitContext(ctx); err != nil {
		return fmt.Errorf("await confirm for %s event: %w", event.EventType, err)
	} else if !ok {
		return fmt.Errorf("%s event nacked by broker", event.EventType)
	}

	p.log.Debug("published appointment event",
		zap.String("event_type", event.EventType),
		zap.String("appointment_id", event.AppointmentID.String()),
	)

	return nil
}

func (p *AmqpPublisher) Close() error {
	return p.conn.Close()
}
