// Package messaging publishes game lifecycle events for downstream
// consumers (analytics, moderation). Publishing is optional: with no broker
// configured the engine runs with a no-op publisher.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Game event types.
const (
	EventSessionCreated = "session_created"
	EventSessionStarted = "session_started"
	EventSceneGenerated = "scene_generated"
	EventSessionEnded   = "session_ended"
)

// GameEventPayload is the message body for one game event.
type GameEventPayload struct {
	Type       string    `json:"type"`
	SessionID  string    `json:"session_id"`
	ScriptID   string    `json:"script_id"`
	SceneIndex *int      `json:"scene_index,omitempty"`
	Utterances int       `json:"utterances,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventPublisher publishes game events.
type EventPublisher interface {
	PublishGameEvent(ctx context.Context, payload GameEventPayload) error
}

// NoopEventPublisher discards events; used when no broker is configured.
type NoopEventPublisher struct{}

func (NoopEventPublisher) PublishGameEvent(context.Context, GameEventPayload) error { return nil }

// --- RabbitMQ implementation ---

type rabbitMQEventPublisher struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	queueName string
	logger    *zap.Logger
}

// NewRabbitMQEventPublisher opens a channel and declares the durable event
// queue. Queue parameters must match any consumer's declaration.
func NewRabbitMQEventPublisher(conn *amqp.Connection, queueName string, logger *zap.Logger) (EventPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("event publisher: failed to open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("event publisher: failed to declare queue '%s': %w", queueName, err)
	}

	logger.Info("RabbitMQ event publisher initialized", zap.String("queue", queueName))
	return &rabbitMQEventPublisher{
		conn:      conn,
		channel:   ch,
		queueName: queueName,
		logger:    logger.Named("event_publisher"),
	}, nil
}

func (p *rabbitMQEventPublisher) PublishGameEvent(ctx context.Context, payload GameEventPayload) error {
	if p.channel == nil {
		return errors.New("event publisher: channel is not initialized")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("Failed to marshal game event", zap.Error(err), zap.String("type", payload.Type))
		return fmt.Errorf("event publisher: failed to marshal payload: %w", err)
	}

	err = p.channel.PublishWithContext(ctx,
		"",          // exchange
		p.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		})
	if err != nil {
		p.logger.Error("Failed to publish game event",
			zap.Error(err),
			zap.String("type", payload.Type),
			zap.String("sessionID", payload.SessionID),
		)
		return fmt.Errorf("event publisher: failed to publish: %w", err)
	}

	p.logger.Debug("Game event published",
		zap.String("type", payload.Type),
		zap.String("sessionID", payload.SessionID),
	)
	return nil
}
