package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"vehicle-service/models"

	"github.com/apex/log"
	"github.com/streadway/amqp"
)

// Issue lifecycle event names, also used as the message type header.
const (
	EventIssueCreated  = "issue.created"
	EventIssueResolved = "issue.resolved"
)

// IssueEvent is the message body published for issue lifecycle changes.
type IssueEvent struct {
	Event        string             `json:"event"`
	IssueID      string             `json:"issueId"`
	UserID       string             `json:"userId"`
	VehicleModel string             `json:"vehicleModel"`
	Category     string             `json:"category"`
	Severity     string             `json:"severity"`
	Source       models.IssueSource `json:"source"`
	Status       models.IssueStatus `json:"status"`
	CreatedAt    time.Time          `json:"createdAt"`
	ResolvedAt   *time.Time         `json:"resolvedAt,omitempty"`
}

// NewIssueEvent builds the event body for issue.
func NewIssueEvent(event string, issue *models.Issue) IssueEvent {
	return IssueEvent{
		Event:        event,
		IssueID:      issue.ID,
		UserID:       issue.UserID,
		VehicleModel: issue.VehicleModel,
		Category:     issue.Category,
		Severity:     issue.Severity,
		Source:       issue.Source,
		Status:       issue.Status,
		CreatedAt:    issue.CreatedAt,
		ResolvedAt:   issue.ResolvedAt,
	}
}

// Publisher represents a RabbitMQ publisher instance
type Publisher struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
}

// NewPublisher connects to RabbitMQ and declares a durable direct exchange.
func NewPublisher(amqpURL, exchangeName, routingKey string) (*Publisher, error) {
	conn, err := amqp.DialConfig(amqpURL, amqp.Config{
		Heartbeat: 10 * time.Second,
		Dial:      amqp.DefaultDial(30 * time.Second),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchangeName, // name
		"direct",     // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &Publisher{
		conn:       conn,
		channel:    channel,
		exchange:   exchangeName,
		routingKey: routingKey,
	}, nil
}

// PublishIssueEvent publishes the lifecycle event for issue.
func (p *Publisher) PublishIssueEvent(ctx context.Context, event string, issue *models.Issue) error {
	if issue == nil {
		return fmt.Errorf("no issue to publish for %s", event)
	}
	return p.publish(ctx, event, NewIssueEvent(event, issue))
}

func (p *Publisher) publish(ctx context.Context, messageType string, message interface{}) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context done before publishing message: %w", err)
	}

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message to JSON: %w", err)
	}

	publishing := amqp.Publishing{
		ContentType:  "application/json",
		Type:         messageType,
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
	}

	err = p.channel.Publish(
		p.exchange,   // exchange
		p.routingKey, // routing key
		false,        // mandatory
		false,        // immediate
		publishing,   // message
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// Close closes the publisher connection and channel
func (p *Publisher) Close() error {
	var err error

	if p.channel != nil {
		if channelErr := p.channel.Close(); channelErr != nil {
			log.WithError(channelErr).Warn("failed to close channel")
			err = channelErr
		}
	}

	if p.conn != nil {
		if connErr := p.conn.Close(); connErr != nil {
			log.WithError(connErr).Warn("failed to close connection")
			if err == nil {
				err = connErr
			}
		}
	}

	return err
}
