package mq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher handles message publishing to RabbitMQ
type Publisher struct {
	conn     *Connection
	channel  *amqp.Channel
	exchange string
	logger   *zap.Logger
}

// NewPublisher creates a new RabbitMQ publisher
func NewPublisher(conn *Connection, exchange string, logger *zap.Logger) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	// Declare exchange
	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &Publisher{
		conn:     conn,
		channel:  ch,
		exchange: exchange,
		logger:   logger,
	}, nil
}

// FileImportedEvent is published after a flow file commits. Dry runs never
// publish.
type FileImportedEvent struct {
	RequestID          string `json:"request_id"`
	FlowFileID         string `json:"flow_file_id"`
	Filename           string `json:"filename"`
	ImportedAt         string `json:"imported_at"`
	MeterPointsCreated int    `json:"meter_points_created"`
	MetersCreated      int    `json:"meters_created"`
	ReadingsCreated    int    `json:"readings_created"`
	RecordsSkipped     int    `json:"records_skipped"`
	ErrorCount         int    `json:"error_count"`
}

// PublishFileImported publishes a flow-file imported event
func (p *Publisher) PublishFileImported(ctx context.Context, event FileImportedEvent, routingKey string) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)

	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("published file imported event",
		zap.String("routing_key", routingKey),
		zap.String("flow_file_id", event.FlowFileID),
		zap.String("filename", event.Filename),
	)

	return nil
}

// Close closes the publisher channel
func (p *Publisher) Close() error {
	if p.channel != nil {
		return p.channel.Close()
	}
	return nil
}
