package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"concierge/internal/model"
)

type AnswerEventPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewAnswerEventPublisher(conn *amqp.Connection, queueName string) *AnswerEventPublisher {
	return &AnswerEventPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *AnswerEventPublisher) PublishAnswerRecorded(ctx context.Context, event model.AnswerRecordedEvent) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	if err := declareQueue(ch, p.queueName); err != nil {
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal answer event failed: %w", err)
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Persistent,
			Type:         "answer.recorded",
		},
	); err != nil {
		return fmt.Errorf("publish answer event failed: %w", err)
	}
	return nil
}

// DeclareQueue exposes queue declaration to the consuming worker.
func DeclareQueue(ch *amqp.Channel, name string) error {
	return declareQueue(ch, name)
}
