package mq

import (
	"fmt"

	"github.com/rabbitmq/amqp091-go"
)

// ExchangeName is the topic exchange carrying board mutation events.
// Task events publish under task.<kind> so consumers can bind task.*;
// comment events publish under comment.created.
const ExchangeName = "board.events"

// NewConnection dials the broker. Callers own the returned connection.
func NewConnection(url string) (*amqp091.Connection, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	return conn, nil
}

// DeclareExchange declares the board events exchange. Durable so queued
// invalidation events survive a broker restart; idempotent, so both the
// publisher and every consumer declare it on startup.
func DeclareExchange(ch *amqp091.Channel) error {
	return ch.ExchangeDeclare(
		ExchangeName,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
}
