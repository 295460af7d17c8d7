package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	ExchangeMessages Exchange = "digestq.messages"
	ExchangeDigests  Exchange = "digestq.digests"
	ExchangeDLQ      Exchange = "digestq.dlq"
)

// Queues — имена очередей.
const (
	QueueMessagesCreated Queue = "messages.created"
	QueueDigestsReady    Queue = "digests.ready"
	QueueDLQMessages     Queue = "dlq.messages"
)

// Routing keys.
const (
	RoutingKeyCreated     RoutingKey = "created"
	RoutingKeyReady       RoutingKey = "ready"
	RoutingKeyDLQMessages RoutingKey = "messages"
)

func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		// 1. Создаём exchanges
		if err := declareExchanges(ch); err != nil {
			return err
		}

		// 2. Создаём queues
		if err := declareQueues(ch); err != nil {
			return err
		}

		// 3. Привязываем queues к exchanges
		if err := bindQueues(ch); err != nil {
			return err
		}

		return nil
	})
}

// declareExchanges создаёт обменники.
func declareExchanges(ch *amqp.Channel) error {
	exchanges := []struct {
		name Exchange
		kind string
	}{
		{ExchangeMessages, "direct"},
		{ExchangeDigests, "direct"},
		{ExchangeDLQ, "direct"},
	}

	for _, ex := range exchanges {
		err := ch.ExchangeDeclare(
			string(ex.name), // name
			ex.kind,         // type
			true,            // durable
			false,           // auto-deleted
			false,           // internal
			false,           // no-wait
			nil,             // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex.name, err)
		}
	}

	return nil
}

// declareQueues создаёт очереди.
func declareQueues(ch *amqp.Channel) error {
	// Аргументы для очередей с DLQ
	dlqArgs := amqp.Table{
		"x-dead-letter-exchange":    string(ExchangeDLQ),
		"x-dead-letter-routing-key": string(RoutingKeyDLQMessages),
	}

	queues := []struct {
		name Queue
		args amqp.Table
	}{
		// messages.created — с DLQ (событие после redelivery уходит в DLQ)
		{QueueMessagesCreated, dlqArgs},

		// digests.ready — без DLQ (готовые дайджесты забирают отправители)
		{QueueDigestsReady, nil},

		// dlq.messages — сама DLQ очередь
		{QueueDLQMessages, nil},
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			string(q.name), // name
			true,           // durable
			false,          // delete when unused
			false,          // exclusive
			false,          // no-wait
			q.args,         // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
	}

	return nil
}

// bindQueues привязывает очереди к обменникам.
func bindQueues(ch *amqp.Channel) error {
	bindings := []struct {
		queue      Queue
		routingKey RoutingKey
		exchange   Exchange
	}{
		{QueueMessagesCreated, RoutingKeyCreated, ExchangeMessages},
		{QueueDigestsReady, RoutingKeyReady, ExchangeDigests},
		{QueueDLQMessages, RoutingKeyDLQMessages, ExchangeDLQ},
	}

	for _, b := range bindings {
		err := ch.QueueBind(
			string(b.queue),      // queue name
			string(b.routingKey), // routing key
			string(b.exchange),   // exchange
			false,                // no-wait
			nil,                  // arguments
		)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}

	return nil
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  digestq RabbitMQ Topology:

    digestq.messages (direct)
    └── messages.created [routing: created]
            Consumer: Ingest
            DLQ: dlq.messages

    digestq.digests (direct)
    └── digests.ready [routing: ready]
            Consumer: delivery senders

    digestq.dlq (direct)
    └── dlq.messages [routing: messages]
            Manual processing
  `
}
