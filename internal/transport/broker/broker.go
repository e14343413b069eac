// Package broker публикует события в RabbitMQ и раздает задачи обработчикам.
package broker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

const defaultPrefetch = 10

var ErrChannelClosed = errors.New("[broker] delivery channel closed")

type amqpChannel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

type Broker struct {
	conn *amqp.Connection
	// mu сериализует публикации в один канал.
	mu sync.Mutex
	ch amqpChannel
	l  *logrus.Entry
}

// Connect подключается к RabbitMQ и объявляет топологию.
func Connect(url string, l *logrus.Logger) (*Broker, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	if err = ch.Qos(defaultPrefetch, 0, false); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq qos: %w", err)
	}
	if err = declareTopology(ch); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return newBroker(ch, l).withConn(conn), nil
}

func newBroker(ch amqpChannel, l *logrus.Logger) *Broker {
	return &Broker{
		ch: ch,
		l: l.WithFields(logrus.Fields{
			"component": "broker",
			"module":    "rabbitmq",
		}),
	}
}

func (b *Broker) withConn(conn *amqp.Connection) *Broker {
	b.conn = conn
	return b
}

func (b *Broker) Close() error {
	if b.conn == nil {
		return nil
	}
	if err := b.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		return fmt.Errorf("rabbitmq close: %w", err)
	}
	return nil
}

// Publish отправляет persistent сообщение в ExchangeName. messageID используется получателями для дедупликации.
func (b *Broker) Publish(ctx context.Context, routingKey string, messageID string, body []byte) error {
	return b.publish(ctx, ExchangeName, routingKey, amqp.Publishing{
		MessageId:    messageID,
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Timestamp:    time.Now(),
		Body:         body,
	})
}

func (b *Broker) publish(ctx context.Context, exchange, key string, msg amqp.Publishing) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.ch.Publish(exchange, key, false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	return nil
}
