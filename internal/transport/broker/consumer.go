package broker

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

// MaxRetries после стольких повторов сообщение уходит в dead-letter очередь.
const MaxRetries = 3

// ErrDropMessage оборачивается обработчиком, если повтор не имеет смысла (битое сообщение, конфликт данных).
var ErrDropMessage = errors.New("[broker] message dropped")

// Handler обрабатывает тело сообщения. Обработчик должен быть идемпотентным: сообщение может прийти повторно.
type Handler func(ctx context.Context, body []byte) error

// Consume читает очередь до отмены контекста. Сообщения обрабатываются последовательно.
func (b *Broker) Consume(ctx context.Context, queue string, handler Handler) error {
	deliveries, err := b.ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", queue, err)
	}

	l := b.l.WithField("queue", queue)
	l.Info("Starting")
	for {
		select {
		case <-ctx.Done():
			l.Info("Got stop signal, exiting...")
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("consume %s: %w", queue, ErrChannelClosed)
			}
			b.dispatch(ctx, l, queue, d, handler)
		}
	}
}

// dispatch вызывает обработчик и подтверждает сообщение. Временная ошибка публикует копию сообщения
// с увеличенным x-retry-count. Исчерпанные повторы и ErrDropMessage отправляются в dead-letter.
func (b *Broker) dispatch(ctx context.Context, l *logrus.Entry, queue string, d amqp.Delivery, handler Handler) {
	attempt := retryCount(d.Headers)
	l = l.WithFields(logrus.Fields{
		"messageID": d.MessageId,
		"attempt":   attempt + 1,
	})

	err := handler(ctx, d.Body)
	if err == nil {
		if ackErr := d.Ack(false); ackErr != nil {
			l.WithError(ackErr).Error("ack")
		}
		return
	}

	switch {
	case errors.Is(err, ErrDropMessage):
		l.WithError(err).Error("permanent failure, dead-lettering")
	case attempt >= MaxRetries:
		l.WithError(err).Error("max retry reached, dead-lettering")
	default:
		if retryErr := b.retry(ctx, queue, d, attempt+1); retryErr != nil {
			l.WithError(retryErr).Error("retry publish failed, requeueing")
			if nackErr := d.Nack(false, true); nackErr != nil {
				l.WithError(nackErr).Error("nack")
			}
			return
		}
		l.WithError(err).Warn("handler failed, retry scheduled")
		if ackErr := d.Ack(false); ackErr != nil {
			l.WithError(ackErr).Error("ack")
		}
		return
	}

	if nackErr := d.Nack(false, false); nackErr != nil {
		l.WithError(nackErr).Error("nack")
	}
}

// retry публикует копию сообщения напрямую в очередь через default exchange.
func (b *Broker) retry(ctx context.Context, queue string, d amqp.Delivery, attempt int) error {
	headers := amqp.Table{}
	for k, v := range d.Headers {
		headers[k] = v
	}
	headers[RetryCountHeader] = int32(attempt) //nolint:gosec

	return b.publish(context.WithoutCancel(ctx), "", queue, amqp.Publishing{
		Headers:      headers,
		MessageId:    d.MessageId,
		DeliveryMode: amqp.Persistent,
		ContentType:  d.ContentType,
		Timestamp:    d.Timestamp,
		Body:         d.Body,
	})
}

func retryCount(headers amqp.Table) int {
	switch v := headers[RetryCountHeader].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	default:
		return 0
	}
}
