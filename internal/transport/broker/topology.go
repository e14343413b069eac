package broker

import (
	"fmt"

	"github.com/streadway/amqp"
)

const (
	ExchangeName     = "backoffice_events"
	DeadLetterName   = "backoffice_events.dlx"
	DeadLetterQueue  = "backoffice_dead_letters"
	RetryCountHeader = "x-retry-count"
)

const (
	QueueMerchantPostApproval = "merchant_post_approval"
	QueueRefundProcessing     = "refund_processing"
)

// Routing keys совпадают с типами событий outbox.
const (
	RoutingMerchantApproved = "merchant.approved"
	RoutingRefundApproved   = "refund.approved"
	RoutingPaymentRecorded  = "payment.recorded"
)

type binding struct {
	queue      string
	routingKey string
}

var bindings = []binding{
	{queue: QueueMerchantPostApproval, routingKey: RoutingMerchantApproved},
	{queue: QueueRefundProcessing, routingKey: RoutingRefundApproved},
}

type topologyDeclarer interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
}

// declareTopology объявляет topic exchange, очереди задач и dead-letter очередь. Операции идемпотентны.
func declareTopology(ch topologyDeclarer) error {
	if err := ch.ExchangeDeclare(ExchangeName, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", ExchangeName, err)
	}
	if err := ch.ExchangeDeclare(DeadLetterName, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", DeadLetterName, err)
	}
	if _, err := ch.QueueDeclare(DeadLetterQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", DeadLetterQueue, err)
	}
	if err := ch.QueueBind(DeadLetterQueue, "", DeadLetterName, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", DeadLetterQueue, err)
	}

	args := amqp.Table{"x-dead-letter-exchange": DeadLetterName}
	for _, b := range bindings {
		if _, err := ch.QueueDeclare(b.queue, true, false, false, false, args); err != nil {
			return fmt.Errorf("declare queue %s: %w", b.queue, err)
		}
		if err := ch.QueueBind(b.queue, b.routingKey, ExchangeName, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", b.queue, err)
		}
	}
	return nil
}
