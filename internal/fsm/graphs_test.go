package fsm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/fsdevblog/groph-backoffice/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type edge[S ~string, E ~string] struct {
	from  S
	event E
}

// checkGraph прогоняет все пары (состояние, событие) и сверяет с ожидаемым набором разрешенных переходов.
func checkGraph[S ~string, E ~string](t *testing.T, m *Machine[S, E], events []E, legal map[edge[S, E]]S) {
	t.Helper()

	for _, state := range m.States() {
		for _, event := range events {
			name := fmt.Sprintf("%s/%s/%s", m.Entity(), state, event)
			t.Run(name, func(t *testing.T) {
				got, err := m.Fire(state, event)
				want, ok := legal[edge[S, E]{state, event}]
				if ok {
					require.NoError(t, err)
					assert.Equal(t, want, got)
					assert.True(t, m.Can(state, event))
					return
				}
				var illegal *domain.IllegalTransitionError
				require.True(t, errors.As(err, &illegal))
				assert.ErrorIs(t, err, domain.ErrIllegalTransition)
				assert.Equal(t, string(state), illegal.From)
				assert.Equal(t, string(event), illegal.Event)
				assert.Equal(t, m.Entity(), illegal.Entity)
				assert.False(t, m.Can(state, event))
			})
		}
	}
}

func TestOrderGraph(t *testing.T) {
	type e = edge[domain.OrderStatus, domain.OrderEvent]
	legal := map[e]domain.OrderStatus{
		{domain.OrderStatusCreated, domain.OrderEventPay}:             domain.OrderStatusPaid,
		{domain.OrderStatusPaid, domain.OrderEventAccept}:             domain.OrderStatusAccepted,
		{domain.OrderStatusAccepted, domain.OrderEventStartProducing}: domain.OrderStatusProducing,
		{domain.OrderStatusProducing, domain.OrderEventDeliver}:       domain.OrderStatusDelivered,
		{domain.OrderStatusDelivered, domain.OrderEventComplete}:      domain.OrderStatusCompleted,
		{domain.OrderStatusCreated, domain.OrderEventCancel}:          domain.OrderStatusCanceled,
		{domain.OrderStatusPaid, domain.OrderEventCancel}:             domain.OrderStatusCanceled,
		{domain.OrderStatusAccepted, domain.OrderEventCancel}:         domain.OrderStatusCanceled,
		{domain.OrderStatusPaid, domain.OrderEventRefund}:             domain.OrderStatusRefunded,
		{domain.OrderStatusAccepted, domain.OrderEventRefund}:         domain.OrderStatusRefunded,
		{domain.OrderStatusProducing, domain.OrderEventRefund}:        domain.OrderStatusRefunded,
		{domain.OrderStatusDelivered, domain.OrderEventRefund}:        domain.OrderStatusRefunded,
	}
	events := []domain.OrderEvent{
		domain.OrderEventPay, domain.OrderEventAccept, domain.OrderEventStartProducing, domain.OrderEventDeliver,
		domain.OrderEventComplete, domain.OrderEventCancel, domain.OrderEventRefund,
	}
	checkGraph(t, Order, events, legal)

	assert.Len(t, Order.States(), 8)
	for _, s := range []domain.OrderStatus{
		domain.OrderStatusCompleted, domain.OrderStatusCanceled, domain.OrderStatusRefunded,
	} {
		assert.True(t, Order.IsTerminal(s), s)
	}
	assert.False(t, Order.IsTerminal(domain.OrderStatusCreated))
}

func TestPaymentGraph(t *testing.T) {
	type e = edge[domain.PaymentStatus, domain.PaymentEvent]
	legal := map[e]domain.PaymentStatus{
		{domain.PaymentStatusInit, domain.PaymentEventSubmit}:    domain.PaymentStatusPending,
		{domain.PaymentStatusPending, domain.PaymentEventSettle}: domain.PaymentStatusPaid,
		{domain.PaymentStatusInit, domain.PaymentEventFail}:      domain.PaymentStatusFailed,
		{domain.PaymentStatusPending, domain.PaymentEventFail}:   domain.PaymentStatusFailed,
		{domain.PaymentStatusPaid, domain.PaymentEventRefund}:    domain.PaymentStatusRefunded,
	}
	events := []domain.PaymentEvent{
		domain.PaymentEventSubmit, domain.PaymentEventSettle, domain.PaymentEventFail, domain.PaymentEventRefund,
	}
	checkGraph(t, Payment, events, legal)
}

func TestRefundGraph(t *testing.T) {
	type e = edge[domain.RefundStatus, domain.RefundEvent]
	legal := map[e]domain.RefundStatus{
		{domain.RefundStatusInit, domain.RefundEventApprove}:    domain.RefundStatusPending,
		{domain.RefundStatusPending, domain.RefundEventSucceed}: domain.RefundStatusSucceeded,
		{domain.RefundStatusInit, domain.RefundEventReject}:     domain.RefundStatusFailed,
	}
	events := []domain.RefundEvent{domain.RefundEventApprove, domain.RefundEventSucceed, domain.RefundEventReject}
	checkGraph(t, Refund, events, legal)
}

func TestMerchantGraph(t *testing.T) {
	type e = edge[domain.MerchantStatus, domain.MerchantEvent]
	legal := map[e]domain.MerchantStatus{
		{domain.MerchantStatusPending, domain.MerchantEventSubmit}:      domain.MerchantStatusSubmitted,
		{domain.MerchantStatusSubmitted, domain.MerchantEventApprove}:   domain.MerchantStatusApproved,
		{domain.MerchantStatusSubmitted, domain.MerchantEventReject}:    domain.MerchantStatusRejected,
		{domain.MerchantStatusApproved, domain.MerchantEventSuspend}:    domain.MerchantStatusSuspended,
		{domain.MerchantStatusSuspended, domain.MerchantEventUnsuspend}: domain.MerchantStatusApproved,
	}
	events := []domain.MerchantEvent{
		domain.MerchantEventSubmit, domain.MerchantEventApprove, domain.MerchantEventReject,
		domain.MerchantEventSuspend, domain.MerchantEventUnsuspend,
	}
	checkGraph(t, Merchant, events, legal)
	assert.True(t, Merchant.IsTerminal(domain.MerchantStatusRejected))
}

func TestUserGraph(t *testing.T) {
	type e = edge[domain.UserStatus, domain.UserEvent]
	legal := map[e]domain.UserStatus{
		{domain.UserStatusActive, domain.UserEventSuspend}:     domain.UserStatusDisabled,
		{domain.UserStatusDisabled, domain.UserEventUnsuspend}: domain.UserStatusActive,
	}
	checkGraph(t, User, []domain.UserEvent{domain.UserEventSuspend, domain.UserEventUnsuspend}, legal)
}

func TestCancelPaidOrderTwice(t *testing.T) {
	state, err := Order.Fire(domain.OrderStatusPaid, domain.OrderEventCancel)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusCanceled, state)

	_, err = Order.Fire(state, domain.OrderEventCancel)
	require.ErrorIs(t, err, domain.ErrIllegalTransition)
}

func TestUnknownStateFailsClosed(t *testing.T) {
	_, err := Merchant.Fire("archived", domain.MerchantEventApprove)
	require.ErrorIs(t, err, domain.ErrIllegalTransition)
	assert.False(t, Merchant.IsTerminal("archived"))
	assert.Empty(t, Merchant.Events("archived"))
}

func TestEvents(t *testing.T) {
	assert.Equal(t,
		[]domain.OrderEvent{domain.OrderEventAccept, domain.OrderEventCancel, domain.OrderEventRefund},
		Order.Events(domain.OrderStatusPaid),
	)
}

func TestNewPanicsOnConflictingRules(t *testing.T) {
	assert.Panics(t, func() {
		New("broken", nil,
			Transition[string, string]{From: []string{"a"}, Event: "go", To: "b"},
			Transition[string, string]{From: []string{"a"}, Event: "go", To: "c"},
		)
	})
}
