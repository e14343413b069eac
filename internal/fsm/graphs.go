package fsm

import "github.com/fsdevblog/groph-backoffice/internal/domain"

type (
	orderRule    = Transition[domain.OrderStatus, domain.OrderEvent]
	paymentRule  = Transition[domain.PaymentStatus, domain.PaymentEvent]
	refundRule   = Transition[domain.RefundStatus, domain.RefundEvent]
	merchantRule = Transition[domain.MerchantStatus, domain.MerchantEvent]
	userRule     = Transition[domain.UserStatus, domain.UserEvent]
)

var Order = New("order",
	[]domain.OrderStatus{
		domain.OrderStatusCreated, domain.OrderStatusPaid, domain.OrderStatusAccepted,
		domain.OrderStatusProducing, domain.OrderStatusDelivered, domain.OrderStatusCompleted,
		domain.OrderStatusCanceled, domain.OrderStatusRefunded,
	},
	orderRule{
		From: []domain.OrderStatus{domain.OrderStatusCreated}, Event: domain.OrderEventPay,
		To: domain.OrderStatusPaid,
	},
	orderRule{
		From: []domain.OrderStatus{domain.OrderStatusPaid}, Event: domain.OrderEventAccept,
		To: domain.OrderStatusAccepted,
	},
	orderRule{
		From: []domain.OrderStatus{domain.OrderStatusAccepted}, Event: domain.OrderEventStartProducing,
		To: domain.OrderStatusProducing,
	},
	orderRule{
		From: []domain.OrderStatus{domain.OrderStatusProducing}, Event: domain.OrderEventDeliver,
		To: domain.OrderStatusDelivered,
	},
	orderRule{
		From: []domain.OrderStatus{domain.OrderStatusDelivered}, Event: domain.OrderEventComplete,
		To: domain.OrderStatusCompleted,
	},
	orderRule{
		From:  []domain.OrderStatus{domain.OrderStatusCreated, domain.OrderStatusPaid, domain.OrderStatusAccepted},
		Event: domain.OrderEventCancel,
		To:    domain.OrderStatusCanceled,
	},
	orderRule{
		From: []domain.OrderStatus{
			domain.OrderStatusPaid, domain.OrderStatusAccepted,
			domain.OrderStatusProducing, domain.OrderStatusDelivered,
		},
		Event: domain.OrderEventRefund,
		To:    domain.OrderStatusRefunded,
	},
)

// Payment переходы платежа управляются результатом обращения к провайдеру, а не действиями оператора.
var Payment = New("payment",
	[]domain.PaymentStatus{
		domain.PaymentStatusInit, domain.PaymentStatusPending, domain.PaymentStatusPaid,
		domain.PaymentStatusFailed, domain.PaymentStatusRefunded,
	},
	paymentRule{
		From: []domain.PaymentStatus{domain.PaymentStatusInit}, Event: domain.PaymentEventSubmit,
		To: domain.PaymentStatusPending,
	},
	paymentRule{
		From: []domain.PaymentStatus{domain.PaymentStatusPending}, Event: domain.PaymentEventSettle,
		To: domain.PaymentStatusPaid,
	},
	paymentRule{
		From:  []domain.PaymentStatus{domain.PaymentStatusInit, domain.PaymentStatusPending},
		Event: domain.PaymentEventFail,
		To:    domain.PaymentStatusFailed,
	},
	paymentRule{
		From: []domain.PaymentStatus{domain.PaymentStatusPaid}, Event: domain.PaymentEventRefund,
		To: domain.PaymentStatusRefunded,
	},
)

var Refund = New("refund",
	[]domain.RefundStatus{
		domain.RefundStatusInit, domain.RefundStatusPending, domain.RefundStatusSucceeded, domain.RefundStatusFailed,
	},
	refundRule{
		From: []domain.RefundStatus{domain.RefundStatusInit}, Event: domain.RefundEventApprove,
		To: domain.RefundStatusPending,
	},
	refundRule{
		From: []domain.RefundStatus{domain.RefundStatusPending}, Event: domain.RefundEventSucceed,
		To: domain.RefundStatusSucceeded,
	},
	refundRule{
		From: []domain.RefundStatus{domain.RefundStatusInit}, Event: domain.RefundEventReject,
		To: domain.RefundStatusFailed,
	},
)

var Merchant = New("merchant_profile",
	[]domain.MerchantStatus{
		domain.MerchantStatusPending, domain.MerchantStatusSubmitted, domain.MerchantStatusApproved,
		domain.MerchantStatusRejected, domain.MerchantStatusSuspended,
	},
	merchantRule{
		From: []domain.MerchantStatus{domain.MerchantStatusPending}, Event: domain.MerchantEventSubmit,
		To: domain.MerchantStatusSubmitted,
	},
	merchantRule{
		From: []domain.MerchantStatus{domain.MerchantStatusSubmitted}, Event: domain.MerchantEventApprove,
		To: domain.MerchantStatusApproved,
	},
	merchantRule{
		From: []domain.MerchantStatus{domain.MerchantStatusSubmitted}, Event: domain.MerchantEventReject,
		To: domain.MerchantStatusRejected,
	},
	merchantRule{
		From: []domain.MerchantStatus{domain.MerchantStatusApproved}, Event: domain.MerchantEventSuspend,
		To: domain.MerchantStatusSuspended,
	},
	merchantRule{
		From: []domain.MerchantStatus{domain.MerchantStatusSuspended}, Event: domain.MerchantEventUnsuspend,
		To: domain.MerchantStatusApproved,
	},
)

var User = New("user",
	[]domain.UserStatus{domain.UserStatusActive, domain.UserStatusDisabled},
	userRule{
		From: []domain.UserStatus{domain.UserStatusActive}, Event: domain.UserEventSuspend,
		To: domain.UserStatusDisabled,
	},
	userRule{
		From: []domain.UserStatus{domain.UserStatusDisabled}, Event: domain.UserEventUnsuspend,
		To: domain.UserStatusActive,
	},
)
