package domain

import "github.com/shopspring/decimal"

const DefaultCurrency = "CNY"

type OrderStatus string

const (
	OrderStatusCreated   OrderStatus = "created"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusAccepted  OrderStatus = "accepted"
	OrderStatusProducing OrderStatus = "producing"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCanceled  OrderStatus = "canceled"
	OrderStatusRefunded  OrderStatus = "refunded"
)

type OrderEvent string

const (
	OrderEventPay            OrderEvent = "pay"
	OrderEventAccept         OrderEvent = "accept"
	OrderEventStartProducing OrderEvent = "start_producing"
	OrderEventDeliver        OrderEvent = "deliver"
	OrderEventComplete       OrderEvent = "complete"
	OrderEventCancel         OrderEvent = "cancel"
	OrderEventRefund         OrderEvent = "refund"
)

// BidStatus статус ставки на заказ. Переходы между статусами в бэк-офисе не выполняются.
type BidStatus string

const (
	BidStatusPending  BidStatus = "pending"
	BidStatusAccepted BidStatus = "accepted"
	BidStatusRejected BidStatus = "rejected"
)

func (s BidStatus) Valid() bool {
	switch s {
	case BidStatusPending, BidStatusAccepted, BidStatusRejected:
		return true
	default:
		return false
	}
}

type PaymentChannel string

const (
	PaymentChannelWechat       PaymentChannel = "wechat"
	PaymentChannelAlipay       PaymentChannel = "alipay"
	PaymentChannelBankTransfer PaymentChannel = "bank_transfer"
)

// Valid проверяет, что канал оплаты входит в список поддерживаемых.
func (c PaymentChannel) Valid() bool {
	switch c {
	case PaymentChannelWechat, PaymentChannelAlipay, PaymentChannelBankTransfer:
		return true
	default:
		return false
	}
}

type PaymentStatus string

const (
	PaymentStatusInit     PaymentStatus = "init"
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

type PaymentEvent string

const (
	PaymentEventSubmit PaymentEvent = "submit"
	PaymentEventSettle PaymentEvent = "settle"
	PaymentEventFail   PaymentEvent = "fail"
	PaymentEventRefund PaymentEvent = "refund"
)

type RefundStatus string

const (
	RefundStatusInit      RefundStatus = "init"
	RefundStatusPending   RefundStatus = "pending"
	RefundStatusSucceeded RefundStatus = "succeeded"
	RefundStatusFailed    RefundStatus = "failed"
)

type RefundEvent string

const (
	RefundEventApprove RefundEvent = "approve"
	RefundEventSucceed RefundEvent = "succeed"
	RefundEventReject  RefundEvent = "reject"
)

type MerchantStatus string

const (
	// MerchantStatusNotApplied не хранится в БД, используется только в ответе о статусе заявки.
	MerchantStatusNotApplied MerchantStatus = "not_applied"
	MerchantStatusPending    MerchantStatus = "pending"
	MerchantStatusSubmitted  MerchantStatus = "submitted"
	MerchantStatusApproved   MerchantStatus = "approved"
	MerchantStatusRejected   MerchantStatus = "rejected"
	MerchantStatusSuspended  MerchantStatus = "suspended"
)

type MerchantEvent string

const (
	MerchantEventSubmit    MerchantEvent = "submit"
	MerchantEventApprove   MerchantEvent = "approve"
	MerchantEventReject    MerchantEvent = "reject"
	MerchantEventSuspend   MerchantEvent = "suspend"
	MerchantEventUnsuspend MerchantEvent = "unsuspend"
)

type ReviewAction string

const (
	ReviewActionSubmit    ReviewAction = "submit"
	ReviewActionApprove   ReviewAction = "approve"
	ReviewActionReject    ReviewAction = "reject"
	ReviewActionSuspend   ReviewAction = "suspend"
	ReviewActionUnsuspend ReviewAction = "unsuspend"
	ReviewActionUpdate    ReviewAction = "update"
)

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
)

type UserEvent string

const (
	UserEventSuspend   UserEvent = "suspend"
	UserEventUnsuspend UserEvent = "unsuspend"
)

type AdminRole string

const (
	// AdminRoleAdmin суперпользователь, права не проверяются.
	AdminRoleAdmin    AdminRole = "admin"
	AdminRoleOperator AdminRole = "operator"
)

// Коды прав RBAC для операторов.
const (
	PermissionMerchantApprove = "merchant:approve"
	PermissionMerchantRead    = "merchant:read"
	PermissionUserManage      = "user:manage"
	PermissionPaymentRefund   = "payment:refund"
)

type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "pending"
	OutboxStatusProcessing OutboxStatus = "processing"
	OutboxStatusPublished  OutboxStatus = "published"
	OutboxStatusFailed     OutboxStatus = "failed"
)

// Типы событий outbox. Совпадают с routing key в брокере.
const (
	EventMerchantApproved = "merchant.approved"
	EventRefundApproved   = "refund.approved"
	EventPaymentRecorded  = "payment.recorded"
)

// RefundRequest запрос на проведение возврата у платежного провайдера.
type RefundRequest struct {
	RefundID       int64
	PaymentID      int64
	OrderID        int64
	Amount         decimal.Decimal
	IdempotencyKey string
}

type RefundReceipt struct {
	ProviderRefundNo string
}
