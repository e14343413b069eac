package repoargs

import (
	"time"

	"github.com/fsdevblog/groph-backoffice/internal/domain"
	"github.com/fsdevblog/groph-backoffice/internal/identity"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateOrder struct {
	OrderNo     string
	CustomerRef uuid.UUID
	MerchantRef uuid.UUID
	TotalAmount decimal.Decimal
	Currency    string
}

// UpdateOrderStatus переводит заказ из From в To и проставляет отметку времени этапа To.
type UpdateOrderStatus struct {
	ID           int64
	From         domain.OrderStatus
	To           domain.OrderStatus
	At           time.Time
	CancelReason string
	CanceledBy   *identity.Reference
}

type CreatePayment struct {
	OrderID        int64
	Channel        domain.PaymentChannel
	Amount         decimal.Decimal
	Currency       string
	IdempotencyKey string
}

type UpdatePaymentStatus struct {
	ID              int64
	From            domain.PaymentStatus
	To              domain.PaymentStatus
	PaidAt          *time.Time
	ProviderTradeNo *string
}

type CreateRefund struct {
	OrderID        int64
	PaymentID      int64
	Amount         decimal.Decimal
	Reason         string
	IdempotencyKey string
	RequestedBy    identity.Reference
}

type UpdateRefundStatus struct {
	ID               int64
	From             domain.RefundStatus
	To               domain.RefundStatus
	ReviewNote       string
	ReviewedAt       *time.Time
	SucceededAt      *time.Time
	ProviderRefundNo *string
}
