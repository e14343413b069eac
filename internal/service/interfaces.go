package service

import (
	"context"
	"time"

	"github.com/fsdevblog/groph-backoffice/internal/domain"
	"github.com/fsdevblog/groph-backoffice/internal/identity"
	"github.com/fsdevblog/groph-backoffice/internal/repository/repoargs"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByIDForUpdate(ctx context.Context, id int64) (*domain.User, error)
	FindByPublicID(ctx context.Context, publicID uuid.UUID) (*domain.User, error)
	UpdateStatus(ctx context.Context, args repoargs.UpdateUserStatus) (*domain.User, error)
}

type AdminUserRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.AdminUser, error)
	HasPermission(ctx context.Context, adminID int64, code string) (bool, error)
}

type OrderRepository interface {
	Create(ctx context.Context, args repoargs.CreateOrder) (*domain.Order, error)
	FindByID(ctx context.Context, id int64) (*domain.Order, error)
	FindByIDForUpdate(ctx context.Context, id int64) (*domain.Order, error)
	UpdateStatus(ctx context.Context, args repoargs.UpdateOrderStatus) (*domain.Order, error)
	ListItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error)
	ListBids(ctx context.Context, orderID int64) ([]domain.Bid, error)
}

type PaymentRepository interface {
	CreateIdempotent(ctx context.Context, args repoargs.CreatePayment) (*domain.Payment, bool, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error)
	FindByID(ctx context.Context, id int64) (*domain.Payment, error)
	FindByIDForUpdate(ctx context.Context, id int64) (*domain.Payment, error)
	UpdateStatus(ctx context.Context, args repoargs.UpdatePaymentStatus) (*domain.Payment, error)
}

type RefundRepository interface {
	CreateIdempotent(ctx context.Context, args repoargs.CreateRefund) (*domain.Refund, bool, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*domain.Refund, error)
	FindByID(ctx context.Context, id int64) (*domain.Refund, error)
	FindByIDForUpdate(ctx context.Context, id int64) (*domain.Refund, error)
	SumActiveByPayment(ctx context.Context, paymentID int64) (decimal.Decimal, error)
	SumSucceededByPayment(ctx context.Context, paymentID int64) (decimal.Decimal, error)
	UpdateStatus(ctx context.Context, args repoargs.UpdateRefundStatus) (*domain.Refund, error)
}

type MerchantProfileRepository interface {
	Create(ctx context.Context, args repoargs.CreateMerchantProfile) (*domain.MerchantProfile, error)
	FindByID(ctx context.Context, id int64) (*domain.MerchantProfile, error)
	FindByIDForUpdate(ctx context.Context, id int64) (*domain.MerchantProfile, error)
	FindByUserID(ctx context.Context, userID int64) (*domain.MerchantProfile, error)
	Submit(ctx context.Context, args repoargs.SubmitMerchantProfile) (*domain.MerchantProfile, error)
	UpdateReview(ctx context.Context, args repoargs.UpdateMerchantReview) (*domain.MerchantProfile, error)
}

type ReviewLogRepository interface {
	Create(ctx context.Context, args repoargs.CreateReviewLog) (*domain.MerchantReviewLog, error)
	ListByProfile(ctx context.Context, profileID int64) ([]domain.MerchantReviewLog, error)
}

type AuditLogRepository interface {
	Create(ctx context.Context, args repoargs.CreateAuditLog) (*domain.AuditLog, error)
	ListByTarget(ctx context.Context, target identity.Reference, limit uint) ([]domain.AuditLog, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, args repoargs.CreateOutboxEvent) (*domain.OutboxEvent, error)
	ClaimPending(ctx context.Context, limit uint) ([]domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, ids []int64) error
	MarkFailed(ctx context.Context, id int64, lastError string, maxRetries int) error
}

// Locker распределенная блокировка перед идемпотентными операциями. Возвращает функцию освобождения.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

type Vault interface {
	Encrypt(plain string) ([]byte, error)
	BlindIndex(plain string) (string, error)
	Masked(ciphertext []byte) (string, error)
}

type OrderNumberGenerator interface {
	NextOrderNo() string
}

// RefundProvider внешний платежный провайдер. Протокол интеграции не определен.
type RefundProvider interface {
	Refund(ctx context.Context, req domain.RefundRequest) (*domain.RefundReceipt, error)
}

type Notifier interface {
	MerchantApproved(ctx context.Context, profile *domain.MerchantProfile, user *domain.User) error
}
