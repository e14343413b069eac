package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fsdevblog/groph-backoffice/internal/identity"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type User struct {
	ID             int64
	PublicID       uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Email          string
	DisplayName    string
	Status         UserStatus
	DisabledAt     *time.Time
	DisabledReason string
}

type AdminUser struct {
	ID        int64
	CreatedAt time.Time
	Email     string
	Name      string
	Role      AdminRole
	Active    bool
}

type Order struct {
	ID           int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
	OrderNo      string
	CustomerRef  uuid.UUID
	MerchantRef  uuid.UUID
	Status       OrderStatus
	TotalAmount  decimal.Decimal
	Currency     string
	PaidAt       *time.Time
	AcceptedAt   *time.Time
	ProducingAt  *time.Time
	DeliveredAt  *time.Time
	CompletedAt  *time.Time
	CanceledAt   *time.Time
	RefundedAt   *time.Time
	CancelReason string
	CanceledBy   *identity.Reference
}

// OrderItem позиция заказа. Item* ссылаются на товар или услугу в каталоге маркетплейса.
type OrderItem struct {
	ID        int64
	CreatedAt time.Time
	UpdatedAt time.Time
	OrderID   int64
	ItemType  string
	ItemID    int64
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int32
	Subtotal  decimal.Decimal
}

// DisplayName имя позиции, а если его нет, то "<тип>#<id>".
func (i OrderItem) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	return fmt.Sprintf("%s#%d", i.ItemType, i.ItemID)
}

type Bid struct {
	ID        int64
	CreatedAt time.Time
	UpdatedAt time.Time
	OrderID   int64
	BidderRef uuid.UUID
	Amount    decimal.Decimal
	Status    BidStatus
}

type Payment struct {
	ID              int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
	OrderID         int64
	Channel         PaymentChannel
	Status          PaymentStatus
	Amount          decimal.Decimal
	Currency        string
	ProviderTradeNo *string
	IdempotencyKey  string
	PaidAt          *time.Time
}

type Refund struct {
	ID               int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
	OrderID          int64
	PaymentID        int64
	Amount           decimal.Decimal
	Reason           string
	Status           RefundStatus
	ProviderRefundNo *string
	IdempotencyKey   string
	RequestedBy      identity.Reference
	ReviewNote       string
	ReviewedAt       *time.Time
	SucceededAt      *time.Time
}

type MerchantProfile struct {
	ID        int64
	CreatedAt time.Time
	UpdatedAt time.Time
	UserID    int64
	ShopName  string
	Status    MerchantStatus

	ContactName string
	Province    string
	City        string
	District    string
	AddressLine string

	// Ключи объектов в хранилище документов. Содержимое документов в БД не попадает.
	LicenseFileKey string
	IDCardFrontKey string
	IDCardBackKey  string

	BankName              string
	BankBranch            string
	BankAccountName       string
	BankAccountCiphertext []byte
	BankAccountBlindIndex string

	SubmittedAt   *time.Time
	ApprovedAt    *time.Time
	ApprovedByRef string
	RejectedAt    *time.Time
	RejectedByRef string
	RejectReason  string
}

type MerchantReviewLog struct {
	ID                int64
	CreatedAt         time.Time
	MerchantProfileID int64
	Action            ReviewAction
	Operator          identity.Reference
	Note              string
}

type AuditLog struct {
	ID        int64
	CreatedAt time.Time
	Actor     identity.Reference
	Action    string
	Target    identity.Reference
	Before    map[string]any
	After     map[string]any
	Metadata  map[string]any
	RequestID string
	IP        string
	UserAgent string
}

type OutboxEvent struct {
	ID            int64
	CreatedAt     time.Time
	MessageID     uuid.UUID
	EventType     string
	AggregateType string
	AggregateRef  string
	Payload       json.RawMessage
	Status        OutboxStatus
	RetryCount    int
	LastError     string
	ProcessedAt   *time.Time
}
