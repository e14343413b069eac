package repoargs

import (
	"encoding/json"
	"time"

	"github.com/fsdevblog/groph-backoffice/internal/domain"
	"github.com/fsdevblog/groph-backoffice/internal/identity"
	"github.com/google/uuid"
)

type UpdateUserStatus struct {
	ID             int64
	From           domain.UserStatus
	To             domain.UserStatus
	DisabledAt     *time.Time
	DisabledReason string
}

type CreateMerchantProfile struct {
	UserID         int64
	ShopName       string
	ContactName    string
	Province       string
	City           string
	District       string
	AddressLine    string
	LicenseFileKey string
	IDCardFrontKey string
	IDCardBackKey  string
}

type SubmitMerchantProfile struct {
	ID                    int64
	From                  domain.MerchantStatus
	To                    domain.MerchantStatus
	BankName              string
	BankBranch            string
	BankAccountName       string
	BankAccountCiphertext []byte
	BankAccountBlindIndex string
	SubmittedAt           time.Time
}

// UpdateMerchantReview сохраняет статус и поля решения ревью из Profile, если текущий статус равен From.
type UpdateMerchantReview struct {
	From    domain.MerchantStatus
	Profile domain.MerchantProfile
}

type CreateReviewLog struct {
	MerchantProfileID int64
	Action            domain.ReviewAction
	Operator          identity.Reference
	Note              string
}

type CreateAuditLog struct {
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

type CreateOutboxEvent struct {
	MessageID     uuid.UUID
	EventType     string
	AggregateType string
	AggregateRef  string
	Payload       json.RawMessage
}
