package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fsdevblog/groph-backoffice/internal/audit"
	"github.com/fsdevblog/groph-backoffice/internal/domain"
	"github.com/fsdevblog/groph-backoffice/internal/fsm"
	"github.com/fsdevblog/groph-backoffice/internal/identity"
	"github.com/fsdevblog/groph-backoffice/internal/repository/repoargs"
	"github.com/fsdevblog/groph-backoffice/pkg/uow"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	DefaultMerchantApproveNote   = "approved by operations"
	DefaultMerchantSuspendReason = "suspended by operations"
	DefaultBatchRejectReason     = "rejected in batch"
)

var merchantStatusMessages = map[domain.MerchantStatus]string{
	domain.MerchantStatusNotApplied: "you have not applied to become a merchant",
	domain.MerchantStatusPending:    "your application has not been submitted yet",
	domain.MerchantStatusSubmitted:  "your application is under review",
	domain.MerchantStatusApproved:   "congratulations, your shop has been approved",
	domain.MerchantStatusRejected:   "sorry, your application was not approved",
	domain.MerchantStatusSuspended:  "your merchant account has been suspended",
}

type MerchantService struct {
	uow         uow.UOW
	profileRepo MerchantProfileRepository
	userRepo    UserRepository
	guard       *AdminGuard
	audit       *AuditService
	outbox      *OutboxService
	vault       Vault
	notifier    Notifier
	logger      *logrus.Entry
}

type MerchantServiceArgs struct {
	Guard    *AdminGuard
	Audit    *AuditService
	Outbox   *OutboxService
	Vault    Vault
	Notifier Notifier
	Logger   *logrus.Logger
}

func NewMerchantService(u uow.UOW, args MerchantServiceArgs) (*MerchantService, error) {
	profileRepo, err := poolRepo[MerchantProfileRepository](u, repoargs.MerchantProfileRepoName)
	if err != nil {
		return nil, err
	}
	userRepo, err := poolRepo[UserRepository](u, repoargs.UserRepoName)
	if err != nil {
		return nil, err
	}
	return &MerchantService{
		uow:         u,
		profileRepo: profileRepo,
		userRepo:    userRepo,
		guard:       args.Guard,
		audit:       args.Audit,
		outbox:      args.Outbox,
		vault:       args.Vault,
		notifier:    args.Notifier,
		logger:      args.Logger.WithField("component", "merchant_service"),
	}, nil
}

type ApplyMerchantArgs struct {
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
	Request        audit.RequestContext
}

// ApplyMerchant создает заявку продавца в статусе pending. У пользователя может быть только одна заявка.
func (m *MerchantService) ApplyMerchant(ctx context.Context, args ApplyMerchantArgs) (*domain.MerchantProfile, error) {
	shopName := strings.TrimSpace(args.ShopName)
	if shopName == "" {
		return nil, domain.NewValidationError("shop_name", "a shop name is required")
	}

	var profile *domain.MerchantProfile
	txErr := m.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		userRepo, err := txRepo[UserRepository](tx, repoargs.UserRepoName)
		if err != nil {
			return err
		}
		profileRepo, err := txRepo[MerchantProfileRepository](tx, repoargs.MerchantProfileRepoName)
		if err != nil {
			return err
		}

		user, err := userRepo.FindByID(c, args.UserID)
		if err != nil {
			return err //nolint:wrapcheck
		}
		if user.Status != domain.UserStatusActive {
			return domain.NewValidationError("user_id", "account is disabled")
		}

		profile, err = profileRepo.Create(c, repoargs.CreateMerchantProfile{
			UserID:         user.ID,
			ShopName:       shopName,
			ContactName:    args.ContactName,
			Province:       args.Province,
			City:           args.City,
			District:       args.District,
			AddressLine:    args.AddressLine,
			LicenseFileKey: args.LicenseFileKey,
			IDCardFrontKey: args.IDCardFrontKey,
			IDCardBackKey:  args.IDCardBackKey,
		})
		if err != nil {
			if errors.Is(err, domain.ErrDuplicateKey) {
				return domain.NewValidationError("user_id", "a merchant application already exists")
			}
			return err //nolint:wrapcheck
		}

		target, err := identity.RecordRef(identity.TypeMerchantProfile, profile.ID)
		if err != nil {
			return err //nolint:wrapcheck
		}
		return m.audit.Append(c, tx, audit.Entry{
			Action:  "apply",
			Actor:   identity.BusinessRef(user.PublicID),
			Target:  target,
			After:   map[string]any{"status": string(profile.Status), "shop_name": profile.ShopName},
			Request: args.Request,
		})
	})
	if txErr != nil {
		return nil, fmt.Errorf("applying merchant for user %d: %w", args.UserID, txErr)
	}
	return profile, nil
}

type SubmitMerchantArgs struct {
	UserID            int64
	BankName          string
	BankBranch        string
	BankAccountName   string
	BankAccountNumber string
	Request           audit.RequestContext
}

// SubmitMerchant отправляет заявку на проверку. Номер счета сохраняется только в зашифрованном виде
// вместе со слепым индексом для поиска дублей.
func (m *MerchantService) SubmitMerchant(ctx context.Context, args SubmitMerchantArgs) (*domain.MerchantProfile, error) {
	if strings.TrimSpace(args.BankName) == "" {
		return nil, domain.NewValidationError("bank_name", "a bank name is required")
	}
	if strings.TrimSpace(args.BankAccountNumber) == "" {
		return nil, domain.NewValidationError("bank_account_number", "a bank account number is required")
	}
	ciphertext, err := m.vault.Encrypt(args.BankAccountNumber)
	if err != nil {
		return nil, fmt.Errorf("submitting merchant of user %d: %w", args.UserID, err)
	}
	blindIndex, err := m.vault.BlindIndex(args.BankAccountNumber)
	if err != nil {
		return nil, fmt.Errorf("submitting merchant of user %d: %w", args.UserID, err)
	}
	masked, err := m.vault.Masked(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("submitting merchant of user %d: %w", args.UserID, err)
	}

	var profile *domain.MerchantProfile
	txErr := m.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		userRepo, repoErr := txRepo[UserRepository](tx, repoargs.UserRepoName)
		if repoErr != nil {
			return repoErr
		}
		profileRepo, repoErr := txRepo[MerchantProfileRepository](tx, repoargs.MerchantProfileRepoName)
		if repoErr != nil {
			return repoErr
		}
		reviewLogRepo, repoErr := txRepo[ReviewLogRepository](tx, repoargs.ReviewLogRepoName)
		if repoErr != nil {
			return repoErr
		}

		user, findErr := userRepo.FindByID(c, args.UserID)
		if findErr != nil {
			return findErr //nolint:wrapcheck
		}
		current, findErr := profileRepo.FindByUserID(c, user.ID)
		if findErr != nil {
			return findErr //nolint:wrapcheck
		}
		current, findErr = profileRepo.FindByIDForUpdate(c, current.ID)
		if findErr != nil {
			return findErr //nolint:wrapcheck
		}

		to, fireErr := fsm.Merchant.Fire(current.Status, domain.MerchantEventSubmit)
		if fireErr != nil {
			return fireErr //nolint:wrapcheck
		}

		var submitErr error
		profile, submitErr = profileRepo.Submit(c, repoargs.SubmitMerchantProfile{
			ID:                    current.ID,
			From:                  current.Status,
			To:                    to,
			BankName:              strings.TrimSpace(args.BankName),
			BankBranch:            args.BankBranch,
			BankAccountName:       args.BankAccountName,
			BankAccountCiphertext: ciphertext,
			BankAccountBlindIndex: blindIndex,
			SubmittedAt:           time.Now(),
		})
		if submitErr != nil {
			if errors.Is(submitErr, domain.ErrDuplicateKey) {
				return domain.NewValidationError("bank_account_number",
					"this bank account is already bound to another merchant")
			}
			return submitErr //nolint:wrapcheck
		}

		applicant := identity.BusinessRef(user.PublicID)
		if _, logErr := reviewLogRepo.Create(c, repoargs.CreateReviewLog{
			MerchantProfileID: profile.ID,
			Action:            domain.ReviewActionSubmit,
			Operator:          applicant,
		}); logErr != nil {
			return logErr //nolint:wrapcheck
		}

		target, refErr := identity.RecordRef(identity.TypeMerchantProfile, profile.ID)
		if refErr != nil {
			return refErr //nolint:wrapcheck
		}
		return m.audit.Append(c, tx, audit.Entry{
			Action:  string(domain.ReviewActionSubmit),
			Actor:   applicant,
			Target:  target,
			Before:  map[string]any{"status": string(current.Status)},
			After:   map[string]any{"status": string(profile.Status), "bank_account": masked},
			Request: args.Request,
		})
	})
	if txErr != nil {
		return nil, fmt.Errorf("submitting merchant of user %d: %w", args.UserID, txErr)
	}
	return profile, nil
}

type MerchantActionArgs struct {
	ProfileID int64
	AdminID   int64
	Reason    string
	Request   audit.RequestContext
}

// merchantTransition описание одного решения по заявке.
type merchantTransition struct {
	event      domain.MerchantEvent
	action     domain.ReviewAction
	actionType string
	note       string
	// apply проставляет поля решения на копии профиля и возвращает дополнительные поля снимка after.
	apply func(p *domain.MerchantProfile, operator identity.Reference, at time.Time) map[string]any
}

// ApproveMerchant одобряет заявку в статусе submitted.
func (m *MerchantService) ApproveMerchant(ctx context.Context, args MerchantActionArgs) error {
	note := strings.TrimSpace(args.Reason)
	if note == "" {
		note = DefaultMerchantApproveNote
	}
	return m.transition(ctx, args, merchantTransition{
		event:      domain.MerchantEventApprove,
		action:     domain.ReviewActionApprove,
		actionType: "merchant_approval",
		note:       note,
		apply: func(p *domain.MerchantProfile, operator identity.Reference, at time.Time) map[string]any {
			p.ApprovedAt = &at
			p.ApprovedByRef = operator.Raw
			return map[string]any{"approved_at": at, "approved_by": operator.String()}
		},
	})
}

// RejectMerchant отклоняет заявку. Причина обязательна и проверяется до любых обращений к БД.
func (m *MerchantService) RejectMerchant(ctx context.Context, args MerchantActionArgs) error {
	reason := strings.TrimSpace(args.Reason)
	if reason == "" {
		return domain.NewValidationError("reason", "a reason is required")
	}
	return m.transition(ctx, args, merchantTransition{
		event:      domain.MerchantEventReject,
		action:     domain.ReviewActionReject,
		actionType: "merchant_rejection",
		note:       reason,
		apply: func(p *domain.MerchantProfile, operator identity.Reference, at time.Time) map[string]any {
			p.RejectedAt = &at
			p.RejectedByRef = operator.Raw
			p.RejectReason = reason
			return map[string]any{"rejected_at": at, "rejected_by": operator.String(), "reject_reason": reason}
		},
	})
}

func (m *MerchantService) SuspendMerchant(ctx context.Context, args MerchantActionArgs) error {
	reason := strings.TrimSpace(args.Reason)
	if reason == "" {
		reason = DefaultMerchantSuspendReason
	}
	return m.transition(ctx, args, merchantTransition{
		event:      domain.MerchantEventSuspend,
		action:     domain.ReviewActionSuspend,
		actionType: "merchant_suspension",
		note:       reason,
	})
}

func (m *MerchantService) UnsuspendMerchant(ctx context.Context, args MerchantActionArgs) error {
	return m.transition(ctx, args, merchantTransition{
		event:      domain.MerchantEventUnsuspend,
		action:     domain.ReviewActionUnsuspend,
		actionType: "merchant_unsuspension",
		note:       strings.TrimSpace(args.Reason),
	})
}

// transition выполняет решение по заявке одной транзакцией: блокировка строки, проверка графа переходов,
// обновление профиля, запись в журнал проверки, запись аудита и, для одобрения, событие в outbox.
// Если переход недопустим, ничего не меняется.
func (m *MerchantService) transition(ctx context.Context, args MerchantActionArgs, t merchantTransition) error {
	operator, authErr := m.guard.Authorize(ctx, args.AdminID, domain.PermissionMerchantApprove)
	if authErr != nil {
		return fmt.Errorf("%s merchant %d: %w", t.event, args.ProfileID, authErr)
	}

	txErr := m.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		profileRepo, err := txRepo[MerchantProfileRepository](tx, repoargs.MerchantProfileRepoName)
		if err != nil {
			return err
		}
		reviewLogRepo, err := txRepo[ReviewLogRepository](tx, repoargs.ReviewLogRepoName)
		if err != nil {
			return err
		}

		current, err := profileRepo.FindByIDForUpdate(c, args.ProfileID)
		if err != nil {
			return err //nolint:wrapcheck
		}
		to, err := fsm.Merchant.Fire(current.Status, t.event)
		if err != nil {
			return err //nolint:wrapcheck
		}

		next := *current
		next.Status = to
		after := map[string]any{"status": string(to)}
		if t.apply != nil {
			for k, v := range t.apply(&next, operator, time.Now()) {
				after[k] = v
			}
		}

		updated, err := profileRepo.UpdateReview(c, repoargs.UpdateMerchantReview{From: current.Status, Profile: next})
		if err != nil {
			return err //nolint:wrapcheck
		}
		if _, err = reviewLogRepo.Create(c, repoargs.CreateReviewLog{
			MerchantProfileID: updated.ID,
			Action:            t.action,
			Operator:          operator,
			Note:              t.note,
		}); err != nil {
			return err //nolint:wrapcheck
		}

		target, err := identity.RecordRef(identity.TypeMerchantProfile, updated.ID)
		if err != nil {
			return err //nolint:wrapcheck
		}
		metadata := map[string]any{"action_type": t.actionType}
		if t.note != "" {
			metadata["reason"] = t.note
		}
		if err = m.audit.Append(c, tx, audit.Entry{
			Action:   string(t.action),
			Actor:    operator,
			Target:   target,
			Before:   map[string]any{"status": string(current.Status)},
			After:    after,
			Metadata: metadata,
			Request:  args.Request,
		}); err != nil {
			return err
		}

		if t.event != domain.MerchantEventApprove {
			return nil
		}
		_, err = m.outbox.Enqueue(c, tx, domain.EventMerchantApproved, target, MerchantApprovedPayload{
			ProfileID: updated.ID,
			UserID:    updated.UserID,
		})
		return err
	})
	if txErr != nil {
		return fmt.Errorf("%s merchant %d: %w", t.event, args.ProfileID, txErr)
	}
	return nil
}

type BatchItemResult struct {
	ProfileID int64
	Result    Result
}

// BatchApproveMerchants одобряет заявки по одной, каждую в своей транзакции. Ошибка одной заявки
// не влияет на остальные.
func (m *MerchantService) BatchApproveMerchants(
	ctx context.Context,
	profileIDs []int64,
	adminID int64,
	req audit.RequestContext,
) []BatchItemResult {
	return m.batch(profileIDs, func(id int64) error {
		return m.ApproveMerchant(ctx, MerchantActionArgs{ProfileID: id, AdminID: adminID, Request: req})
	})
}

func (m *MerchantService) BatchRejectMerchants(
	ctx context.Context,
	profileIDs []int64,
	adminID int64,
	reason string,
	req audit.RequestContext,
) []BatchItemResult {
	if strings.TrimSpace(reason) == "" {
		reason = DefaultBatchRejectReason
	}
	return m.batch(profileIDs, func(id int64) error {
		return m.RejectMerchant(ctx, MerchantActionArgs{ProfileID: id, AdminID: adminID, Reason: reason, Request: req})
	})
}

func (m *MerchantService) batch(profileIDs []int64, fn func(id int64) error) []BatchItemResult {
	results := make([]BatchItemResult, 0, len(profileIDs))
	for _, id := range profileIDs {
		err := fn(id)
		if err != nil {
			m.logger.WithError(err).WithField("profile_id", id).Warn("batch item failed")
		}
		results = append(results, BatchItemResult{ProfileID: id, Result: NewResult(err)})
	}
	return results
}

// PostApproval фоновая задача после одобрения. Повторный запуск безопасен: если заявка уже не в статусе
// approved, уведомление не отправляется.
func (m *MerchantService) PostApproval(ctx context.Context, profileID int64) error {
	profile, err := m.profileRepo.FindByID(ctx, profileID)
	if err != nil {
		return fmt.Errorf("post approval of merchant %d: %w", profileID, err)
	}
	if profile.Status != domain.MerchantStatusApproved {
		m.logger.WithFields(logrus.Fields{
			"profile_id": profileID,
			"status":     profile.Status,
		}).Info("skipping post approval, merchant is no longer approved")
		return nil
	}

	user, err := m.userRepo.FindByID(ctx, profile.UserID)
	if err != nil {
		return fmt.Errorf("post approval of merchant %d: %w", profileID, err)
	}
	if err = m.notifier.MerchantApproved(ctx, profile, user); err != nil {
		return fmt.Errorf("post approval of merchant %d: %w", profileID, err)
	}
	return nil
}

// MerchantStatusView состояние заявки продавца для самого пользователя.
type MerchantStatusView struct {
	Status       domain.MerchantStatus
	Message      string
	ShopName     string
	RejectReason string
	BankAccount  string
	ApprovedAt   *time.Time
	RejectedAt   *time.Time
	CreatedAt    *time.Time
}

// MerchantStatus возвращает статус заявки пользователя. Если заявки нет, статус not_applied.
// Номер счета отдается только в маскированном виде.
func (m *MerchantService) MerchantStatus(ctx context.Context, userID int64) (*MerchantStatusView, error) {
	profile, err := m.profileRepo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return &MerchantStatusView{
				Status:  domain.MerchantStatusNotApplied,
				Message: merchantStatusMessages[domain.MerchantStatusNotApplied],
			}, nil
		}
		return nil, fmt.Errorf("merchant status of user %d: %w", userID, err)
	}

	view := &MerchantStatusView{
		Status:       profile.Status,
		Message:      merchantStatusMessages[profile.Status],
		ShopName:     profile.ShopName,
		RejectReason: profile.RejectReason,
		ApprovedAt:   profile.ApprovedAt,
		RejectedAt:   profile.RejectedAt,
		CreatedAt:    &profile.CreatedAt,
	}
	if len(profile.BankAccountCiphertext) > 0 {
		masked, maskErr := m.vault.Masked(profile.BankAccountCiphertext)
		if maskErr != nil {
			return nil, fmt.Errorf("merchant status of user %d: %w", userID, maskErr)
		}
		view.BankAccount = masked
	}
	return view, nil
}

// MerchantStatusByPublicID то же, что MerchantStatus, но пользователь задан внешним UUID.
func (m *MerchantService) MerchantStatusByPublicID(
	ctx context.Context,
	publicID uuid.UUID,
) (*MerchantStatusView, error) {
	user, err := m.userRepo.FindByPublicID(ctx, publicID)
	if err != nil {
		return nil, fmt.Errorf("merchant status of user `%s`: %w", publicID, err)
	}
	return m.MerchantStatus(ctx, user.ID)
}
