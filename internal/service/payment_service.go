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
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	DefaultRefundRejectReason = "rejected by review"
	idempotencyLockTTL        = 10 * time.Second
)

var errKeyReused = domain.NewValidationError("idempotency_key", "idempotency key reused with different parameters")

type PaymentService struct {
	uow        uow.UOW
	refundRepo RefundRepository
	guard      *AdminGuard
	audit      *AuditService
	outbox     *OutboxService
	locker     Locker
	provider   RefundProvider
	logger     *logrus.Entry
}

type PaymentServiceArgs struct {
	Guard  *AdminGuard
	Audit  *AuditService
	Outbox *OutboxService
	// Locker необязателен. Без него от дублей защищают только уникальные ограничения БД.
	Locker Locker
	// Provider по умолчанию UnconfiguredRefundProvider.
	Provider RefundProvider
	Logger   *logrus.Logger
}

func NewPaymentService(u uow.UOW, args PaymentServiceArgs) (*PaymentService, error) {
	refundRepo, err := poolRepo[RefundRepository](u, repoargs.RefundRepoName)
	if err != nil {
		return nil, err
	}
	provider := args.Provider
	if provider == nil {
		provider = UnconfiguredRefundProvider{}
	}
	return &PaymentService{
		uow:        u,
		refundRepo: refundRepo,
		guard:      args.Guard,
		audit:      args.Audit,
		outbox:     args.Outbox,
		locker:     args.Locker,
		provider:   provider,
		logger:     args.Logger.WithField("component", "payment_service"),
	}, nil
}

type RecordPaymentArgs struct {
	OrderID         int64
	Channel         domain.PaymentChannel
	Amount          decimal.Decimal
	IdempotencyKey  string
	ProviderTradeNo string
	Actor           identity.Reference
	Request         audit.RequestContext
}

// RecordPayment записывает оплату заказа. Повторный вызов с тем же ключом идемпотентности возвращает
// ранее записанный платеж без побочных эффектов. Ключ, использованный с другими параметрами, дает
// ошибку валидации.
func (p *PaymentService) RecordPayment(ctx context.Context, args RecordPaymentArgs) (*domain.Payment, error) {
	if err := validateIdempotencyKey(args.IdempotencyKey); err != nil {
		return nil, err
	}
	if !args.Channel.Valid() {
		return nil, domain.NewValidationError("channel", "unsupported payment channel")
	}
	if !args.Amount.IsPositive() {
		return nil, domain.NewValidationError("amount", "amount must be positive")
	}

	unlock := p.lock(ctx, "idem:payment:"+args.IdempotencyKey)
	defer unlock()

	var payment *domain.Payment
	txErr := p.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		orderRepo, err := txRepo[OrderRepository](tx, repoargs.OrderRepoName)
		if err != nil {
			return err
		}
		paymentRepo, err := txRepo[PaymentRepository](tx, repoargs.PaymentRepoName)
		if err != nil {
			return err
		}

		order, err := orderRepo.FindByIDForUpdate(c, args.OrderID)
		if err != nil {
			return err //nolint:wrapcheck
		}

		created, inserted, err := paymentRepo.CreateIdempotent(c, repoargs.CreatePayment{
			OrderID:        order.ID,
			Channel:        args.Channel,
			Amount:         args.Amount,
			Currency:       order.Currency,
			IdempotencyKey: args.IdempotencyKey,
		})
		if err != nil {
			return err //nolint:wrapcheck
		}
		if !inserted {
			existing, findErr := paymentRepo.FindByIdempotencyKey(c, args.IdempotencyKey)
			if findErr != nil {
				return findErr //nolint:wrapcheck
			}
			if existing.OrderID != args.OrderID || existing.Channel != args.Channel ||
				!existing.Amount.Equal(args.Amount) {
				return errKeyReused
			}
			payment = existing
			return nil
		}

		orderTo, err := fsm.Order.Fire(order.Status, domain.OrderEventPay)
		if err != nil {
			return err //nolint:wrapcheck
		}
		if !args.Amount.Equal(order.TotalAmount) {
			return domain.NewValidationError("amount", "amount must equal the order total")
		}

		pending, err := fsm.Payment.Fire(created.Status, domain.PaymentEventSubmit)
		if err != nil {
			return err //nolint:wrapcheck
		}
		paid, err := fsm.Payment.Fire(pending, domain.PaymentEventSettle)
		if err != nil {
			return err //nolint:wrapcheck
		}

		now := time.Now()
		upd := repoargs.UpdatePaymentStatus{ID: created.ID, From: created.Status, To: paid, PaidAt: &now}
		if tradeNo := strings.TrimSpace(args.ProviderTradeNo); tradeNo != "" {
			upd.ProviderTradeNo = &tradeNo
		}
		payment, err = paymentRepo.UpdateStatus(c, upd)
		if err != nil {
			return integrityErr(err)
		}
		if _, err = orderRepo.UpdateStatus(c, repoargs.UpdateOrderStatus{
			ID: order.ID, From: order.Status, To: orderTo, At: now,
		}); err != nil {
			return err //nolint:wrapcheck
		}

		target, err := identity.RecordRef(identity.TypePayment, payment.ID)
		if err != nil {
			return err //nolint:wrapcheck
		}
		if err = p.audit.Append(c, tx, audit.Entry{
			Action: "record_payment",
			Actor:  args.Actor,
			Target: target,
			After: map[string]any{
				"status":  string(payment.Status),
				"amount":  payment.Amount.String(),
				"channel": string(payment.Channel),
			},
			Metadata: map[string]any{"order_id": order.ID, "idempotency_key": args.IdempotencyKey},
			Request:  args.Request,
		}); err != nil {
			return err
		}

		_, err = p.outbox.Enqueue(c, tx, domain.EventPaymentRecorded, target, PaymentRecordedPayload{
			PaymentID: payment.ID,
			OrderID:   order.ID,
		})
		return err
	})
	if txErr != nil {
		return nil, fmt.Errorf("recording payment for order %d: %w", args.OrderID, txErr)
	}
	return payment, nil
}

type RecordRefundArgs struct {
	PaymentID      int64
	Amount         decimal.Decimal
	Reason         string
	IdempotencyKey string
	RequestedBy    identity.Reference
	Request        audit.RequestContext
}

// RecordRefund создает заявку на возврат в статусе init. Сумма всех неотклоненных возвратов платежа
// не может превышать сумму платежа.
func (p *PaymentService) RecordRefund(ctx context.Context, args RecordRefundArgs) (*domain.Refund, error) {
	if err := validateIdempotencyKey(args.IdempotencyKey); err != nil {
		return nil, err
	}
	if !args.Amount.IsPositive() {
		return nil, domain.NewValidationError("amount", "amount must be positive")
	}
	if args.RequestedBy.IsZero() {
		return nil, domain.NewValidationError("requested_by", "a requester is required")
	}

	unlock := p.lock(ctx, "idem:refund:"+args.IdempotencyKey)
	defer unlock()

	var refund *domain.Refund
	txErr := p.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		paymentRepo, err := txRepo[PaymentRepository](tx, repoargs.PaymentRepoName)
		if err != nil {
			return err
		}
		refundRepo, err := txRepo[RefundRepository](tx, repoargs.RefundRepoName)
		if err != nil {
			return err
		}

		payment, err := paymentRepo.FindByIDForUpdate(c, args.PaymentID)
		if err != nil {
			return err //nolint:wrapcheck
		}

		created, inserted, err := refundRepo.CreateIdempotent(c, repoargs.CreateRefund{
			OrderID:        payment.OrderID,
			PaymentID:      payment.ID,
			Amount:         args.Amount,
			Reason:         strings.TrimSpace(args.Reason),
			IdempotencyKey: args.IdempotencyKey,
			RequestedBy:    args.RequestedBy,
		})
		if err != nil {
			return err //nolint:wrapcheck
		}
		if !inserted {
			existing, findErr := refundRepo.FindByIdempotencyKey(c, args.IdempotencyKey)
			if findErr != nil {
				return findErr //nolint:wrapcheck
			}
			if existing.PaymentID != args.PaymentID || !existing.Amount.Equal(args.Amount) {
				return errKeyReused
			}
			refund = existing
			return nil
		}

		// Возврат возможен только по проведенному платежу.
		if _, err = fsm.Payment.Fire(payment.Status, domain.PaymentEventRefund); err != nil {
			return err //nolint:wrapcheck
		}
		// Сумма включает только что вставленный возврат.
		active, err := refundRepo.SumActiveByPayment(c, payment.ID)
		if err != nil {
			return err //nolint:wrapcheck
		}
		if active.GreaterThan(payment.Amount) {
			return domain.NewValidationError("amount", "refund amount exceeds the refundable balance")
		}
		refund = created

		target, err := identity.RecordRef(identity.TypeRefund, refund.ID)
		if err != nil {
			return err //nolint:wrapcheck
		}
		return p.audit.Append(c, tx, audit.Entry{
			Action: "record_refund",
			Actor:  args.RequestedBy,
			Target: target,
			After: map[string]any{
				"status": string(refund.Status),
				"amount": refund.Amount.String(),
				"reason": refund.Reason,
			},
			Metadata: map[string]any{"payment_id": payment.ID, "idempotency_key": args.IdempotencyKey},
			Request:  args.Request,
		})
	})
	if txErr != nil {
		return nil, fmt.Errorf("recording refund for payment %d: %w", args.PaymentID, txErr)
	}
	return refund, nil
}

type RefundActionArgs struct {
	RefundID int64
	AdminID  int64
	Reason   string
	Request  audit.RequestContext
}

// ApproveRefund одобряет возврат и ставит задачу на его проведение у провайдера.
func (p *PaymentService) ApproveRefund(ctx context.Context, args RefundActionArgs) (*domain.Refund, error) {
	return p.reviewRefund(ctx, args, domain.RefundEventApprove, strings.TrimSpace(args.Reason))
}

func (p *PaymentService) RejectRefund(ctx context.Context, args RefundActionArgs) (*domain.Refund, error) {
	reason := strings.TrimSpace(args.Reason)
	if reason == "" {
		reason = DefaultRefundRejectReason
	}
	return p.reviewRefund(ctx, args, domain.RefundEventReject, reason)
}

func (p *PaymentService) reviewRefund(
	ctx context.Context,
	args RefundActionArgs,
	event domain.RefundEvent,
	note string,
) (*domain.Refund, error) {
	operator, authErr := p.guard.Authorize(ctx, args.AdminID, domain.PermissionPaymentRefund)
	if authErr != nil {
		return nil, fmt.Errorf("%s refund %d: %w", event, args.RefundID, authErr)
	}

	var refund *domain.Refund
	txErr := p.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		refundRepo, err := txRepo[RefundRepository](tx, repoargs.RefundRepoName)
		if err != nil {
			return err
		}
		current, err := refundRepo.FindByIDForUpdate(c, args.RefundID)
		if err != nil {
			return err //nolint:wrapcheck
		}
		to, err := fsm.Refund.Fire(current.Status, event)
		if err != nil {
			return err //nolint:wrapcheck
		}

		now := time.Now()
		refund, err = refundRepo.UpdateStatus(c, repoargs.UpdateRefundStatus{
			ID:         current.ID,
			From:       current.Status,
			To:         to,
			ReviewNote: note,
			ReviewedAt: &now,
		})
		if err != nil {
			return err //nolint:wrapcheck
		}

		target, err := identity.RecordRef(identity.TypeRefund, refund.ID)
		if err != nil {
			return err //nolint:wrapcheck
		}
		metadata := map[string]any{"action_type": "refund_" + string(event)}
		if note != "" {
			metadata["reason"] = note
		}
		if err = p.audit.Append(c, tx, audit.Entry{
			Action:   string(event) + "_refund",
			Actor:    operator,
			Target:   target,
			Before:   map[string]any{"status": string(current.Status)},
			After:    map[string]any{"status": string(refund.Status)},
			Metadata: metadata,
			Request:  args.Request,
		}); err != nil {
			return err
		}

		if event != domain.RefundEventApprove {
			return nil
		}
		_, err = p.outbox.Enqueue(c, tx, domain.EventRefundApproved, target, RefundApprovedPayload{RefundID: refund.ID})
		return err
	})
	if txErr != nil {
		return nil, fmt.Errorf("%s refund %d: %w", event, args.RefundID, txErr)
	}
	return refund, nil
}

// ProcessRefund фоновая задача проведения одобренного возврата у провайдера. Если возврат уже не в
// статусе pending, задача ничего не делает.
func (p *PaymentService) ProcessRefund(ctx context.Context, refundID int64) error {
	refund, err := p.refundRepo.FindByID(ctx, refundID)
	if err != nil {
		return fmt.Errorf("processing refund %d: %w", refundID, err)
	}
	if refund.Status != domain.RefundStatusPending {
		p.logger.WithFields(logrus.Fields{
			"refund_id": refundID,
			"status":    refund.Status,
		}).Info("skipping refund processing, refund is not pending")
		return nil
	}

	receipt, err := p.provider.Refund(ctx, domain.RefundRequest{
		RefundID:       refund.ID,
		PaymentID:      refund.PaymentID,
		OrderID:        refund.OrderID,
		Amount:         refund.Amount,
		IdempotencyKey: refund.IdempotencyKey,
	})
	if err != nil {
		return fmt.Errorf("processing refund %d: %w", refundID, err)
	}
	// Пустой номер провайдера не сохраняем: задача будет повторена.
	if receipt == nil || strings.TrimSpace(receipt.ProviderRefundNo) == "" {
		return fmt.Errorf("processing refund %d: empty provider refund number: %w",
			refundID, domain.ErrProviderUnavailable)
	}
	return p.CompleteRefund(ctx, refundID, receipt.ProviderRefundNo)
}

// CompleteRefund фиксирует успешный возврат. Когда платеж возвращен полностью, платеж переходит в refunded,
// а заказ в refunded, если его статус это допускает.
func (p *PaymentService) CompleteRefund(ctx context.Context, refundID int64, providerRefundNo string) error {
	txErr := p.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		refundRepo, err := txRepo[RefundRepository](tx, repoargs.RefundRepoName)
		if err != nil {
			return err
		}
		paymentRepo, err := txRepo[PaymentRepository](tx, repoargs.PaymentRepoName)
		if err != nil {
			return err
		}
		orderRepo, err := txRepo[OrderRepository](tx, repoargs.OrderRepoName)
		if err != nil {
			return err
		}

		current, err := refundRepo.FindByIDForUpdate(c, refundID)
		if err != nil {
			return err //nolint:wrapcheck
		}
		to, err := fsm.Refund.Fire(current.Status, domain.RefundEventSucceed)
		if err != nil {
			return err //nolint:wrapcheck
		}

		now := time.Now()
		refund, err := refundRepo.UpdateStatus(c, repoargs.UpdateRefundStatus{
			ID:               current.ID,
			From:             current.Status,
			To:               to,
			SucceededAt:      &now,
			ProviderRefundNo: &providerRefundNo,
		})
		if err != nil {
			return integrityErr(err)
		}

		target, err := identity.RecordRef(identity.TypeRefund, refund.ID)
		if err != nil {
			return err //nolint:wrapcheck
		}
		after := map[string]any{"status": string(refund.Status), "provider_refund_no": providerRefundNo}

		payment, err := paymentRepo.FindByIDForUpdate(c, refund.PaymentID)
		if err != nil {
			return err //nolint:wrapcheck
		}
		succeeded, err := refundRepo.SumSucceededByPayment(c, payment.ID)
		if err != nil {
			return err //nolint:wrapcheck
		}
		if succeeded.GreaterThanOrEqual(payment.Amount) && fsm.Payment.Can(payment.Status, domain.PaymentEventRefund) {
			if err = p.refundPayment(c, paymentRepo, orderRepo, payment, now); err != nil {
				return err
			}
			after["payment_status"] = string(domain.PaymentStatusRefunded)
		}

		return p.audit.Append(c, tx, audit.Entry{
			Action:   "complete_refund",
			Actor:    identity.SystemRef(),
			Target:   target,
			Before:   map[string]any{"status": string(current.Status)},
			After:    after,
			Metadata: map[string]any{"payment_id": payment.ID},
		})
	})
	if txErr != nil {
		return fmt.Errorf("completing refund %d: %w", refundID, txErr)
	}
	return nil
}

func (p *PaymentService) refundPayment(
	ctx context.Context,
	paymentRepo PaymentRepository,
	orderRepo OrderRepository,
	payment *domain.Payment,
	at time.Time,
) error {
	paymentTo, err := fsm.Payment.Fire(payment.Status, domain.PaymentEventRefund)
	if err != nil {
		return err //nolint:wrapcheck
	}
	if _, err = paymentRepo.UpdateStatus(ctx, repoargs.UpdatePaymentStatus{
		ID: payment.ID, From: payment.Status, To: paymentTo,
	}); err != nil {
		return err //nolint:wrapcheck
	}

	order, err := orderRepo.FindByIDForUpdate(ctx, payment.OrderID)
	if err != nil {
		return err //nolint:wrapcheck
	}
	if !fsm.Order.Can(order.Status, domain.OrderEventRefund) {
		p.logger.WithFields(logrus.Fields{
			"order_id": order.ID,
			"status":   order.Status,
		}).Warn("payment fully refunded, order state does not allow refund")
		return nil
	}
	orderTo, _ := fsm.Order.Fire(order.Status, domain.OrderEventRefund)
	_, err = orderRepo.UpdateStatus(ctx, repoargs.UpdateOrderStatus{
		ID: order.ID, From: order.Status, To: orderTo, At: at,
	})
	return err //nolint:wrapcheck
}

// lock берет распределенную блокировку на ключ идемпотентности. Недоступность блокировки не мешает операции.
func (p *PaymentService) lock(ctx context.Context, key string) func() {
	if p.locker == nil {
		return func() {}
	}
	unlock, err := p.locker.Lock(ctx, key, idempotencyLockTTL)
	if err != nil {
		p.logger.WithError(err).WithField("key", key).Warn("idempotency lock unavailable")
		return func() {}
	}
	return unlock
}

// integrityErr повтор номера провайдера означает расхождение с провайдером, а не повтор запроса.
func integrityErr(err error) error {
	if errors.Is(err, domain.ErrDuplicateKey) {
		return fmt.Errorf("%w: %w", domain.ErrIntegrityConflict, err)
	}
	return err
}
