package pgrepo

import (
	"context"
	"errors"

	"github.com/fsdevblog/groph-backoffice/internal/domain"
	"github.com/fsdevblog/groph-backoffice/internal/repository/repoargs"
	"github.com/fsdevblog/groph-backoffice/pkg/uow"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const refundColumns = `id, created_at, updated_at, order_id, payment_id, amount, reason, status,
	provider_refund_no, idempotency_key, requested_by_type, requested_by_ref, review_note, reviewed_at, succeeded_at`

type RefundRepository struct {
	conn uow.DBTX
}

func NewRefundRepository(conn uow.DBTX) *RefundRepository {
	return &RefundRepository{conn: conn}
}

// CreateIdempotent вставляет возврат в статусе init. При повторе ключа идемпотентности вернется (nil, false, nil).
func (r *RefundRepository) CreateIdempotent(
	ctx context.Context,
	args repoargs.CreateRefund,
) (*domain.Refund, bool, error) {
	requestedByType, requestedByRef := refColumns(&args.RequestedBy)
	row := r.conn.QueryRow(ctx, `
		INSERT INTO refunds (order_id, payment_id, amount, reason, status, idempotency_key,
			requested_by_type, requested_by_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (idempotency_key) DO NOTHING
		RETURNING `+refundColumns,
		args.OrderID, args.PaymentID, args.Amount, args.Reason, domain.RefundStatusInit, args.IdempotencyKey,
		requestedByType, requestedByRef,
	)
	refund, err := scanRefund(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, convertErr(err, "creating refund with key `%s`", args.IdempotencyKey)
	}
	return refund, true, nil
}

func (r *RefundRepository) FindByIdempotencyKey(ctx context.Context, key string) (*domain.Refund, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+refundColumns+` FROM refunds WHERE idempotency_key = $1`, key)
	refund, err := scanRefund(row)
	if err != nil {
		return nil, convertErr(err, "finding refund by key `%s`", key)
	}
	return refund, nil
}

func (r *RefundRepository) FindByID(ctx context.Context, id int64) (*domain.Refund, error) {
	refund, err := scanRefund(r.conn.QueryRow(ctx, `SELECT `+refundColumns+` FROM refunds WHERE id = $1`, id))
	if err != nil {
		return nil, convertErr(err, "finding refund by id %d", id)
	}
	return refund, nil
}

func (r *RefundRepository) FindByIDForUpdate(ctx context.Context, id int64) (*domain.Refund, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+refundColumns+` FROM refunds WHERE id = $1 FOR UPDATE`, id)
	refund, err := scanRefund(row)
	if err != nil {
		return nil, convertErr(err, "locking refund with id %d", id)
	}
	return refund, nil
}

// SumActiveByPayment сумма возвратов платежа, кроме отклоненных.
func (r *RefundRepository) SumActiveByPayment(ctx context.Context, paymentID int64) (decimal.Decimal, error) {
	return r.sumByPayment(ctx, paymentID, `status <> 'failed'`)
}

func (r *RefundRepository) SumSucceededByPayment(ctx context.Context, paymentID int64) (decimal.Decimal, error) {
	return r.sumByPayment(ctx, paymentID, `status = 'succeeded'`)
}

func (r *RefundRepository) sumByPayment(ctx context.Context, paymentID int64, cond string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.conn.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM refunds WHERE payment_id = $1 AND `+cond, paymentID,
	).Scan(&sum)
	if err != nil {
		return decimal.Zero, convertErr(err, "summing refunds of payment %d", paymentID)
	}
	return sum, nil
}

func (r *RefundRepository) UpdateStatus(ctx context.Context, args repoargs.UpdateRefundStatus) (*domain.Refund, error) {
	row := r.conn.QueryRow(ctx, `
		UPDATE refunds
		SET status = $2,
			review_note = COALESCE(NULLIF($3, ''), review_note),
			reviewed_at = COALESCE($4, reviewed_at),
			succeeded_at = COALESCE($5, succeeded_at),
			provider_refund_no = COALESCE(NULLIF($6, ''), provider_refund_no),
			updated_at = now()
		WHERE id = $1 AND status = $7
		RETURNING `+refundColumns,
		args.ID, args.To, args.ReviewNote, args.ReviewedAt, args.SucceededAt, args.ProviderRefundNo, args.From,
	)
	refund, err := scanRefund(row)
	if err != nil {
		return nil, convertErr(err, "updating status of refund %d from `%s` to `%s`", args.ID, args.From, args.To)
	}
	return refund, nil
}

func scanRefund(row rowScanner) (*domain.Refund, error) {
	var refund domain.Refund
	var requestedByType, requestedByRef string
	var reviewNote *string
	if err := row.Scan(
		&refund.ID,
		&refund.CreatedAt,
		&refund.UpdatedAt,
		&refund.OrderID,
		&refund.PaymentID,
		&refund.Amount,
		&refund.Reason,
		&refund.Status,
		&refund.ProviderRefundNo,
		&refund.IdempotencyKey,
		&requestedByType,
		&requestedByRef,
		&reviewNote,
		&refund.ReviewedAt,
		&refund.SucceededAt,
	); err != nil {
		return nil, err //nolint:wrapcheck
	}
	refund.ReviewNote = deref(reviewNote)

	requestedBy, refErr := parseRef(&requestedByType, &requestedByRef)
	if refErr != nil {
		return nil, refErr
	}
	refund.RequestedBy = *requestedBy
	return &refund, nil
}
