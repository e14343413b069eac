package pgrepo

import (
	"context"
	"errors"

	"github.com/fsdevblog/groph-backoffice/internal/domain"
	"github.com/fsdevblog/groph-backoffice/internal/repository/repoargs"
	"github.com/fsdevblog/groph-backoffice/pkg/uow"
	"github.com/jackc/pgx/v5"
)

const paymentColumns = `id, created_at, updated_at, order_id, channel, status, amount, currency,
	provider_trade_no, idempotency_key, paid_at`

type PaymentRepository struct {
	conn uow.DBTX
}

func NewPaymentRepository(conn uow.DBTX) *PaymentRepository {
	return &PaymentRepository{conn: conn}
}

// CreateIdempotent вставляет платеж в статусе init. Если платеж с таким ключом идемпотентности уже есть,
// вставка не выполняется и вернется (nil, false, nil).
func (p *PaymentRepository) CreateIdempotent(
	ctx context.Context,
	args repoargs.CreatePayment,
) (*domain.Payment, bool, error) {
	row := p.conn.QueryRow(ctx, `
		INSERT INTO payments (order_id, channel, status, amount, currency, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (idempotency_key) DO NOTHING
		RETURNING `+paymentColumns,
		args.OrderID, args.Channel, domain.PaymentStatusInit, args.Amount, args.Currency, args.IdempotencyKey,
	)
	payment, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, convertErr(err, "creating payment with key `%s`", args.IdempotencyKey)
	}
	return payment, true, nil
}

func (p *PaymentRepository) FindByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error) {
	row := p.conn.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE idempotency_key = $1`, key)
	payment, err := scanPayment(row)
	if err != nil {
		return nil, convertErr(err, "finding payment by key `%s`", key)
	}
	return payment, nil
}

func (p *PaymentRepository) FindByID(ctx context.Context, id int64) (*domain.Payment, error) {
	payment, err := scanPayment(p.conn.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
	if err != nil {
		return nil, convertErr(err, "finding payment by id %d", id)
	}
	return payment, nil
}

func (p *PaymentRepository) FindByIDForUpdate(ctx context.Context, id int64) (*domain.Payment, error) {
	row := p.conn.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1 FOR UPDATE`, id)
	payment, err := scanPayment(row)
	if err != nil {
		return nil, convertErr(err, "locking payment with id %d", id)
	}
	return payment, nil
}

func (p *PaymentRepository) UpdateStatus(
	ctx context.Context,
	args repoargs.UpdatePaymentStatus,
) (*domain.Payment, error) {
	row := p.conn.QueryRow(ctx, `
		UPDATE payments
		SET status = $2,
			paid_at = COALESCE($3, paid_at),
			provider_trade_no = COALESCE($4, provider_trade_no),
			updated_at = now()
		WHERE id = $1 AND status = $5
		RETURNING `+paymentColumns,
		args.ID, args.To, args.PaidAt, args.ProviderTradeNo, args.From,
	)
	payment, err := scanPayment(row)
	if err != nil {
		return nil, convertErr(err, "updating status of payment %d from `%s` to `%s`", args.ID, args.From, args.To)
	}
	return payment, nil
}

func scanPayment(row rowScanner) (*domain.Payment, error) {
	var payment domain.Payment
	if err := row.Scan(
		&payment.ID,
		&payment.CreatedAt,
		&payment.UpdatedAt,
		&payment.OrderID,
		&payment.Channel,
		&payment.Status,
		&payment.Amount,
		&payment.Currency,
		&payment.ProviderTradeNo,
		&payment.IdempotencyKey,
		&payment.PaidAt,
	); err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &payment, nil
}
