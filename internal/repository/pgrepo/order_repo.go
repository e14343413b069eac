package pgrepo

import (
	"context"
	"fmt"

	"github.com/fsdevblog/groph-backoffice/internal/domain"
	"github.com/fsdevblog/groph-backoffice/internal/repository/repoargs"
	"github.com/fsdevblog/groph-backoffice/pkg/uow"
)

const orderColumns = `id, created_at, updated_at, order_no, customer_ref, merchant_ref, status, total_amount, currency,
	paid_at, accepted_at, producing_at, delivered_at, completed_at, canceled_at, refunded_at,
	cancel_reason, canceled_by_type, canceled_by_ref`

const orderItemColumns = `id, created_at, updated_at, order_id, item_type, item_id, name, unit_price, quantity, subtotal`

const bidColumns = `id, created_at, updated_at, order_id, bidder_ref, amount, status`

// orderStageColumns колонка отметки времени, проставляемая при входе в состояние.
var orderStageColumns = map[domain.OrderStatus]string{
	domain.OrderStatusPaid:      "paid_at",
	domain.OrderStatusAccepted:  "accepted_at",
	domain.OrderStatusProducing: "producing_at",
	domain.OrderStatusDelivered: "delivered_at",
	domain.OrderStatusCompleted: "completed_at",
	domain.OrderStatusCanceled:  "canceled_at",
	domain.OrderStatusRefunded:  "refunded_at",
}

type OrderRepository struct {
	conn uow.DBTX
}

func NewOrderRepository(conn uow.DBTX) *OrderRepository {
	return &OrderRepository{conn: conn}
}

func (o *OrderRepository) Create(ctx context.Context, args repoargs.CreateOrder) (*domain.Order, error) {
	row := o.conn.QueryRow(ctx, `
		INSERT INTO orders (order_no, customer_ref, merchant_ref, status, total_amount, currency)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+orderColumns,
		args.OrderNo, args.CustomerRef, args.MerchantRef, domain.OrderStatusCreated, args.TotalAmount, args.Currency,
	)
	order, err := scanOrder(row)
	if err != nil {
		return nil, convertErr(err, "creating order `%s`", args.OrderNo)
	}
	return order, nil
}

func (o *OrderRepository) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	order, err := scanOrder(o.conn.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return nil, convertErr(err, "finding order by id %d", id)
	}
	return order, nil
}

func (o *OrderRepository) FindByIDForUpdate(ctx context.Context, id int64) (*domain.Order, error) {
	order, err := scanOrder(o.conn.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, convertErr(err, "locking order with id %d", id)
	}
	return order, nil
}

// UpdateStatus переводит заказ в args.To и проставляет отметку времени этапа. Если статус заказа уже
// отличается от args.From, вернется domain.ErrRecordNotFound.
func (o *OrderRepository) UpdateStatus(ctx context.Context, args repoargs.UpdateOrderStatus) (*domain.Order, error) {
	stageColumn, ok := orderStageColumns[args.To]
	if !ok {
		return nil, convertErr(fmt.Errorf("no stage column for status `%s`", args.To), "updating order %d", args.ID)
	}
	canceledByType, canceledByRef := refColumns(args.CanceledBy)

	// stageColumn берется из фиксированной мапы выше.
	query := fmt.Sprintf(`
		UPDATE orders
		SET status = $2, %s = $3,
			cancel_reason = COALESCE(NULLIF($4, ''), cancel_reason),
			canceled_by_type = COALESCE($5, canceled_by_type),
			canceled_by_ref = COALESCE($6, canceled_by_ref),
			updated_at = now()
		WHERE id = $1 AND status = $7
		RETURNING %s`, stageColumn, orderColumns)

	row := o.conn.QueryRow(ctx, query,
		args.ID, args.To, args.At, args.CancelReason, canceledByType, canceledByRef, args.From,
	)
	order, err := scanOrder(row)
	if err != nil {
		return nil, convertErr(err, "updating status of order %d from `%s` to `%s`", args.ID, args.From, args.To)
	}
	return order, nil
}

func (o *OrderRepository) ListItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	rows, err := o.conn.Query(ctx,
		`SELECT `+orderItemColumns+` FROM order_items WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, convertErr(err, "listing items of order %d", orderID)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		var name *string
		if scanErr := rows.Scan(
			&item.ID,
			&item.CreatedAt,
			&item.UpdatedAt,
			&item.OrderID,
			&item.ItemType,
			&item.ItemID,
			&name,
			&item.UnitPrice,
			&item.Quantity,
			&item.Subtotal,
		); scanErr != nil {
			return nil, convertErr(scanErr, "scanning item of order %d", orderID)
		}
		item.Name = deref(name)
		items = append(items, item)
	}
	if rows.Err() != nil {
		return nil, convertErr(rows.Err(), "iterating items of order %d", orderID)
	}
	return items, nil
}

// ListBids возвращает ставки заказа, свежие первыми.
func (o *OrderRepository) ListBids(ctx context.Context, orderID int64) ([]domain.Bid, error) {
	rows, err := o.conn.Query(ctx,
		`SELECT `+bidColumns+` FROM bids WHERE order_id = $1 ORDER BY created_at DESC, id DESC`, orderID)
	if err != nil {
		return nil, convertErr(err, "listing bids of order %d", orderID)
	}
	defer rows.Close()

	var bids []domain.Bid
	for rows.Next() {
		var bid domain.Bid
		if scanErr := rows.Scan(
			&bid.ID,
			&bid.CreatedAt,
			&bid.UpdatedAt,
			&bid.OrderID,
			&bid.BidderRef,
			&bid.Amount,
			&bid.Status,
		); scanErr != nil {
			return nil, convertErr(scanErr, "scanning bid of order %d", orderID)
		}
		bids = append(bids, bid)
	}
	if rows.Err() != nil {
		return nil, convertErr(rows.Err(), "iterating bids of order %d", orderID)
	}
	return bids, nil
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var order domain.Order
	var cancelReason, canceledByType, canceledByRef *string
	if err := row.Scan(
		&order.ID,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.OrderNo,
		&order.CustomerRef,
		&order.MerchantRef,
		&order.Status,
		&order.TotalAmount,
		&order.Currency,
		&order.PaidAt,
		&order.AcceptedAt,
		&order.ProducingAt,
		&order.DeliveredAt,
		&order.CompletedAt,
		&order.CanceledAt,
		&order.RefundedAt,
		&cancelReason,
		&canceledByType,
		&canceledByRef,
	); err != nil {
		return nil, err //nolint:wrapcheck
	}
	order.CancelReason = deref(cancelReason)

	canceledBy, refErr := parseRef(canceledByType, canceledByRef)
	if refErr != nil {
		return nil, refErr
	}
	order.CanceledBy = canceledBy
	return &order, nil
}
