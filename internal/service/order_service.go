package service

import (
	"context"
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
	"github.com/shopspring/decimal"
)

type OrderService struct {
	uow       uow.UOW
	orderRepo OrderRepository
	orderNo   OrderNumberGenerator
	audit     *AuditService
}

func NewOrderService(u uow.UOW, orderNo OrderNumberGenerator, auditService *AuditService) (*OrderService, error) {
	orderRepo, err := poolRepo[OrderRepository](u, repoargs.OrderRepoName)
	if err != nil {
		return nil, err
	}
	return &OrderService{
		uow:       u,
		orderRepo: orderRepo,
		orderNo:   orderNo,
		audit:     auditService,
	}, nil
}

type PlaceOrderArgs struct {
	CustomerRef uuid.UUID
	MerchantRef uuid.UUID
	Amount      decimal.Decimal
	Currency    string
	Request     audit.RequestContext
}

// PlaceOrder создает заказ в статусе created. Сумма заказа после создания не меняется.
func (o *OrderService) PlaceOrder(ctx context.Context, args PlaceOrderArgs) (*domain.Order, error) {
	if args.CustomerRef == uuid.Nil {
		return nil, domain.NewValidationError("customer_ref", "a customer is required")
	}
	if args.MerchantRef == uuid.Nil {
		return nil, domain.NewValidationError("merchant_ref", "a merchant is required")
	}
	if !args.Amount.IsPositive() {
		return nil, domain.NewValidationError("amount", "amount must be positive")
	}
	currency := strings.ToUpper(strings.TrimSpace(args.Currency))
	if currency == "" {
		currency = domain.DefaultCurrency
	}

	var order *domain.Order
	txErr := o.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		orderRepo, err := txRepo[OrderRepository](tx, repoargs.OrderRepoName)
		if err != nil {
			return err
		}
		order, err = orderRepo.Create(c, repoargs.CreateOrder{
			OrderNo:     o.orderNo.NextOrderNo(),
			CustomerRef: args.CustomerRef,
			MerchantRef: args.MerchantRef,
			TotalAmount: args.Amount,
			Currency:    currency,
		})
		if err != nil {
			return err //nolint:wrapcheck
		}

		target, err := identity.RecordRef(identity.TypeOrder, order.ID)
		if err != nil {
			return err //nolint:wrapcheck
		}
		return o.audit.Append(c, tx, audit.Entry{
			Action: "place_order",
			Actor:  identity.BusinessRef(args.CustomerRef),
			Target: target,
			After: map[string]any{
				"status":       string(order.Status),
				"order_no":     order.OrderNo,
				"total_amount": order.TotalAmount.String(),
				"currency":     order.Currency,
			},
			Request: args.Request,
		})
	})
	if txErr != nil {
		return nil, fmt.Errorf("placing order: %w", txErr)
	}
	return order, nil
}

type TransitionOrderArgs struct {
	OrderID      int64
	Event        domain.OrderEvent
	Actor        identity.Reference
	CancelReason string
	Request      audit.RequestContext
}

// TransitionOrder применяет событие к заказу по графу переходов и проставляет отметку времени этапа.
func (o *OrderService) TransitionOrder(ctx context.Context, args TransitionOrderArgs) (*domain.Order, error) {
	var order *domain.Order
	txErr := o.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		orderRepo, err := txRepo[OrderRepository](tx, repoargs.OrderRepoName)
		if err != nil {
			return err
		}
		current, err := orderRepo.FindByIDForUpdate(c, args.OrderID)
		if err != nil {
			return err //nolint:wrapcheck
		}
		to, err := fsm.Order.Fire(current.Status, args.Event)
		if err != nil {
			return err //nolint:wrapcheck
		}

		upd := repoargs.UpdateOrderStatus{ID: current.ID, From: current.Status, To: to, At: time.Now()}
		after := map[string]any{"status": string(to)}
		if args.Event == domain.OrderEventCancel {
			actor := args.Actor
			if actor.IsZero() {
				actor = identity.SystemRef()
			}
			upd.CancelReason = strings.TrimSpace(args.CancelReason)
			upd.CanceledBy = &actor
			after["cancel_reason"] = upd.CancelReason
		}
		order, err = orderRepo.UpdateStatus(c, upd)
		if err != nil {
			return err //nolint:wrapcheck
		}

		target, err := identity.RecordRef(identity.TypeOrder, order.ID)
		if err != nil {
			return err //nolint:wrapcheck
		}
		return o.audit.Append(c, tx, audit.Entry{
			Action:   string(args.Event),
			Actor:    args.Actor,
			Target:   target,
			Before:   map[string]any{"status": string(current.Status)},
			After:    after,
			Metadata: map[string]any{"action_type": "order_" + string(args.Event)},
			Request:  args.Request,
		})
	})
	if txErr != nil {
		return nil, fmt.Errorf("%s order %d: %w", args.Event, args.OrderID, txErr)
	}
	return order, nil
}

func (o *OrderService) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	order, err := o.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %d: %w", id, err)
	}
	return order, nil
}

// OrderDetails заказ вместе с позициями и ставками.
type OrderDetails struct {
	Order *domain.Order
	Items []domain.OrderItem
	Bids  []domain.Bid
}

// GetOrderDetails читает заказ, его позиции и ставки. Заказ без позиций или ставок возвращается
// с пустыми срезами, не nil.
func (o *OrderService) GetOrderDetails(ctx context.Context, id int64) (*OrderDetails, error) {
	order, err := o.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %d details: %w", id, err)
	}
	items, err := o.orderRepo.ListItems(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %d details: %w", id, err)
	}
	bids, err := o.orderRepo.ListBids(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %d details: %w", id, err)
	}
	if items == nil {
		items = []domain.OrderItem{}
	}
	if bids == nil {
		bids = []domain.Bid{}
	}
	return &OrderDetails{Order: order, Items: items, Bids: bids}, nil
}
