package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fsdevblog/groph-backoffice/internal/domain"
	"github.com/fsdevblog/groph-backoffice/internal/identity"
	"github.com/fsdevblog/groph-backoffice/internal/repository/repoargs"
	"github.com/fsdevblog/groph-backoffice/pkg/uow"
	"github.com/google/uuid"
)

// OutboxMaxRetries после стольких неудачных публикаций событие помечается failed.
const OutboxMaxRetries = 5

type MerchantApprovedPayload struct {
	ProfileID int64 `json:"profile_id"`
	UserID    int64 `json:"user_id"`
}

type RefundApprovedPayload struct {
	RefundID int64 `json:"refund_id"`
}

type PaymentRecordedPayload struct {
	PaymentID int64 `json:"payment_id"`
	OrderID   int64 `json:"order_id"`
}

type OutboxService struct {
	outboxRepo OutboxRepository
}

func NewOutboxService(u uow.UOW) (*OutboxService, error) {
	outboxRepo, err := poolRepo[OutboxRepository](u, repoargs.OutboxRepoName)
	if err != nil {
		return nil, err
	}
	return &OutboxService{outboxRepo: outboxRepo}, nil
}

// Enqueue пишет событие в outbox внутри транзакции tx. Событие уйдет в брокер только после коммита.
func (o *OutboxService) Enqueue(
	ctx context.Context,
	tx uow.TX,
	eventType string,
	aggregate identity.Reference,
	payload any,
) (*domain.OutboxEvent, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding `%s` payload: %w", eventType, err)
	}
	repo, err := txRepo[OutboxRepository](tx, repoargs.OutboxRepoName)
	if err != nil {
		return nil, err
	}
	event, err := repo.Create(ctx, repoargs.CreateOutboxEvent{
		MessageID:     uuid.New(),
		EventType:     eventType,
		AggregateType: string(aggregate.Type),
		AggregateRef:  aggregate.Raw,
		Payload:       body,
	})
	if err != nil {
		return nil, fmt.Errorf("enqueueing `%s` for %s: %w", eventType, aggregate, err)
	}
	return event, nil
}

// ClaimPending забирает до limit событий на публикацию. Параллельные вызовы получают разные события.
func (o *OutboxService) ClaimPending(ctx context.Context, limit uint) ([]domain.OutboxEvent, error) {
	events, err := o.outboxRepo.ClaimPending(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("claiming outbox events: %w", err)
	}
	return events, nil
}

type PublishResult struct {
	EventID int64
	Error   error
}

// ReportResults фиксирует итог публикации: успешные события помечаются published, остальные получают
// очередную попытку.
func (o *OutboxService) ReportResults(ctx context.Context, results []PublishResult) error {
	published := make([]int64, 0, len(results))
	for _, r := range results {
		if r.Error == nil {
			published = append(published, r.EventID)
			continue
		}
		if err := o.outboxRepo.MarkFailed(ctx, r.EventID, r.Error.Error(), OutboxMaxRetries); err != nil {
			return fmt.Errorf("marking outbox event %d failed: %w", r.EventID, err)
		}
	}
	if len(published) == 0 {
		return nil
	}
	if err := o.outboxRepo.MarkPublished(ctx, published); err != nil {
		return fmt.Errorf("marking outbox events published: %w", err)
	}
	return nil
}
