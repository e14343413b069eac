package pgrepo

import (
	"context"

	"github.com/fsdevblog/groph-backoffice/internal/domain"
	"github.com/fsdevblog/groph-backoffice/internal/repository/repoargs"
	"github.com/fsdevblog/groph-backoffice/pkg/uow"
)

const outboxColumns = `id, created_at, message_id, event_type, aggregate_type, aggregate_ref, payload, status,
	retry_count, last_error, processed_at`

// claimTimeout через сколько событие в статусе processing считается брошенным и забирается повторно.
const claimTimeout = "5 minutes"

type OutboxRepository struct {
	conn uow.DBTX
}

func NewOutboxRepository(conn uow.DBTX) *OutboxRepository {
	return &OutboxRepository{conn: conn}
}

func (o *OutboxRepository) Create(ctx context.Context, args repoargs.CreateOutboxEvent) (*domain.OutboxEvent, error) {
	row := o.conn.QueryRow(ctx, `
		INSERT INTO outbox_events (message_id, event_type, aggregate_type, aggregate_ref, payload, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+outboxColumns,
		args.MessageID, args.EventType, args.AggregateType, args.AggregateRef, []byte(args.Payload),
		domain.OutboxStatusPending,
	)
	event, err := scanOutboxEvent(row)
	if err != nil {
		return nil, convertErr(err, "creating outbox event `%s` for %s", args.EventType, args.AggregateRef)
	}
	return event, nil
}

// ClaimPending атомарно помечает до limit событий как processing и возвращает их.
// Строки, занятые другим процессом, пропускаются (SKIP LOCKED).
func (o *OutboxRepository) ClaimPending(ctx context.Context, limit uint) ([]domain.OutboxEvent, error) {
	rows, err := o.conn.Query(ctx, `
		UPDATE outbox_events
		SET status = 'processing', locked_at = now()
		WHERE id IN (
			SELECT id FROM outbox_events
			WHERE status = 'pending'
				OR (status = 'processing' AND locked_at < now() - $2::interval)
			ORDER BY id
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+outboxColumns, int64(limit), claimTimeout,
	)
	if err != nil {
		return nil, convertErr(err, "claiming outbox events")
	}
	defer rows.Close()

	var events []domain.OutboxEvent
	for rows.Next() {
		event, scanErr := scanOutboxEvent(rows)
		if scanErr != nil {
			return nil, convertErr(scanErr, "scanning outbox event")
		}
		events = append(events, *event)
	}
	if rows.Err() != nil {
		return nil, convertErr(rows.Err(), "iterating claimed outbox events")
	}
	return events, nil
}

func (o *OutboxRepository) MarkPublished(ctx context.Context, ids []int64) error {
	_, err := o.conn.Exec(ctx, `
		UPDATE outbox_events
		SET status = 'published', processed_at = now(), locked_at = NULL, last_error = NULL
		WHERE id = ANY($1)`, ids,
	)
	if err != nil {
		return convertErr(err, "marking outbox events `%v` as published", ids)
	}
	return nil
}

// MarkFailed увеличивает счетчик попыток. После maxRetries событие переходит в failed и больше не забирается.
func (o *OutboxRepository) MarkFailed(ctx context.Context, id int64, lastError string, maxRetries int) error {
	_, err := o.conn.Exec(ctx, `
		UPDATE outbox_events
		SET retry_count = retry_count + 1,
			last_error = $2,
			locked_at = NULL,
			status = CASE WHEN retry_count + 1 >= $3 THEN 'failed' ELSE 'pending' END
		WHERE id = $1`, id, lastError, maxRetries,
	)
	if err != nil {
		return convertErr(err, "marking outbox event %d as failed", id)
	}
	return nil
}

func scanOutboxEvent(row rowScanner) (*domain.OutboxEvent, error) {
	var event domain.OutboxEvent
	var payload []byte
	var lastError *string
	if err := row.Scan(
		&event.ID,
		&event.CreatedAt,
		&event.MessageID,
		&event.EventType,
		&event.AggregateType,
		&event.AggregateRef,
		&payload,
		&event.Status,
		&event.RetryCount,
		&lastError,
		&event.ProcessedAt,
	); err != nil {
		return nil, err //nolint:wrapcheck
	}
	event.Payload = payload
	event.LastError = deref(lastError)
	return &event, nil
}
