// Package jobs содержит обработчики фоновых задач, запускаемых событиями outbox.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fsdevblog/groph-backoffice/internal/domain"
	"github.com/fsdevblog/groph-backoffice/internal/service"
	"github.com/fsdevblog/groph-backoffice/internal/transport/broker"
)

const defaultJobTimeout = 30 * time.Second

// PostApproval уведомляет мерчанта об одобрении заявки.
func PostApproval(svc MerchantPostApprover) broker.Handler {
	return func(ctx context.Context, body []byte) error {
		var payload service.MerchantApprovedPayload
		if err := decode(body, &payload); err != nil {
			return err
		}
		jobCtx, cancel := context.WithTimeout(ctx, defaultJobTimeout)
		defer cancel()

		return classify(svc.PostApproval(jobCtx, payload.ProfileID))
	}
}

// ProcessRefund проводит одобренный возврат через платежного провайдера.
func ProcessRefund(svc RefundProcessor) broker.Handler {
	return func(ctx context.Context, body []byte) error {
		var payload service.RefundApprovedPayload
		if err := decode(body, &payload); err != nil {
			return err
		}
		jobCtx, cancel := context.WithTimeout(ctx, defaultJobTimeout)
		defer cancel()

		return classify(svc.ProcessRefund(jobCtx, payload.RefundID))
	}
}

func decode(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: decoding payload: %s", broker.ErrDropMessage, err.Error())
	}
	return nil
}

// classify помечает ошибки, которые не исправятся повтором.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrIntegrityConflict),
		errors.Is(err, domain.ErrRecordNotFound),
		errors.Is(err, domain.ErrIllegalTransition):
		return fmt.Errorf("%w: %w", broker.ErrDropMessage, err)
	default:
		return err
	}
}
