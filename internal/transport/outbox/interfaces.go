package outbox

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"github.com/fsdevblog/groph-backoffice/internal/domain"
	"github.com/fsdevblog/groph-backoffice/internal/service"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, messageID string, body []byte) error
}

type Servicer interface {
	ClaimPending(ctx context.Context, limit uint) ([]domain.OutboxEvent, error)
	ReportResults(ctx context.Context, results []service.PublishResult) error
}
