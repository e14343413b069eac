package api

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"github.com/fsdevblog/groph-backoffice/internal/service"
	"github.com/google/uuid"
)

// MerchantServicer интерфейс исключительно для моков.
type MerchantServicer interface {
	MerchantStatusByPublicID(ctx context.Context, publicID uuid.UUID) (*service.MerchantStatusView, error)
}
