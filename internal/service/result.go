package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fsdevblog/groph-backoffice/internal/domain"
	"github.com/fsdevblog/groph-backoffice/internal/identity"
	"github.com/fsdevblog/groph-backoffice/internal/repository/repoargs"
	"github.com/fsdevblog/groph-backoffice/pkg/uow"
)

const maxIdempotencyKeyLen = 64

// Result результат операции для интерфейса оператора. Error содержит только публичное сообщение.
type Result struct {
	OK    bool
	Error string
}

func NewResult(err error) Result {
	if err == nil {
		return Result{OK: true}
	}
	return Result{Error: domain.PublicMessage(err)}
}

// txRepo достает репозиторий, привязанный к транзакции tx.
func txRepo[T any](tx uow.TX, name repoargs.RepositoryName) (T, error) {
	return uow.GetAs[T](tx, uow.RepositoryName(name))
}

func poolRepo[T any](u uow.UOW, name repoargs.RepositoryName) (T, error) {
	return uow.GetRepositoryAs[T](u, uow.RepositoryName(name))
}

func validateIdempotencyKey(key string) error {
	switch {
	case strings.TrimSpace(key) == "":
		return domain.NewValidationError("idempotency_key", "an idempotency key is required")
	case len(key) > maxIdempotencyKeyLen:
		return domain.NewValidationError("idempotency_key", "idempotency key is too long")
	}
	return nil
}

// AdminGuard проверяет, что администратор активен и имеет право на операцию.
type AdminGuard struct {
	adminRepo AdminUserRepository
}

func NewAdminGuard(u uow.UOW) (*AdminGuard, error) {
	adminRepo, err := poolRepo[AdminUserRepository](u, repoargs.AdminUserRepoName)
	if err != nil {
		return nil, err
	}
	return &AdminGuard{adminRepo: adminRepo}, nil
}

// Authorize возвращает ссылку на администратора для журнала аудита. Роль admin проходит без проверки прав,
// оператору нужно право permission. Во всех остальных случаях возвращается domain.ErrForbidden.
func (g *AdminGuard) Authorize(ctx context.Context, adminID int64, permission string) (identity.Reference, error) {
	admin, err := g.adminRepo.FindByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return identity.Reference{}, fmt.Errorf("admin %d not found: %w", adminID, domain.ErrForbidden)
		}
		return identity.Reference{}, fmt.Errorf("authorizing admin %d: %w", adminID, err)
	}
	if !admin.Active {
		return identity.Reference{}, fmt.Errorf("admin %d is inactive: %w", adminID, domain.ErrForbidden)
	}

	if admin.Role != domain.AdminRoleAdmin {
		allowed, permErr := g.adminRepo.HasPermission(ctx, admin.ID, permission)
		if permErr != nil {
			return identity.Reference{}, fmt.Errorf("authorizing admin %d: %w", adminID, permErr)
		}
		if !allowed {
			return identity.Reference{}, fmt.Errorf("admin %d lacks `%s`: %w", adminID, permission, domain.ErrForbidden)
		}
	}

	ref, refErr := identity.AdminRef(admin.ID)
	if refErr != nil {
		return identity.Reference{}, fmt.Errorf("admin %d: %w: %w", adminID, domain.ErrForbidden, refErr)
	}
	return ref, nil
}
