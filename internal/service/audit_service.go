package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fsdevblog/groph-backoffice/internal/audit"
	"github.com/fsdevblog/groph-backoffice/internal/domain"
	"github.com/fsdevblog/groph-backoffice/internal/identity"
	"github.com/fsdevblog/groph-backoffice/internal/repository/repoargs"
	"github.com/fsdevblog/groph-backoffice/pkg/uow"
	"github.com/sirupsen/logrus"
)

const systemActorName = "system"

// AuditService единственная точка записи в журнал аудита.
type AuditService struct {
	auditRepo AuditLogRepository
	userRepo  UserRepository
	adminRepo AdminUserRepository
	strict    bool
	logger    *logrus.Entry
}

// NewAuditService при strict=true ошибка записи аудита откатывает всю бизнес-операцию. При strict=false
// запись выполняется в точке сохранения, ошибка логируется, а бизнес-изменение фиксируется.
func NewAuditService(u uow.UOW, strict bool, l *logrus.Logger) (*AuditService, error) {
	auditRepo, err := poolRepo[AuditLogRepository](u, repoargs.AuditLogRepoName)
	if err != nil {
		return nil, err
	}
	userRepo, err := poolRepo[UserRepository](u, repoargs.UserRepoName)
	if err != nil {
		return nil, err
	}
	adminRepo, err := poolRepo[AdminUserRepository](u, repoargs.AdminUserRepoName)
	if err != nil {
		return nil, err
	}
	return &AuditService{
		auditRepo: auditRepo,
		userRepo:  userRepo,
		adminRepo: adminRepo,
		strict:    strict,
		logger:    l.WithField("component", "audit"),
	}, nil
}

// Append пишет запись аудита в транзакции tx.
func (a *AuditService) Append(ctx context.Context, tx uow.TX, entry audit.Entry) error {
	entry = entry.Normalize()
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("appending audit entry: %w", err)
	}

	if a.strict {
		return a.write(ctx, tx, entry)
	}

	nestedErr := tx.Nested(ctx, func(c context.Context, sp uow.TX) error {
		return a.write(c, sp, entry)
	})
	if nestedErr != nil {
		a.logger.WithError(nestedErr).WithFields(logrus.Fields{
			"action": entry.Action,
			"target": entry.Target.String(),
			"actor":  entry.Actor.String(),
		}).Error("audit entry dropped")
	}
	return nil
}

func (a *AuditService) write(ctx context.Context, tx uow.TX, entry audit.Entry) error {
	repo, err := txRepo[AuditLogRepository](tx, repoargs.AuditLogRepoName)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrAuditWrite, err)
	}
	_, createErr := repo.Create(ctx, repoargs.CreateAuditLog{
		Actor:     entry.Actor,
		Action:    entry.Action,
		Target:    entry.Target,
		Before:    entry.Before,
		After:     entry.After,
		Metadata:  entry.Metadata,
		RequestID: entry.Request.RequestID,
		IP:        entry.Request.IP,
		UserAgent: entry.Request.UserAgent,
	})
	if createErr != nil {
		return fmt.Errorf("%w: %w", domain.ErrAuditWrite, createErr)
	}
	return nil
}

type TrailItem struct {
	Log       domain.AuditLog
	ActorName string
}

// Trail история изменений цели, от новых записей к старым, с именами акторов.
func (a *AuditService) Trail(ctx context.Context, target identity.Reference, limit uint) ([]TrailItem, error) {
	logs, err := a.auditRepo.ListByTarget(ctx, target, limit)
	if err != nil {
		return nil, fmt.Errorf("loading audit trail of %s: %w", target, err)
	}

	names := make(map[identity.Reference]string)
	items := make([]TrailItem, 0, len(logs))
	for _, log := range logs {
		name, ok := names[log.Actor]
		if !ok {
			name, err = a.actorName(ctx, log.Actor)
			if err != nil {
				return nil, fmt.Errorf("loading audit trail of %s: %w", target, err)
			}
			names[log.Actor] = name
		}
		items = append(items, TrailItem{Log: log, ActorName: name})
	}
	return items, nil
}

// actorName определяет пространство актора по его типу. Удаленные акторы показываются ссылкой.
func (a *AuditService) actorName(ctx context.Context, actor identity.Reference) (string, error) {
	var name string
	var err error
	switch actor.Space() {
	case identity.SpaceSystem:
		return systemActorName, nil
	case identity.SpaceBusiness:
		publicID, refErr := actor.UUID()
		if refErr != nil {
			return "", refErr //nolint:wrapcheck
		}
		var user *domain.User
		if user, err = a.userRepo.FindByPublicID(ctx, publicID); err == nil {
			name = user.DisplayName
		}
	case identity.SpaceAdmin:
		id, refErr := actor.InternalID()
		if refErr != nil {
			return "", refErr //nolint:wrapcheck
		}
		var admin *domain.AdminUser
		if admin, err = a.adminRepo.FindByID(ctx, id); err == nil {
			name = admin.Name
		}
	}

	if errors.Is(err, domain.ErrRecordNotFound) || (err == nil && name == "") {
		return actor.String(), nil
	}
	if err != nil {
		return "", err
	}
	return name, nil
}
