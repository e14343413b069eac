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
)

const DefaultUserSuspendReason = "disabled by administrator"

type UserService struct {
	uow      uow.UOW
	userRepo UserRepository
	guard    *AdminGuard
	audit    *AuditService
}

func NewUserService(u uow.UOW, guard *AdminGuard, auditService *AuditService) (*UserService, error) {
	userRepo, userRepoErr := poolRepo[UserRepository](u, repoargs.UserRepoName)
	if userRepoErr != nil {
		return nil, userRepoErr
	}
	return &UserService{
		uow:      u,
		userRepo: userRepo,
		guard:    guard,
		audit:    auditService,
	}, nil
}

type UserActionArgs struct {
	UserID  int64
	AdminID int64
	Reason  string
	Request audit.RequestContext
}

// SuspendUser блокирует активного пользователя. Если причина не указана, подставляется причина по умолчанию.
func (s *UserService) SuspendUser(ctx context.Context, args UserActionArgs) (*domain.User, error) {
	reason := strings.TrimSpace(args.Reason)
	if reason == "" {
		reason = DefaultUserSuspendReason
	}
	now := time.Now()
	return s.transition(ctx, args, domain.UserEventSuspend, "user_suspension", reason,
		func(upd *repoargs.UpdateUserStatus) {
			upd.DisabledAt = &now
			upd.DisabledReason = reason
		})
}

// UnsuspendUser снимает блокировку и очищает дату и причину блокировки.
func (s *UserService) UnsuspendUser(ctx context.Context, args UserActionArgs) (*domain.User, error) {
	return s.transition(ctx, args, domain.UserEventUnsuspend, "user_unsuspension", "", nil)
}

func (s *UserService) transition(
	ctx context.Context,
	args UserActionArgs,
	event domain.UserEvent,
	actionType string,
	reason string,
	fill func(upd *repoargs.UpdateUserStatus),
) (*domain.User, error) {
	operator, authErr := s.guard.Authorize(ctx, args.AdminID, domain.PermissionUserManage)
	if authErr != nil {
		return nil, fmt.Errorf("%s user %d: %w", event, args.UserID, authErr)
	}

	var user *domain.User
	txErr := s.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		userRepo, err := txRepo[UserRepository](tx, repoargs.UserRepoName)
		if err != nil {
			return err
		}
		current, err := userRepo.FindByIDForUpdate(c, args.UserID)
		if err != nil {
			return err //nolint:wrapcheck
		}
		to, err := fsm.User.Fire(current.Status, event)
		if err != nil {
			return err //nolint:wrapcheck
		}

		upd := repoargs.UpdateUserStatus{ID: current.ID, From: current.Status, To: to}
		if fill != nil {
			fill(&upd)
		}
		user, err = userRepo.UpdateStatus(c, upd)
		if err != nil {
			return err //nolint:wrapcheck
		}

		metadata := map[string]any{"action_type": actionType}
		after := map[string]any{"status": string(user.Status)}
		if reason != "" {
			metadata["reason"] = reason
			after["disabled_reason"] = reason
		}
		return s.audit.Append(c, tx, audit.Entry{
			Action:   string(event),
			Actor:    operator,
			Target:   identity.BusinessRef(user.PublicID),
			Before:   map[string]any{"status": string(current.Status)},
			After:    after,
			Metadata: metadata,
			Request:  args.Request,
		})
	})
	if txErr != nil {
		return nil, fmt.Errorf("%s user %d: %w", event, args.UserID, txErr)
	}
	return user, nil
}
