package pgrepo

import (
	"context"

	"github.com/fsdevblog/groph-backoffice/internal/domain"
	"github.com/fsdevblog/groph-backoffice/internal/repository/repoargs"
	"github.com/fsdevblog/groph-backoffice/pkg/uow"
	"github.com/google/uuid"
)

const userColumns = `id, public_id, created_at, updated_at, email, display_name, status, disabled_at, disabled_reason`

type UserRepository struct {
	conn uow.DBTX
}

func NewUserRepository(conn uow.DBTX) *UserRepository {
	return &UserRepository{conn: conn}
}

func (u *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	row := u.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		return nil, convertErr(err, "finding user by id %d", id)
	}
	return user, nil
}

// FindByIDForUpdate блокирует строку до конца транзакции.
func (u *UserRepository) FindByIDForUpdate(ctx context.Context, id int64) (*domain.User, error) {
	row := u.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id)
	user, err := scanUser(row)
	if err != nil {
		return nil, convertErr(err, "locking user with id %d", id)
	}
	return user, nil
}

func (u *UserRepository) FindByPublicID(ctx context.Context, publicID uuid.UUID) (*domain.User, error) {
	row := u.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE public_id = $1`, publicID)
	user, err := scanUser(row)
	if err != nil {
		return nil, convertErr(err, "finding user by public id `%s`", publicID)
	}
	return user, nil
}

// UpdateStatus обновляет статус, только если текущий статус равен args.From.
func (u *UserRepository) UpdateStatus(ctx context.Context, args repoargs.UpdateUserStatus) (*domain.User, error) {
	row := u.conn.QueryRow(ctx, `
		UPDATE users
		SET status = $2, disabled_at = $3, disabled_reason = NULLIF($4, ''), updated_at = now()
		WHERE id = $1 AND status = $5
		RETURNING `+userColumns,
		args.ID, args.To, args.DisabledAt, args.DisabledReason, args.From,
	)
	user, err := scanUser(row)
	if err != nil {
		return nil, convertErr(err, "updating status of user %d from `%s` to `%s`", args.ID, args.From, args.To)
	}
	return user, nil
}

func scanUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	var disabledReason *string
	if err := row.Scan(
		&user.ID,
		&user.PublicID,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.Email,
		&user.DisplayName,
		&user.Status,
		&user.DisabledAt,
		&disabledReason,
	); err != nil {
		return nil, err //nolint:wrapcheck
	}
	user.DisabledReason = deref(disabledReason)
	return &user, nil
}
