package pgrepo

import (
	"context"

	"github.com/fsdevblog/groph-backoffice/internal/domain"
	"github.com/fsdevblog/groph-backoffice/pkg/uow"
)

type AdminUserRepository struct {
	conn uow.DBTX
}

func NewAdminUserRepository(conn uow.DBTX) *AdminUserRepository {
	return &AdminUserRepository{conn: conn}
}

func (a *AdminUserRepository) FindByID(ctx context.Context, id int64) (*domain.AdminUser, error) {
	var admin domain.AdminUser
	err := a.conn.QueryRow(ctx,
		`SELECT id, created_at, email, name, role, active FROM admin_users WHERE id = $1`, id,
	).Scan(&admin.ID, &admin.CreatedAt, &admin.Email, &admin.Name, &admin.Role, &admin.Active)
	if err != nil {
		return nil, convertErr(err, "finding admin user by id %d", id)
	}
	return &admin, nil
}

// HasPermission проверяет, выдано ли админу право code через одну из его ролей.
func (a *AdminUserRepository) HasPermission(ctx context.Context, adminID int64, code string) (bool, error) {
	var exists bool
	err := a.conn.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM admin_user_roles ur
			JOIN admin_role_permissions rp ON rp.role_id = ur.role_id
			JOIN admin_permissions p ON p.id = rp.permission_id
			WHERE ur.admin_user_id = $1 AND p.code = $2
		)`, adminID, code,
	).Scan(&exists)
	if err != nil {
		return false, convertErr(err, "checking permission `%s` of admin %d", code, adminID)
	}
	return exists, nil
}
