package pgrepo

import (
	"fmt"

	"github.com/fsdevblog/groph-backoffice/internal/repository/repoargs"
	"github.com/fsdevblog/groph-backoffice/pkg/uow"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewUnitOfWork создает UOW поверх пула и регистрирует в нем все репозитории Postgres.
func NewUnitOfWork(conn *pgxpool.Pool) (*uow.UnitOfWork, error) {
	unitOfWork := uow.NewUnitOfWork(conn)

	factories := map[repoargs.RepositoryName]uow.RepositoryFactory{
		repoargs.UserRepoName: func(dbtx uow.DBTX) uow.Repository {
			return NewUserRepository(dbtx)
		},
		repoargs.AdminUserRepoName: func(dbtx uow.DBTX) uow.Repository {
			return NewAdminUserRepository(dbtx)
		},
		repoargs.OrderRepoName: func(dbtx uow.DBTX) uow.Repository {
			return NewOrderRepository(dbtx)
		},
		repoargs.PaymentRepoName: func(dbtx uow.DBTX) uow.Repository {
			return NewPaymentRepository(dbtx)
		},
		repoargs.RefundRepoName: func(dbtx uow.DBTX) uow.Repository {
			return NewRefundRepository(dbtx)
		},
		repoargs.MerchantProfileRepoName: func(dbtx uow.DBTX) uow.Repository {
			return NewMerchantProfileRepository(dbtx)
		},
		repoargs.ReviewLogRepoName: func(dbtx uow.DBTX) uow.Repository {
			return NewReviewLogRepository(dbtx)
		},
		repoargs.AuditLogRepoName: func(dbtx uow.DBTX) uow.Repository {
			return NewAuditLogRepository(dbtx)
		},
		repoargs.OutboxRepoName: func(dbtx uow.DBTX) uow.Repository {
			return NewOutboxRepository(dbtx)
		},
	}

	for name, factory := range factories {
		if regErr := unitOfWork.Register(uow.RepositoryName(name), factory); regErr != nil {
			return nil, fmt.Errorf("init UOW: %s", regErr.Error())
		}
	}
	return unitOfWork, nil
}
