package service

import (
	"context"
	"io"

	"github.com/fsdevblog/groph-backoffice/internal/audit"
	"github.com/fsdevblog/groph-backoffice/internal/domain"
	"github.com/fsdevblog/groph-backoffice/internal/repository/repoargs"
	"github.com/fsdevblog/groph-backoffice/internal/service/mocks"
	"github.com/fsdevblog/groph-backoffice/pkg/uow"
	uowmocks "github.com/fsdevblog/groph-backoffice/pkg/uow/mocks"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"
)

const (
	testAdminID    int64 = 7
	testOperatorID int64 = 8
)

// serviceSuite общая обвязка: моки репозиториев доступны и через uow, и через транзакцию.
type serviceSuite struct {
	suite.Suite
	mockUOW         *uowmocks.MockUOW
	mockTX          *uowmocks.MockTX
	mockUserRepo    *mocks.MockUserRepository
	mockAdminRepo   *mocks.MockAdminUserRepository
	mockOrderRepo   *mocks.MockOrderRepository
	mockPaymentRepo *mocks.MockPaymentRepository
	mockRefundRepo  *mocks.MockRefundRepository
	mockProfileRepo *mocks.MockMerchantProfileRepository
	mockReviewRepo  *mocks.MockReviewLogRepository
	mockAuditRepo   *mocks.MockAuditLogRepository
	mockOutboxRepo  *mocks.MockOutboxRepository
	mockVault       *mocks.MockVault
	mockOrderNo     *mocks.MockOrderNumberGenerator
	mockLocker      *mocks.MockLocker
	mockProvider    *mocks.MockRefundProvider
	mockNotifier    *mocks.MockNotifier
	services        *AppServices
	auditBestEffort bool
}

func (s *serviceSuite) SetupTest() {
	mockCtrl := gomock.NewController(s.T())
	s.mockUOW = uowmocks.NewMockUOW(mockCtrl)
	s.mockTX = uowmocks.NewMockTX(mockCtrl)
	s.mockUserRepo = mocks.NewMockUserRepository(mockCtrl)
	s.mockAdminRepo = mocks.NewMockAdminUserRepository(mockCtrl)
	s.mockOrderRepo = mocks.NewMockOrderRepository(mockCtrl)
	s.mockPaymentRepo = mocks.NewMockPaymentRepository(mockCtrl)
	s.mockRefundRepo = mocks.NewMockRefundRepository(mockCtrl)
	s.mockProfileRepo = mocks.NewMockMerchantProfileRepository(mockCtrl)
	s.mockReviewRepo = mocks.NewMockReviewLogRepository(mockCtrl)
	s.mockAuditRepo = mocks.NewMockAuditLogRepository(mockCtrl)
	s.mockOutboxRepo = mocks.NewMockOutboxRepository(mockCtrl)
	s.mockVault = mocks.NewMockVault(mockCtrl)
	s.mockOrderNo = mocks.NewMockOrderNumberGenerator(mockCtrl)
	s.mockLocker = mocks.NewMockLocker(mockCtrl)
	s.mockProvider = mocks.NewMockRefundProvider(mockCtrl)
	s.mockNotifier = mocks.NewMockNotifier(mockCtrl)

	repos := map[repoargs.RepositoryName]any{
		repoargs.UserRepoName:            s.mockUserRepo,
		repoargs.AdminUserRepoName:       s.mockAdminRepo,
		repoargs.OrderRepoName:           s.mockOrderRepo,
		repoargs.PaymentRepoName:         s.mockPaymentRepo,
		repoargs.RefundRepoName:          s.mockRefundRepo,
		repoargs.MerchantProfileRepoName: s.mockProfileRepo,
		repoargs.ReviewLogRepoName:       s.mockReviewRepo,
		repoargs.AuditLogRepoName:        s.mockAuditRepo,
		repoargs.OutboxRepoName:          s.mockOutboxRepo,
	}
	for name, repo := range repos {
		// Мок получения репозитория из uow. Выполняется в инициализации сервисов.
		s.mockUOW.EXPECT().GetRepository(uow.RepositoryName(name)).Return(repo, nil).AnyTimes()
		s.mockTX.EXPECT().Get(uow.RepositoryName(name)).Return(repo, nil).AnyTimes()
	}

	// Мок uow: транзакция исполняется сразу.
	s.mockUOW.EXPECT().
		Do(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(context.Context, uow.TX) error) error {
			return fn(ctx, s.mockTX)
		}).AnyTimes()

	s.mockAdminRepo.EXPECT().FindByID(gomock.Any(), testAdminID).
		Return(&domain.AdminUser{ID: testAdminID, Name: "root", Role: domain.AdminRoleAdmin, Active: true}, nil).
		AnyTimes()
	s.mockAdminRepo.EXPECT().FindByID(gomock.Any(), testOperatorID).
		Return(&domain.AdminUser{ID: testOperatorID, Name: "operator", Role: domain.AdminRoleOperator, Active: true}, nil).
		AnyTimes()

	l := logrus.New()
	l.SetOutput(io.Discard)

	services, err := Factory(s.mockUOW, Dependencies{
		AuditStrict: !s.auditBestEffort,
		Vault:       s.mockVault,
		OrderNo:     s.mockOrderNo,
		Locker:      s.mockLocker,
		Provider:    s.mockProvider,
		Notifier:    s.mockNotifier,
		Logger:      l,
	})
	s.Require().NoError(err)
	s.services = services
}

// expectAudit ожидает ровно times записей аудита и сохраняет их аргументы.
func (s *serviceSuite) expectAudit(times int) *[]repoargs.CreateAuditLog {
	var logs []repoargs.CreateAuditLog
	s.mockAuditRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, args repoargs.CreateAuditLog) (*domain.AuditLog, error) {
			logs = append(logs, args)
			return &domain.AuditLog{ID: int64(len(logs)), Action: args.Action, Actor: args.Actor, Target: args.Target}, nil
		}).Times(times)
	return &logs
}

// expectOutbox ожидает ровно times событий outbox и сохраняет их аргументы.
func (s *serviceSuite) expectOutbox(times int) *[]repoargs.CreateOutboxEvent {
	var events []repoargs.CreateOutboxEvent
	s.mockOutboxRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, args repoargs.CreateOutboxEvent) (*domain.OutboxEvent, error) {
			events = append(events, args)
			return &domain.OutboxEvent{ID: int64(len(events)), MessageID: args.MessageID, EventType: args.EventType}, nil
		}).Times(times)
	return &events
}

// passLock блокировка по ключу идемпотентности берется и освобождается.
func (s *serviceSuite) passLock() {
	s.mockLocker.EXPECT().Lock(gomock.Any(), gomock.Any(), gomock.Any()).Return(func() {}, nil).AnyTimes()
}

func auditRequest() audit.RequestContext {
	return audit.RequestContext{RequestID: uuid.NewString(), IP: "127.0.0.1", UserAgent: "backoffice-test"}
}
