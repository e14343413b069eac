package service

import (
	"context"
	"errors"
	"testing"

	"github.com/fsdevblog/groph-backoffice/internal/audit"
	"github.com/fsdevblog/groph-backoffice/internal/domain"
	"github.com/fsdevblog/groph-backoffice/internal/identity"
	"github.com/fsdevblog/groph-backoffice/internal/repository/repoargs"
	"github.com/fsdevblog/groph-backoffice/pkg/uow"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

var errAuditDown = errors.New("audit table is locked")

type AuditStrictTestSuite struct {
	serviceSuite
}

func TestAuditStrictSuite(t *testing.T) {
	suite.Run(t, new(AuditStrictTestSuite))
}

func (s *AuditStrictTestSuite) TestAppendSanitizes() {
	target, _ := identity.RecordRef(identity.TypeOrder, 5)
	logs := s.expectAudit(1)

	err := s.services.AuditService.Append(s.T().Context(), s.mockTX, audit.Entry{
		Action: "update",
		Target: target,
		After:  map[string]any{"email": "a@b.c", "Password": "secret", "nested": map[string]any{"api-key": "k"}},
	})
	s.Require().NoError(err)

	log := (*logs)[0]
	s.True(log.Actor.IsSystem())
	s.Equal(map[string]any{"email": "a@b.c", "nested": map[string]any{}}, log.After)
}

func (s *AuditStrictTestSuite) TestAppendValidates() {
	err := s.services.AuditService.Append(s.T().Context(), s.mockTX, audit.Entry{Action: "update"})
	s.Require().ErrorIs(err, audit.ErrEmptyTarget)
}

// В строгом режиме ошибка аудита откатывает операцию.
func (s *AuditStrictTestSuite) TestFailureRollsBackOperation() {
	s.mockProfileRepo.EXPECT().FindByIDForUpdate(gomock.Any(), int64(1)).
		Return(&domain.MerchantProfile{ID: 1, UserID: 2, Status: domain.MerchantStatusSubmitted}, nil)
	s.mockProfileRepo.EXPECT().UpdateReview(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, args repoargs.UpdateMerchantReview) (*domain.MerchantProfile, error) {
			p := args.Profile
			return &p, nil
		})
	s.mockReviewRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(&domain.MerchantReviewLog{ID: 1}, nil)
	s.mockAuditRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, errAuditDown)
	s.expectOutbox(0)

	err := s.services.MerchantService.ApproveMerchant(s.T().Context(), MerchantActionArgs{
		ProfileID: 1,
		AdminID:   testAdminID,
	})
	s.Require().ErrorIs(err, domain.ErrAuditWrite)
	s.Require().ErrorIs(err, errAuditDown)
	s.Equal(domain.MessageContactSupport, NewResult(err).Error)
}

func (s *AuditStrictTestSuite) TestTrailResolvesActors() {
	target, _ := identity.RecordRef(identity.TypeMerchantProfile, 1)
	adminRef, _ := identity.AdminRef(testAdminID)
	userID := uuid.New()
	goneUser := uuid.New()

	s.mockAuditRepo.EXPECT().ListByTarget(gomock.Any(), target, uint(10)).Return([]domain.AuditLog{
		{ID: 4, Actor: adminRef, Action: "approve", Target: target},
		{ID: 3, Actor: identity.BusinessRef(userID), Action: "submit", Target: target},
		{ID: 2, Actor: identity.BusinessRef(goneUser), Action: "submit", Target: target},
		{ID: 1, Actor: identity.SystemRef(), Action: "apply", Target: target},
	}, nil)
	s.mockUserRepo.EXPECT().FindByPublicID(gomock.Any(), userID).
		Return(&domain.User{PublicID: userID, DisplayName: "Li Wei"}, nil)
	s.mockUserRepo.EXPECT().FindByPublicID(gomock.Any(), goneUser).Return(nil, domain.ErrRecordNotFound)

	items, err := s.services.AuditService.Trail(s.T().Context(), target, 10)
	s.Require().NoError(err)
	s.Require().Len(items, 4)
	s.Equal("root", items[0].ActorName)
	s.Equal("Li Wei", items[1].ActorName)
	s.Equal(identity.BusinessRef(goneUser).String(), items[2].ActorName)
	s.Equal("system", items[3].ActorName)
}

type AuditBestEffortTestSuite struct {
	serviceSuite
}

func TestAuditBestEffortSuite(t *testing.T) {
	suite.Run(t, &AuditBestEffortTestSuite{serviceSuite: serviceSuite{auditBestEffort: true}})
}

// В нестрогом режиме запись идет в точке сохранения, ошибка не мешает операции.
func (s *AuditBestEffortTestSuite) TestFailureIsSwallowed() {
	s.mockTX.EXPECT().Nested(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(context.Context, uow.TX) error) error {
			return fn(ctx, s.mockTX)
		}).Times(1)
	s.mockUserRepo.EXPECT().FindByIDForUpdate(gomock.Any(), int64(3)).
		Return(&domain.User{ID: 3, PublicID: uuid.New(), Status: domain.UserStatusActive}, nil)
	s.mockUserRepo.EXPECT().UpdateStatus(gomock.Any(), gomock.Any()).
		Return(&domain.User{ID: 3, PublicID: uuid.New(), Status: domain.UserStatusDisabled}, nil)
	s.mockAuditRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, errAuditDown)

	user, err := s.services.UserService.SuspendUser(s.T().Context(), UserActionArgs{UserID: 3, AdminID: testAdminID})
	s.Require().NoError(err)
	s.Equal(domain.UserStatusDisabled, user.Status)
}
