package service

import (
	"context"
	"testing"
	"time"

	"github.com/fsdevblog/groph-backoffice/internal/domain"
	"github.com/fsdevblog/groph-backoffice/internal/identity"
	"github.com/fsdevblog/groph-backoffice/internal/repository/repoargs"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type UserServiceTestSuite struct {
	serviceSuite
	// stored текущее состояние пользователя в "БД".
	stored *domain.User
}

func TestUserServiceSuite(t *testing.T) {
	suite.Run(t, new(UserServiceTestSuite))
}

func (s *UserServiceTestSuite) SetupTest() {
	s.serviceSuite.SetupTest()
	s.stored = &domain.User{ID: 3, PublicID: uuid.New(), Status: domain.UserStatusActive}

	s.mockUserRepo.EXPECT().FindByIDForUpdate(gomock.Any(), s.stored.ID).
		DoAndReturn(func(_ context.Context, _ int64) (*domain.User, error) {
			u := *s.stored
			return &u, nil
		}).AnyTimes()
	s.mockUserRepo.EXPECT().UpdateStatus(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, args repoargs.UpdateUserStatus) (*domain.User, error) {
			if args.From != s.stored.Status {
				return nil, domain.ErrRecordNotFound
			}
			s.stored.Status = args.To
			s.stored.DisabledAt = args.DisabledAt
			s.stored.DisabledReason = args.DisabledReason
			u := *s.stored
			return &u, nil
		}).AnyTimes()
}

func (s *UserServiceTestSuite) TestSuspendUnsuspendAreInverse() {
	audits := s.expectAudit(2)
	args := UserActionArgs{UserID: s.stored.ID, AdminID: testAdminID}

	user, err := s.services.UserService.SuspendUser(s.T().Context(), args)
	s.Require().NoError(err)
	s.Equal(domain.UserStatusDisabled, user.Status)
	s.Equal(DefaultUserSuspendReason, user.DisabledReason)
	s.Require().NotNil(user.DisabledAt)
	s.WithinDuration(time.Now(), *user.DisabledAt, time.Minute)

	_, err = s.services.UserService.SuspendUser(s.T().Context(), args)
	s.Require().ErrorIs(err, domain.ErrIllegalTransition)

	user, err = s.services.UserService.UnsuspendUser(s.T().Context(), args)
	s.Require().NoError(err)
	s.Equal(domain.UserStatusActive, user.Status)
	s.Empty(user.DisabledReason)
	s.Nil(user.DisabledAt)

	_, err = s.services.UserService.UnsuspendUser(s.T().Context(), args)
	s.Require().ErrorIs(err, domain.ErrIllegalTransition)

	s.Require().Len(*audits, 2)
	s.Equal("suspend", (*audits)[0].Action)
	s.Equal("user_suspension", (*audits)[0].Metadata["action_type"])
	s.Equal(identity.BusinessRef(s.stored.PublicID), (*audits)[0].Target)
	s.Equal("unsuspend", (*audits)[1].Action)
	s.Equal("user_unsuspension", (*audits)[1].Metadata["action_type"])
}

func (s *UserServiceTestSuite) TestSuspendWithReason() {
	s.expectAudit(1)
	user, err := s.services.UserService.SuspendUser(s.T().Context(), UserActionArgs{
		UserID:  s.stored.ID,
		AdminID: testAdminID,
		Reason:  " chargeback fraud ",
	})
	s.Require().NoError(err)
	s.Equal("chargeback fraud", user.DisabledReason)
}

func (s *UserServiceTestSuite) TestOperatorNeedsUserManage() {
	s.mockAdminRepo.EXPECT().HasPermission(gomock.Any(), testOperatorID, domain.PermissionUserManage).
		Return(true, nil)
	s.expectAudit(1)

	_, err := s.services.UserService.SuspendUser(s.T().Context(), UserActionArgs{
		UserID:  s.stored.ID,
		AdminID: testOperatorID,
	})
	s.Require().NoError(err)
}
