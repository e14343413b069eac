package jobs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/fsdevblog/groph-backoffice/internal/domain"
	"github.com/fsdevblog/groph-backoffice/internal/jobs/mocks"
	"github.com/fsdevblog/groph-backoffice/internal/transport/broker"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/suite"
)

type JobsTestSuite struct {
	suite.Suite
	mockMerchant *mocks.MockMerchantPostApprover
	mockRefund   *mocks.MockRefundProcessor
}

func TestJobsSuite(t *testing.T) {
	suite.Run(t, new(JobsTestSuite))
}

func (s *JobsTestSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.mockMerchant = mocks.NewMockMerchantPostApprover(ctrl)
	s.mockRefund = mocks.NewMockRefundProcessor(ctrl)
}

func (s *JobsTestSuite) TestPostApproval() {
	s.mockMerchant.EXPECT().PostApproval(gomock.Any(), int64(12)).Return(nil)

	err := PostApproval(s.mockMerchant)(s.T().Context(), []byte(`{"profile_id":12,"user_id":3}`))
	s.NoError(err)
}

func (s *JobsTestSuite) TestPostApprovalBrokenPayload() {
	err := PostApproval(s.mockMerchant)(s.T().Context(), []byte(`{"profile_id":`))
	s.ErrorIs(err, broker.ErrDropMessage)
}

func (s *JobsTestSuite) TestProcessRefundErrors() {
	cases := []struct {
		name     string
		err      error
		wantDrop bool
	}{
		{name: "conflict", err: fmt.Errorf("complete refund 9: %w", domain.ErrIntegrityConflict), wantDrop: true},
		{name: "missing refund", err: domain.ErrRecordNotFound, wantDrop: true},
		{name: "provider down", err: domain.ErrProviderUnavailable, wantDrop: false},
		{name: "network", err: errors.New("timeout"), wantDrop: false},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.mockRefund.EXPECT().ProcessRefund(gomock.Any(), int64(9)).Return(tc.err)

			err := ProcessRefund(s.mockRefund)(s.T().Context(), []byte(`{"refund_id":9}`))
			s.Require().ErrorIs(err, tc.err)
			s.Equal(tc.wantDrop, errors.Is(err, broker.ErrDropMessage))
		})
	}
}
