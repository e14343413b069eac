package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/fsdevblog/groph-backoffice/internal/domain"
	"github.com/fsdevblog/groph-backoffice/internal/identity"
	"github.com/fsdevblog/groph-backoffice/internal/logger"
	"github.com/fsdevblog/groph-backoffice/internal/service"
	"github.com/fsdevblog/groph-backoffice/internal/service/tokens"
	"github.com/fsdevblog/groph-backoffice/internal/transport/api/mocks"
	"github.com/fsdevblog/groph-backoffice/internal/transport/api/testutils"
	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type MerchantHandlerTestSuite struct {
	suite.Suite
	router              *gin.Engine
	mockMerchantService *mocks.MockMerchantServicer
	jwtSecret           []byte
}

func TestMerchantHandlerSuite(t *testing.T) {
	suite.Run(t, new(MerchantHandlerTestSuite))
}

func (s *MerchantHandlerTestSuite) SetupTest() {
	mockCtrl := gomock.NewController(s.T())

	s.mockMerchantService = mocks.NewMockMerchantServicer(mockCtrl)
	s.jwtSecret = []byte("super secret key")

	router, err := New(RouterArgs{
		Logger:          logger.New(io.Discard),
		MerchantService: s.mockMerchantService,
		JWTSecretKey:    s.jwtSecret,
	})
	s.Require().NoError(err)
	s.router = router
}

func (s *MerchantHandlerTestSuite) decode(res *http.Response) map[string]any {
	defer res.Body.Close()
	var body map[string]any
	s.Require().NoError(json.NewDecoder(res.Body).Decode(&body))
	return body
}

func (s *MerchantHandlerTestSuite) TestStatusAuthorized() {
	userRef := uuid.New()
	token, err := tokens.GenerateUserJWT(userRef, time.Hour, s.jwtSecret)
	s.Require().NoError(err)

	approvedAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s.mockMerchantService.EXPECT().MerchantStatusByPublicID(gomock.Any(), userRef).
		Return(&service.MerchantStatusView{
			Status:      domain.MerchantStatusApproved,
			Message:     "your shop is open",
			ShopName:    "Tea House",
			BankAccount: "****1234",
			ApprovedAt:  &approvedAt,
		}, nil)

	res, err := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodGet,
		URL:    RouteGroup + MerchantStatusRoute,
	}, testutils.WithBearer(token))
	s.Require().NoError(err)
	s.Equal(http.StatusOK, res.StatusCode)
	s.NotEmpty(res.Header.Get("X-Request-ID"))

	body := s.decode(res)
	s.Equal(string(domain.MerchantStatusApproved), body["status"])
	s.Equal("Tea House", body["shop_name"])
	s.Equal("****1234", body["bank_account"])
	s.Contains(body, "approved_at")
	s.NotContains(body, "rejected_reason")
	s.NotContains(body, "rejected_at")
}

func (s *MerchantHandlerTestSuite) TestStatusUnauthorized() {
	anotherToken, err := tokens.GenerateUserJWT(uuid.New(), time.Hour, []byte("another key"))
	s.Require().NoError(err)

	cases := []struct {
		name   string
		header string
	}{
		{name: "no header", header: ""},
		{name: "not bearer", header: "Basic abc"},
		{name: "foreign signature", header: "Bearer " + anotherToken},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			var opts []func(*testutils.RequestOptions)
			if tc.header != "" {
				opts = append(opts, testutils.WithHeader("Authorization", tc.header))
			}
			res, reqErr := testutils.MakeRequest(testutils.RequestArgs{
				Router: s.router,
				Method: http.MethodGet,
				URL:    RouteGroup + MerchantStatusRoute,
			}, opts...)
			s.Require().NoError(reqErr)
			defer res.Body.Close()
			s.Equal(http.StatusUnauthorized, res.StatusCode)
		})
	}
}

func (s *MerchantHandlerTestSuite) TestStatusByRef() {
	userRef := uuid.New()
	s.mockMerchantService.EXPECT().MerchantStatusByPublicID(gomock.Any(), userRef).
		Return(&service.MerchantStatusView{
			Status:  domain.MerchantStatusNotApplied,
			Message: "you have not applied yet",
		}, nil)

	res, err := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodGet,
		URL:    RouteGroup + MerchantStatusRoute + "/" + userRef.String(),
	})
	s.Require().NoError(err)
	s.Equal(http.StatusOK, res.StatusCode)

	body := s.decode(res)
	s.Equal(string(domain.MerchantStatusNotApplied), body["status"])
	s.NotContains(body, "shop_name")
	s.NotContains(body, "created_at")
}

func (s *MerchantHandlerTestSuite) TestStatusByRefHidesBankAccount() {
	userRef := uuid.New()
	approvedAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s.mockMerchantService.EXPECT().MerchantStatusByPublicID(gomock.Any(), userRef).
		Return(&service.MerchantStatusView{
			Status:      domain.MerchantStatusApproved,
			Message:     "your shop is open",
			ShopName:    "Tea House",
			BankAccount: "****1234",
			ApprovedAt:  &approvedAt,
		}, nil)

	res, err := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodGet,
		URL:    RouteGroup + MerchantStatusRoute + "/" + userRef.String(),
	})
	s.Require().NoError(err)
	s.Equal(http.StatusOK, res.StatusCode)

	body := s.decode(res)
	s.Equal("Tea House", body["shop_name"])
	s.Contains(body, "approved_at")
	s.NotContains(body, "bank_account")
}

func (s *MerchantHandlerTestSuite) TestStatusByRefRejectsInvalidRefs() {
	adminRef, err := identity.ToExternalRef(42)
	s.Require().NoError(err)

	for _, ref := range []string{"not-a-uuid", adminRef, identity.SystemRaw} {
		s.Run(ref, func() {
			res, reqErr := testutils.MakeRequest(testutils.RequestArgs{
				Router: s.router,
				Method: http.MethodGet,
				URL:    RouteGroup + MerchantStatusRoute + "/" + ref,
			}, testutils.WithJSON())
			s.Require().NoError(reqErr)
			s.Equal(http.StatusBadRequest, res.StatusCode)
			s.Equal("invalid user reference", s.decode(res)["error"])
		})
	}
}

func (s *MerchantHandlerTestSuite) TestStatusByRefErrors() {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{name: "unknown user", err: domain.ErrRecordNotFound, wantStatus: http.StatusNotFound, wantMsg: "user not found"},
		{name: "storage failure", err: errors.New("conn reset"), wantStatus: http.StatusInternalServerError,
			wantMsg: "internal server error"},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			userRef := uuid.New()
			s.mockMerchantService.EXPECT().MerchantStatusByPublicID(gomock.Any(), userRef).Return(nil, tc.err)

			res, err := testutils.MakeRequest(testutils.RequestArgs{
				Router: s.router,
				Method: http.MethodGet,
				URL:    RouteGroup + MerchantStatusRoute + "/" + userRef.String(),
			}, testutils.WithJSON())
			s.Require().NoError(err)
			s.Equal(tc.wantStatus, res.StatusCode)
			s.Equal(tc.wantMsg, s.decode(res)["error"])
		})
	}
}
