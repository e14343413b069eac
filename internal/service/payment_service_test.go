package service

import (
	"context"
	"sync"
	"testing"

	"github.com/fsdevblog/groph-backoffice/internal/domain"
	"github.com/fsdevblog/groph-backoffice/internal/identity"
	"github.com/fsdevblog/groph-backoffice/internal/repository/repoargs"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type PaymentServiceTestSuite struct {
	serviceSuite
	order *domain.Order
	// payments имитирует уникальный индекс по ключу идемпотентности.
	mu       sync.Mutex
	payments map[string]*domain.Payment
	refunds  map[string]*domain.Refund
}

func TestPaymentServiceSuite(t *testing.T) {
	suite.Run(t, new(PaymentServiceTestSuite))
}

func (s *PaymentServiceTestSuite) SetupTest() {
	s.serviceSuite.SetupTest()
	s.passLock()
	s.order = &domain.Order{
		ID:          21,
		Status:      domain.OrderStatusCreated,
		TotalAmount: decimal.RequireFromString("100.00"),
		Currency:    domain.DefaultCurrency,
	}
	s.payments = make(map[string]*domain.Payment)
	s.refunds = make(map[string]*domain.Refund)

	s.mockOrderRepo.EXPECT().FindByIDForUpdate(gomock.Any(), s.order.ID).
		DoAndReturn(func(_ context.Context, _ int64) (*domain.Order, error) {
			o := *s.order
			return &o, nil
		}).AnyTimes()
	s.mockOrderRepo.EXPECT().UpdateStatus(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, args repoargs.UpdateOrderStatus) (*domain.Order, error) {
			s.Equal(s.order.Status, args.From)
			s.order.Status = args.To
			o := *s.order
			return &o, nil
		}).AnyTimes()

	s.mockPaymentRepo.EXPECT().CreateIdempotent(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, args repoargs.CreatePayment) (*domain.Payment, bool, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.payments[args.IdempotencyKey]; ok {
				return nil, false, nil
			}
			p := &domain.Payment{
				ID:             int64(len(s.payments) + 1),
				OrderID:        args.OrderID,
				Channel:        args.Channel,
				Status:         domain.PaymentStatusInit,
				Amount:         args.Amount,
				Currency:       args.Currency,
				IdempotencyKey: args.IdempotencyKey,
			}
			s.payments[args.IdempotencyKey] = p
			return p, true, nil
		}).AnyTimes()
	s.mockPaymentRepo.EXPECT().FindByIdempotencyKey(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, key string) (*domain.Payment, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			p := *s.payments[key]
			return &p, nil
		}).AnyTimes()

	s.mockRefundRepo.EXPECT().CreateIdempotent(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, args repoargs.CreateRefund) (*domain.Refund, bool, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.refunds[args.IdempotencyKey]; ok {
				return nil, false, nil
			}
			r := &domain.Refund{
				ID:             int64(len(s.refunds) + 1),
				OrderID:        args.OrderID,
				PaymentID:      args.PaymentID,
				Amount:         args.Amount,
				Reason:         args.Reason,
				Status:         domain.RefundStatusInit,
				IdempotencyKey: args.IdempotencyKey,
				RequestedBy:    args.RequestedBy,
			}
			s.refunds[args.IdempotencyKey] = r
			return r, true, nil
		}).AnyTimes()
	s.mockRefundRepo.EXPECT().FindByIdempotencyKey(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, key string) (*domain.Refund, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			r := *s.refunds[key]
			return &r, nil
		}).AnyTimes()
	s.mockRefundRepo.EXPECT().SumActiveByPayment(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, paymentID int64) (decimal.Decimal, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			sum := decimal.Zero
			for _, r := range s.refunds {
				if r.PaymentID == paymentID && r.Status != domain.RefundStatusFailed {
					sum = sum.Add(r.Amount)
				}
			}
			return sum, nil
		}).AnyTimes()
}

func (s *PaymentServiceTestSuite) paymentArgs(key string) RecordPaymentArgs {
	return RecordPaymentArgs{
		OrderID:        s.order.ID,
		Channel:        domain.PaymentChannelAlipay,
		Amount:         decimal.RequireFromString("100"),
		IdempotencyKey: key,
		Actor:          identity.BusinessRef(uuid.New()),
		Request:        auditRequest(),
	}
}

func (s *PaymentServiceTestSuite) expectSettle() {
	s.mockPaymentRepo.EXPECT().UpdateStatus(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, args repoargs.UpdatePaymentStatus) (*domain.Payment, error) {
			s.Equal(domain.PaymentStatusInit, args.From)
			s.Equal(domain.PaymentStatusPaid, args.To)
			s.NotNil(args.PaidAt)
			s.mu.Lock()
			defer s.mu.Unlock()
			for _, p := range s.payments {
				if p.ID == args.ID {
					p.Status = args.To
					p.PaidAt = args.PaidAt
					cp := *p
					return &cp, nil
				}
			}
			return nil, domain.ErrRecordNotFound
		}).Times(1)
}

func (s *PaymentServiceTestSuite) TestRecordPaymentTwice() {
	s.expectSettle()
	audits := s.expectAudit(1)
	events := s.expectOutbox(1)
	args := s.paymentArgs("pay-1")

	first, err := s.services.PaymentService.RecordPayment(s.T().Context(), args)
	s.Require().NoError(err)
	s.Equal(domain.PaymentStatusPaid, first.Status)
	s.Equal(domain.OrderStatusPaid, s.order.Status)

	second, err := s.services.PaymentService.RecordPayment(s.T().Context(), args)
	s.Require().NoError(err)
	s.Equal(first.ID, second.ID)
	s.Len(s.payments, 1)
	s.Equal("record_payment", (*audits)[0].Action)
	s.Equal(domain.EventPaymentRecorded, (*events)[0].EventType)
}

func (s *PaymentServiceTestSuite) TestRepeatedRecordPaymentReturnsSameRecord() {
	s.expectSettle()
	s.expectAudit(1)
	s.expectOutbox(1)
	args := s.paymentArgs("pay-concurrent")

	// Моки не блокируют строки, поэтому вызовы идут по очереди. Параллельная запись в Postgres
	// проверяется в PostgresIntegrationTestSuite.
	var txMu sync.Mutex

	var wg sync.WaitGroup
	results := make([]*domain.Payment, 4)
	errs := make([]error, 4)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			txMu.Lock()
			defer txMu.Unlock()
			results[i], errs[i] = s.services.PaymentService.RecordPayment(context.Background(), args)
		}()
	}
	wg.Wait()

	for i := range results {
		s.Require().NoError(errs[i])
		s.Equal(results[0].ID, results[i].ID)
	}
	s.Len(s.payments, 1)
}

func (s *PaymentServiceTestSuite) TestRecordPaymentKeyReuse() {
	s.expectSettle()
	s.expectAudit(1)
	s.expectOutbox(1)

	_, err := s.services.PaymentService.RecordPayment(s.T().Context(), s.paymentArgs("pay-2"))
	s.Require().NoError(err)

	changed := s.paymentArgs("pay-2")
	changed.Channel = domain.PaymentChannelWechat
	_, err = s.services.PaymentService.RecordPayment(s.T().Context(), changed)
	s.Require().ErrorIs(err, domain.ErrValidation)
	s.Equal("idempotency key reused with different parameters", NewResult(err).Error)
}

func (s *PaymentServiceTestSuite) TestRecordPaymentValidation() {
	cases := []struct {
		name   string
		mutate func(a *RecordPaymentArgs)
	}{
		{name: "empty key", mutate: func(a *RecordPaymentArgs) { a.IdempotencyKey = " " }},
		{name: "unknown channel", mutate: func(a *RecordPaymentArgs) { a.Channel = "cash" }},
		{name: "zero amount", mutate: func(a *RecordPaymentArgs) { a.Amount = decimal.Zero }},
		{name: "amount differs from total", mutate: func(a *RecordPaymentArgs) { a.Amount = decimal.NewFromInt(50) }},
	}
	s.expectAudit(0)
	s.expectOutbox(0)

	for i, t := range cases {
		s.Run(t.name, func() {
			args := s.paymentArgs(uuid.NewString())
			t.mutate(&args)
			_, err := s.services.PaymentService.RecordPayment(s.T().Context(), args)
			s.Require().ErrorIs(err, domain.ErrValidation, "case %d", i)
		})
	}
	s.Equal(domain.OrderStatusCreated, s.order.Status)
}

func (s *PaymentServiceTestSuite) TestRecordPaymentOnPaidOrder() {
	s.order.Status = domain.OrderStatusPaid
	_, err := s.services.PaymentService.RecordPayment(s.T().Context(), s.paymentArgs("pay-3"))
	s.Require().ErrorIs(err, domain.ErrIllegalTransition)
}

func (s *PaymentServiceTestSuite) paidPayment() *domain.Payment {
	return &domain.Payment{
		ID:      5,
		OrderID: s.order.ID,
		Status:  domain.PaymentStatusPaid,
		Amount:  decimal.RequireFromString("100"),
	}
}

func (s *PaymentServiceTestSuite) refundArgs(key string, amount string) RecordRefundArgs {
	return RecordRefundArgs{
		PaymentID:      5,
		Amount:         decimal.RequireFromString(amount),
		Reason:         "damaged",
		IdempotencyKey: key,
		RequestedBy:    identity.BusinessRef(uuid.New()),
	}
}

func (s *PaymentServiceTestSuite) TestRecordRefundCap() {
	s.mockPaymentRepo.EXPECT().FindByIDForUpdate(gomock.Any(), int64(5)).Return(s.paidPayment(), nil).AnyTimes()
	audits := s.expectAudit(2)

	first, err := s.services.PaymentService.RecordRefund(s.T().Context(), s.refundArgs("r-1", "60"))
	s.Require().NoError(err)
	s.Equal(domain.RefundStatusInit, first.Status)

	// Повтор с тем же ключом возвращает тот же возврат.
	again, err := s.services.PaymentService.RecordRefund(s.T().Context(), s.refundArgs("r-1", "60"))
	s.Require().NoError(err)
	s.Equal(first.ID, again.ID)

	_, err = s.services.PaymentService.RecordRefund(s.T().Context(), s.refundArgs("r-2", "40.01"))
	s.Require().ErrorIs(err, domain.ErrValidation)
	// В реальной БД вставка откатится вместе с транзакцией.
	delete(s.refunds, "r-2")

	_, err = s.services.PaymentService.RecordRefund(s.T().Context(), s.refundArgs("r-3", "40"))
	s.Require().NoError(err)
	s.Equal("record_refund", (*audits)[1].Action)
}

func (s *PaymentServiceTestSuite) TestRecordRefundRequiresPaidPayment() {
	payment := s.paidPayment()
	payment.Status = domain.PaymentStatusPending
	s.mockPaymentRepo.EXPECT().FindByIDForUpdate(gomock.Any(), int64(5)).Return(payment, nil)

	_, err := s.services.PaymentService.RecordRefund(s.T().Context(), s.refundArgs("r-4", "10"))
	s.Require().ErrorIs(err, domain.ErrIllegalTransition)
}

func (s *PaymentServiceTestSuite) TestApproveAndRejectRefund() {
	s.mockAdminRepo.EXPECT().HasPermission(gomock.Any(), testOperatorID, domain.PermissionPaymentRefund).
		Return(true, nil).Times(2)
	s.mockRefundRepo.EXPECT().FindByIDForUpdate(gomock.Any(), int64(1)).
		Return(&domain.Refund{ID: 1, Status: domain.RefundStatusInit}, nil)
	s.mockRefundRepo.EXPECT().FindByIDForUpdate(gomock.Any(), int64(2)).
		Return(&domain.Refund{ID: 2, Status: domain.RefundStatusInit}, nil)
	s.mockRefundRepo.EXPECT().UpdateStatus(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, args repoargs.UpdateRefundStatus) (*domain.Refund, error) {
			s.NotNil(args.ReviewedAt)
			if args.ID == 2 {
				s.Equal(DefaultRefundRejectReason, args.ReviewNote)
			}
			return &domain.Refund{ID: args.ID, Status: args.To, ReviewNote: args.ReviewNote}, nil
		}).Times(2)
	audits := s.expectAudit(2)
	events := s.expectOutbox(1)

	approved, err := s.services.PaymentService.ApproveRefund(s.T().Context(), RefundActionArgs{
		RefundID: 1,
		AdminID:  testOperatorID,
	})
	s.Require().NoError(err)
	s.Equal(domain.RefundStatusPending, approved.Status)
	s.Equal(domain.EventRefundApproved, (*events)[0].EventType)
	s.JSONEq(`{"refund_id":1}`, string((*events)[0].Payload))

	rejected, err := s.services.PaymentService.RejectRefund(s.T().Context(), RefundActionArgs{
		RefundID: 2,
		AdminID:  testOperatorID,
	})
	s.Require().NoError(err)
	s.Equal(domain.RefundStatusFailed, rejected.Status)
	s.Equal("approve_refund", (*audits)[0].Action)
	s.Equal("reject_refund", (*audits)[1].Action)
}

func (s *PaymentServiceTestSuite) pendingRefund() *domain.Refund {
	return &domain.Refund{
		ID:             9,
		OrderID:        s.order.ID,
		PaymentID:      5,
		Amount:         decimal.RequireFromString("100"),
		Status:         domain.RefundStatusPending,
		IdempotencyKey: "r-9",
	}
}

func (s *PaymentServiceTestSuite) TestProcessRefundFullyRefundsPayment() {
	s.order.Status = domain.OrderStatusPaid
	refund := s.pendingRefund()
	s.mockRefundRepo.EXPECT().FindByID(gomock.Any(), refund.ID).Return(refund, nil)
	s.mockProvider.EXPECT().Refund(gomock.Any(), domain.RefundRequest{
		RefundID:       refund.ID,
		PaymentID:      refund.PaymentID,
		OrderID:        refund.OrderID,
		Amount:         refund.Amount,
		IdempotencyKey: refund.IdempotencyKey,
	}).Return(&domain.RefundReceipt{ProviderRefundNo: "RF-1"}, nil)
	s.mockRefundRepo.EXPECT().FindByIDForUpdate(gomock.Any(), refund.ID).Return(refund, nil)
	s.mockRefundRepo.EXPECT().UpdateStatus(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, args repoargs.UpdateRefundStatus) (*domain.Refund, error) {
			s.Equal(domain.RefundStatusSucceeded, args.To)
			s.Equal("RF-1", *args.ProviderRefundNo)
			s.NotNil(args.SucceededAt)
			done := *refund
			done.Status = args.To
			return &done, nil
		})
	s.mockPaymentRepo.EXPECT().FindByIDForUpdate(gomock.Any(), int64(5)).Return(s.paidPayment(), nil)
	s.mockRefundRepo.EXPECT().SumSucceededByPayment(gomock.Any(), int64(5)).
		Return(decimal.RequireFromString("100"), nil)
	s.mockPaymentRepo.EXPECT().UpdateStatus(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, args repoargs.UpdatePaymentStatus) (*domain.Payment, error) {
			s.Equal(domain.PaymentStatusRefunded, args.To)
			return &domain.Payment{ID: args.ID, Status: args.To}, nil
		})
	audits := s.expectAudit(1)

	s.Require().NoError(s.services.PaymentService.ProcessRefund(s.T().Context(), refund.ID))
	s.Equal(domain.OrderStatusRefunded, s.order.Status)
	s.True((*audits)[0].Actor.IsSystem())
	s.Equal("refunded", (*audits)[0].After["payment_status"])
}

func (s *PaymentServiceTestSuite) TestProcessRefundProviderConflict() {
	refund := s.pendingRefund()
	s.mockRefundRepo.EXPECT().FindByID(gomock.Any(), refund.ID).Return(refund, nil)
	s.mockProvider.EXPECT().Refund(gomock.Any(), gomock.Any()).Return(&domain.RefundReceipt{ProviderRefundNo: "RF-1"}, nil)
	s.mockRefundRepo.EXPECT().FindByIDForUpdate(gomock.Any(), refund.ID).Return(refund, nil)
	s.mockRefundRepo.EXPECT().UpdateStatus(gomock.Any(), gomock.Any()).Return(nil, domain.ErrDuplicateKey)

	err := s.services.PaymentService.ProcessRefund(s.T().Context(), refund.ID)
	s.Require().ErrorIs(err, domain.ErrIntegrityConflict)
}

func (s *PaymentServiceTestSuite) TestProcessRefundSkipsNonPending() {
	refund := s.pendingRefund()
	refund.Status = domain.RefundStatusSucceeded
	s.mockRefundRepo.EXPECT().FindByID(gomock.Any(), refund.ID).Return(refund, nil)
	s.mockProvider.EXPECT().Refund(gomock.Any(), gomock.Any()).Times(0)

	s.Require().NoError(s.services.PaymentService.ProcessRefund(s.T().Context(), refund.ID))
}

func (s *PaymentServiceTestSuite) TestProcessRefundProviderUnavailable() {
	refund := s.pendingRefund()
	s.mockRefundRepo.EXPECT().FindByID(gomock.Any(), refund.ID).Return(refund, nil)
	s.mockProvider.EXPECT().Refund(gomock.Any(), gomock.Any()).
		DoAndReturn(UnconfiguredRefundProvider{}.Refund)

	err := s.services.PaymentService.ProcessRefund(s.T().Context(), refund.ID)
	s.Require().ErrorIs(err, domain.ErrProviderUnavailable)
}

func (s *PaymentServiceTestSuite) TestProcessRefundEmptyProviderNumber() {
	refund := s.pendingRefund()
	s.mockRefundRepo.EXPECT().FindByID(gomock.Any(), refund.ID).Return(refund, nil)
	s.mockProvider.EXPECT().Refund(gomock.Any(), gomock.Any()).
		Return(&domain.RefundReceipt{ProviderRefundNo: "  "}, nil)
	s.mockRefundRepo.EXPECT().FindByIDForUpdate(gomock.Any(), gomock.Any()).Times(0)
	s.mockRefundRepo.EXPECT().UpdateStatus(gomock.Any(), gomock.Any()).Times(0)

	err := s.services.PaymentService.ProcessRefund(s.T().Context(), refund.ID)
	s.Require().ErrorIs(err, domain.ErrProviderUnavailable)
	s.NotErrorIs(err, domain.ErrIntegrityConflict)
}
