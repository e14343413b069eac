package service

import (
	"fmt"

	"github.com/fsdevblog/groph-backoffice/pkg/uow"
	"github.com/sirupsen/logrus"
)

type Dependencies struct {
	AuditStrict bool
	Vault       Vault
	OrderNo     OrderNumberGenerator
	Locker      Locker
	Provider    RefundProvider
	Notifier    Notifier
	Logger      *logrus.Logger
}

type AppServices struct {
	AuditService    *AuditService
	OutboxService   *OutboxService
	MerchantService *MerchantService
	UserService     *UserService
	OrderService    *OrderService
	PaymentService  *PaymentService
}

func Factory(unitOfWork uow.UOW, deps Dependencies) (*AppServices, error) {
	guard, guardErr := NewAdminGuard(unitOfWork)
	if guardErr != nil {
		return nil, fmt.Errorf("service factory: %s", guardErr.Error())
	}

	auditService, auditErr := NewAuditService(unitOfWork, deps.AuditStrict, deps.Logger)
	if auditErr != nil {
		return nil, fmt.Errorf("service factory: %s", auditErr.Error())
	}

	outboxService, outboxErr := NewOutboxService(unitOfWork)
	if outboxErr != nil {
		return nil, fmt.Errorf("service factory: %s", outboxErr.Error())
	}

	notifier := deps.Notifier
	if notifier == nil {
		notifier = NewLogNotifier(deps.Logger)
	}
	merchantService, merchantErr := NewMerchantService(unitOfWork, MerchantServiceArgs{
		Guard:    guard,
		Audit:    auditService,
		Outbox:   outboxService,
		Vault:    deps.Vault,
		Notifier: notifier,
		Logger:   deps.Logger,
	})
	if merchantErr != nil {
		return nil, fmt.Errorf("service factory: %s", merchantErr.Error())
	}

	userService, userServiceErr := NewUserService(unitOfWork, guard, auditService)
	if userServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", userServiceErr.Error())
	}

	orderService, orderServiceErr := NewOrderService(unitOfWork, deps.OrderNo, auditService)
	if orderServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", orderServiceErr.Error())
	}

	paymentService, paymentErr := NewPaymentService(unitOfWork, PaymentServiceArgs{
		Guard:    guard,
		Audit:    auditService,
		Outbox:   outboxService,
		Locker:   deps.Locker,
		Provider: deps.Provider,
		Logger:   deps.Logger,
	})
	if paymentErr != nil {
		return nil, fmt.Errorf("service factory: %s", paymentErr.Error())
	}

	return &AppServices{
		AuditService:    auditService,
		OutboxService:   outboxService,
		MerchantService: merchantService,
		UserService:     userService,
		OrderService:    orderService,
		PaymentService:  paymentService,
	}, nil
}
