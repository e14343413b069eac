package service

import (
	"context"
	"fmt"

	"github.com/fsdevblog/groph-backoffice/internal/domain"
	"github.com/sirupsen/logrus"
)

// UnconfiguredRefundProvider используется, пока интеграция с провайдером не настроена. Задача возврата
// остается в очереди и будет повторена.
type UnconfiguredRefundProvider struct{}

func (UnconfiguredRefundProvider) Refund(_ context.Context, req domain.RefundRequest) (*domain.RefundReceipt, error) {
	return nil, fmt.Errorf("refund %d: %w", req.RefundID, domain.ErrProviderUnavailable)
}

// LogNotifier пишет уведомления в лог вместо отправки.
type LogNotifier struct {
	logger *logrus.Entry
}

func NewLogNotifier(l *logrus.Logger) *LogNotifier {
	return &LogNotifier{logger: l.WithField("component", "notifier")}
}

func (n *LogNotifier) MerchantApproved(_ context.Context, profile *domain.MerchantProfile, user *domain.User) error {
	n.logger.WithFields(logrus.Fields{
		"profile_id": profile.ID,
		"shop_name":  profile.ShopName,
		"user_ref":   user.PublicID.String(),
		"email":      user.Email,
	}).Info("merchant approved notification")
	return nil
}
