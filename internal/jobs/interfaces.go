package jobs

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import "context"

type MerchantPostApprover interface {
	PostApproval(ctx context.Context, profileID int64) error
}

type RefundProcessor interface {
	ProcessRefund(ctx context.Context, refundID int64) error
}
