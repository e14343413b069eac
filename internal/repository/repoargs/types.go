package repoargs

type RepositoryName string

const (
	UserRepoName            RepositoryName = "user"
	AdminUserRepoName       RepositoryName = "admin_user"
	OrderRepoName           RepositoryName = "order"
	PaymentRepoName         RepositoryName = "payment"
	RefundRepoName          RepositoryName = "refund"
	MerchantProfileRepoName RepositoryName = "merchant_profile"
	ReviewLogRepoName       RepositoryName = "merchant_review_log"
	AuditLogRepoName        RepositoryName = "audit_log"
	OutboxRepoName          RepositoryName = "outbox_event"
)
