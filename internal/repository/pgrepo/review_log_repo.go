package pgrepo

import (
	"context"

	"github.com/fsdevblog/groph-backoffice/internal/domain"
	"github.com/fsdevblog/groph-backoffice/internal/repository/repoargs"
	"github.com/fsdevblog/groph-backoffice/pkg/uow"
)

const reviewLogColumns = `id, created_at, merchant_profile_id, action, operator_type, operator_ref, note`

type ReviewLogRepository struct {
	conn uow.DBTX
}

func NewReviewLogRepository(conn uow.DBTX) *ReviewLogRepository {
	return &ReviewLogRepository{conn: conn}
}

func (r *ReviewLogRepository) Create(
	ctx context.Context,
	args repoargs.CreateReviewLog,
) (*domain.MerchantReviewLog, error) {
	row := r.conn.QueryRow(ctx, `
		INSERT INTO merchant_review_logs (merchant_profile_id, action, operator_type, operator_ref, note)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+reviewLogColumns,
		args.MerchantProfileID, args.Action, args.Operator.Type, args.Operator.Raw, args.Note,
	)
	log, err := scanReviewLog(row)
	if err != nil {
		return nil, convertErr(err, "creating review log `%s` for profile %d", args.Action, args.MerchantProfileID)
	}
	return log, nil
}

// ListByProfile возвращает журнал ревью профиля в порядке добавления.
func (r *ReviewLogRepository) ListByProfile(ctx context.Context, profileID int64) ([]domain.MerchantReviewLog, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT `+reviewLogColumns+` FROM merchant_review_logs WHERE merchant_profile_id = $1 ORDER BY id`, profileID)
	if err != nil {
		return nil, convertErr(err, "listing review logs of profile %d", profileID)
	}
	defer rows.Close()

	var logs []domain.MerchantReviewLog
	for rows.Next() {
		log, scanErr := scanReviewLog(rows)
		if scanErr != nil {
			return nil, convertErr(scanErr, "scanning review log of profile %d", profileID)
		}
		logs = append(logs, *log)
	}
	if rows.Err() != nil {
		return nil, convertErr(rows.Err(), "iterating review logs of profile %d", profileID)
	}
	return logs, nil
}

func scanReviewLog(row rowScanner) (*domain.MerchantReviewLog, error) {
	var log domain.MerchantReviewLog
	var operatorType, operatorRef string
	if err := row.Scan(
		&log.ID,
		&log.CreatedAt,
		&log.MerchantProfileID,
		&log.Action,
		&operatorType,
		&operatorRef,
		&log.Note,
	); err != nil {
		return nil, err //nolint:wrapcheck
	}
	operator, refErr := parseRef(&operatorType, &operatorRef)
	if refErr != nil {
		return nil, refErr
	}
	log.Operator = *operator
	return &log, nil
}
