package pgrepo

import (
	"context"

	"github.com/fsdevblog/groph-backoffice/internal/domain"
	"github.com/fsdevblog/groph-backoffice/internal/identity"
	"github.com/fsdevblog/groph-backoffice/internal/repository/repoargs"
	"github.com/fsdevblog/groph-backoffice/pkg/uow"
)

const auditLogColumns = `id, created_at, actor_type, actor_ref, action, target_type, target_ref,
	before, after, metadata, request_id, ip, user_agent`

// AuditLogRepository только добавляет и читает записи. Изменение и удаление запрещены триггером в БД.
type AuditLogRepository struct {
	conn uow.DBTX
}

func NewAuditLogRepository(conn uow.DBTX) *AuditLogRepository {
	return &AuditLogRepository{conn: conn}
}

func (a *AuditLogRepository) Create(ctx context.Context, args repoargs.CreateAuditLog) (*domain.AuditLog, error) {
	before, err := marshalJSON(args.Before)
	if err != nil {
		return nil, convertErr(err, "encoding audit before snapshot")
	}
	after, err := marshalJSON(args.After)
	if err != nil {
		return nil, convertErr(err, "encoding audit after snapshot")
	}
	metadata, err := marshalJSON(args.Metadata)
	if err != nil {
		return nil, convertErr(err, "encoding audit metadata")
	}

	row := a.conn.QueryRow(ctx, `
		INSERT INTO audit_logs (actor_type, actor_ref, action, target_type, target_ref, before, after, metadata,
			request_id, ip, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), NULLIF($10, ''), NULLIF($11, ''))
		RETURNING `+auditLogColumns,
		args.Actor.Type, args.Actor.Raw, args.Action, args.Target.Type, args.Target.Raw,
		before, after, metadata, args.RequestID, args.IP, args.UserAgent,
	)
	log, scanErr := scanAuditLog(row)
	if scanErr != nil {
		return nil, convertErr(scanErr, "creating audit log `%s` for %s", args.Action, args.Target)
	}
	return log, nil
}

// ListByTarget последние limit записей по цели, от новых к старым.
func (a *AuditLogRepository) ListByTarget(
	ctx context.Context,
	target identity.Reference,
	limit uint,
) ([]domain.AuditLog, error) {
	rows, err := a.conn.Query(ctx, `
		SELECT `+auditLogColumns+`
		FROM audit_logs
		WHERE target_type = $1 AND target_ref = $2
		ORDER BY id DESC
		LIMIT $3`, target.Type, target.Raw, int64(limit),
	)
	if err != nil {
		return nil, convertErr(err, "listing audit logs of %s", target)
	}
	defer rows.Close()

	var logs []domain.AuditLog
	for rows.Next() {
		log, scanErr := scanAuditLog(rows)
		if scanErr != nil {
			return nil, convertErr(scanErr, "scanning audit log of %s", target)
		}
		logs = append(logs, *log)
	}
	if rows.Err() != nil {
		return nil, convertErr(rows.Err(), "iterating audit logs of %s", target)
	}
	return logs, nil
}

func scanAuditLog(row rowScanner) (*domain.AuditLog, error) {
	var log domain.AuditLog
	var actorType, actorRef, targetType, targetRef string
	var before, after, metadata []byte
	var requestID, ip, userAgent *string
	if err := row.Scan(
		&log.ID,
		&log.CreatedAt,
		&actorType,
		&actorRef,
		&log.Action,
		&targetType,
		&targetRef,
		&before,
		&after,
		&metadata,
		&requestID,
		&ip,
		&userAgent,
	); err != nil {
		return nil, err //nolint:wrapcheck
	}

	actor, err := parseRef(&actorType, &actorRef)
	if err != nil {
		return nil, err
	}
	target, err := parseRef(&targetType, &targetRef)
	if err != nil {
		return nil, err
	}
	log.Actor, log.Target = *actor, *target

	if log.Before, err = unmarshalJSON(before); err != nil {
		return nil, err
	}
	if log.After, err = unmarshalJSON(after); err != nil {
		return nil, err
	}
	if log.Metadata, err = unmarshalJSON(metadata); err != nil {
		return nil, err
	}
	log.RequestID, log.IP, log.UserAgent = deref(requestID), deref(ip), deref(userAgent)
	return &log, nil
}
