// Package audit собирает записи журнала аудита: кто, что и над чем сделал, с очищенными снимками состояния.
package audit

import (
	"errors"
	"strings"

	"github.com/fsdevblog/groph-backoffice/internal/identity"
)

var (
	ErrEmptyAction = errors.New("[audit] action is required")
	ErrEmptyTarget = errors.New("[audit] target is required")
)

// RequestContext данные запроса, инициировавшего изменение. Передается явно через аргументы операций.
type RequestContext struct {
	RequestID string
	IP        string
	UserAgent string
}

type Entry struct {
	Action   string
	Actor    identity.Reference
	Target   identity.Reference
	Before   map[string]any
	After    map[string]any
	Metadata map[string]any
	Request  RequestContext
}

// Normalize подставляет системного актора, если актор не указан, и вычищает чувствительные поля.
func (e Entry) Normalize() Entry {
	if e.Actor.IsZero() {
		e.Actor = identity.SystemRef()
	}
	e.Action = strings.TrimSpace(e.Action)
	e.Before = Sanitize(e.Before)
	e.After = Sanitize(e.After)
	e.Metadata = Sanitize(e.Metadata)
	return e
}

func (e Entry) Validate() error {
	if e.Action == "" {
		return ErrEmptyAction
	}
	if e.Target.IsZero() {
		return ErrEmptyTarget
	}
	return nil
}
