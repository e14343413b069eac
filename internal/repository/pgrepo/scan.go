package pgrepo

import (
	"encoding/json"
	"fmt"

	"github.com/fsdevblog/groph-backoffice/internal/identity"
)

// rowScanner общий интерфейс pgx.Row и pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func marshalJSON(m map[string]any) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal jsonb: %w", err)
	}
	return b, nil
}

func unmarshalJSON(b []byte) (map[string]any, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("unmarshal jsonb: %w", err)
	}
	return m, nil
}

// parseRef собирает ссылку из пары колонок. Пустая пара означает отсутствие ссылки.
func parseRef(typ, raw *string) (*identity.Reference, error) {
	if typ == nil || raw == nil {
		return nil, nil
	}
	ref, err := identity.Parse(*typ, *raw)
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

func refColumns(ref *identity.Reference) (*string, *string) {
	if ref == nil || ref.IsZero() {
		return nil, nil
	}
	t := string(ref.Type)
	return &t, &ref.Raw
}
