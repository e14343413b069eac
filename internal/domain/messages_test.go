package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublicMessage(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "validation", err: fmt.Errorf("rejecting: %w", NewValidationError("reason", "a reason is required")),
			want: "a reason is required"},
		{name: "illegal transition", err: &IllegalTransitionError{Entity: "order", From: "canceled", Event: "cancel"},
			want: MessageIllegalTransition},
		{name: "forbidden", err: fmt.Errorf("admin 1: %w", ErrForbidden), want: MessageForbidden},
		{name: "not found", err: fmt.Errorf("[repository/x] %w", ErrRecordNotFound), want: MessageNotFound},
		{name: "integrity", err: ErrIntegrityConflict, want: MessageContactSupport},
		{name: "driver error", err: errors.New(`duplicate key value violates unique constraint "payments_pkey"`),
			want: MessageContactSupport},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, PublicMessage(tc.err))
		})
	}
}
