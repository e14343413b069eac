package domain

import (
	"errors"
	"fmt"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicateKey   = errors.New("duplicate key")
	ErrUnknown        = errors.New("unknown error")

	ErrForbidden           = errors.New("forbidden")
	ErrValidation          = errors.New("validation failed")
	ErrIllegalTransition   = errors.New("illegal transition")
	ErrIntegrityConflict   = errors.New("integrity conflict")
	ErrAuditWrite          = errors.New("audit write failed")
	ErrProviderUnavailable = errors.New("provider unavailable")
)

// ValidationError ошибка входных данных. Мутаций при ней не происходит.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// IllegalTransitionError событие Event не разрешено графом переходов сущности Entity из состояния From.
type IllegalTransitionError struct {
	Entity string
	From   string
	Event  string
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("%s: event `%s` is not allowed in state `%s`", e.Entity, e.Event, e.From)
}

func (e *IllegalTransitionError) Unwrap() error {
	return ErrIllegalTransition
}
