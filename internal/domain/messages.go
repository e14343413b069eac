package domain

import "errors"

const (
	MessageIllegalTransition = "current state does not allow this operation"
	MessageForbidden         = "operation not permitted"
	MessageNotFound          = "record not found"
	MessageContactSupport    = "operation failed, contact support"
)

// PublicMessage возвращает сообщение об ошибке, которое можно показать пользователю.
// Внутренние идентификаторы и тексты ошибок БД наружу не попадают.
func PublicMessage(err error) string {
	if err == nil {
		return ""
	}

	var validationErr *ValidationError
	switch {
	case errors.As(err, &validationErr):
		return validationErr.Message
	case errors.Is(err, ErrIllegalTransition):
		return MessageIllegalTransition
	case errors.Is(err, ErrForbidden):
		return MessageForbidden
	case errors.Is(err, ErrRecordNotFound):
		return MessageNotFound
	default:
		return MessageContactSupport
	}
}
