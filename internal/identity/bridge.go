// Package identity связывает два пространства идентификаторов: бизнес-сущности с UUID и
// административные записи с последовательными целочисленными ключами.
package identity

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	syntheticPrefix = "00000000-0000-0000-0000-"
	syntheticDigits = 12

	// MaxInternalID максимальный id, который помещается в последнюю группу UUID.
	MaxInternalID int64 = 999_999_999_999

	// SystemRaw ссылка на системного актора.
	SystemRaw = "00000000-0000-0000-0000-000000000000"
)

var (
	ErrOutOfRange   = errors.New("[identity] internal id is out of supported range")
	ErrNotSynthetic = errors.New("[identity] reference is not a synthetic internal reference")
)

// ToExternalRef кодирует целочисленный id в строку формата UUID: фиксированный нулевой префикс и id,
// дополненный нулями до 12 цифр.
func ToExternalRef(id int64) (string, error) {
	if id < 1 || id > MaxInternalID {
		return "", fmt.Errorf("%w: %d", ErrOutOfRange, id)
	}
	return fmt.Sprintf("%s%0*d", syntheticPrefix, syntheticDigits, id), nil
}

// ToInternalID обратная к ToExternalRef функция. Строки, не соответствующие синтетическому формату,
// возвращают ErrNotSynthetic.
func ToInternalID(ref string) (int64, error) {
	if len(ref) != len(syntheticPrefix)+syntheticDigits || !strings.HasPrefix(ref, syntheticPrefix) {
		return 0, ErrNotSynthetic
	}

	digits := ref[len(syntheticPrefix):]
	for i := range len(digits) {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, ErrNotSynthetic
		}
	}

	id, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrNotSynthetic, err.Error())
	}
	if id < 1 {
		return 0, fmt.Errorf("%w: %d", ErrOutOfRange, id)
	}
	return id, nil
}

func IsSynthetic(ref string) bool {
	_, err := ToInternalID(ref)
	return err == nil
}
