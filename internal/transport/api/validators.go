package api

import (
	"fmt"
	"sync"

	"github.com/fsdevblog/groph-backoffice/internal/identity"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var registerOnce sync.Once

// validateUUIDRef проверяет, что строка является UUID пользователя. Синтетические UUID администраторов
// в бизнес-роутах не принимаются.
func validateUUIDRef(fl validator.FieldLevel) bool {
	str, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	id, err := uuid.Parse(str)
	if err != nil || id == uuid.Nil {
		return false
	}
	return !identity.IsSynthetic(id.String())
}

func registerValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("validator registration: unexpected engine %T", binding.Validator.Engine())
			return
		}
		if regErr := v.RegisterValidation("uuid_ref", validateUUIDRef); regErr != nil {
			err = fmt.Errorf("validator registration: %s", regErr.Error())
		}
	})
	return err
}
