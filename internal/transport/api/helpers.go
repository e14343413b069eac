package api

import (
	"github.com/fsdevblog/groph-backoffice/internal/transport/api/middlewares"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// getUserRefFromContext берет из контекста gin UUID текущего юзера. Значение устанавливается в
// middlewares.AuthRequired. Если значения нет, вернется uuid.Nil.
func getUserRefFromContext(c *gin.Context) uuid.UUID {
	v, exist := c.Get(middlewares.CurrentUserRefKey)
	if !exist {
		return uuid.Nil
	}
	ref, ok := v.(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return ref
}
