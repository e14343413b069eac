package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func statusErrorText(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusGatewayTimeout:
		return "service timeout"
	default:
		return "internal server error"
	}
}

// Errors отдает клиенту первую ошибку из c.Errors. Текст публичных ошибок уходит как есть, для
// приватных отдается только текст статуса. Если тело ответа уже записано (например, AuthRequired), ничего не делает.
func Errors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Size() > 0 {
			return
		}

		// обрабатываем только первую ошибку
		firstErr := c.Errors[0]
		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			status = http.StatusInternalServerError
		}

		msg := statusErrorText(status)
		if firstErr.IsType(gin.ErrorTypePublic) {
			msg = firstErr.Error()
		}

		if wantsJSON(c) {
			c.JSON(status, gin.H{"error": msg})
		} else {
			c.String(status, msg)
		}
		c.Abort()
	}
}

func wantsJSON(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "application/json") ||
		strings.Contains(c.GetHeader("Content-Type"), "application/json")
}
