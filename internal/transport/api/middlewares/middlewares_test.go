package middlewares

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fsdevblog/groph-backoffice/internal/service/tokens"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestErrorsHidesPrivateErrors(t *testing.T) {
	r := gin.New()
	r.Use(Errors())
	r.GET("/private", func(c *gin.Context) {
		_ = c.AbortWithError(http.StatusInternalServerError, errors.New("pq: connection reset")).
			SetType(gin.ErrorTypePrivate)
	})
	r.GET("/public", func(c *gin.Context) {
		_ = c.AbortWithError(http.StatusNotFound, errors.New("user not found")).SetType(gin.ErrorTypePublic)
	})

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Accept", "application/json")
	w := serve(r, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())

	w = serve(r, httptest.NewRequest(http.MethodGet, "/public", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "user not found", w.Body.String())
}

func TestAuthRequired(t *testing.T) {
	secret := []byte("secret")
	userRef := uuid.New()

	r := gin.New()
	r.Use(Errors())
	r.GET("/me", AuthRequired(secret), func(c *gin.Context) {
		ref, _ := c.Get(CurrentUserRefKey)
		c.String(http.StatusOK, ref.(uuid.UUID).String())
	})

	token, err := tokens.GenerateUserJWT(userRef, time.Hour, secret)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userRef.String(), w.Body.String())

	expired, err := tokens.GenerateUserJWT(userRef, -time.Minute, secret)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+expired)
	w = serve(r, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"unauthorized"}`, w.Body.String())
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	w := serve(r, req)
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "req-42", w.Body.String())

	w = serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}
