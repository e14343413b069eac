package api

import (
	"fmt"
	"time"

	"github.com/fsdevblog/groph-backoffice/internal/transport/api/middlewares"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	DefaultServiceTimeout = 3 * time.Second
)

const (
	RouteGroup          = "/api/v1"
	MerchantStatusRoute = "/merchant/status"
	UserRefParam        = "user_ref"
)

type RouterArgs struct {
	Logger          *logrus.Logger
	MerchantService MerchantServicer
	JWTSecretKey    []byte
}

func New(args RouterArgs) (*gin.Engine, error) {
	if err := registerValidators(); err != nil {
		return nil, fmt.Errorf("router: %w", err)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	if args.Logger != nil {
		r.Use(middlewares.Logger(args.Logger))
	}
	r.Use(middlewares.Errors())

	merchantHandler := NewMerchantHandler(args.MerchantService)

	api := r.Group(RouteGroup)
	// Публичное чтение статуса по внешнему UUID пользователя.
	api.GET(MerchantStatusRoute+"/:"+UserRefParam, merchantHandler.StatusByRef)

	authorized := api.Group("", middlewares.AuthRequired(args.JWTSecretKey))
	authorized.GET(MerchantStatusRoute, merchantHandler.Status)
	return r, nil
}
