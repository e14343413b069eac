package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsdevblog/groph-backoffice/internal/cache"
	"github.com/fsdevblog/groph-backoffice/internal/config"
	"github.com/fsdevblog/groph-backoffice/internal/crypto/vault"
	"github.com/fsdevblog/groph-backoffice/internal/idgen"
	"github.com/fsdevblog/groph-backoffice/internal/jobs"
	"github.com/fsdevblog/groph-backoffice/internal/logger"
	"github.com/fsdevblog/groph-backoffice/internal/repository/pgrepo"
	"github.com/fsdevblog/groph-backoffice/internal/service"
	"github.com/fsdevblog/groph-backoffice/internal/transport/api"
	"github.com/fsdevblog/groph-backoffice/internal/transport/broker"
	"github.com/fsdevblog/groph-backoffice/internal/transport/outbox"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	// driver for migration applying postgres.
	_ "github.com/golang-migrate/migrate/v4/database/postgres" //nolint:revive
	// driver to get migrations from files (*.sql in our case).
	_ "github.com/golang-migrate/migrate/v4/source/file" //nolint:revive
)

const (
	shutdownTimeout = 5 * time.Second
	logName         = "backoffice"
)

type App struct {
	Config *config.Config
	Logger *logrus.Logger
}

func New(conf *config.Config, l *logrus.Logger) *App {
	return &App{
		Config: conf,
		Logger: l,
	}
}

func (a *App) Run() error {
	notifyCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if a.Config.LogDir != "" {
		closer, rotErr := logger.WithRotation(a.Logger, a.Config.LogDir, logName)
		if rotErr != nil {
			return fmt.Errorf("app run: %s", rotErr.Error())
		}
		defer closeQuietly(closer)
	}

	a.Logger.Infof("Starting app with config: %s", a.Config)

	// Брокер подключается до запуска HTTP сервера: при ошибке подключения сервер не должен остаться запущенным.
	b, brokerErr := a.connectBroker()
	if brokerErr != nil {
		return fmt.Errorf("app run: %s", brokerErr.Error())
	}
	if b != nil {
		defer closeQuietly(b)
	}

	conn, connErr := pgrepo.Connect(notifyCtx, a.Config.MigrationsDir, a.Config.DatabaseDSN, a.Logger)
	if connErr != nil {
		return fmt.Errorf("app run: %s", connErr.Error())
	}
	defer conn.Close()

	unitOfWork, uowErr := pgrepo.NewUnitOfWork(conn)
	if uowErr != nil {
		return fmt.Errorf("app run: %s", uowErr.Error())
	}

	deps, cleanup, depsErr := a.dependencies(notifyCtx)
	if depsErr != nil {
		return fmt.Errorf("app run: %s", depsErr.Error())
	}
	defer cleanup()

	services, sErr := service.Factory(unitOfWork, deps)
	if sErr != nil {
		return fmt.Errorf("app run: %s", sErr.Error())
	}

	router, routerErr := api.New(api.RouterArgs{
		Logger:          a.Logger,
		MerchantService: services.MerchantService,
		JWTSecretKey:    []byte(a.Config.JWTUserSecret),
	})
	if routerErr != nil {
		return fmt.Errorf("app run: %s", routerErr.Error())
	}

	g, gCtx := errgroup.WithContext(notifyCtx)

	server := &http.Server{ //nolint:gosec
		Addr:    a.Config.RunAddress,
		Handler: router,
	}
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx) //nolint:contextcheck,wrapcheck
	})

	if b != nil {
		relay := outbox.NewRelay(services.OutboxService, b, a.Logger).
			SetWorkers(a.Config.OutboxWorkers).
			SetBatchSize(a.Config.OutboxBatch)
		g.Go(func() error {
			relay.Run(gCtx)
			return nil
		})
		g.Go(func() error {
			return b.Consume(gCtx, broker.QueueMerchantPostApproval, jobs.PostApproval(services.MerchantService))
		})
		g.Go(func() error {
			return b.Consume(gCtx, broker.QueueRefundProcessing, jobs.ProcessRefund(services.PaymentService))
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("app run: %w", err)
	}
	return notifyCtx.Err() //nolint:wrapcheck
}

// connectBroker возвращает nil без ошибки, если RabbitMQ не настроен.
func (a *App) connectBroker() (*broker.Broker, error) {
	if a.Config.RabbitMQURL == "" {
		a.Logger.Warn("RabbitMQ is not configured, outbox relay and jobs are disabled")
		return nil, nil //nolint:nilnil
	}
	b, err := broker.Connect(a.Config.RabbitMQURL, a.Logger)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return b, nil
}

// dependencies собирает внешние зависимости сервисного слоя.
func (a *App) dependencies(ctx context.Context) (service.Dependencies, func(), error) {
	noop := func() {}
	v, vaultErr := vault.NewFromHex(a.Config.BankCipherKey, a.Config.BlindIndexKey)
	if vaultErr != nil {
		return service.Dependencies{}, noop, fmt.Errorf("vault: %w", vaultErr)
	}
	orderNo, idErr := idgen.New(a.Config.SnowflakeNode)
	if idErr != nil {
		return service.Dependencies{}, noop, fmt.Errorf("idgen: %w", idErr)
	}

	deps := service.Dependencies{
		AuditStrict: a.Config.AuditStrict,
		Vault:       v,
		OrderNo:     orderNo,
		Logger:      a.Logger,
	}

	if a.Config.RedisAddr == "" {
		a.Logger.Warn("Redis is not configured, idempotency lock is disabled")
		return deps, noop, nil
	}
	client, redisErr := cache.Connect(ctx, a.Config.RedisAddr, a.Config.RedisPassword, a.Config.RedisDB)
	if redisErr != nil {
		// без блокировки дубли все равно отсекаются уникальными ключами в БД.
		a.Logger.WithError(redisErr).Warn("Redis is unavailable, idempotency lock is disabled")
		return deps, noop, nil
	}
	deps.Locker = cache.NewRedisLocker(client, a.Logger)
	return deps, func() { closeQuietly(client) }, nil
}

func closeQuietly(c io.Closer) {
	_ = c.Close()
}
