// Package cache содержит обвязку над Redis: подключение и распределенную блокировку для идемпотентных операций.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	defaultPingTimeout   = 2 * time.Second
	defaultRetryInterval = 50 * time.Millisecond
)

var ErrLockTimeout = errors.New("[cache] lock wait timeout")

// unlockScript удаляет ключ только если он все еще принадлежит владельцу.
var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Connect создает клиент и проверяет соединение.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

type RedisLocker struct {
	client        *redis.Client
	l             *logrus.Entry
	retryInterval time.Duration
}

func NewRedisLocker(client *redis.Client, l *logrus.Logger) *RedisLocker {
	return &RedisLocker{
		client: client,
		l: l.WithFields(logrus.Fields{
			"component": "cache",
			"module":    "locker",
		}),
		retryInterval: defaultRetryInterval,
	}
}

// Lock ждет, пока ключ key освободится, и захватывает его на ttl. Возвращает функцию освобождения.
// Если контекст отменен раньше, вернется ErrLockTimeout.
func (r *RedisLocker) Lock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()

	for {
		ok, err := r.client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("[cache] lock `%s`: %w", key, err)
		}
		if ok {
			return func() {
				// блокировку нужно снять даже если контекст операции уже отменен.
				unlockCtx, cancel := context.WithTimeout(context.Background(), defaultPingTimeout)
				defer cancel()
				if unlockErr := unlockScript.Run(unlockCtx, r.client, []string{key}, token).Err(); unlockErr != nil {
					r.l.WithError(unlockErr).WithField("key", key).Warn("unlock failed, key will expire by ttl")
				}
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s", ErrLockTimeout, key)
		case <-time.After(r.retryInterval):
		}
	}
}
