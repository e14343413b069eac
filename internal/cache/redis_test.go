package cache

import (
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"
)

// RedisLockerTestSuite работает с реальным Redis из TEST_REDIS_ADDR.
type RedisLockerTestSuite struct {
	suite.Suite
	locker *RedisLocker
}

func TestRedisLockerSuite(t *testing.T) {
	if os.Getenv("TEST_REDIS_ADDR") == "" {
		t.Skip("TEST_REDIS_ADDR is not set")
	}
	suite.Run(t, new(RedisLockerTestSuite))
}

func (s *RedisLockerTestSuite) SetupTest() {
	client, err := Connect(s.T().Context(), os.Getenv("TEST_REDIS_ADDR"), "", 0)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = client.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	s.locker = NewRedisLocker(client, logger)
	s.locker.retryInterval = 5 * time.Millisecond
}

func (s *RedisLockerTestSuite) TestLockIsExclusive() {
	key := "idem:test:" + uuid.NewString()

	unlock, err := s.locker.Lock(s.T().Context(), key, time.Minute)
	s.Require().NoError(err)

	waitCtx, cancel := context.WithTimeout(s.T().Context(), 50*time.Millisecond)
	defer cancel()
	_, err = s.locker.Lock(waitCtx, key, time.Minute)
	s.Require().Error(err)

	unlock()

	unlockAgain, err := s.locker.Lock(s.T().Context(), key, time.Minute)
	s.Require().NoError(err)
	unlockAgain()
}

func (s *RedisLockerTestSuite) TestLockExpiresByTTL() {
	key := "idem:test:" + uuid.NewString()

	_, err := s.locker.Lock(s.T().Context(), key, 30*time.Millisecond)
	s.Require().NoError(err)

	waitCtx, cancel := context.WithTimeout(s.T().Context(), time.Second)
	defer cancel()
	unlock, err := s.locker.Lock(waitCtx, key, time.Minute)
	s.Require().NoError(err)
	unlock()
}

func TestConnectUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(t.Context(), time.Second)
	defer cancel()
	if _, err := Connect(ctx, "127.0.0.1:1", "", 0); err == nil {
		t.Fatal("expected connection error")
	}
}
