package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/sirupsen/logrus"
)

const (
	rotationTime = 24 * time.Hour
	maxAge       = 7 * 24 * time.Hour
)

// New инициализирует логгер.
func New(output io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(output)
	l.SetFormatter(new(logrus.JSONFormatter))
	l.SetLevel(logrus.InfoLevel)

	// перезаписываем ряд настроек для окружений отличных от продакшн
	if os.Getenv("GIN_MODE") != "release" {
		l.SetLevel(logrus.DebugLevel)
		l.SetFormatter(new(logrus.TextFormatter))
	}

	return l
}

// WithRotation дублирует вывод логгера в файл dir/name.log с суточной ротацией. Текущий вывод сохраняется.
func WithRotation(l *logrus.Logger, dir, name string) (io.Closer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:mnd
		return nil, fmt.Errorf("log dir %s: %s", dir, err.Error())
	}

	base := filepath.Join(dir, name+".log")
	writer, err := rotatelogs.New(
		base+".%Y-%m-%d",
		rotatelogs.WithLinkName(base),
		rotatelogs.WithRotationTime(rotationTime),
		rotatelogs.WithMaxAge(maxAge),
	)
	if err != nil {
		return nil, fmt.Errorf("rotatelogs: %s", err.Error())
	}

	l.SetOutput(io.MultiWriter(l.Out, writer))
	return writer, nil
}
