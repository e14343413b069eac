package config

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	RunAddress    string `env:"RUN_ADDRESS"`
	DatabaseDSN   string `env:"DATABASE_URI"`
	MigrationsDir string `env:"MIGRATIONS_DIR"`
	JWTUserSecret string `env:"JWT_USER_SECRET"`

	RabbitMQURL   string `env:"RABBITMQ_URL"`
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// BankCipherKey hex-строка 32 байт ключа шифрования банковских реквизитов.
	BankCipherKey string `env:"BANK_CIPHER_KEY"`
	BlindIndexKey string `env:"BLIND_INDEX_KEY"`

	SnowflakeNode int64 `env:"SNOWFLAKE_NODE" envDefault:"1"`
	OutboxWorkers uint  `env:"OUTBOX_WORKERS" envDefault:"4"`
	OutboxBatch   uint  `env:"OUTBOX_BATCH" envDefault:"100"`

	LogDir      string `env:"LOG_DIR"`
	AuditStrict bool   `env:"AUDIT_STRICT" envDefault:"true"`
}

// LoadConfig собирает конфиг из .env (если есть), переменных окружения и флагов. Переменные окружения
// имеют приоритет над флагами.
func LoadConfig(args []string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	var flagsConfig, envConfig Config

	if envParseErr := env.Parse(&envConfig); envParseErr != nil {
		return nil, fmt.Errorf("parse env config: %s", envParseErr.Error())
	}

	if flagsErr := loadFlags(&flagsConfig, args); flagsErr != nil {
		return nil, fmt.Errorf("parse flags: %s", flagsErr.Error())
	}

	conf := mergeConfig(&envConfig, &flagsConfig)
	if conf.DatabaseDSN == "" {
		return nil, errors.New("database DSN is not set")
	}
	if conf.JWTUserSecret == "" {
		return nil, errors.New("jwt user secret is not set")
	}
	if conf.BankCipherKey == "" || conf.BlindIndexKey == "" {
		return nil, errors.New("bank cipher key and blind index key are required")
	}
	return conf, nil
}

func MustLoadConfig() *Config {
	config, err := LoadConfig(os.Args[1:])
	if err != nil {
		panic(err)
	}
	return config
}

// loadDotEnv не перезаписывает уже выставленные переменные окружения.
func loadDotEnv(path string) error {
	if _, statErr := os.Stat(path); statErr != nil {
		return nil //nolint:nilerr
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %s", path, err.Error())
	}
	return nil
}

func loadFlags(flagConfig *Config, args []string) error {
	fs := flag.NewFlagSet("backoffice", flag.ContinueOnError)
	fs.StringVar(&flagConfig.RunAddress, "a", "localhost:8080", "Run address in format host:port")
	fs.StringVar(&flagConfig.DatabaseDSN, "d", "", "Database DSN")
	fs.StringVar(&flagConfig.MigrationsDir, "m", "internal/db/migrations", "Database migrations directory")
	fs.StringVar(&flagConfig.RabbitMQURL, "r", "", "RabbitMQ URL, outbox relay and jobs are disabled when empty")
	fs.StringVar(&flagConfig.RedisAddr, "redis", "", "Redis address, idempotency lock is disabled when empty")
	fs.StringVar(&flagConfig.LogDir, "log-dir", "", "Directory for rotated log files")

	return fs.Parse(args) //nolint:wrapcheck
}

func mergeConfig(envConfig, flagsConfig *Config) *Config {
	conf := *envConfig
	conf.RunAddress = defaultIfBlank(envConfig.RunAddress, flagsConfig.RunAddress)
	conf.DatabaseDSN = defaultIfBlank(envConfig.DatabaseDSN, flagsConfig.DatabaseDSN)
	conf.MigrationsDir = defaultIfBlank(envConfig.MigrationsDir, flagsConfig.MigrationsDir)
	conf.RabbitMQURL = defaultIfBlank(envConfig.RabbitMQURL, flagsConfig.RabbitMQURL)
	conf.RedisAddr = defaultIfBlank(envConfig.RedisAddr, flagsConfig.RedisAddr)
	conf.LogDir = defaultIfBlank(envConfig.LogDir, flagsConfig.LogDir)
	return &conf
}

func defaultIfBlank(value string, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}

// String скрывает секреты при выводе конфига в лог.
func (c Config) String() string {
	return fmt.Sprintf(
		"{RunAddress:%s MigrationsDir:%s RabbitMQ:%t Redis:%s RedisDB:%d SnowflakeNode:%d "+
			"OutboxWorkers:%d OutboxBatch:%d LogDir:%s AuditStrict:%t}",
		c.RunAddress, c.MigrationsDir, c.RabbitMQURL != "", c.RedisAddr, c.RedisDB, c.SnowflakeNode,
		c.OutboxWorkers, c.OutboxBatch, c.LogDir, c.AuditStrict,
	)
}
