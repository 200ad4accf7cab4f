// config предоставляет структуру конфигурации сервиса и функции
// загрузки из файла/переменных окружения с предсказуемым приоритетом.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"golang.org/x/crypto/bcrypt"
)

// Значения окружения. Только envProd включает Secure/SameSite=Strict для cookie.
const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// Поддерживаемые хранилища пользователей (определяются по схеме DATABASE_URL).
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

// Поддерживаемые бэкенды кэша сессий.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config — корневая конфигурация сервиса.
// Источники значений (по убыванию приоритета):
//  1. явный путь через флаг --config;
//  2. путь в переменной окружения CONFIG_PATH;
//  3. файл local.yaml из рабочей директории;
//  4. переменные окружения (cleanenv).
//
// Переменные окружения всегда накладываются поверх YAML.
type Config struct {
	Env      string        `yaml:"env" env:"ENV" env-default:"local"`
	HTTP     HTTPConfig    `yaml:"http"`
	Auth     AuthConfig    `yaml:"auth"`
	DB       DBConfig      `yaml:"db"`
	Cache    CacheConfig   `yaml:"cache"`
	Timeouts TimeoutConfig `yaml:"timeouts"`
}

// TimeoutConfig — таймауты сервиса.
type TimeoutConfig struct {
	// Service — общий дедлайн обработки HTTP-запроса.
	Service time.Duration `yaml:"service" env:"SERVICE_TIMEOUT" env-default:"5s"`
	// Shutdown — сколько ждём завершения активных запросов при остановке.
	Shutdown time.Duration `yaml:"shutdown" env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// HTTPConfig — сетевые настройки HTTP-сервера.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"PORT" env-required:"true"`
	// BasePath — префикс API и одновременно Path для cookie с токенами.
	BasePath string `yaml:"base_path" env:"BASE_PATH" env-default:"/api/v1"`
}

// Addr возвращает адрес в формате host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// AuthConfig содержит параметры выпуска и валидации токенов и хэширования паролей.
type AuthConfig struct {
	AccessTokenSecret  string        `yaml:"access_token_secret" env:"ACCESS_TOKEN_SECRET" env-required:"true"`
	RefreshTokenSecret string        `yaml:"refresh_token_secret" env:"REFRESH_TOKEN_SECRET" env-required:"true"`
	AccessTokenTTL     time.Duration `yaml:"access_token_ttl" env:"ACCESS_TOKEN_TTL" env-default:"15m"`
	RefreshTokenTTL    time.Duration `yaml:"refresh_token_ttl" env:"REFRESH_TOKEN_TTL" env-default:"120h"`
	Issuer             string        `yaml:"issuer" env:"ISSUER" env-default:"auth-service"`
	BcryptCost         int           `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"12"`
}

// DBConfig — настройки подключения к хранилищу пользователей.
type DBConfig struct {
	URL string `yaml:"url" env:"DATABASE_URL" env-required:"true"`
	// ConnectTimeout ограничивает одну попытку подключения на старте.
	ConnectTimeout time.Duration `yaml:"connect_timeout" env:"DB_CONNECT_TIMEOUT" env-default:"10s"`
	// ConnectAttempts — сколько раз пытаемся подключиться до фатального выхода.
	ConnectAttempts int `yaml:"connect_attempts" env:"DB_CONNECT_ATTEMPTS" env-default:"5"`
	// RetryDelay — пауза между попытками.
	RetryDelay time.Duration `yaml:"retry_delay" env:"DB_RETRY_DELAY" env-default:"3s"`
}

// Driver определяет хранилище по схеме URL: mongodb(+srv) -> mongo, postgres(ql) -> postgres.
func (d DBConfig) Driver() (string, error) {
	u, err := url.Parse(d.URL)
	if err != nil {
		return "", fmt.Errorf("parse db url: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "mongodb", "mongodb+srv":
		return DriverMongo, nil
	case "postgres", "postgresql":
		return DriverPostgres, nil
	default:
		return "", fmt.Errorf("unsupported db url scheme %q", u.Scheme)
	}
}

// CacheConfig — настройки кэша сессий.
type CacheConfig struct {
	Backend  string `yaml:"backend" env:"CACHE_BACKEND" env-default:"memory"`
	Shards   int    `yaml:"shards" env:"CACHE_SHARDS" env-default:"32"`
	RedisURL string `yaml:"redis_url" env:"REDIS_URL"`
	Prefix   string `yaml:"prefix" env:"CACHE_PREFIX" env-default:"auth:"`
}

// IsProduction сообщает, включён ли production-режим (влияет на флаги cookie).
func (c *Config) IsProduction() bool {
	return c.Env == EnvProd
}

// Validate проверяет инварианты, которые cleanenv выразить не может.
func (c *Config) Validate() error {
	var errs []error

	if c.Auth.AccessTokenSecret == c.Auth.RefreshTokenSecret {
		errs = append(errs, errors.New("access and refresh token secrets must differ"))
	}

	if c.Auth.AccessTokenTTL <= 0 || c.Auth.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("token ttl must be positive"))
	}

	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("bcrypt cost must be in [%d, %d]", bcrypt.MinCost, bcrypt.MaxCost))
	}

	if _, err := c.DB.Driver(); err != nil {
		errs = append(errs, err)
	}

	if c.DB.ConnectAttempts < 1 {
		errs = append(errs, errors.New("db connect attempts must be >= 1"))
	}

	switch c.Cache.Backend {
	case CacheMemory:
		if c.Cache.Shards < 1 {
			errs = append(errs, errors.New("cache shards must be >= 1"))
		}
	case CacheRedis:
		if c.Cache.RedisURL == "" {
			errs = append(errs, errors.New("redis cache backend requires REDIS_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported cache backend %q", c.Cache.Backend))
	}

	if !strings.HasPrefix(c.HTTP.BasePath, "/") {
		errs = append(errs, errors.New("http base path must start with '/'"))
	}

	return errors.Join(errs...)
}

// MustLoad — обёртка над Load с panic при ошибке.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load загружает конфигурацию по приоритету:
// 1) явный путь; 2) CONFIG_PATH; 3) ./local.yaml; 4) ENV.
// После загрузки конфигурация валидируется (см. Validate).
func Load(path string) (*Config, error) {
	cfg, err := load(path)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func load(path string) (*Config, error) {
	var cfg Config

	// чтение файла + overlay ENV.
	tryRead := func(p string) (*Config, error) {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	// 1) Явный путь.
	if path != "" {
		return tryRead(path)
	}

	// 2) CONFIG_PATH.
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return tryRead(envPath)
	}

	// 3) ./local.yaml.
	if _, err := os.Stat("local.yaml"); err == nil {
		return tryRead("local.yaml")
	}

	// 4) Только ENV.
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	return &cfg, nil
}
