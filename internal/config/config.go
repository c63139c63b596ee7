package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// 開発用のJWTシークレット（productionでは使わない）
const devJWTSecret = "dev_secret_change_me"

// Configはアプリ全体の設定
type Config struct {
	GoEnv string `env:"GO_ENV" envDefault:"development"` // development/production/test
	Port  string `env:"PORT" envDefault:"8080"`           // サーバーポート

	DB       DBConfig
	JWT      JWTConfig
	Cookie   CookieConfig
	Redis    RedisConfig
	OAuth    OAuthConfig
	HTTP     HTTPConfig
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	OTELEndpoint string `env:"OTEL_ENDPOINT"` // 空ならトレースしない
}

// DB接続設定
type DBConfig struct {
	Driver      string `env:"DB_DRIVER" envDefault:"postgres"` // postgres/sqlite
	DatabaseURL string `env:"DATABASE_URL"`
	Host        string `env:"POSTGRES_HOST" envDefault:"localhost"`
	Port        int    `env:"POSTGRES_PORT" envDefault:"5432"`
	User        string `env:"POSTGRES_USER" envDefault:"postgres"`
	Password    string `env:"POSTGRES_PASSWORD" envDefault:"postgres"`
	Name        string `env:"POSTGRES_DB" envDefault:"authgate"`
	SSLMode     string `env:"POSTGRES_SSLMODE" envDefault:"disable"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"authgate.db"`
}

// トークン設定
type JWTConfig struct {
	Secret    string        `env:"JWT_SECRET"`
	AccessTTL time.Duration `env:"JWT_EXPIRES_IN" envDefault:"15m"`
	// 7d / 12h 形式。解釈できなければ7日。
	RefreshTTL  string `env:"REFRESH_TOKEN_EXPIRES_IN" envDefault:"7d"`
	RotateOnUse bool   `env:"REFRESH_ROTATE_ON_USE" envDefault:"false"`
}

type CookieConfig struct {
	// 未指定ならproductionのときだけtrue
	Secure string `env:"COOKIE_SECURE"`
}

type RedisConfig struct {
	URL        string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`
}

type OAuthConfig struct {
	GitHubClientID     string `env:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string `env:"GITHUB_CLIENT_SECRET"`
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	CallbackURL        string `env:"CALLBACK_URL"` // 例: http://localhost:8080/auth/callback
	FrontendURL        string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
}

type HTTPConfig struct {
	CORSAllowOrigins []string      `env:"CORS_ALLOW_ORIGINS" envSeparator:","`
	RateLimitWindow  time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"15m"`
	RateLimitMax     int           `env:"RATE_LIMIT_MAX" envDefault:"100"`
}

// Loadは.env（あれば）と環境変数から設定を作る
func Load() (Config, error) {
	// .envは任意。無ければ環境変数だけで動く
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parseは環境変数だけから設定を作る
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.GoEnv = strings.ToLower(strings.TrimSpace(cfg.GoEnv))
	if cfg.OAuth.CallbackURL == "" {
		cfg.OAuth.CallbackURL = "http://localhost:" + strings.TrimPrefix(cfg.Port, ":") + "/auth/callback"
	}
	if len(cfg.HTTP.CORSAllowOrigins) == 0 && cfg.OAuth.FrontendURL != "" {
		cfg.HTTP.CORSAllowOrigins = []string{cfg.OAuth.FrontendURL}
	}
	if cfg.JWT.Secret == "" && !cfg.IsProduction() {
		cfg.JWT.Secret = devJWTSecret
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// 必須チェック
func (c Config) validate() error {
	switch c.GoEnv {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		return fmt.Errorf("GO_ENV must be one of development/production/test")
	}
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.IsProduction() && c.JWT.Secret == devJWTSecret {
		return fmt.Errorf("JWT_SECRET must be changed in production")
	}
	if c.JWT.AccessTTL <= 0 {
		return fmt.Errorf("JWT_EXPIRES_IN must be positive")
	}
	switch c.DB.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite")
	}
	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}
	if c.HTTP.RateLimitMax <= 0 {
		return fmt.Errorf("RATE_LIMIT_MAX must be positive")
	}
	return nil
}

func (c Config) IsProduction() bool {
	return c.GoEnv == EnvProduction
}

// CookieSecureはrefresh/session cookieにSecureを付けるか
func (c Config) CookieSecure() bool {
	if v, err := strconv.ParseBool(c.Cookie.Secure); err == nil {
		return v
	}
	return c.IsProduction()
}

// Addrはecho.Startに渡すアドレス
func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// PostgresDSNはDATABASE_URLを優先してDSNを返す
func (c DBConfig) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}
