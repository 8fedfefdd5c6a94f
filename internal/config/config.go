package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config はゲートウェイの設定。起動時に一度だけ読み込み、以降は変更しない。
type Config struct {
	// Port はリッスンポート。
	Port string `env:"PORT" envDefault:"8000"`
	// Environment は実行環境。production以外は開発モードとして扱う。
	Environment string `env:"NODE_ENV" envDefault:"development"`

	// APIURL はバックエンドAPIのベースURL。
	APIURL string `env:"API_URL"`
	// APIKeyToken はバックエンドが発行するトークンのスコープを決めるAPIキー。
	APIKeyToken string `env:"API_KEY_TOKEN"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleIssuerURL    string `env:"GOOGLE_ISSUER_URL" envDefault:"https://accounts.google.com"`
	GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URL" envDefault:"http://localhost:8000/auth/google-oauth/callback"`

	// ClientURL はOAuth2ログイン後にリダイレクトするフロントエンドのURL。
	ClientURL string `env:"CLIENT_URL" envDefault:"http://localhost:8080"`
	// CORSOrigins は資格情報付きのクロスオリジンリクエストを許可するオリジン。
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"https://rexguzman.github.io,http://localhost:8080"`

	BackendTimeout  time.Duration `env:"BACKEND_TIMEOUT" envDefault:"10s"`
	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// LogLevel はdebug, info, warn, errorのいずれか。
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load は環境変数から設定を読み込む。
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("環境変数の読み込みに失敗: %w", err)
	}
	return finish(cfg)
}

// LoadFrom は与えられた変数の組から設定を読み込む。プロセスの環境変数は参照しない。
func LoadFrom(vars map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("環境変数の読み込みに失敗: %w", err)
	}
	return finish(cfg)
}

func finish(cfg Config) (Config, error) {
	cfg.APIURL = strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	cfg.ClientURL = strings.TrimRight(strings.TrimSpace(cfg.ClientURL), "/")
	cfg.CORSOrigins = trimList(cfg.CORSOrigins)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var errs []error

	if c.APIURL == "" {
		errs = append(errs, errors.New("API_URL が設定されていません"))
	} else if err := validateHTTPURL(c.APIURL); err != nil {
		errs = append(errs, fmt.Errorf("API_URL が不正です: %w", err))
	}
	if err := validateHTTPURL(c.ClientURL); err != nil {
		errs = append(errs, fmt.Errorf("CLIENT_URL が不正です: %w", err))
	}

	if (c.GoogleClientID == "") != (c.GoogleClientSecret == "") {
		errs = append(errs, errors.New("GOOGLE_CLIENT_ID と GOOGLE_CLIENT_SECRET は両方設定してください"))
	}
	if c.GoogleEnabled() {
		if err := validateHTTPURL(c.GoogleIssuerURL); err != nil {
			errs = append(errs, fmt.Errorf("GOOGLE_ISSUER_URL が不正です: %w", err))
		}
		if err := validateHTTPURL(c.GoogleRedirectURL); err != nil {
			errs = append(errs, fmt.Errorf("GOOGLE_REDIRECT_URL が不正です: %w", err))
		}
	}

	if c.BackendTimeout <= 0 {
		errs = append(errs, errors.New("BACKEND_TIMEOUT は正の値を指定してください"))
	}
	if c.ProviderTimeout <= 0 {
		errs = append(errs, errors.New("PROVIDER_TIMEOUT は正の値を指定してください"))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// DevMode は開発モードかどうかを返す。開発モードではCookieのHttpOnlyとSecureを外す。
func (c Config) DevMode() bool {
	return c.Environment != "production"
}

// GoogleEnabled はGoogleによるOAuth2ログインが設定されているかを返す。
func (c Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// Addr はhttp.Serverに渡すリッスンアドレスを返す。
func (c Config) Addr() string {
	return ":" + c.Port
}

// SlogLevel はLogLevelをslog.Levelに変換する。
func (c Config) SlogLevel() slog.Level {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL が不正です: %q", s)
	}
	return level, nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("スキームはhttpまたはhttpsである必要があります: %q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("ホストがありません: %q", raw)
	}
	return nil
}

func trimList(values []string) []string {
	result := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}
	return result
}
