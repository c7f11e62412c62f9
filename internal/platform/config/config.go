package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	envDatabaseHost     = "TIMESHEET_DB_HOST"
	envDatabasePassword = "TIMESHEET_DB_PASSWORD"
	envListenAddr       = "TIMESHEET_LISTEN_ADDR"

	defaultRequestTimeout = 30 * time.Second
	defaultHolidayRegion  = "DE"
)

// Config はアプリケーション全体の設定を表現します。
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Holidays HolidayConfig  `yaml:"holidays"`
}

// ServerConfig は HTTP API とヘルスチェック用 gRPC サーバーに関する設定です。
type ServerConfig struct {
	ListenAddr         string        `yaml:"listen_addr"`
	HealthAddr         string        `yaml:"health_addr"`
	CORSAllowedOrigins []string      `yaml:"cors_allowed_origins"`
	RequestTimeout     time.Duration `yaml:"-"`
	RequestTimeoutRaw  string        `yaml:"request_timeout"`
}

// DatabaseConfig は PostgreSQL 接続に関する設定です。
type DatabaseConfig struct {
	Host                string        `yaml:"host"`
	Port                int           `yaml:"port"`
	User                string        `yaml:"user"`
	Password            string        `yaml:"password"`
	Name                string        `yaml:"name"`
	SSLMode             string        `yaml:"ssl_mode"`
	MaxOpenConns        int           `yaml:"max_open_conns"`
	MaxIdleConns        int           `yaml:"max_idle_conns"`
	ConnMaxLifetime     time.Duration `yaml:"-"`
	ConnMaxIdleTime     time.Duration `yaml:"-"`
	ConnectTimeout      time.Duration `yaml:"-"`
	StatementTimeout    time.Duration `yaml:"-"`
	ConnMaxLifetimeRaw  string        `yaml:"conn_max_lifetime"`
	ConnMaxIdleTimeRaw  string        `yaml:"conn_max_idle_time"`
	ConnectTimeoutRaw   string        `yaml:"connect_timeout"`
	StatementTimeoutRaw string        `yaml:"statement_timeout"`
}

// HolidayConfig は祝日カレンダーの設定です。
type HolidayConfig struct {
	Region string `yaml:"region"`
}

// Load は指定されたパスから設定ファイルを読み込みます。
// カレントディレクトリに .env があれば先に読み込み、環境変数で一部の値を上書きします。
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := cfg.applyEnvOverrides(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.validateAndNormalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyEnvOverrides(lookup func(string) (string, bool)) error {
	if v, ok := lookup(envDatabaseHost); ok && strings.TrimSpace(v) != "" {
		host, port, err := net.SplitHostPort(v)
		if err != nil {
			c.Database.Host = strings.TrimSpace(v)
		} else {
			p, err := strconv.Atoi(port)
			if err != nil {
				return fmt.Errorf("config: %s: invalid port %q", envDatabaseHost, port)
			}
			c.Database.Host = host
			c.Database.Port = p
		}
	}
	if v, ok := lookup(envDatabasePassword); ok && v != "" {
		c.Database.Password = v
	}
	if v, ok := lookup(envListenAddr); ok && strings.TrimSpace(v) != "" {
		c.Server.ListenAddr = strings.TrimSpace(v)
	}
	return nil
}

func (c *Config) validateAndNormalize() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("config: server.listen_addr must be set")
	}

	timeout, err := parseDurationAllowEmpty(c.Server.RequestTimeoutRaw)
	if err != nil {
		return fmt.Errorf("config: server.request_timeout: %w", err)
	}
	if timeout == 0 {
		timeout = defaultRequestTimeout
	}
	c.Server.RequestTimeout = timeout

	db := &c.Database
	if err := db.validateAndNormalize(); err != nil {
		return err
	}

	c.Holidays.Region = strings.ToUpper(strings.TrimSpace(c.Holidays.Region))
	if c.Holidays.Region == "" {
		c.Holidays.Region = defaultHolidayRegion
	}

	return nil
}

func (d *DatabaseConfig) validateAndNormalize() error {
	if d.Host == "" {
		return fmt.Errorf("config: database.host must be set")
	}
	if d.Port == 0 {
		return fmt.Errorf("config: database.port must be set")
	}
	if d.User == "" {
		return fmt.Errorf("config: database.user must be set")
	}
	if d.Password == "" {
		return fmt.Errorf("config: database.password must be set")
	}
	if d.Name == "" {
		return fmt.Errorf("config: database.name must be set")
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}

	durations := []struct {
		field string
		raw   string
		dst   *time.Duration
	}{
		{"conn_max_lifetime", d.ConnMaxLifetimeRaw, &d.ConnMaxLifetime},
		{"conn_max_idle_time", d.ConnMaxIdleTimeRaw, &d.ConnMaxIdleTime},
		{"connect_timeout", d.ConnectTimeoutRaw, &d.ConnectTimeout},
		{"statement_timeout", d.StatementTimeoutRaw, &d.StatementTimeout},
	}
	for _, f := range durations {
		v, err := parseDurationAllowEmpty(f.raw)
		if err != nil {
			return fmt.Errorf("config: database.%s: %w", f.field, err)
		}
		*f.dst = v
	}

	return nil
}

func parseDurationAllowEmpty(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	return d, nil
}

// DSN は pgx および golang-migrate 用の接続文字列を返します。
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}
