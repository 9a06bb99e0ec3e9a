package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/bilemo/catalog-server/internal/pagination"
	"github.com/bilemo/catalog-server/internal/storage"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	API        APIConfig        `yaml:"api"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	NATS       NATSConfig       `yaml:"nats"`
	JWT        JWTConfig        `yaml:"jwt"`
	Log        LogConfig        `yaml:"log"`
	Pagination PaginationConfig `yaml:"pagination"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// APIConfig represents API configuration
type APIConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// BaseURL prefixes every hypermedia link
	BaseURL        string        `yaml:"base_url"`
	BodyLimit      int64         `yaml:"body_limit"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	CORSOrigins    []string      `yaml:"cors_origins"`
}

// Database drivers
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Driver          string        `yaml:"driver"`
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// RedisConfig represents Redis configuration
type RedisConfig struct {
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	KeyPrefix string        `yaml:"key_prefix"`
	TenantTTL time.Duration `yaml:"tenant_ttl"`
}

// NATSConfig represents NATS configuration
type NATSConfig struct {
	URL               string        `yaml:"url"`
	SubjectPrefix     string        `yaml:"subject_prefix"`
	Username          string        `yaml:"username"`
	Password          string        `yaml:"password"`
	MaxReconnects     int           `yaml:"max_reconnects"`
	ReconnectInterval time.Duration `yaml:"reconnect_interval"`
}

// JWTConfig represents JWT configuration
type JWTConfig struct {
	Secret          string        `yaml:"secret"`
	Issuer          string        `yaml:"issuer"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// PaginationConfig holds list defaults per resource type
type PaginationConfig struct {
	Users    ResourcePagination `yaml:"users"`
	Products ResourcePagination `yaml:"products"`
}

// ResourcePagination is the list default of one resource type
type ResourcePagination struct {
	Limit     *int   `yaml:"limit"`
	OrderBy   string `yaml:"order_by"`
	Direction string `yaml:"direction"`
}

// Load loads configuration from file
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration, applies environment overrides and
// defaults, then validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Apply environment overrides
	cfg.applyEnvOverrides()
	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// applyEnvOverrides applies environment variable overrides
func (c *Config) applyEnvOverrides() {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		c.Database.DSN = dsn
	}

	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		c.Redis.Addr = redisAddr
	}

	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		c.NATS.URL = natsURL
	}

	if jwtSecret := os.Getenv("JWT_SECRET"); jwtSecret != "" {
		c.JWT.Secret = jwtSecret
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.Log.Level = logLevel
	}

	if baseURL := os.Getenv("API_BASE_URL"); baseURL != "" {
		c.API.BaseURL = baseURL
	}
}

func (c *Config) setDefaults() {
	if c.Server.Name == "" {
		c.Server.Name = "catalog-server"
	}
	if c.API.Host == "" {
		c.API.Host = "0.0.0.0"
	}
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = fmt.Sprintf("http://localhost:%d", c.API.Port)
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	if c.API.BodyLimit == 0 {
		c.API.BodyLimit = 1 << 20
	}
	if c.API.RequestTimeout == 0 {
		c.API.RequestTimeout = 30 * time.Second
	}
	if len(c.API.CORSOrigins) == 0 {
		c.API.CORSOrigins = []string{"*"}
	}

	if c.Database.Driver == "" {
		c.Database.Driver = DriverPostgres
	}

	if c.Redis.TenantTTL == 0 {
		c.Redis.TenantTTL = 5 * time.Minute
	}

	if c.NATS.SubjectPrefix == "" {
		c.NATS.SubjectPrefix = "catalog"
	}
	if c.NATS.ReconnectInterval == 0 {
		c.NATS.ReconnectInterval = 2 * time.Second
	}
	if c.NATS.MaxReconnects == 0 {
		c.NATS.MaxReconnects = 60
	}

	if c.JWT.Issuer == "" {
		c.JWT.Issuer = c.Server.Name
	}
	if c.JWT.AccessTokenTTL == 0 {
		c.JWT.AccessTokenTTL = time.Hour
	}
	if c.JWT.RefreshTokenTTL == 0 {
		c.JWT.RefreshTokenTTL = 30 * 24 * time.Hour
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	c.Pagination.Users.fill(5, "lastName")
	c.Pagination.Products.fill(10, "name")
}

func (r *ResourcePagination) fill(limit int, orderBy string) {
	if r.Limit == nil {
		r.Limit = &limit
	}
	if r.OrderBy == "" {
		r.OrderBy = orderBy
	}
	if r.Direction == "" {
		r.Direction = string(pagination.Asc)
	}
}

// Validate checks the configuration
func (c *Config) Validate() error {
	var errs *multierror.Error

	if c.JWT.Secret == "" {
		errs = multierror.Append(errs, errors.New("jwt.secret is required"))
	}
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.DSN == "" {
			errs = multierror.Append(errs, errors.New("database.dsn is required for the postgres driver"))
		}
	case DriverMemory:
	default:
		errs = multierror.Append(errs, fmt.Errorf("unknown database.driver %q", c.Database.Driver))
	}
	if c.API.Port < 0 || c.API.Port > 65535 {
		errs = multierror.Append(errs, fmt.Errorf("api.port %d out of range", c.API.Port))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = multierror.Append(errs, fmt.Errorf("unknown log.format %q", c.Log.Format))
	}

	if _, err := c.UserPagination(); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("pagination.users: %w", err))
	}
	if _, err := c.ProductPagination(); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("pagination.products: %w", err))
	}

	return errs.ErrorOrNil()
}

// UserPagination returns the list defaults of users
func (c *Config) UserPagination() (pagination.Defaults, error) {
	return c.Pagination.Users.defaults(storage.UserColumns, storage.UserAliases)
}

// ProductPagination returns the list defaults of products
func (c *Config) ProductPagination() (pagination.Defaults, error) {
	return c.Pagination.Products.defaults(storage.ProductColumns, storage.ProductAliases)
}

func (r ResourcePagination) defaults(columns, aliases map[string]string) (pagination.Defaults, error) {
	dir, err := pagination.ParseDirection(r.Direction)
	if err != nil {
		return pagination.Defaults{}, err
	}
	d := pagination.Defaults{
		OrderBy:   r.OrderBy,
		Direction: dir,
		Sortable:  columns,
		Aliases:   aliases,
	}
	if r.Limit != nil {
		d.Limit = *r.Limit
	}
	if target, ok := aliases[d.OrderBy]; ok {
		d.OrderBy = target
	}
	if err := d.Validate(); err != nil {
		return pagination.Defaults{}, err
	}
	return d, nil
}

// Addr returns the API listen address
func (c *APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
