// pkg/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix    = "LOGISTICS_"
	configEnvVar = "CONFIG_PATH"
)

// Loader загружает конфигурацию из разных источников
type Loader struct {
	k           *koanf.Koanf
	configPaths []string
	envPrefix   string
}

// NewLoader создаёт новый загрузчик конфигурации
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		k: koanf.New("."),
		configPaths: []string{
			"config.yaml",
			"config/config.yaml",
			"/etc/logistics/config.yaml",
		},
		envPrefix: envPrefix,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// LoaderOption - опция для конфигурации загрузчика
type LoaderOption func(*Loader)

// WithConfigPaths устанавливает пути поиска конфигурации
func WithConfigPaths(paths ...string) LoaderOption {
	return func(l *Loader) {
		l.configPaths = paths
	}
}

// WithEnvPrefix устанавливает префикс переменных окружения
func WithEnvPrefix(prefix string) LoaderOption {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// Load загружает конфигурацию с приоритетом:
// 1. Defaults (самый низкий)
// 2. Config file (yaml)
// 3. LOGISTICS_-prefixed environment variables
// 4. The spec's unprefixed legacy environment variable names (самый высокий)
func (l *Loader) Load() (*Config, error) {
	if err := l.loadDefaults(); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := l.loadConfigFile(); err != nil {
		fmt.Printf("Warning: %v\n", err)
	}

	if err := l.loadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}

	if err := l.loadLegacyEnv(); err != nil {
		return nil, fmt.Errorf("failed to load legacy env: %w", err)
	}

	var cfg Config
	if err := l.k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadDefaults загружает значения по умолчанию
func (l *Loader) loadDefaults() error {
	defaults := map[string]any{
		// App
		"app.name":        "routing-svc",
		"app.version":     "1.0.0",
		"app.environment": "development",
		"app.debug":       false,

		// HTTP
		"http.port":                   8080,
		"http.read_timeout":           30 * time.Second,
		"http.write_timeout":          30 * time.Second,
		"http.shutdown_timeout":       10 * time.Second,
		"http.cors.enabled":           true,
		"http.cors.allowed_origins":   []string{"*"},
		"http.cors.allowed_methods":   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		"http.cors.allowed_headers":   []string{"*"},
		"http.cors.allow_credentials": false,
		"http.cors.max_age":           86400,

		// Log
		"log.level":       "info",
		"log.format":      "json",
		"log.output":      "stdout",
		"log.max_size":    100,
		"log.max_backups": 3,
		"log.max_age":     7,
		"log.compress":    true,

		// Metrics
		"metrics.enabled":   true,
		"metrics.path":      "/metrics",
		"metrics.namespace": "logistics",
		"metrics.subsystem": "routing",

		// Tracing
		"tracing.enabled":      false,
		"tracing.endpoint":     "localhost:4317",
		"tracing.service_name": "routing-svc",
		"tracing.sample_rate":  0.1,

		// Database
		"database.driver":             "postgres",
		"database.host":               "localhost",
		"database.port":               5432,
		"database.database":           "logistics",
		"database.username":           "postgres",
		"database.password":           "",
		"database.ssl_mode":           "disable",
		"database.max_open_conns":     10,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  5 * time.Minute,
		"database.conn_max_idle_time": 5 * time.Minute,
		"database.auto_migrate":       true,

		// Queue (Redis broker)
		"queue.host":               "localhost",
		"queue.port":               6379,
		"queue.db":                 1,
		"queue.pool_size":          10,
		"queue.task_name":          "optimization.run",
		"queue.visibility_timeout": 120 * time.Second,
		"queue.max_retries":        2,
		"queue.result_ttl":         24 * time.Hour,

		// Cache
		"cache.enabled":     true,
		"cache.driver":      "redis",
		"cache.host":        "localhost",
		"cache.port":        6379,
		"cache.db":          0,
		"cache.default_ttl": 5 * time.Minute,
		"cache.max_entries": 10000,

		// Rate Limit
		"rate_limit.enabled":          true,
		"rate_limit.requests":         100,
		"rate_limit.window":           time.Minute,
		"rate_limit.strategy":         "sliding_window",
		"rate_limit.backend":          "memory",
		"rate_limit.burst_size":       10,
		"rate_limit.cleanup_interval": 5 * time.Minute,

		// Audit
		"audit.enabled":      true,
		"audit.backend":      "stdout",
		"audit.buffer_size":  1000,
		"audit.flush_period": 5 * time.Second,

		// Swagger
		"swagger.enabled": true,
		"swagger.title":   "Cold-Chain Routing API",

		// JWT
		"jwt.secret_key":            "",
		"jwt.issuer":                "routing-svc",
		"jwt.access_token_expiry":   24 * time.Hour, // ACCESS_TOKEN_EXPIRE_MINUTES default 1440
		"jwt.refresh_token_expiry":  7 * 24 * time.Hour,

		// Solver
		"solver.default_time_limit_seconds":     300,
		"solver.default_ambient_temperature":    30.0,
		"solver.default_initial_vehicle_temp":   -5.0,
		"solver.temp_violation_penalty":         100000,
		"solver.late_delivery_penalty":          1000,
		"solver.vehicle_fixed_cost":             50000,
		"solver.distance_cost_per_km":           10,
		"solver.infeasible_cost":                10000000,
		"solver.average_speed_kmh":               30,
		"solver.progress_update_interval_seconds": 10,
		"solver.retry_max_attempts":              2,

		// Depot
		"depot.latitude":  0.0,
		"depot.longitude": 0.0,
		"depot.address":   "",
	}

	return l.k.Load(confmap.Provider(defaults, "."), nil)
}

// loadConfigFile загружает конфигурацию из файла
func (l *Loader) loadConfigFile() error {
	if configPath := os.Getenv(configEnvVar); configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return l.k.Load(file.Provider(configPath), yaml.Parser())
		}
	}

	for _, path := range l.configPaths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			continue
		}

		if _, err := os.Stat(absPath); err == nil {
			return l.k.Load(file.Provider(absPath), yaml.Parser())
		}
	}

	return fmt.Errorf("config file not found in paths: %v", l.configPaths)
}

// loadEnv загружает конфигурацию из переменных окружения с префиксом LOGISTICS_
func (l *Loader) loadEnv() error {
	return l.k.Load(env.Provider(l.envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(
				strings.TrimPrefix(s, l.envPrefix),
			),
			"_", ".",
		)
	}), nil)
}

// loadLegacyEnv binds the exact environment variable names spec.md §6 names
// directly, since they predate the LOGISTICS_ prefix convention and take the
// highest precedence of any source. DATABASE_URL and REDIS_URL are loaded into
// keys that no Config field maps, so they have no effect on the result.
func (l *Loader) loadLegacyEnv() error {
	type binding struct {
		env  string
		path string
		kind string // "string", "int", "float", "duration-minutes"
	}
	bindings := []binding{
		{"DATABASE_URL", "database._dsn_override", "string"},
		{"REDIS_URL", "queue._url_override", "string"},
		{"SECRET_KEY", "jwt.secret_key", "string"},
		{"ACCESS_TOKEN_EXPIRE_MINUTES", "jwt.access_token_expiry", "duration-minutes"},
		{"DB_POOL_SIZE", "database.max_open_conns", "int"},
		{"DB_MAX_OVERFLOW", "database.max_idle_conns", "int"},
		{"DEFAULT_SOLVER_TIME_LIMIT", "solver.default_time_limit_seconds", "int"},
		{"DEFAULT_AMBIENT_TEMPERATURE", "solver.default_ambient_temperature", "float"},
		{"DEFAULT_INITIAL_VEHICLE_TEMP", "solver.default_initial_vehicle_temp", "float"},
		{"DEFAULT_DEPOT_LATITUDE", "depot.latitude", "float"},
		{"DEFAULT_DEPOT_LONGITUDE", "depot.longitude", "float"},
		{"DEFAULT_DEPOT_ADDRESS", "depot.address", "string"},
		{"TEMP_VIOLATION_PENALTY", "solver.temp_violation_penalty", "int"},
		{"LATE_DELIVERY_PENALTY", "solver.late_delivery_penalty", "int"},
		{"VEHICLE_FIXED_COST", "solver.vehicle_fixed_cost", "int"},
		{"DISTANCE_COST_PER_KM", "solver.distance_cost_per_km", "int"},
		{"AVERAGE_SPEED_KMH", "solver.average_speed_kmh", "int"},
		{"INFEASIBLE_COST", "solver.infeasible_cost", "int"},
	}

	overrides := map[string]any{}
	for _, b := range bindings {
		raw, ok := os.LookupEnv(b.env)
		if !ok || raw == "" {
			continue
		}
		switch b.kind {
		case "int":
			if v, err := strconv.Atoi(raw); err == nil {
				overrides[b.path] = v
			}
		case "float":
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				overrides[b.path] = v
			}
		case "duration-minutes":
			if v, err := strconv.Atoi(raw); err == nil {
				overrides[b.path] = time.Duration(v) * time.Minute
			}
		default:
			overrides[b.path] = raw
		}
	}

	if len(overrides) == 0 {
		return nil
	}
	return l.k.Load(confmap.Provider(overrides, "."), nil)
}

// MustLoad загружает конфигурацию или паникует
func MustLoad(opts ...LoaderOption) *Config {
	cfg, err := NewLoader(opts...).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// Load - удобная функция для загрузки с дефолтными настройками
func Load() (*Config, error) {
	return NewLoader().Load()
}

// LoadWithServiceDefaults загружает конфигурацию с переопределением для конкретного сервиса
func LoadWithServiceDefaults(serviceName string, defaultPort int) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	if cfg.HTTP.Port == 8080 && defaultPort != 0 {
		cfg.HTTP.Port = defaultPort
	}

	if cfg.App.Name == "routing-svc" {
		cfg.App.Name = serviceName
	}

	return cfg, nil
}
