package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"panopticon-aggregator/internal/telemetry"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the full process configuration. It is built once at startup and
// handed to the components that need it.
type Config struct {
	Database    Database    `yaml:"database"`
	Aggregation Aggregation `yaml:"aggregation"`
	Server      Server      `yaml:"server"`
	Logging     Logging     `yaml:"logging"`
}

// Database holds the connection settings of the store that contains both
// the check-in tables and the aggregate table.
type Database struct {
	Driver string `yaml:"driver"` // postgres | sqlite
	// DSN, when set, is used verbatim and the discrete fields are ignored.
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	// Name is the database name, or the file path for sqlite.
	Name    string `yaml:"name"`
	SSLMode string `yaml:"sslmode"`

	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// Aggregation controls what is aggregated.
type Aggregation struct {
	// InitialDay is the first day ever aggregated (YYYY-MM-DD, UTC) when
	// the aggregate table is empty.
	InitialDay   string   `yaml:"initial_day"`
	SourceTables []string `yaml:"source_tables"`
}

// Server configures the read API started by the serve command.
type Server struct {
	// Addr is the listen address; empty disables the HTTP server.
	Addr string `yaml:"addr"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Database: Database{
			Driver:          "postgres",
			Host:            "localhost",
			Port:            5432,
			User:            "panopticon",
			Name:            "panopticon",
			SSLMode:         "disable",
			MaxOpenConns:    20,
			MaxIdleConns:    10,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Aggregation: Aggregation{
			InitialDay:   "2015-10-01",
			SourceTables: []string{telemetry.DefaultSourceTable},
		},
		Server: Server{
			Addr: ":8080",
		},
		Logging: Logging{
			Level:  "info",
			Format: "json",
		},
	}
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load starts from Default, overlays the YAML file at path (if path is not
// empty), applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Database.Driver = "postgres"
		cfg.Database.DSN = v
	}
	if v := os.Getenv("AGGREGATOR_DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("AGGREGATOR_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("AGGREGATOR_DB_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: AGGREGATOR_DB_PORT=%q", ErrInvalidConfig, v)
		}
		cfg.Database.Port = port
	}
	if v := os.Getenv("AGGREGATOR_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("AGGREGATOR_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("AGGREGATOR_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v, ok := os.LookupEnv("AGGREGATOR_HTTP_ADDR"); ok {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	return nil
}

// ---------------------------------------------------------------------------
// Validation and derived values
// ---------------------------------------------------------------------------

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("%w: database.driver %q (want postgres or sqlite)", ErrInvalidConfig, c.Database.Driver)
	}
	if c.Database.DSN == "" && c.Database.Name == "" {
		return fmt.Errorf("%w: database.name is required", ErrInvalidConfig)
	}

	if _, err := c.Aggregation.InitialDayUnix(); err != nil {
		return err
	}
	if len(c.Aggregation.SourceTables) == 0 {
		return fmt.Errorf("%w: aggregation.source_tables is empty", ErrInvalidConfig)
	}
	for _, t := range c.Aggregation.SourceTables {
		if !telemetry.ValidIdentifier(t) {
			return fmt.Errorf("%w: invalid source table %q", ErrInvalidConfig, t)
		}
		if t == telemetry.AggregateTable {
			return fmt.Errorf("%w: %s cannot be a source table", ErrInvalidConfig, t)
		}
	}

	switch strings.ToLower(c.Logging.Format) {
	case "", "json", "text":
	default:
		return fmt.Errorf("%w: logging.format %q (want json or text)", ErrInvalidConfig, c.Logging.Format)
	}
	return nil
}

// InitialDayUnix returns InitialDay as a UTC midnight in unix seconds.
func (a Aggregation) InitialDayUnix() (int64, error) {
	t, err := time.ParseInLocation(time.DateOnly, a.InitialDay, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("%w: aggregation.initial_day %q: want YYYY-MM-DD", ErrInvalidConfig, a.InitialDay)
	}
	return t.Unix(), nil
}

// DataSourceName returns the string handed to sql.Open.
func (d Database) DataSourceName() string {
	if d.DSN != "" {
		return d.DSN
	}
	if d.Driver == "sqlite" {
		return d.Name
	}

	parts := []string{
		"host=" + quoteDSN(d.Host),
		"port=" + strconv.Itoa(d.Port),
		"user=" + quoteDSN(d.User),
		"dbname=" + quoteDSN(d.Name),
	}
	if d.Password != "" {
		parts = append(parts, "password="+quoteDSN(d.Password))
	}
	if d.SSLMode != "" {
		parts = append(parts, "sslmode="+quoteDSN(d.SSLMode))
	}
	return strings.Join(parts, " ")
}

// quoteDSN quotes a libpq key/value setting when it is empty or contains
// spaces, quotes or backslashes.
func quoteDSN(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}
