// Package config provides configuration loading and management for keysync.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/adhocore/gronx"
	"gopkg.in/yaml.v3"

	"github.com/stacklok/keysync/internal/detection"
	"github.com/stacklok/keysync/internal/telemetry"
)

const (
	// StorageDriverSQLite stores packages in a local SQLite file
	StorageDriverSQLite = "sqlite"

	// StorageDriverPostgres stores packages in PostgreSQL
	StorageDriverPostgres = "postgres"
)

// Defaults applied to unset fields
const (
	DefaultDataDir                = "./data"
	DefaultRetentionDays          = 14
	DefaultHourCap                = 3
	DefaultMaterializeConcurrency = 4
	DefaultRemoteTimeout          = 30 * time.Second
	DefaultDetectionValidity      = 24 * time.Hour
	DefaultDetectionInterval      = 24 * time.Hour
	DefaultTestResultsInterval    = 2 * time.Hour
	DefaultTaskDeadline           = 30 * time.Second
	DefaultTaskMinDelay           = time.Second
	DefaultServerAddress          = ":8080"
	DefaultSQLiteFile             = "packages.db"
)

// EnvPrefix is the prefix of environment variables read by keysync
const EnvPrefix = "KEYSYNC"

// PasswordEnvVar is consulted when no password file is configured
const PasswordEnvVar = "KEYSYNC_DATABASE_PASSWORD"

var regionPattern = regexp.MustCompile(`^[A-Z]{2,3}$`)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		// Validate the path to prevent path traversal attacks
		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	// Regions are the country codes whose key packages are kept in sync
	Regions   []string          `yaml:"regions"`
	Sync      SyncConfig        `yaml:"sync,omitempty"`
	Remote    RemoteConfig      `yaml:"remote"`
	Storage   StorageConfig     `yaml:"storage,omitempty"`
	Detection DetectionConfig   `yaml:"detection,omitempty"`
	Tasks     TasksConfig       `yaml:"tasks,omitempty"`
	Server    ServerConfig      `yaml:"server,omitempty"`
	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`
}

// SyncConfig controls what is fetched and how much is kept
type SyncConfig struct {
	// HourlyFetching also fetches today's hour packages and detects on them
	HourlyFetching bool `yaml:"hourlyFetching,omitempty"`

	// RetentionDays is the number of most recent days kept per region
	RetentionDays int `yaml:"retentionDays,omitempty"`

	// HourCap bounds the hour packages used for detection
	HourCap int `yaml:"hourCap,omitempty"`

	// MaterializeConcurrency is the number of package files written in parallel
	MaterializeConcurrency int `yaml:"materializeConcurrency,omitempty"`

	// DataDir holds the status files, the lock file and the default SQLite database
	DataDir string `yaml:"dataDir,omitempty"`
}

// RemoteConfig defines the key server
type RemoteConfig struct {
	// BaseURL is the key server URL, for example https://svc90.main.px.t-online.de
	BaseURL string `yaml:"baseURL"`

	// Timeout is the per request timeout (e.g., "30s")
	Timeout string `yaml:"timeout,omitempty"`

	// MaxResponseSize bounds a single response body in bytes
	MaxResponseSize int64 `yaml:"maxResponseSize,omitempty"`

	// ConfigurationRegion is the region whose detection configuration is downloaded.
	// Defaults to the first configured region.
	ConfigurationRegion string `yaml:"configurationRegion,omitempty"`
}

// StorageConfig selects the package store backend
type StorageConfig struct {
	// Driver is sqlite (default) or postgres
	Driver   string          `yaml:"driver,omitempty"`
	SQLite   SQLiteConfig    `yaml:"sqlite,omitempty"`
	Postgres *DatabaseConfig `yaml:"postgres,omitempty"`
}

// SQLiteConfig defines the SQLite database file
type SQLiteConfig struct {
	// Path defaults to <dataDir>/packages.db
	Path string `yaml:"path,omitempty"`
}

// DatabaseConfig defines database connection settings
type DatabaseConfig struct {
	// Host is the database server hostname or IP address
	Host string `yaml:"host"`

	// Port is the database server port
	Port int `yaml:"port"`

	// User is the database username
	User string `yaml:"user"`

	// PasswordFile is the path to a file containing the database password
	// This is the recommended approach for production deployments
	// The file should contain only the password with optional trailing whitespace
	PasswordFile string `yaml:"passwordFile,omitempty"`

	// Database is the database name
	Database string `yaml:"database"`

	// SSLMode is the SSL mode for the connection (disable, require, verify-ca, verify-full)
	SSLMode string `yaml:"sslMode,omitempty"`

	// MaxConns is the maximum number of connections in the pool
	MaxConns int32 `yaml:"maxConns,omitempty"`
}

// DetectionConfig defines the detection policy and engine
type DetectionConfig struct {
	// Mode is automatic (default) or manual
	Mode string `yaml:"mode,omitempty"`

	// Validity is how long a successful detection stays valid (e.g., "24h")
	Validity string `yaml:"validity,omitempty"`

	// Interval is the minimum time between two detections (e.g., "24h")
	Interval string `yaml:"interval,omitempty"`

	// Command is the detector executable followed by its arguments.
	// Without it detection reports an empty summary.
	Command []string `yaml:"command,omitempty"`
}

// TasksConfig defines the background task timing
type TasksConfig struct {
	// DetectionInterval is the earliest gap between detection task firings. Empty means as soon as possible.
	DetectionInterval string `yaml:"detectionInterval,omitempty"`

	// DetectionCron overrides DetectionInterval
	DetectionCron string `yaml:"detectionCron,omitempty"`

	// TestResultsInterval is the earliest gap between sync-only firings
	TestResultsInterval string `yaml:"testResultsInterval,omitempty"`

	// TestResultsCron overrides TestResultsInterval
	TestResultsCron string `yaml:"testResultsCron,omitempty"`

	// Deadline is the run budget granted to each firing
	Deadline string `yaml:"deadline,omitempty"`

	// MinDelay is the earliest a task may fire after being submitted, including "as soon as possible" requests
	MinDelay string `yaml:"minDelay,omitempty"`
}

// ServerConfig defines the HTTP status server
type ServerConfig struct {
	Address string `yaml:"address,omitempty"`
}

// GetPassword returns the database password using the following priority:
// 1. Read from PasswordFile if specified
// 2. Read from KEYSYNC_DATABASE_PASSWORD environment variable
//
// The password from file will have leading/trailing whitespace trimmed.
func (d *DatabaseConfig) GetPassword() (string, error) {
	if d.PasswordFile != "" {
		// Use filepath.Clean to prevent path traversal attacks
		cleanPath := filepath.Clean(d.PasswordFile)

		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to read password from file %s: %w", d.PasswordFile, err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	if envPassword := os.Getenv(PasswordEnvVar); envPassword != "" {
		return envPassword, nil
	}

	return "", fmt.Errorf(
		"no database password configured: set passwordFile or %s environment variable", PasswordEnvVar,
	)
}

// GetConnectionString builds a PostgreSQL connection string with proper password handling.
// The password is URL-escaped to handle special characters safely.
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	password, err := d.GetPassword()
	if err != nil {
		return "", err
	}

	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(d.User),
		url.QueryEscape(password),
		d.Host,
		d.Port,
		d.Database,
		sslMode,
	), nil
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	config.setDefaults()
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults fills every unset field that has a default
func (c *Config) setDefaults() {
	if c.Sync.RetentionDays == 0 {
		c.Sync.RetentionDays = DefaultRetentionDays
	}
	if c.Sync.HourCap == 0 {
		c.Sync.HourCap = DefaultHourCap
	}
	if c.Sync.MaterializeConcurrency == 0 {
		c.Sync.MaterializeConcurrency = DefaultMaterializeConcurrency
	}
	if c.Sync.DataDir == "" {
		c.Sync.DataDir = DefaultDataDir
	}
	if c.Remote.ConfigurationRegion == "" && len(c.Regions) > 0 {
		c.Remote.ConfigurationRegion = c.Regions[0]
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = StorageDriverSQLite
	}
	if c.Storage.Driver == StorageDriverSQLite && c.Storage.SQLite.Path == "" {
		c.Storage.SQLite.Path = filepath.Join(c.Sync.DataDir, DefaultSQLiteFile)
	}
	if c.Server.Address == "" {
		c.Server.Address = DefaultServerAddress
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := validateRegions(c.Regions); err != nil {
		return err
	}
	if err := c.validateSync(); err != nil {
		return err
	}
	if err := c.validateRemote(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateDetection(); err != nil {
		return err
	}
	if err := c.validateTasks(); err != nil {
		return err
	}
	if c.Telemetry != nil {
		if err := c.Telemetry.Validate(); err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
	}
	return nil
}

func validateRegions(regions []string) error {
	if len(regions) == 0 {
		return fmt.Errorf("at least one region must be configured")
	}
	seen := make(map[string]bool, len(regions))
	for i, region := range regions {
		if !regionPattern.MatchString(region) {
			return fmt.Errorf("regions[%d]: '%s' must be an upper-case country code", i, region)
		}
		if seen[region] {
			return fmt.Errorf("regions[%d]: duplicate region '%s'", i, region)
		}
		seen[region] = true
	}
	return nil
}

func (c *Config) validateSync() error {
	if c.Sync.RetentionDays < 1 {
		return fmt.Errorf("sync.retentionDays must be positive")
	}
	if c.Sync.HourCap < 1 {
		return fmt.Errorf("sync.hourCap must be positive")
	}
	if c.Sync.MaterializeConcurrency < 1 {
		return fmt.Errorf("sync.materializeConcurrency must be positive")
	}
	return nil
}

func (c *Config) validateRemote() error {
	if c.Remote.BaseURL == "" {
		return fmt.Errorf("remote.baseURL is required")
	}
	u, err := url.Parse(c.Remote.BaseURL)
	if err != nil {
		return fmt.Errorf("remote.baseURL is invalid: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("remote.baseURL must use http or https, got '%s'", u.Scheme)
	}
	if err := validateDuration("remote.timeout", c.Remote.Timeout); err != nil {
		return err
	}
	if c.Remote.MaxResponseSize < 0 {
		return fmt.Errorf("remote.maxResponseSize must not be negative")
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Driver {
	case StorageDriverSQLite:
		return nil
	case StorageDriverPostgres:
		pg := c.Storage.Postgres
		if pg == nil {
			return fmt.Errorf("storage.postgres is required when driver is '%s'", StorageDriverPostgres)
		}
		if pg.Host == "" || pg.User == "" || pg.Database == "" {
			return fmt.Errorf("storage.postgres: host, user and database are required")
		}
		if pg.Port <= 0 {
			return fmt.Errorf("storage.postgres.port must be positive")
		}
		return nil
	default:
		return fmt.Errorf("storage.driver must be '%s' or '%s', got '%s'",
			StorageDriverSQLite, StorageDriverPostgres, c.Storage.Driver)
	}
}

func (c *Config) validateDetection() error {
	if _, err := detection.ParseMode(c.Detection.Mode); err != nil {
		return fmt.Errorf("detection.mode: %w", err)
	}
	if err := validateDuration("detection.validity", c.Detection.Validity); err != nil {
		return err
	}
	return validateDuration("detection.interval", c.Detection.Interval)
}

func (c *Config) validateTasks() error {
	for field, value := range map[string]string{
		"tasks.detectionInterval":   c.Tasks.DetectionInterval,
		"tasks.testResultsInterval": c.Tasks.TestResultsInterval,
		"tasks.deadline":            c.Tasks.Deadline,
		"tasks.minDelay":            c.Tasks.MinDelay,
	} {
		if err := validateDuration(field, value); err != nil {
			return err
		}
	}

	for field, expr := range map[string]string{
		"tasks.detectionCron":   c.Tasks.DetectionCron,
		"tasks.testResultsCron": c.Tasks.TestResultsCron,
	} {
		if expr != "" && !gronx.IsValid(expr) {
			return fmt.Errorf("%s: invalid cron expression '%s'", field, expr)
		}
	}
	return nil
}

// validateDuration accepts empty values and positive durations
func validateDuration(field, value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s must be a valid duration (e.g., '30m', '1h'): %w", field, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s must be positive", field)
	}
	return nil
}

// durationOr parses value, returning fallback when it is empty or invalid
func durationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// GetRemoteTimeout returns the per request timeout
func (c *Config) GetRemoteTimeout() time.Duration {
	return durationOr(c.Remote.Timeout, DefaultRemoteTimeout)
}

// GetDetectionPolicy returns the detection timing policy
func (c *Config) GetDetectionPolicy() detection.Policy {
	mode, err := detection.ParseMode(c.Detection.Mode)
	if err != nil {
		mode = detection.ModeAutomatic
	}
	return detection.Policy{
		Validity: durationOr(c.Detection.Validity, DefaultDetectionValidity),
		Interval: durationOr(c.Detection.Interval, DefaultDetectionInterval),
		Mode:     mode,
	}
}

// GetDetectionTaskInterval returns the detection task interval, zero when unset
func (c *Config) GetDetectionTaskInterval() time.Duration {
	return durationOr(c.Tasks.DetectionInterval, 0)
}

// GetTestResultsInterval returns the sync-only task interval
func (c *Config) GetTestResultsInterval() time.Duration {
	return durationOr(c.Tasks.TestResultsInterval, DefaultTestResultsInterval)
}

// GetTaskDeadline returns the run budget of a single firing
func (c *Config) GetTaskDeadline() time.Duration {
	return durationOr(c.Tasks.Deadline, DefaultTaskDeadline)
}

// GetTaskMinDelay returns the floor applied to every task submission
func (c *Config) GetTaskMinDelay() time.Duration {
	return durationOr(c.Tasks.MinDelay, DefaultTaskMinDelay)
}

// GetStatusDir returns the directory holding the persisted status files
func (c *Config) GetStatusDir() string {
	return filepath.Join(c.Sync.DataDir, "status")
}

// GetLockPath returns the path of the single instance lock file
func (c *Config) GetLockPath() string {
	return filepath.Join(c.Sync.DataDir, "keysync.lock")
}
