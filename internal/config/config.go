package config

import (
	"time"

	"github.com/alansafahi/soapboxx-versesync/internal/domain"
)

// Config is the root application configuration.
type Config struct {
	Store      StoreConfig    `yaml:"store"`
	Database   DatabaseConfig `yaml:"database"`
	Import     ImportConfig   `yaml:"import"`
	Sources    SourcesConfig  `yaml:"sources"`
	Categories []CategoryRule `yaml:"categories" env:"-"`
	Server     ServerConfig   `yaml:"server"`
	Log        LogConfig      `yaml:"log"`
}

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// StoreConfig selects the verse store backend.
type StoreConfig struct {
	Driver     string `yaml:"driver"      env:"STORE_DRIVER"      env-default:"postgres"`
	SQLitePath string `yaml:"sqlite_path" env:"STORE_SQLITE_PATH" env-default:"versesync.db"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"10"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"1"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// ImportConfig drives batch runs. With StatusInMemory set, unit attempts
// are kept only for the life of the process instead of in the unit_status table.
type ImportConfig struct {
	TranslationsRaw  string        `yaml:"translations"      env:"IMPORT_TRANSLATIONS"`
	MaxWorkers       int           `yaml:"max_workers"       env:"IMPORT_MAX_WORKERS"       env-default:"4"`
	MaxRetries       int           `yaml:"max_retries"       env:"IMPORT_MAX_RETRIES"       env-default:"3"`
	BatchSizeRows    int           `yaml:"batch_size_rows"   env:"IMPORT_BATCH_SIZE_ROWS"   env-default:"500"`
	MaxUnits         int           `yaml:"max_units"         env:"IMPORT_MAX_UNITS"         env-default:"0"`
	MaxDuration      time.Duration `yaml:"max_duration"      env:"IMPORT_MAX_DURATION"      env-default:"0s"`
	PartialThreshold float64       `yaml:"partial_threshold" env:"IMPORT_PARTIAL_THRESHOLD" env-default:"0.5"`
	RetryPartial     bool          `yaml:"retry_partial"     env:"IMPORT_RETRY_PARTIAL"     env-default:"false"`
	PersistTimeout   time.Duration `yaml:"persist_timeout"   env:"IMPORT_PERSIST_TIMEOUT"   env-default:"30s"`
	MaxTextLength    int           `yaml:"max_text_length"   env:"IMPORT_MAX_TEXT_LENGTH"   env-default:"2000"`
	StatusInMemory   bool          `yaml:"status_in_memory"  env:"IMPORT_STATUS_IN_MEMORY"  env-default:"false"`

	// Translations is parsed from TranslationsRaw during validation.
	// An empty TranslationsRaw selects every supported translation.
	Translations []domain.Translation `yaml:"-" env:"-"`
}

// Source identifiers, in the default fallback order.
const (
	SourceBulkJSON = "bulkjson"
	SourceBibleAPI = "bibleapi"
	SourceBolls    = "bolls"
)

// SourcesConfig holds the fallback order and per-source settings.
type SourcesConfig struct {
	OrderRaw string       `yaml:"order"    env:"SOURCES_ORDER" env-default:"bulkjson,bibleapi,bolls"`
	BulkJSON SourceConfig `yaml:"bulkjson" env-prefix:"SOURCES_BULKJSON_"`
	BibleAPI SourceConfig `yaml:"bibleapi" env-prefix:"SOURCES_BIBLEAPI_"`
	Bolls    SourceConfig `yaml:"bolls"    env-prefix:"SOURCES_BOLLS_"`

	// Order is parsed from OrderRaw during validation; disabled sources are dropped.
	Order []string `yaml:"-" env:"-"`
}

// SourceConfig configures one upstream. Zero durations are replaced with
// per-source defaults during validation; an empty BaseURL keeps the adapter's.
type SourceConfig struct {
	Disabled     bool          `yaml:"disabled"      env:"DISABLED"`
	BaseURL      string        `yaml:"base_url"      env:"BASE_URL"`
	BaseDelay    time.Duration `yaml:"base_delay"    env:"BASE_DELAY"`
	CeilingDelay time.Duration `yaml:"ceiling_delay" env:"CEILING_DELAY"`
	Timeout      time.Duration `yaml:"timeout"       env:"TIMEOUT"`
}

// Source returns the settings for a source id.
func (s SourcesConfig) Source(id string) (SourceConfig, bool) {
	switch id {
	case SourceBulkJSON:
		return s.BulkJSON, true
	case SourceBibleAPI:
		return s.BibleAPI, true
	case SourceBolls:
		return s.Bolls, true
	}
	return SourceConfig{}, false
}

func (s *SourcesConfig) source(id string) *SourceConfig {
	switch id {
	case SourceBulkJSON:
		return &s.BulkJSON
	case SourceBibleAPI:
		return &s.BibleAPI
	case SourceBolls:
		return &s.Bolls
	}
	return nil
}

// CategoryRule maps keywords to a category. Rules are evaluated in file order.
type CategoryRule struct {
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

// ServerConfig holds ops HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}
