package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/alansafahi/soapboxx-versesync/internal/domain"
)

// Batch size bounds for a single insert round-trip.
const (
	MinBatchSizeRows = 50
	MaxBatchSizeRows = 1000
	MaxWorkersLimit  = 32
)

type sourceDefaults struct {
	baseDelay    time.Duration
	ceilingDelay time.Duration
	timeout      time.Duration
}

var defaultsBySource = map[string]sourceDefaults{
	SourceBulkJSON: {baseDelay: 50 * time.Millisecond, ceilingDelay: 5 * time.Second, timeout: 60 * time.Second},
	SourceBibleAPI: {baseDelay: 2 * time.Second, ceilingDelay: 30 * time.Second, timeout: 15 * time.Second},
	SourceBolls:    {baseDelay: 500 * time.Millisecond, ceilingDelay: 30 * time.Second, timeout: 15 * time.Second},
}

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if err := c.Store.validate(c.Database); err != nil {
		return fmt.Errorf("store: %w", err)
	}

	if err := c.Import.validate(); err != nil {
		return fmt.Errorf("import: %w", err)
	}

	if err := c.Sources.validate(); err != nil {
		return fmt.Errorf("sources: %w", err)
	}

	for i, r := range c.Categories {
		if _, err := domain.ParseCategory(r.Category); err != nil {
			return fmt.Errorf("categories[%d]: %w", i, err)
		}
		if len(r.Keywords) == 0 {
			return fmt.Errorf("categories[%d]: %s has no keywords", i, r.Category)
		}
	}

	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text (got %q)", c.Log.Format)
	}

	return nil
}

func (s *StoreConfig) validate(db DatabaseConfig) error {
	s.Driver = strings.ToLower(strings.TrimSpace(s.Driver))
	switch s.Driver {
	case DriverPostgres:
		if db.DSN == "" {
			return fmt.Errorf("database.dsn is required for the %s driver", DriverPostgres)
		}
	case DriverSQLite:
		if s.SQLitePath == "" {
			return fmt.Errorf("sqlite_path is required for the %s driver", DriverSQLite)
		}
	default:
		return fmt.Errorf("driver must be %s or %s (got %q)", DriverPostgres, DriverSQLite, s.Driver)
	}
	return nil
}

func (i *ImportConfig) validate() error {
	trs, err := domain.ParseTranslations(i.TranslationsRaw)
	if err != nil {
		return fmt.Errorf("translations: %w", err)
	}
	if len(trs) == 0 {
		trs = domain.AllTranslations()
	}
	i.Translations = trs

	if i.MaxWorkers < 1 || i.MaxWorkers > MaxWorkersLimit {
		return fmt.Errorf("max_workers must be in 1..%d (got %d)", MaxWorkersLimit, i.MaxWorkers)
	}
	if i.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be >= 0 (got %d)", i.MaxRetries)
	}
	if i.MaxUnits < 0 {
		return fmt.Errorf("max_units must be >= 0 (got %d)", i.MaxUnits)
	}
	if i.MaxDuration < 0 {
		return fmt.Errorf("max_duration must be >= 0 (got %v)", i.MaxDuration)
	}
	if i.PartialThreshold < 0 || i.PartialThreshold > 1 {
		return fmt.Errorf("partial_threshold must be in [0, 1] (got %v)", i.PartialThreshold)
	}
	if i.PersistTimeout <= 0 {
		return fmt.Errorf("persist_timeout must be > 0 (got %v)", i.PersistTimeout)
	}
	if i.MaxTextLength <= 0 {
		return fmt.Errorf("max_text_length must be > 0 (got %d)", i.MaxTextLength)
	}

	i.BatchSizeRows = ClampBatchSize(i.BatchSizeRows)
	return nil
}

// ClampBatchSize bounds n to [MinBatchSizeRows, MaxBatchSizeRows].
func ClampBatchSize(n int) int {
	return min(max(n, MinBatchSizeRows), MaxBatchSizeRows)
}

func (s *SourcesConfig) validate() error {
	ids, err := ParseSourceOrder(s.OrderRaw)
	if err != nil {
		return err
	}

	s.Order = s.Order[:0]
	for _, id := range ids {
		sc := s.source(id)
		def := defaultsBySource[id]
		if sc.BaseDelay <= 0 {
			sc.BaseDelay = def.baseDelay
		}
		if sc.CeilingDelay <= 0 {
			sc.CeilingDelay = def.ceilingDelay
		}
		if sc.CeilingDelay < sc.BaseDelay {
			return fmt.Errorf("%s: ceiling_delay %v is below base_delay %v", id, sc.CeilingDelay, sc.BaseDelay)
		}
		if sc.Timeout <= 0 {
			sc.Timeout = def.timeout
		}
		if !sc.Disabled {
			s.Order = append(s.Order, id)
		}
	}

	if len(s.Order) == 0 {
		return fmt.Errorf("at least one source must be enabled")
	}
	return nil
}

// ParseSourceOrder parses a comma-separated list of source ids.
// Unknown and repeated ids are rejected.
func ParseSourceOrder(raw string) ([]string, error) {
	var ids []string
	for _, p := range strings.Split(raw, ",") {
		id := strings.ToLower(strings.TrimSpace(p))
		if id == "" {
			continue
		}
		if _, ok := defaultsBySource[id]; !ok {
			return nil, fmt.Errorf("order: unknown source %q", id)
		}
		if slices.Contains(ids, id) {
			return nil, fmt.Errorf("order: source %q listed twice", id)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("order must list at least one source")
	}
	return ids, nil
}
