package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// EnvPrefix is prepended to every variable ApplyEnv reads.
const EnvPrefix = "POKEPET_"

// FromEnv applies POKEPET_* variables from the process environment.
func (c *Config) FromEnv() error {
	return c.ApplyEnv(os.LookupEnv)
}

// ApplyEnv overrides fields from variables found by lookup. Unset variables
// leave the field alone; unparsable ones are reported.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	e := envReader{lookup: lookup}

	e.duration("TICK_PERIOD", &c.Game.TickPeriod)
	e.duration("SLEEP_DURATION", &c.Game.SleepDuration)
	e.float("CRITICAL_THRESHOLD", &c.Game.CriticalThreshold)

	e.string("CATALOG_URL", &c.Catalog.BaseURL)
	e.int("CATALOG_MIN_ID", &c.Catalog.MinID)
	e.int("CATALOG_MAX_ID", &c.Catalog.MaxID)
	e.duration("CATALOG_TIMEOUT", &c.Catalog.Timeout)
	e.int("CATALOG_CACHE_SIZE", &c.Catalog.CacheSize)

	e.string("SAVE_BACKEND", &c.Save.Backend)
	e.string("SAVE_PATH", &c.Save.Path)
	e.string("SAVE_KEY", &c.Save.Key)
	e.duration("SAVE_STALE_AFTER", &c.Save.StaleAfter)

	e.bool("ALERTS", &c.Alerts.Enabled)
	e.string("WEB_ADDR", &c.Web.Addr)
	e.string("LOG_FILE", &c.Log.File)
	e.string("LOG_LEVEL", &c.Log.Level)

	return errors.Join(e.errs...)
}

type envReader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (e *envReader) get(key string) (string, bool) {
	return e.lookup(EnvPrefix + key)
}

func (e *envReader) fail(key, val string, err error) {
	e.errs = append(e.errs, fmt.Errorf("%s%s=%q: %w", EnvPrefix, key, val, err))
}

func (e *envReader) string(key string, dst *string) {
	if val, ok := e.get(key); ok {
		*dst = val
	}
}

func (e *envReader) int(key string, dst *int) {
	val, ok := e.get(key)
	if !ok {
		return
	}
	num, err := strconv.Atoi(val)
	if err != nil {
		e.fail(key, val, err)
		return
	}
	*dst = num
}

func (e *envReader) float(key string, dst *float64) {
	val, ok := e.get(key)
	if !ok {
		return
	}
	num, err := strconv.ParseFloat(val, 64)
	if err != nil {
		e.fail(key, val, err)
		return
	}
	*dst = num
}

func (e *envReader) bool(key string, dst *bool) {
	val, ok := e.get(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		e.fail(key, val, err)
		return
	}
	*dst = b
}

func (e *envReader) duration(key string, dst *time.Duration) {
	val, ok := e.get(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		e.fail(key, val, err)
		return
	}
	*dst = d
}
