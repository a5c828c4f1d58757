package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable warcscan reads.
const EnvPrefix = "WARCSCAN_"

// DefaultEnvFile is the dotenv file loaded from the current directory.
const DefaultEnvFile = ".env"

// LookupFunc looks up an environment variable.
type LookupFunc func(key string) (string, bool)

// LoadDotEnv loads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays WARCSCAN_* variables onto c. lookup defaults to
// os.LookupEnv.
//
// Recognized variables: WARCSCAN_DIR, WARCSCAN_SAMPLES, WARCSCAN_POOL,
// WARCSCAN_EXAMPLES, WARCSCAN_LANGUAGE_EXAMPLES, WARCSCAN_SEED,
// WARCSCAN_CONTEXT, WARCSCAN_MIN_CHARS, WARCSCAN_BATCH, WARCSCAN_DB_DIR,
// WARCSCAN_NO_HISTORY and WARCSCAN_PATTERN_<CATEGORY>.
func ApplyEnv(c *Config, lookup LookupFunc) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get("DIR"); ok {
		c.ArchiveDir = v
	}
	if v, ok := get("DB_DIR"); ok {
		c.DBDir = v
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"SAMPLES", &c.SampleCap},
		{"POOL", &c.PoolFactor},
		{"EXAMPLES", &c.ExamplesPerCategory},
		{"LANGUAGE_EXAMPLES", &c.LanguageExamples},
		{"CONTEXT", &c.ContextWidth},
		{"MIN_CHARS", &c.MinChars},
		{"BATCH", &c.BatchSize},
	}
	for _, e := range ints {
		v, ok := get(e.name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s%s=%q", ErrInvalidEnv, EnvPrefix, e.name, v)
		}
		*e.dst = n
	}

	if v, ok := get("SEED"); ok {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %sSEED=%q", ErrInvalidEnv, EnvPrefix, v)
		}
		c.SetSeed(seed)
	}

	if v, ok := get("NO_HISTORY"); ok {
		off, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %sNO_HISTORY=%q", ErrInvalidEnv, EnvPrefix, v)
		}
		c.SaveHistory = !off
	}

	for _, name := range []string{"EMAIL", "PHONE", "IP"} {
		if v, ok := get("PATTERN_" + name); ok {
			if c.Patterns == nil {
				c.Patterns = make(map[string]string)
			}
			c.Patterns[name] = v
		}
	}

	return nil
}
