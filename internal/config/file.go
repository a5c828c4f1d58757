package config

import (
	"fmt"
	"regexp"

	"github.com/nao1215/warcscan/internal/model"
)

// File represents the structure of the .warcscan configuration file.
// Unset fields leave the corresponding Config value untouched.
type File struct {
	// Input controls where archives are found and how much is read.
	Input InputConfig `yaml:"input,omitempty"`

	// Sampling controls which records are analyzed and which examples kept.
	Sampling SamplingConfig `yaml:"sampling,omitempty"`

	// Detector controls PII detection.
	Detector DetectorConfig `yaml:"detector,omitempty"`

	// Language controls language identification.
	Language LanguageConfig `yaml:"language,omitempty"`

	// History controls the run history database.
	History HistoryConfig `yaml:"history,omitempty"`
}

// InputConfig is the input section of the configuration file.
type InputConfig struct {
	// Dir is searched for archives when none are given.
	Dir string `yaml:"dir,omitempty"`

	// MaxPayloadSize is the maximum number of payload bytes read per record.
	MaxPayloadSize *int64 `yaml:"maxPayloadSize,omitempty"`

	// MaxTextSize is the maximum size of normalized text per record.
	MaxTextSize *int `yaml:"maxTextSize,omitempty"`

	// Batch is the number of archives analyzed concurrently.
	Batch *int `yaml:"batch,omitempty"`
}

// SamplingConfig is the sampling section of the configuration file.
type SamplingConfig struct {
	Samples          *int    `yaml:"samples,omitempty"`
	Pool             *int    `yaml:"pool,omitempty"`
	Examples         *int    `yaml:"examples,omitempty"`
	LanguageExamples *int    `yaml:"languageExamples,omitempty"`
	Seed             *uint64 `yaml:"seed,omitempty"`
}

// DetectorConfig is the detector section of the configuration file.
type DetectorConfig struct {
	// ContextWidth is the number of characters kept on each side of a match.
	ContextWidth *int `yaml:"contextWidth,omitempty"`

	// Patterns overrides detection expressions by category name.
	Patterns map[string]string `yaml:"patterns,omitempty"`
}

// LanguageConfig is the language section of the configuration file.
type LanguageConfig struct {
	MinChars      *int `yaml:"minChars,omitempty"`
	SnippetLength *int `yaml:"snippetLength,omitempty"`
}

// HistoryConfig is the history section of the configuration file.
type HistoryConfig struct {
	// Enabled turns saving of run statistics on or off.
	Enabled *bool `yaml:"enabled,omitempty"`

	// Dir overrides the database directory.
	Dir string `yaml:"dir,omitempty"`
}

// Apply overlays the values set in f onto c.
func (f *File) Apply(c *Config) {
	if f.Input.Dir != "" {
		c.ArchiveDir = f.Input.Dir
	}
	setInt64(&c.MaxPayloadSize, f.Input.MaxPayloadSize)
	setInt(&c.MaxTextSize, f.Input.MaxTextSize)
	setInt(&c.BatchSize, f.Input.Batch)

	setInt(&c.SampleCap, f.Sampling.Samples)
	setInt(&c.PoolFactor, f.Sampling.Pool)
	setInt(&c.ExamplesPerCategory, f.Sampling.Examples)
	setInt(&c.LanguageExamples, f.Sampling.LanguageExamples)
	if f.Sampling.Seed != nil {
		c.SetSeed(*f.Sampling.Seed)
	}

	setInt(&c.ContextWidth, f.Detector.ContextWidth)
	for name, expr := range f.Detector.Patterns {
		if c.Patterns == nil {
			c.Patterns = make(map[string]string)
		}
		c.Patterns[name] = expr
	}

	setInt(&c.MinChars, f.Language.MinChars)
	setInt(&c.SnippetLength, f.Language.SnippetLength)

	if f.History.Enabled != nil {
		c.SaveHistory = *f.History.Enabled
	}
	if f.History.Dir != "" {
		c.DBDir = f.History.Dir
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setInt64(dst *int64, src *int64) {
	if src != nil {
		*dst = *src
	}
}

// DetectorPatterns converts the pattern overrides into detector categories.
func (c *Config) DetectorPatterns() (map[model.Category]string, error) {
	patterns := make(map[model.Category]string, len(c.Patterns))
	for name, expr := range c.Patterns {
		category, err := model.ParseCategory(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPattern, err)
		}
		patterns[category] = expr
	}
	return patterns, nil
}

// validatePatterns checks that every override names a category and compiles.
func (c *Config) validatePatterns() error {
	patterns, err := c.DetectorPatterns()
	if err != nil {
		return err
	}
	for category, expr := range patterns {
		if expr == "" {
			return fmt.Errorf("%w: empty expression for %s", ErrInvalidPattern, category)
		}
		if _, err := regexp.Compile(expr); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidPattern, category, err)
		}
	}
	return nil
}
