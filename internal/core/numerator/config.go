// Package numerator provides domain contracts for document reference numbering.
package numerator

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Strategy defines the numbering generation strategy.
type Strategy int

const (
	// StrategyStrict reserves one number per call from the sequencer.
	// Guarantees sequential numbers without gaps; used for fiscal documents.
	StrategyStrict Strategy = iota

	// StrategyCached reserves ranges of numbers and hands them out from memory.
	// May leave gaps if the process restarts.
	StrategyCached
)

// ParseStrategy maps "strict" / "cached" to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "", "strict":
		return StrategyStrict, nil
	case "cached":
		return StrategyCached, nil
	default:
		return StrategyStrict, fmt.Errorf("unknown numerator strategy %q", s)
	}
}

// Options configuration for number generation.
type Options struct {
	Strategy Strategy
	// RangeSize is the number of values reserved at once by StrategyCached.
	// Default is 50.
	RangeSize int64
}

// DefaultOptions returns standard options (Strict).
func DefaultOptions() *Options {
	return &Options{
		Strategy: StrategyStrict,
	}
}

// ResetPeriod controls when a counter starts again from 1.
type ResetPeriod string

const (
	ResetNever ResetPeriod = "never"
	ResetYear  ResetPeriod = "year"
	ResetMonth ResetPeriod = "month"
)

// ParseResetPeriod validates a reset period name; empty means never.
func ParseResetPeriod(s string) (ResetPeriod, error) {
	switch ResetPeriod(s) {
	case "", ResetNever:
		return ResetNever, nil
	case ResetYear, ResetMonth:
		return ResetPeriod(s), nil
	default:
		return ResetNever, fmt.Errorf("unknown reset period %q", s)
	}
}

// DefaultPadWidth is the zero-padding of the sequence part (FAC2024-0001).
const DefaultPadWidth = 4

// Config holds numbering configuration for one document type.
type Config struct {
	// Prefix identifies the document type (e.g. "FAC", "BL")
	Prefix string

	// IncludeYear inserts the period year right after the prefix
	IncludeYear bool

	// PadWidth is the minimum sequence width (default 4)
	PadWidth int

	// ResetPeriod selects the counter key granularity
	ResetPeriod ResetPeriod
}

// DefaultConfig returns the reference layout used by every document type:
// prefix, year, dash, four-digit sequence, with one counter per prefix.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:      prefix,
		IncludeYear: true,
		PadWidth:    DefaultPadWidth,
		ResetPeriod: ResetNever,
	}
}

// Key returns the counter key for cfg in the given period.
func (c Config) Key(period time.Time) string {
	switch c.ResetPeriod {
	case ResetMonth:
		return fmt.Sprintf("%s_%s", c.Prefix, period.Format("2006_01"))
	case ResetYear:
		return fmt.Sprintf("%s_%s", c.Prefix, period.Format("2006"))
	default:
		return c.Prefix
	}
}

// Format renders a reference: "{prefix}{year}-{seq}" or "{prefix}-{seq}"
// without year. Sequences wider than PadWidth are printed in full.
func Format(cfg Config, seq int64, year int) string {
	padWidth := cfg.PadWidth
	if padWidth <= 0 {
		padWidth = DefaultPadWidth
	}

	if cfg.IncludeYear {
		return fmt.Sprintf("%s%04d-%0*d", cfg.Prefix, year, padWidth, seq)
	}
	return fmt.Sprintf("%s-%0*d", cfg.Prefix, padWidth, seq)
}

var referencePattern = regexp.MustCompile(`^([A-Z]+)(\d{4})-(\d+)$`)

// Parsed is a reference split into its parts.
type Parsed struct {
	Prefix   string
	Year     int
	Sequence int64
}

// Parse splits a year-bearing reference such as "RET2024-0042".
func Parse(ref string) (Parsed, bool) {
	m := referencePattern.FindStringSubmatch(ref)
	if m == nil {
		return Parsed{}, false
	}
	year, err := strconv.Atoi(m[2])
	if err != nil {
		return Parsed{}, false
	}
	seq, err := strconv.ParseInt(m[3], 10, 64)
	if err != nil {
		return Parsed{}, false
	}
	return Parsed{Prefix: m[1], Year: year, Sequence: seq}, true
}
