// Package numerator provides domain contracts for document auto-numbering.
package numerator

// Strategy defines the numbering generation strategy.
type Strategy int

const (
	// StrategyStrict uses UPSERT ... RETURNING for every number.
	// Guarantees sequential numbers without gaps when run inside the
	// document's transaction.
	StrategyStrict Strategy = iota

	// StrategyCached allocates ranges of numbers in memory.
	// Much faster, but may produce gaps if application restarts.
	StrategyCached
)

// Reset periods.
const (
	ResetNever = "never"
	ResetYear  = "year"
	ResetMonth = "month"
	ResetDay   = "day"
)

// Options configuration for number generation.
type Options struct {
	// Strategy to use for number generation
	Strategy Strategy
	// RangeSize is the number of IDs to allocate at once in Cached strategy.
	// Default is 50.
	RangeSize int64
}

// DefaultOptions returns standard options (Strict).
func DefaultOptions() *Options {
	return &Options{
		Strategy: StrategyStrict,
	}
}

// Config holds numbering configuration.
type Config struct {
	// Prefix added to all numbers (e.g., "INV", "GR")
	Prefix string

	// Scope partitions the counter (typically the company ID). It is part of
	// the sequence key but never printed.
	Scope string

	// Code is printed right after the prefix (typically the company short code).
	Code string

	// IncludeYear adds year to the number
	IncludeYear bool

	// IncludeDate adds the full YYYYMMDD date to the number (takes precedence over IncludeYear)
	IncludeDate bool

	// PadWidth is the minimum number width (default 5)
	PadWidth int

	// ResetPeriod: "day", "month", "year", "never"
	ResetPeriod string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:      prefix,
		IncludeYear: true,
		PadWidth:    5,
		ResetPeriod: ResetYear,
	}
}

// DailyConfig numbers documents per scope and calendar day:
// PREFIX-CODE-YYYYMMDD-NNNN.
func DailyConfig(prefix, scope, code string) Config {
	return Config{
		Prefix:      prefix,
		Scope:       scope,
		Code:        code,
		IncludeDate: true,
		PadWidth:    4,
		ResetPeriod: ResetDay,
	}
}
