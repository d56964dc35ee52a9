package numerator

import (
	"fmt"
	"strings"
	"time"
)

// Key builds the sequence key for cfg and period.
func Key(cfg Config, period time.Time) string {
	base := cfg.Prefix
	if cfg.Scope != "" {
		base += "_" + cfg.Scope
	}

	switch cfg.ResetPeriod {
	case ResetDay:
		return base + "_" + period.Format("2006_01_02")
	case ResetMonth:
		return base + "_" + period.Format("2006_01")
	case ResetYear:
		return base + "_" + period.Format("2006")
	default:
		return base
	}
}

// Format renders a counter value as a document number.
func Format(cfg Config, period time.Time, num int64) string {
	padWidth := cfg.PadWidth
	if padWidth == 0 {
		padWidth = 5
	}

	parts := []string{cfg.Prefix}
	if cfg.Code != "" {
		parts = append(parts, cfg.Code)
	}
	switch {
	case cfg.IncludeDate:
		parts = append(parts, period.Format("20060102"))
	case cfg.IncludeYear:
		parts = append(parts, period.Format("2006"))
	}
	parts = append(parts, fmt.Sprintf("%0*d", padWidth, num))

	return strings.Join(parts, "-")
}
