// Package sanitize coerces raw source fields into storable values.
// Malformed financial data must never abort a batch, so every function
// here returns a safe default instead of an error.
package sanitize

import (
	"math"
	"strconv"
	"strings"
)

// Storage widths of the persisted string columns.
const (
	MaxNameLen     = 255
	MaxStatusLen   = 20
	MaxCategoryLen = 50
	MaxRegionLen   = 2
)

// DefaultStatus is assigned when a source row carries no quality flag.
const DefaultStatus = "OK"

// Amount parses a declared expense value. Parse failures, NaN and ±Inf
// all coerce to 0 so a single bad value cannot poison a batch. Source
// files use either dot or comma decimal separators; a comma is accepted
// when no dot is present.
func Amount(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	if strings.ContainsRune(s, ',') && !strings.ContainsRune(s, '.') {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Int parses an integer field, falling back to def on any failure.
// Numeric exports sometimes render integers as floats ("2024.0"), which
// are accepted and truncated.
func Int(raw string, def int) int {
	s := strings.TrimSpace(raw)
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return int(f)
	}
	return def
}

// Clamp trims surrounding whitespace and truncates s to the given
// storage width, measured in bytes to match the column definitions.
func Clamp(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) > max {
		return s[:max]
	}
	return s
}

// Status normalizes the quality flag, defaulting to DefaultStatus.
func Status(raw string) string {
	s := Clamp(raw, MaxStatusLen)
	if s == "" {
		return DefaultStatus
	}
	return s
}
