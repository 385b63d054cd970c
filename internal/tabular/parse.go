package tabular

import (
	"strconv"
	"strings"
)

// ParseFloat parses a numeric cell, tolerating thousands separators and
// surrounding quotes. The second return is false for empty or suppressed
// values (BLS uses letter flags for suppressed cells).
func ParseFloat(s string) (float64, bool) {
	s = TrimQuotes(s)
	if s == "" || s == "-" || s == "N" || s == "S" || s == "D" || s == "*" || s == "**" || s == "#" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseInt parses an integer cell. Excel exports often render integers as
// "2024.0", so a float parse is accepted when it has no fractional part.
func ParseInt(s string) (int, bool) {
	s = TrimQuotes(s)
	if s == "" {
		return 0, false
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v, true
	}
	f, ok := ParseFloat(s)
	if !ok || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

// ParseShare parses an attribution share that may arrive as a fraction
// ("0.56"), a bare percentage ("56"), or a percentage string ("56%").
// Values above 1 are interpreted as percentages. The result is clamped to
// [0,1].
func ParseShare(s string) (float64, bool) {
	s = strings.TrimSuffix(TrimQuotes(s), "%")
	v, ok := ParseFloat(s)
	if !ok {
		return 0, false
	}
	if v > 1 {
		v /= 100
	}
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return v, true
}

// TrimQuotes removes surrounding whitespace and double quotes from a cell.
func TrimQuotes(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"`)
}

// ExtractDigits returns the first run of at least min consecutive digits in
// s, truncated to max digits. Used to pull NAICS codes out of vendor code
// columns that mix codes with annotations ("3361 - Motor Vehicles" → "3361").
func ExtractDigits(s string, min, max int) (string, bool) {
	run := 0
	start := -1
	for i := 0; i <= len(s); i++ {
		if i < len(s) && s[i] >= '0' && s[i] <= '9' {
			if run == 0 {
				start = i
			}
			run++
			continue
		}
		if run >= min {
			d := s[start : start+run]
			if len(d) > max {
				d = d[:max]
			}
			return d, true
		}
		run = 0
	}
	return "", false
}
