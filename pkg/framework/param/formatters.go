package param

import (
	"fmt"
	"strconv"
	"strings"
)

// FrequencyFormatter formats frequency values with Hz/kHz
func FrequencyFormatter(hz float64) string {
	if hz >= 1000 {
		return fmt.Sprintf("%.2f kHz", hz/1000)
	}
	return fmt.Sprintf("%.1f Hz", hz)
}

// FrequencyParser accepts "440", "440 Hz" and "1.2 kHz".
func FrequencyParser(str string) (float64, error) {
	str = strings.ToLower(strings.TrimSpace(str))
	if num, ok := strings.CutSuffix(str, "khz"); ok {
		val, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
		if err != nil {
			return 0, err
		}
		return val * 1000, nil
	}
	str = strings.TrimSpace(strings.TrimSuffix(str, "hz"))
	return strconv.ParseFloat(str, 64)
}

// DecibelFormatter formats dB values
func DecibelFormatter(db float64) string {
	return fmt.Sprintf("%.1f dB", db)
}

// DecibelParser parses dB strings
func DecibelParser(str string) (float64, error) {
	str = strings.TrimSpace(str)
	str = strings.TrimSuffix(strings.TrimSuffix(str, "dB"), "db")
	return strconv.ParseFloat(strings.TrimSpace(str), 64)
}

// PercentFormatter formats percentage values
func PercentFormatter(value float64) string {
	return fmt.Sprintf("%.0f%%", value)
}

// PercentParser parses percentage strings
func PercentParser(str string) (float64, error) {
	str = strings.TrimSuffix(strings.TrimSpace(str), "%")
	return strconv.ParseFloat(strings.TrimSpace(str), 64)
}

// TimeFormatter formats milliseconds, switching to seconds at 1000.
func TimeFormatter(ms float64) string {
	if ms >= 1000 {
		return fmt.Sprintf("%.2f s", ms/1000)
	}
	return fmt.Sprintf("%.1f ms", ms)
}

// TimeParser returns milliseconds from "12 ms", "1.5 s" or a bare number.
func TimeParser(str string) (float64, error) {
	str = strings.ToLower(strings.TrimSpace(str))
	if num, ok := strings.CutSuffix(str, "ms"); ok {
		return strconv.ParseFloat(strings.TrimSpace(num), 64)
	}
	if num, ok := strings.CutSuffix(str, "s"); ok {
		val, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
		if err != nil {
			return 0, err
		}
		return val * 1000, nil
	}
	return strconv.ParseFloat(str, 64)
}

// CentsFormatter formats a signed cent offset.
func CentsFormatter(cents float64) string {
	return fmt.Sprintf("%+.1f ct", cents)
}

// CentsParser parses cent strings
func CentsParser(str string) (float64, error) {
	str = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(str), "ct"))
	return strconv.ParseFloat(str, 64)
}
