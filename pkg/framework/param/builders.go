package param

import (
	"fmt"
	"math"
	"strings"
)

// ChoiceOption represents a single choice in a list parameter
type ChoiceOption struct {
	Value   float64
	Name    string
	Aliases []string
}

// Choice creates a list parameter whose plain values are the option values.
// Options must be sorted by value and evenly spaced.
func Choice(id uint32, name string, options []ChoiceOption) *Builder {
	format := func(value float64) string {
		for _, opt := range options {
			if math.Abs(opt.Value-value) < 1e-6 {
				return opt.Name
			}
		}
		return "Unknown"
	}

	parse := func(str string) (float64, error) {
		str = strings.TrimSpace(str)
		for _, opt := range options {
			if strings.EqualFold(str, opt.Name) {
				return opt.Value, nil
			}
			for _, alias := range opt.Aliases {
				if strings.EqualFold(str, alias) {
					return opt.Value, nil
				}
			}
		}
		return 0, fmt.Errorf("unknown option: %s", str)
	}

	b := New(id, name).Formatter(format, parse)
	b.param.Flags |= IsList
	if len(options) == 0 {
		return b
	}
	return b.
		Range(options[0].Value, options[len(options)-1].Value).
		Steps(int32(len(options) - 1)).
		Default(options[0].Value)
}

// GainParameter creates an output gain parameter in dB.
func GainParameter(id uint32, name string, minDB, maxDB, defaultDB float64) *Builder {
	return New(id, name).
		Range(minDB, maxDB).
		Default(defaultDB).
		Unit("dB").
		Formatter(func(v float64) string {
			if v <= minDB {
				return "-∞ dB"
			}
			return DecibelFormatter(v)
		}, func(s string) (float64, error) {
			if strings.Contains(strings.ToLower(s), "inf") || strings.Contains(s, "∞") {
				return minDB, nil
			}
			return DecibelParser(s)
		})
}

// LevelParameter creates a linear 0-100% level. Zero is silence.
func LevelParameter(id uint32, name string, defaultPercent float64) *Builder {
	return New(id, name).
		Range(0, 100).
		Default(defaultPercent).
		Unit("%").
		Formatter(PercentFormatter, PercentParser)
}

// FrequencyParameter creates a frequency parameter in Hz.
func FrequencyParameter(id uint32, name string, min, max, defaultVal float64) *Builder {
	return New(id, name).
		Range(min, max).
		Default(defaultVal).
		Unit("Hz").
		Formatter(FrequencyFormatter, FrequencyParser)
}

// TimeParameter creates a time parameter in milliseconds.
func TimeParameter(id uint32, name string, minMs, maxMs, defaultMs float64) *Builder {
	return New(id, name).
		Range(minMs, maxMs).
		Default(defaultMs).
		Unit("ms").
		Formatter(TimeFormatter, TimeParser)
}

// ResonanceParameter creates a filter Q parameter.
func ResonanceParameter(id uint32, name string, minQ, maxQ, defaultQ float64) *Builder {
	return New(id, name).
		Range(minQ, maxQ).
		Default(defaultQ).
		Formatter(func(v float64) string {
			return fmt.Sprintf("Q %.2f", v)
		}, nil)
}

// SemitoneParameter creates a stepped transpose parameter.
func SemitoneParameter(id uint32, name string, rangeSemis int32) *Builder {
	return New(id, name).
		Range(-float64(rangeSemis), float64(rangeSemis)).
		Steps(2 * rangeSemis).
		Default(0).
		Unit("st").
		Formatter(func(v float64) string {
			return fmt.Sprintf("%+.0f st", v)
		}, func(s string) (float64, error) {
			return parseFloat(strings.TrimSuffix(strings.TrimSpace(s), "st"))
		})
}

func parseFloat(s string) (float64, error) {
	var value float64
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%g", &value); err != nil {
		return 0, fmt.Errorf("invalid number: %s", s)
	}
	return value, nil
}
