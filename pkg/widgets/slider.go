package widgets

import (
	"math"
	"strconv"
	"strings"
)

// Slider defaults applied by the plugin when options omit them.
const (
	sliderDefaultMin  = 0.0
	sliderDefaultMax  = 100.0
	sliderDefaultStep = 1.0
)

// SliderValue turns a model value into the slider position. Missing or
// non-numeric values read as 0; the result is aligned to step and clamped to
// [min, max] the way the plugin trims values.
func SliderValue(view any, options map[string]any) float64 {
	value, ok := toFloat(view)
	if !ok {
		value = 0
	}

	lo := optionFloat(options, "min", sliderDefaultMin)
	hi := optionFloat(options, "max", sliderDefaultMax)
	step := optionFloat(options, "step", sliderDefaultStep)

	if value <= lo {
		return lo
	}
	if value >= hi {
		return hi
	}
	if step <= 0 {
		return value
	}

	mod := math.Mod(value-lo, step)
	aligned := value - mod
	if math.Abs(mod)*2 >= step {
		if mod > 0 {
			aligned += step
		} else {
			aligned -= step
		}
	}
	aligned = math.Round(aligned*1e9) / 1e9
	return math.Min(math.Max(aligned, lo), hi)
}

// FormatNumber prints a float without trailing zeros.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func optionFloat(options map[string]any, key string, fallback float64) float64 {
	if v, ok := toFloat(options[key]); ok {
		return v
	}
	return fallback
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case nil:
		return 0, false
	case float64:
		return v, !math.IsNaN(v)
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
