package format

import (
	"math"
	"strconv"
	"strings"
)

const (
	minute = 60.0
	hour   = 60 * minute
	day    = 24 * hour
)

// Unknown is shown for readings the hub did not report.
const Unknown = "unknown"

// Temperature units accepted by Formatter.
const (
	Celsius    = "celsius"
	Fahrenheit = "fahrenheit"
)

// Rounded rounds value to decimals places and replaces the decimal point
// with decimalChar. Trailing zeros are dropped: 12.50 prints as "12.5".
func Rounded(value float64, decimals int, decimalChar string) string {
	factor := math.Pow(10, float64(decimals))
	rounded := math.Round((value+epsilon(value))*factor) / factor
	if rounded == 0 {
		rounded = 0 // avoid "-0"
	}
	text := strconv.FormatFloat(rounded, 'f', -1, 64)
	if decimalChar != "" && decimalChar != "." {
		text = strings.Replace(text, ".", decimalChar, 1)
	}
	return text
}

// epsilon nudges exact halves that binary floats store just below .5.
func epsilon(value float64) float64 {
	if value < 0 {
		return -1e-9
	}
	return 1e-9
}

// Max returns the largest value of series, or false when it is empty.
func Max(series []float64) (float64, bool) {
	if len(series) == 0 {
		return 0, false
	}
	out := series[0]
	for _, v := range series[1:] {
		out = math.Max(out, v)
	}
	return out, true
}

// Min returns the smallest value of series, or false when it is empty.
func Min(series []float64) (float64, bool) {
	if len(series) == 0 {
		return 0, false
	}
	out := series[0]
	for _, v := range series[1:] {
		out = math.Min(out, v)
	}
	return out, true
}

// Formatter applies the display preferences to telemetry values.
type Formatter struct {
	DecimalChar     string
	TemperatureUnit string
}

// New returns a Formatter; empty arguments select "," and Celsius.
func New(decimalChar, temperatureUnit string) Formatter {
	if decimalChar == "" {
		decimalChar = ","
	}
	if temperatureUnit == "" {
		temperatureUnit = Celsius
	}
	return Formatter{DecimalChar: decimalChar, TemperatureUnit: strings.ToLower(temperatureUnit)}
}

// Rounded is the package-level Rounded with the formatter's separator.
func (f Formatter) Rounded(value float64, decimals int) string {
	return Rounded(value, decimals, f.DecimalChar)
}

// Percent formats a load value with one decimal and a percent sign.
func (f Formatter) Percent(value float64) string {
	return f.Rounded(value, 1) + "%"
}

// Max formats the largest value of series, or Unknown.
func (f Formatter) Max(series []float64, decimals int) string {
	v, ok := Max(series)
	if !ok {
		return Unknown
	}
	return f.Rounded(v, decimals)
}

// Min formats the smallest value of series, or Unknown.
func (f Formatter) Min(series []float64, decimals int) string {
	v, ok := Min(series)
	if !ok {
		return Unknown
	}
	return f.Rounded(v, decimals)
}

// Seconds renders a duration in seconds using the largest fitting unit.
// Beyond ten days whole days are shown.
func (f Formatter) Seconds(value float64) string {
	switch {
	case value > 10*day:
		return f.Rounded(value/day, 0) + "d"
	case value > day:
		return f.Rounded(value/day, 1) + "d"
	case value > hour:
		return f.Rounded(value/hour, 1) + "h"
	case value > minute:
		return f.Rounded(value/minute, 1) + "m"
	default:
		return f.Rounded(value, 1) + "s"
	}
}

// Temperature renders a Celsius reading in the configured unit. Nil and
// negative readings mean the host has no sensor and yield Unknown.
func (f Formatter) Temperature(celsius *float64) string {
	if celsius == nil || *celsius < 0 {
		return Unknown
	}
	if f.TemperatureUnit == Fahrenheit {
		return f.Rounded(ToFahrenheit(*celsius), 1) + "°F"
	}
	return f.Rounded(*celsius, 1) + "°C"
}

// ToFahrenheit converts a Celsius temperature.
func ToFahrenheit(celsius float64) float64 {
	return celsius*9/5 + 32
}

// RAMUsage renders the used share of memory in percent with two decimals.
func (f Formatter) RAMUsage(total, available float64) string {
	if total <= 0 {
		return Unknown
	}
	return f.Rounded(100-100*available/total, 2) + "%"
}
