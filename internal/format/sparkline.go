package format

import "strings"

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// Sparkline draws series as a row of block characters scaled between its
// minimum and maximum. A flat series is drawn at the lowest level.
func Sparkline(series []float64) string {
	lo, ok := Min(series)
	if !ok {
		return ""
	}
	hi, _ := Max(series)
	span := hi - lo

	var b strings.Builder
	last := len(sparkBlocks) - 1
	for _, v := range series {
		idx := 0
		if span > 0 {
			idx = int((v - lo) / span * float64(last))
		}
		b.WriteRune(sparkBlocks[idx])
	}
	return b.String()
}

// SparklineTail draws only the last width values of series.
func SparklineTail(series []float64, width int) string {
	if width > 0 && len(series) > width {
		series = series[len(series)-width:]
	}
	return Sparkline(series)
}
