package dashboard

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.English)

// FormatNumber renders a statistic for display. Percentages pass through,
// "k" suffixed values are expanded ("22.8k" → "22,800") and numeric strings
// get digit grouping. Anything else is returned unchanged.
func FormatNumber(value string) string {
	v := strings.TrimSpace(value)

	switch {
	case strings.HasSuffix(v, "%"):
		return v
	case strings.HasSuffix(v, "k") || strings.HasSuffix(v, "K"):
		f, err := strconv.ParseFloat(strings.TrimSpace(v[:len(v)-1]), 64)
		if err != nil {
			return value
		}
		return FormatFloat(f * 1000)
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return value
	}
	return FormatFloat(f)
}

// FormatFloat groups digits and keeps up to three fraction digits
func FormatFloat(v float64) string {
	return printer.Sprintf("%v", number.Decimal(v, number.MaxFractionDigits(3)))
}

// FormatCurrency renders v as US dollars with two decimals, e.g. "$1,234.50"
func FormatCurrency(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return sign + "$" + printer.Sprintf("%v", number.Decimal(v, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}

// FormatPercentage renders a ratio as a percentage: 0.256 → "25.6%"
func FormatPercentage(v float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	return strconv.FormatFloat(v*100, 'f', decimals, 64) + "%"
}

// roundHalfUp rounds .5 towards positive infinity
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
