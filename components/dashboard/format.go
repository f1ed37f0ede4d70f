package dashboard

import (
	"fmt"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/goliatone/go-marketinsight/pkg/analytics"
)

var printer = message.NewPrinter(language.English)

// FormatNumber renders v with thousands separators and at most two decimals.
func FormatNumber(v float64) string {
	return printer.Sprint(number.Decimal(v, number.MaxFractionDigits(2)))
}

// FormatCurrency renders v as dollars, e.g. "$45,231.89".
func FormatCurrency(v float64) string {
	return "$" + FormatNumber(v)
}

// FormatPercentage renders v as a percentage without rounding, e.g. "3.2%".
func FormatPercentage(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}

// FormatMetric renders a metric value with its configured format.
func FormatMetric(m analytics.Metric) string {
	switch m.Format {
	case analytics.FormatCurrency:
		return FormatCurrency(m.Value)
	case analytics.FormatPercentage:
		return FormatPercentage(m.Value)
	default:
		return FormatNumber(m.Value)
	}
}

// FormatChange renders a signed change badge, e.g. "+12.5%" or "-2.1%".
func FormatChange(change float64) string {
	if change >= 0 {
		return "+" + FormatPercentage(change)
	}
	return FormatPercentage(change)
}

// TrendPositive reports whether a metric movement is good news. For metrics
// trending down a negative change is favourable, e.g. cost per acquisition.
func TrendPositive(m analytics.Metric) bool {
	if m.Trend == analytics.TrendUp {
		return m.Change >= 0
	}
	return m.Change < 0
}

// FormatThousands renders a count in thousands, e.g. 450000 as "450k".
func FormatThousands(v int64) string {
	return fmt.Sprintf("%.0fk", float64(v)/1000)
}

// FormatCTR renders a click-through rate with two decimals.
func FormatCTR(row analytics.ChannelPerformance) string {
	return fmt.Sprintf("%.2f%%", row.CTR())
}

// FormatROAS renders a return on ad spend multiplier, e.g. "4.2x".
func FormatROAS(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "x"
}

// StrongROAS is the threshold at which ROAS is highlighted.
const StrongROAS = 4
