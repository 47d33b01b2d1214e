package present

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DateLayout is the display format of dates (dd/mm/yyyy)
const DateLayout = "02/01/2006"

var printer = message.NewPrinter(language.English)

// FormatNumber renders v with thousands separators and a fixed number of decimals
func FormatNumber(v float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	// avoid "-0" for values that round to zero
	if math.Abs(v) < 0.5*math.Pow10(-decimals) {
		v = 0
	}
	return printer.Sprintf(fmt.Sprintf("%%.%df", decimals), v)
}

// FormatPercent renders a percentage with one decimal and a % suffix
func FormatPercent(p float64) string {
	return FormatNumber(p, 1) + "%"
}

// FormatDelta renders a signed difference, e.g. "+12.5" or "-3.0"
func FormatDelta(v float64, decimals int) string {
	s := FormatNumber(math.Abs(v), decimals)
	if v < 0 && s != FormatNumber(0, decimals) {
		return "-" + s
	}
	return "+" + s
}

// BarLabel is the "<value> (<pct>%)" label of percentage bars
func BarLabel(value, pct float64, decimals int) string {
	return fmt.Sprintf("%s (%s)", FormatNumber(value, decimals), FormatPercent(pct))
}

// FormatDate renders t as dd/mm/yyyy ("" for the zero time)
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
