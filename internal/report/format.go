package report

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var shortMonths = [12]string{"Jan", "Feb", "Mar", "Apr", "Mei", "Jun", "Jul", "Agu", "Sep", "Okt", "Nov", "Des"}

var idPrinter = message.NewPrinter(language.Indonesian)

// PeriodLabel formats a bucket the way the dashboard axis shows it, e.g. "Okt 2023".
func PeriodLabel(k PeriodKey) string {
	if k.Month < 1 || k.Month > 12 {
		return strconv.Itoa(k.Year)
	}
	return shortMonths[k.Month-1] + " " + strconv.Itoa(k.Year)
}

// FormatRupiah renders an amount with Indonesian grouping, e.g. "Rp 2.500.000" or "Rp 1.500,5".
func FormatRupiah(d decimal.Decimal) string {
	neg := d.IsNegative()
	d = d.Abs().Round(2)

	whole := d.Truncate(0)
	s := "Rp " + groupThousands(whole.String())
	if frac := d.Sub(whole); !frac.IsZero() {
		s += "," + strings.TrimPrefix(frac.String(), "0.")
	}
	if neg {
		return "-" + s
	}
	return s
}


// groupThousands groups a non-negative integer string. Values that fit an
// int64 go through the locale printer; larger sums are grouped by hand with
// the same separator.
func groupThousands(digits string) string {
	if len(digits) <= 18 {
		if n, err := strconv.ParseInt(digits, 10, 64); err == nil {
			return idPrinter.Sprintf("%d", n)
		}
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte('.')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
