package metrics

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// NA is shown wherever a value cannot be derived.
const NA = "N/A"

// Unit thresholds for FormatMoney.
const (
	trillion = 1e12
	billion  = 1e9
	million  = 1e6
)

// Rounding is done by strconv on the binary value, so a tie such as 2.675
// (stored as 2.67499...) rounds down and an exact tie such as 2.5 rounds to
// even.
func fixed(v float64, places int) string {
	return strconv.FormatFloat(v, 'f', places, 64)
}

// FormatMoney renders a dollar amount scaled to T, B or M with two decimals,
// or as whole dollars with comma grouping below a million. The sign is kept
// in front of the "$". Nil, NaN and Inf render as N/A.
func FormatMoney(v *float64) string {
	if v == nil || !finite(*v) {
		return NA
	}
	x := *v
	sign := ""
	if x < 0 {
		sign = "-"
		x = -x
	}

	switch {
	case x >= trillion:
		return sign + "$" + fixed(x/trillion, 2) + "T"
	case x >= billion:
		return sign + "$" + fixed(x/billion, 2) + "B"
	case x >= million:
		return sign + "$" + fixed(x/million, 2) + "M"
	}
	return sign + "$" + groupDigits(fixed(x, 0))
}

// FormatMoneyValue accepts loosely typed input. Numbers and numeric strings
// are formatted with FormatMoney; everything else is N/A.
func FormatMoneyValue(v any) string {
	f, ok := toFloat(v)
	if !ok {
		return NA
	}
	return FormatMoney(&f)
}

// FormatPercent renders a fraction (0.1234) as "12.34%".
func FormatPercent(fraction *float64) string {
	if fraction == nil || !finite(*fraction) {
		return NA
	}
	return formatPct(*fraction * 100)
}

// formatPct renders a value that is already a percentage.
func formatPct(pct float64) string {
	if !finite(pct) {
		return NA
	}
	return fixed(pct, 2) + "%"
}

// FormatRatio rounds to two decimals and drops trailing zeros ("28.5").
func FormatRatio(v float64) string {
	if !finite(v) {
		return NA
	}
	r, err := strconv.ParseFloat(fixed(v, 2), 64)
	if err != nil {
		return NA
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// FormatDollars renders a price as "$123.40".
func FormatDollars(v float64) string {
	if !finite(v) {
		return NA
	}
	return "$" + fixed(v, 2)
}

// FormatRaw renders a number in its shortest form.
func FormatRaw(v float64) string {
	if !finite(v) {
		return NA
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatSignedDollars renders a change as "+$1.23" or "-$1.23".
func FormatSignedDollars(v float64) string {
	if !finite(v) {
		return NA
	}
	if v < 0 {
		return "-" + FormatDollars(-v)
	}
	return "+" + FormatDollars(v)
}

// FormatSignedPct renders a percentage change as "+1.23%" or "-1.23%".
func FormatSignedPct(pct float64) string {
	if !finite(pct) {
		return NA
	}
	if pct < 0 {
		return formatPct(pct)
	}
	return "+" + formatPct(pct)
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func toFloat(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = t
	case *float64:
		if t == nil {
			return 0, false
		}
		f = *t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case int32:
		f = float64(t)
	case uint64:
		f = float64(t)
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case decimal.Decimal:
		f = t.InexactFloat64()
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(t))
		if err != nil {
			return 0, false
		}
		f = d.InexactFloat64()
	default:
		return 0, false
	}
	if !finite(f) {
		return 0, false
	}
	return f, true
}

// formatIntComma formats an integer with comma thousand separators.
func formatIntComma(n int64) string {
	if n < 0 {
		return "-" + groupDigits(strconv.FormatInt(-n, 10))
	}
	return groupDigits(strconv.FormatInt(n, 10))
}

// groupDigits inserts commas into an unsigned digit string.
func groupDigits(s string) string {
	if len(s) <= 3 {
		return s
	}
	out := make([]byte, 0, len(s)+len(s)/3)
	rem := len(s) % 3
	if rem == 0 {
		rem = 3
	}
	out = append(out, s[:rem]...)
	for i := rem; i < len(s); i += 3 {
		out = append(out, ',')
		out = append(out, s[i:i+3]...)
	}
	return string(out)
}
