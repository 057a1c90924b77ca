package scraper

import (
	"strings"

	"github.com/shopspring/decimal"
)

var numberCleaner = strings.NewReplacer(
	",", "", "，", "",
	"円", "", "¥", "", "￥", "",
	"%", "", "％", "",
	" ", "", "\u3000", "", "\u00a0", "",
	"\u2212", "-", "\uff0d", "-", "▲", "-", "△", "-",
	"＋", "+",
)

// parseDecimal reads a locale-formatted number such as "1,234円", "-12.5%"
// or "▲3,000". Anything unparseable yields false.
func parseDecimal(text string) (decimal.Decimal, bool) {
	s := numberCleaner.Replace(strings.TrimSpace(text))
	s = strings.TrimPrefix(s, "+")
	if s == "" || s == "-" || s == "--" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// ParseYen parses an integral yen amount, rounding half away from zero.
func ParseYen(text string) *int64 {
	d, ok := parseDecimal(text)
	if !ok {
		return nil
	}
	v := d.Round(0).IntPart()
	return &v
}

// ParseFloat parses a quantity or price.
func ParseFloat(text string) *float64 {
	d, ok := parseDecimal(text)
	if !ok {
		return nil
	}
	v := d.InexactFloat64()
	return &v
}

// ParsePercent parses "12.34%" as 12.34.
func ParsePercent(text string) *float64 {
	return ParseFloat(text)
}

func yenOrZero(text string) int64 {
	if v := ParseYen(text); v != nil {
		return *v
	}
	return 0
}
