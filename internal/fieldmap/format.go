package fieldmap

import (
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	DateLayout      = "01/02/2006"
	TimestampLayout = "2006-01-02 15:04:05"
)

var amountReplacer = strings.NewReplacer("$", "", ",", "", " ", "")

// ParseAmount accepts "$1,234.56", "1234.5" and similar. Negative, empty
// and non-finite values are rejected.
func ParseAmount(text string) (float64, bool) {
	cleaned := amountReplacer.Replace(strings.TrimSpace(text))
	if cleaned == "" {
		return 0, false
	}

	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return 0, false
	}

	return RoundCents(amount), true
}

func RoundCents(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// FormatAmount renders an amount with two decimals and no grouping, the
// form stored in claim columns.
func FormatAmount(amount float64) string {
	return strconv.FormatFloat(RoundCents(amount), 'f', 2, 64)
}

func FormatCurrency(amount float64) string {
	p := message.NewPrinter(language.AmericanEnglish)
	return "$" + p.Sprintf("%.2f", RoundCents(amount))
}

var (
	truthy = map[string]bool{"yes": true, "y": true, "true": true, "on": true, "1": true, "x": true, "checked": true}
	falsy  = map[string]bool{"no": true, "n": true, "false": true, "off": true, "0": true, "": true}
)

// ParseCheckbox reports the checkbox state and whether the spelling was
// recognised at all.
func ParseCheckbox(text string) (checked bool, known bool) {
	value := strings.ToLower(strings.TrimSpace(text))
	switch {
	case truthy[value]:
		return true, true
	case falsy[value]:
		return false, true
	default:
		return false, false
	}
}

func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(TimestampLayout)
}

// NormalizePhone strips everything but digits and drops a leading US
// country code.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	digits := b.String()
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	return digits
}

// FormatPhone renders ten-digit numbers as (XXX)XXX-XXXX and returns
// anything else unchanged.
func FormatPhone(phone string) string {
	digits := NormalizePhone(phone)
	if len(digits) != 10 {
		return strings.TrimSpace(phone)
	}
	return "(" + digits[:3] + ")" + digits[3:6] + "-" + digits[6:]
}
