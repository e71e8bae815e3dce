package fieldmap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
		ok       bool
	}{
		{input: "1234.56", expected: 1234.56, ok: true},
		{input: "$1,234.56", expected: 1234.56, ok: true},
		{input: " $ 90 000 ", expected: 90000, ok: true},
		{input: "0.005", expected: 0.01, ok: true},
		{input: "", ok: false},
		{input: "-5", ok: false},
		{input: "NaN", ok: false},
		{input: "ten dollars", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			amount, ok := ParseAmount(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.expected, amount, 0.0001)
		})
	}
}

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "$0.00", FormatCurrency(0))
	assert.Equal(t, "$90,000.00", FormatCurrency(90000))
	assert.Equal(t, "$1,234,567.89", FormatCurrency(1234567.891))
	assert.Equal(t, "0.30", FormatAmount(0.1+0.2))
}

func TestFormatPhone(t *testing.T) {
	tests := map[string]string{
		"202-555-0143":    "(202)555-0143",
		"+1 202 555 0143": "(202)555-0143",
		"(202)5550143":    "(202)555-0143",
		"555-0143":        "555-0143",
		"":                "",
	}
	for input, expected := range tests {
		assert.Equal(t, expected, FormatPhone(input), input)
	}
}

func TestFormatDateAndTimestamp(t *testing.T) {
	ts := time.Date(2026, 10, 16, 9, 5, 3, 0, time.UTC)
	assert.Equal(t, "10/16/2026", FormatDate(ts))
	assert.Equal(t, "2026-10-16 09:05:03", FormatTimestamp(ts))
	assert.Equal(t, "", FormatDate(time.Time{}))
}

func TestNamesMatch(t *testing.T) {
	tests := []struct {
		signature string
		name      string
		expected  bool
	}{
		{signature: "alice smith", name: "Alice Smith", expected: true},
		{signature: "  ALICE   smith ", name: "Alice Smith", expected: true},
		{signature: "Alice Smyth", name: "Alice Smith", expected: false},
		{signature: "", name: "Alice Smith", expected: false},
		{signature: "", name: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.signature, func(t *testing.T) {
			assert.Equal(t, tt.expected, NamesMatch(tt.signature, tt.name))
		})
	}
}

func TestDocumentFilename(t *testing.T) {
	assert.Equal(t, "alice-example-com_SF95.pdf", DocumentFilename("Alice@Example.com"))
	assert.Equal(t, "a-b-c-d-org_SF95.pdf", DocumentFilename(" a.b+c@d.org "))
	assert.Equal(t, DocumentFilename("ALICE@example.com"), DocumentFilename("alice@example.com"))
	assert.Equal(t, "", DocumentFilename("@@"))
}

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("alice@example.com"))
	assert.False(t, ValidEmail("Alice <alice@example.com>"))
	assert.False(t, ValidEmail("alice@localhost"))
	assert.False(t, ValidEmail("not an email"))
	assert.False(t, ValidEmail(""))
}
