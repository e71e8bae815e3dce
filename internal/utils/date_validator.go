package utils

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ClaimDateLayout is the layout every claim date is rendered in.
const ClaimDateLayout = "01/02/2006"

type dateLayout struct {
	layout string
	// dayFirst marks slash layouts whose first number is the day.
	dayFirst bool
	slashed  bool
}

// US layouts are tried before day-first ones, so 03/04/2021 reads as
// March 4th.
var claimDateLayouts = []dateLayout{
	{layout: "01/02/2006", slashed: true},
	{layout: "1/2/2006", slashed: true},
	{layout: "01/02/2006 15:04:05", slashed: true},
	{layout: "01/02/2006 3:04 PM", slashed: true},
	{layout: "2006-01-02"},
	{layout: time.RFC3339},
	{layout: "2006-01-02 15:04:05"},
	{layout: "02/01/2006", slashed: true, dayFirst: true},
	{layout: "01-02-2006"},
	{layout: "02.01.2006"},
	{layout: "January 2, 2006"},
	{layout: "Jan 2, 2006"},
}

var leadingSlashDate = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/\d{4}`)

type DateParser struct {
	layouts []dateLayout
	output  string
}

type ParsedDate struct {
	Time   time.Time
	Text   string
	Layout string
}

func NewDateParser() *DateParser {
	return &DateParser{layouts: claimDateLayouts, output: ClaimDateLayout}
}

// Parse reports false for blank or unrecognized input.
func (p *DateParser) Parse(input string) (ParsedDate, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return ParsedDate{}, false
	}

	for _, candidate := range p.layouts {
		if candidate.slashed && !plausibleSlashDate(input, candidate.dayFirst) {
			continue
		}
		parsed, err := time.Parse(candidate.layout, input)
		if err != nil {
			continue
		}
		return ParsedDate{
			Time:   parsed,
			Text:   parsed.Format(p.output),
			Layout: candidate.layout,
		}, true
	}

	return ParsedDate{}, false
}

// Normalize returns input rendered as ClaimDateLayout, or input unchanged
// and false when it cannot be read as a date.
func (p *DateParser) Normalize(input string) (string, bool) {
	parsed, ok := p.Parse(input)
	if !ok {
		return input, false
	}
	return parsed.Text, true
}

func plausibleSlashDate(input string, dayFirst bool) bool {
	matches := leadingSlashDate.FindStringSubmatch(input)
	if matches == nil {
		return false
	}

	month, _ := strconv.Atoi(matches[1])
	day, _ := strconv.Atoi(matches[2])
	if dayFirst {
		month, day = day, month
	}
	return month >= 1 && month <= 12 && day >= 1 && day <= 31
}
