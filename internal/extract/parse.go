package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var currencyNumber = regexp.MustCompile(`\d+(?:\.\d+)?`)

// ParseCurrencyINR parses an Indian currency amount into whole rupees.
// Thousands separators are stripped, "crore" multiplies by 1e7 and "lakh"
// by 1e5, and the result is truncated to an integer.
func ParseCurrencyINR(text string) (int64, error) {
	cleaned := strings.NewReplacer(",", "", " ", "", " ", "").Replace(text)

	match := currencyNumber.FindString(cleaned)
	if match == "" {
		return 0, fmt.Errorf("no numeric amount in %q", text)
	}

	amount, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", match, err)
	}

	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "crore"):
		amount *= 1e7
	case strings.Contains(lower, "lakh"):
		amount *= 1e5
	}

	return int64(amount), nil
}

var (
	numericDate = regexp.MustCompile(`(\d{1,2})[/-](\d{1,2})[/-](\d{4})`)
	wordedDate  = regexp.MustCompile(`(?i)(\d{1,2})(?:st|nd|rd|th)?\s+([A-Za-z]+),?\s+(\d{4})`)
)

var monthNumbers = map[string]string{
	"january": "01", "february": "02", "march": "03", "april": "04",
	"may": "05", "june": "06", "july": "07", "august": "08",
	"september": "09", "october": "10", "november": "11", "december": "12",
}

// NormalizeDate converts D/M/YYYY and "1st January, 2023" style dates to
// YYYY-MM-DD. Unrecognized text yields no result rather than a guess.
func NormalizeDate(text string) (string, bool) {
	if m := numericDate.FindStringSubmatch(text); m != nil {
		return m[3] + "-" + pad2(m[2]) + "-" + pad2(m[1]), true
	}

	if m := wordedDate.FindStringSubmatch(text); m != nil {
		month, ok := monthNumbers[strings.ToLower(m[2])]
		if !ok {
			return "", false
		}
		return m[3] + "-" + month + "-" + pad2(m[1]), true
	}

	return "", false
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
