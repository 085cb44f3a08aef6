// Package validate checks consolidated field sets against the fixed
// domain rule set. Validation is stateless and advisory: it flags and
// warns but never mutates the record or blocks persistence.
package validate

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/lehen20/dpr-auto/internal/fields"
)

// ConfidenceFloor below which a field is flagged for human review.
const ConfidenceFloor = 0.85

var (
	cinFormat  = regexp.MustCompile(`^[UL]\d{5}[A-Z]{2}\d{4}[A-Z]{3}\d{6}$`)
	dateFormat = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// dateFields lists the fields holding normalized dates.
var dateFields = []fields.Name{fields.DateOfFormation, fields.DateOfCommencement}

// Result reports fields flagged for review plus human-readable warnings.
type Result struct {
	FlaggedFields []string `json:"flagged_fields"`
	Warnings      []string `json:"warnings"`
}

// Valid reports whether validation raised nothing.
func (r Result) Valid() bool {
	return len(r.FlaggedFields) == 0 && len(r.Warnings) == 0
}

// Validate applies the rule set to a merged field map: mandatory presence,
// the confidence floor, the registration-number format, and date formats.
func Validate(merged map[fields.Name]fields.Field) Result {
	result := Result{
		FlaggedFields: []string{},
		Warnings:      []string{},
	}

	flag := func(name fields.Name, warning string) {
		result.FlaggedFields = append(result.FlaggedFields, string(name))
		result.Warnings = append(result.Warnings, warning)
	}

	for _, name := range fields.Mandatory {
		f, ok := merged[name]
		if !ok || f.Value.IsNull() {
			flag(name, fmt.Sprintf("mandatory field %s is missing", name))
		}
	}

	names := make([]fields.Name, 0, len(merged))
	for name := range merged {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	for _, name := range names {
		f := merged[name]
		if f.Value.IsNull() {
			continue
		}

		if f.Confidence < ConfidenceFloor {
			flag(name, fmt.Sprintf("field %s confidence %.2f below review floor", name, f.Confidence))
		}

		if name == fields.RegistrationNumber {
			if s, ok := f.Value.AsString(); ok && !cinFormat.MatchString(s) {
				flag(name, fmt.Sprintf("registration number %q does not match CIN format", s))
			}
		}

		for _, dateName := range dateFields {
			if name != dateName {
				continue
			}
			if s, ok := f.Value.AsString(); ok && !dateFormat.MatchString(s) {
				flag(name, fmt.Sprintf("field %s value %q is not a YYYY-MM-DD date", name, s))
			}
		}
	}

	return result
}
