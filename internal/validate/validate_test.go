package validate_test

import (
	"slices"
	"testing"

	"github.com/lehen20/dpr-auto/internal/fields"
	"github.com/lehen20/dpr-auto/internal/validate"
)

func completeRecord() map[fields.Name]fields.Field {
	return map[fields.Name]fields.Field{
		fields.EntityName:         fields.New(fields.String("Acme Private Limited"), 0.9),
		fields.RegistrationNumber: fields.New(fields.String("U72900MH2021PTC123456"), 0.95),
		fields.CompanyType:        fields.New(fields.String("Private Limited"), 0.85),
	}
}

func TestValidate(t *testing.T) {
	t.Run("complete record passes", func(t *testing.T) {
		result := validate.Validate(completeRecord())
		if !result.Valid() {
			t.Errorf("expected valid, got flags %v warnings %v", result.FlaggedFields, result.Warnings)
		}
	})

	t.Run("missing mandatory field flagged", func(t *testing.T) {
		merged := completeRecord()
		delete(merged, fields.RegistrationNumber)

		result := validate.Validate(merged)
		if !slices.Contains(result.FlaggedFields, "registration_number") {
			t.Errorf("registration_number not flagged: %v", result.FlaggedFields)
		}
		if !slices.Contains(result.Warnings, "mandatory field registration_number is missing") {
			t.Errorf("missing-field warning absent: %v", result.Warnings)
		}
	})

	t.Run("null mandatory field counts as missing", func(t *testing.T) {
		merged := completeRecord()
		merged[fields.EntityName] = fields.New(fields.Null(), 0.9)

		result := validate.Validate(merged)
		if !slices.Contains(result.FlaggedFields, "name") {
			t.Errorf("null name not flagged: %v", result.FlaggedFields)
		}
	})

	t.Run("confidence below floor flagged", func(t *testing.T) {
		merged := completeRecord()
		merged[fields.RegisteredOffice] = fields.New(fields.String("12 MG Road, Mumbai"), 0.7)

		result := validate.Validate(merged)
		if !slices.Contains(result.FlaggedFields, "registered_office_address") {
			t.Errorf("low-confidence field not flagged: %v", result.FlaggedFields)
		}
	})

	t.Run("confidence at floor passes", func(t *testing.T) {
		merged := completeRecord()
		merged[fields.RegisteredOffice] = fields.New(fields.String("12 MG Road, Mumbai"), validate.ConfidenceFloor)

		result := validate.Validate(merged)
		if slices.Contains(result.FlaggedFields, "registered_office_address") {
			t.Errorf("field at floor should not be flagged: %v", result.Warnings)
		}
	})

	t.Run("malformed CIN flagged", func(t *testing.T) {
		merged := completeRecord()
		merged[fields.RegistrationNumber] = fields.New(fields.String("NOT-A-CIN"), 0.95)

		result := validate.Validate(merged)
		if !slices.Contains(result.Warnings, `registration number "NOT-A-CIN" does not match CIN format`) {
			t.Errorf("CIN warning absent: %v", result.Warnings)
		}
	})

	t.Run("listed CIN formats accepted", func(t *testing.T) {
		for _, cin := range []string{"U72900MH2021PTC123456", "L65910DL1994PLC060618"} {
			merged := completeRecord()
			merged[fields.RegistrationNumber] = fields.New(fields.String(cin), 0.95)
			if result := validate.Validate(merged); !result.Valid() {
				t.Errorf("CIN %q rejected: %v", cin, result.Warnings)
			}
		}
	})

	t.Run("non-ISO date flagged", func(t *testing.T) {
		merged := completeRecord()
		merged[fields.DateOfFormation] = fields.New(fields.String("15/03/2021"), 0.9)

		result := validate.Validate(merged)
		if !slices.Contains(result.FlaggedFields, "date_of_formation") {
			t.Errorf("bad date not flagged: %v", result.FlaggedFields)
		}
	})

	t.Run("ISO date passes", func(t *testing.T) {
		merged := completeRecord()
		merged[fields.DateOfFormation] = fields.New(fields.String("2021-03-15"), 0.9)

		if result := validate.Validate(merged); !result.Valid() {
			t.Errorf("ISO date rejected: %v", result.Warnings)
		}
	})

	t.Run("field flagged once per rule", func(t *testing.T) {
		merged := completeRecord()
		merged[fields.RegistrationNumber] = fields.New(fields.String("BAD"), 0.5)

		result := validate.Validate(merged)
		count := 0
		for _, name := range result.FlaggedFields {
			if name == "registration_number" {
				count++
			}
		}
		// One flag for the confidence floor, one for the CIN format.
		if count != 2 {
			t.Errorf("registration_number flagged %d times, want 2", count)
		}
	})
}
