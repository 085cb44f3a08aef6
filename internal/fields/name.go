package fields

import "fmt"

// Name identifies a logical field in the consolidated record. The set is
// closed; field access goes through this enumeration rather than runtime
// reflection over record shape.
type Name string

const (
	EntityName            Name = "name"
	RegistrationNumber    Name = "registration_number"
	CompanyType           Name = "company_type"
	DateOfFormation       Name = "date_of_formation"
	DateOfCommencement    Name = "date_of_commencement"
	RegisteredOffice      Name = "registered_office_address"
	AuthorizedCapital     Name = "authorized_share_capital"
	MainObjectivesRaw     Name = "main_objectives_raw"
	MainObjectivesSummary Name = "main_objectives_summary"
	InclusivenessRaw      Name = "inclusiveness_policy_raw"
	InclusivenessSummary  Name = "inclusiveness_policy_summary"
	BoardList             Name = "board_list"
	ShareholdingSchedule  Name = "shareholding_schedule"
	MoAAoAPresent         Name = "moa_aoa_present"
)

// All lists every logical field in record order.
var All = []Name{
	EntityName,
	RegistrationNumber,
	CompanyType,
	DateOfFormation,
	DateOfCommencement,
	RegisteredOffice,
	AuthorizedCapital,
	MainObjectivesRaw,
	MainObjectivesSummary,
	InclusivenessRaw,
	InclusivenessSummary,
	BoardList,
	ShareholdingSchedule,
	MoAAoAPresent,
}

// Mandatory lists the fields a consolidated record must carry to be complete.
var Mandatory = []Name{EntityName, RegistrationNumber, CompanyType}

var nameSet = func() map[Name]struct{} {
	m := make(map[Name]struct{}, len(All))
	for _, n := range All {
		m[n] = struct{}{}
	}
	return m
}()

// ParseName validates a field identifier against the closed set.
func ParseName(s string) (Name, error) {
	if _, ok := nameSet[Name(s)]; !ok {
		return "", fmt.Errorf("unknown field name: %q", s)
	}
	return Name(s), nil
}

// IsMandatory reports whether the field must be present in a complete record.
func IsMandatory(n Name) bool {
	for _, m := range Mandatory {
		if m == n {
			return true
		}
	}
	return false
}
