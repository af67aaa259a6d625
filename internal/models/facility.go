package models

import "github.com/noah-isme/scas-api/pkg/coerce"

// Maintenance status values.
const (
	MaintenanceGood             = "Good"
	MaintenanceUnderMaintenance = "Under Maintenance"
	MaintenanceNeedsRepair      = "Needs Repair"
)

// MaintenanceStatuses lists the recognised statuses; the first one is the fallback.
var MaintenanceStatuses = []string{MaintenanceGood, MaintenanceUnderMaintenance, MaintenanceNeedsRepair}

// Facility is a campus space row from the Facilities table.
type Facility struct {
	FacilityID        string  `json:"FacilityID" validate:"required"`
	FacilityType      string  `json:"FacilityType"`
	Capacity          int     `json:"Capacity" validate:"min=0"`
	AverageDailyUsers int     `json:"AverageDailyUsers" validate:"min=0"`
	UsageHoursPerDay  float64 `json:"UsageHoursPerDay" validate:"min=0"`
	MaintenanceStatus string  `json:"MaintenanceStatus" validate:"oneof='Good' 'Under Maintenance' 'Needs Repair'"`
	Location          *string `json:"Location"`
	Missing           Missing `json:"-" validate:"-"`
}

// FacilityFromRow decodes a stored row. Unusable capacity, users and hours cells decode
// to zero and are listed in Missing.
func FacilityFromRow(row Row) Facility {
	d := numericDecoder{row: row}
	f := Facility{
		FacilityID:        coerce.String(row[ColFacilityID]),
		FacilityType:      coerce.String(row[ColFacilityType]),
		Capacity:          d.integer(ColCapacity),
		AverageDailyUsers: d.integer(ColAverageDailyUsers),
		UsageHoursPerDay:  d.float(ColUsageHoursPerDay),
		MaintenanceStatus: coerce.String(row[ColMaintenanceStatus]),
		Location:          coerce.OptionalString(row[ColLocation]),
	}
	f.Missing = d.missing
	return f
}

// FacilitiesFromTable decodes every row of a Facilities scan.
func FacilitiesFromTable(table Table) []Facility {
	out := make([]Facility, 0, len(table.Rows))
	for _, row := range table.Rows {
		out = append(out, FacilityFromRow(row))
	}
	return out
}

func (Facility) Entity() Entity { return EntityFacilities }

func (f Facility) Key() string { return f.FacilityID }

func (f Facility) Row() Row {
	return Row{
		ColFacilityID:        f.FacilityID,
		ColFacilityType:      f.FacilityType,
		ColCapacity:          f.Missing.cell(ColCapacity, f.Capacity),
		ColAverageDailyUsers: f.Missing.cell(ColAverageDailyUsers, f.AverageDailyUsers),
		ColUsageHoursPerDay:  f.Missing.cell(ColUsageHoursPerDay, f.UsageHoursPerDay),
		ColMaintenanceStatus: f.MaintenanceStatus,
		ColLocation:          stringOrNil(f.Location),
	}
}

// FieldValue returns the string form of a filterable field.
func (f Facility) FieldValue(field string) (string, bool) {
	switch field {
	case ColFacilityType:
		return f.FacilityType, true
	case ColMaintenanceStatus:
		return f.MaintenanceStatus, true
	case ColLocation:
		if f.Location == nil {
			return "", false
		}
		return *f.Location, true
	default:
		return "", false
	}
}
