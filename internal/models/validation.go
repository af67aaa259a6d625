package models

// IssueKind identifies a facility consistency check.
type IssueKind string

const (
	IssueCapacityExceeded IssueKind = "CapacityExceeded"
	IssueNegativeUsage    IssueKind = "NegativeUsage"
	IssueInvalidCapacity  IssueKind = "InvalidCapacity"
)

// Issue lists the facilities failing one consistency check.
type Issue struct {
	Kind        IssueKind `json:"kind"`
	Message     string    `json:"message"`
	FacilityIDs []string  `json:"facility_ids"`
}
