package cheque

import (
	"strings"
	"time"
)

// Status is the lifecycle state of a cheque record.
type Status string

const (
	StatusValid    Status = "valid"
	StatusNotValid Status = "not_valid"
	StatusPaid     Status = "paid"

	// StatusNotFound only appears on verifications for unknown cheque numbers.
	StatusNotFound Status = "not_found"
)

// Statuses lists the states a stored cheque may hold, in display order.
var Statuses = []Status{StatusValid, StatusNotValid, StatusPaid}

// Label returns the human readable status name.
func (s Status) Label() string {
	switch s {
	case StatusValid:
		return "Valid"
	case StatusNotValid:
		return "Not Valid"
	case StatusPaid:
		return "Paid"
	case StatusNotFound:
		return "Not Found"
	default:
		return "-"
	}
}

// IsRecordStatus reports whether s may be stored on a cheque record.
func (s Status) IsRecordStatus() bool {
	for _, candidate := range Statuses {
		if s == candidate {
			return true
		}
	}
	return false
}

// ParseStatus accepts the stored value or the label, case-insensitively.
func ParseStatus(value string) (Status, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	v = strings.ReplaceAll(v, " ", "_")
	for _, s := range []Status{StatusValid, StatusNotValid, StatusPaid, StatusNotFound} {
		if v == string(s) {
			return s, true
		}
	}
	return "", false
}

// Next cycles through the record statuses.
func (s Status) Next() Status {
	for i, candidate := range Statuses {
		if candidate == s {
			return Statuses[(i+1)%len(Statuses)]
		}
	}
	return StatusValid
}

// Prev cycles backwards through the record statuses.
func (s Status) Prev() Status {
	for i, candidate := range Statuses {
		if candidate == s {
			return Statuses[(i+len(Statuses)-1)%len(Statuses)]
		}
	}
	return StatusValid
}

// Record is a persisted cheque. ChequeID is the uniqueness key and never
// changes after creation.
type Record struct {
	ID        string    `json:"id"`
	ChequeID  string    `json:"chequeId"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Amount    string    `json:"amount"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	CreatedBy string    `json:"createdBy"`
}

// Edit carries the mutable fields of a record.
type Edit struct {
	Name   string
	Phone  string
	Amount string
	Status Status
}

// Verification is a single lookup performed by the public verification page.
type Verification struct {
	ID         string    `json:"id"`
	ChequeID   string    `json:"chequeId"`
	Name       string    `json:"name"`
	VerifiedBy string    `json:"verifiedBy"`
	Status     Status    `json:"status"`
	VerifiedAt time.Time `json:"verifiedAt"`
}

// FormState is the non-code part of the entry form.
type FormState struct {
	Name   string `validate:"required"`
	Phone  string `validate:"required"`
	Amount string `validate:"required"`
	Status Status `validate:"oneof=valid not_valid paid"`
}

// DefaultForm returns the initial form values.
func DefaultForm() FormState {
	return FormState{Status: StatusValid}
}
