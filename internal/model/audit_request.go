package model

import "time"

// Status is the review state of an audit request.
type Status string

const (
	StatusPending   Status = "pending"
	StatusReviewed  Status = "reviewed"
	StatusContacted Status = "contacted"
	StatusCompleted Status = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusReviewed, StatusContacted, StatusCompleted:
		return true
	}
	return false
}

// AuditRequest is a "digital audit" lead submitted through the public form.
// ID is database-assigned when the primary store holds the record and a
// millisecond timestamp string when it was written to the local fallback.
type AuditRequest struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Company   string    `json:"company"`
	Website   string    `json:"website"`
	Message   string    `json:"message"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewAuditRequest carries the validated, normalized fields of a submission.
type NewAuditRequest struct {
	Name    string
	Email   string
	Company string
	Website string
	Message string
}

// AuditRequestPatch holds the fields supplied to an update. Nil means "leave as is".
type AuditRequestPatch struct {
	Name    *string
	Email   *string
	Company *string
	Website *string
	Message *string
	Status  *Status
}

// Apply merges the supplied fields over r. Timestamps are not touched.
func (p AuditRequestPatch) Apply(r *AuditRequest) {
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Email != nil {
		r.Email = *p.Email
	}
	if p.Company != nil {
		r.Company = *p.Company
	}
	if p.Website != nil {
		r.Website = *p.Website
	}
	if p.Message != nil {
		r.Message = *p.Message
	}
	if p.Status != nil {
		r.Status = *p.Status
	}
}
