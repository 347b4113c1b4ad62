// Package validation checks inbound audit-request fields before anything is
// persisted. Every rule is evaluated and all violations are reported, in the
// fixed field order name, email, company, website, message (then status for
// patches).
package validation

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/asaskevich/govalidator"

	"github.com/parallax/audit-backend/internal/model"
)

const (
	MaxNameLength    = 100
	MaxCompanyLength = 150
	MaxMessageLength = 1000
)

// Error codes carried by FieldError.Code.
const (
	CodeRequired      = "required"
	CodeTooLong       = "too_long"
	CodeInvalidFormat = "invalid_format"
	CodeInvalidURL    = "invalid_url"
	CodeInvalidStatus = "invalid_status"
)

// FieldError describes one violated rule.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Errors is an ordered list of violations.
type Errors []FieldError

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Submission is the raw, untrusted form payload.
type Submission struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
	Website string `json:"website"`
	Message string `json:"message"`
}

// Patch is the raw payload of an update; absent fields stay nil.
type Patch struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Company *string `json:"company"`
	Website *string `json:"website"`
	Message *string `json:"message"`
	Status  *string `json:"status"`
}

// rules run in field order: name, email, company, website, message.
var rules = []func(v string) (string, *FieldError){
	func(v string) (string, *FieldError) { return v, textRule("name", "Name", v, MaxNameLength) },
	checkEmail,
	func(v string) (string, *FieldError) { return v, textRule("company", "Company name", v, MaxCompanyLength) },
	checkWebsite,
	func(v string) (string, *FieldError) { return v, textRule("message", "Message", v, MaxMessageLength) },
}

// ValidateSubmission trims and checks every field, returning the normalized
// values or the full list of violations.
func ValidateSubmission(s Submission) (model.NewAuditRequest, Errors) {
	values := []*string{&s.Name, &s.Email, &s.Company, &s.Website, &s.Message}

	var errs Errors
	for i, check := range rules {
		norm, fe := check(strings.TrimSpace(*values[i]))
		if fe != nil {
			errs = append(errs, *fe)
			continue
		}
		*values[i] = norm
	}
	if len(errs) > 0 {
		return model.NewAuditRequest{}, errs
	}
	return model.NewAuditRequest{
		Name:    s.Name,
		Email:   s.Email,
		Company: s.Company,
		Website: s.Website,
		Message: s.Message,
	}, nil
}

// ValidatePatch applies the submission rules to the supplied fields only and
// checks status against the known values.
func ValidatePatch(p Patch) (model.AuditRequestPatch, Errors) {
	values := []*string{p.Name, p.Email, p.Company, p.Website, p.Message}
	normalized := make([]*string, len(values))

	var errs Errors
	for i, check := range rules {
		if values[i] == nil {
			continue
		}
		norm, fe := check(strings.TrimSpace(*values[i]))
		if fe != nil {
			errs = append(errs, *fe)
			continue
		}
		normalized[i] = &norm
	}

	var status *model.Status
	if p.Status != nil {
		s := model.Status(strings.ToLower(strings.TrimSpace(*p.Status)))
		if !s.Valid() {
			errs = append(errs, FieldError{
				Field:   "status",
				Code:    CodeInvalidStatus,
				Message: "Status must be one of pending, reviewed, contacted, completed",
			})
		} else {
			status = &s
		}
	}

	if len(errs) > 0 {
		return model.AuditRequestPatch{}, errs
	}
	return model.AuditRequestPatch{
		Name:    normalized[0],
		Email:   normalized[1],
		Company: normalized[2],
		Website: normalized[3],
		Message: normalized[4],
		Status:  status,
	}, nil
}

func textRule(field, label, v string, max int) *FieldError {
	if v == "" {
		return &FieldError{Field: field, Code: CodeRequired, Message: label + " is required"}
	}
	if !govalidator.StringLength(v, "0", strconv.Itoa(max)) {
		return &FieldError{
			Field:   field,
			Code:    CodeTooLong,
			Message: label + " cannot exceed " + strconv.Itoa(max) + " characters",
		}
	}
	return nil
}

func checkEmail(v string) (string, *FieldError) {
	if v == "" {
		return v, &FieldError{Field: "email", Code: CodeRequired, Message: "Email is required"}
	}
	norm := strings.ToLower(v)
	if !govalidator.IsEmail(norm) {
		return v, &FieldError{Field: "email", Code: CodeInvalidFormat, Message: "Please provide a valid email address"}
	}
	return norm, nil
}

func checkWebsite(v string) (string, *FieldError) {
	if v == "" {
		return v, &FieldError{Field: "website", Code: CodeRequired, Message: "Website URL is required"}
	}
	if !govalidator.IsURL(v) {
		return v, invalidURL()
	}
	u, err := url.Parse(v)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return v, invalidURL()
	}
	return v, nil
}

func invalidURL() *FieldError {
	return &FieldError{Field: "website", Code: CodeInvalidURL, Message: "Please provide a valid URL"}
}
