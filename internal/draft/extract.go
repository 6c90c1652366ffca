// Package draft validates and normalizes the model's compose_email
// arguments into a canonical Draft.
package draft

import (
	"encoding/json"
	"fmt"

	"github.com/otg002/Lumabot/internal/model"
)

// MalformedError reports that the model's function arguments did not
// form a usable draft. Callers treat it as "no draft was produced" and
// fall back to the model's plain-text content.
type MalformedError struct {
	Field  string
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed draft: field %q %s", e.Field, e.Reason)
}

// Parse decodes the loosely-typed function arguments into a Draft.
// to, subject, and body must be present, be strings, and be non-empty;
// cc and bcc are optional comma-separated address strings. Address
// syntax is deliberately not validated here; the mail relay is the
// authority on what it accepts.
func Parse(args json.RawMessage) (*model.Draft, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(args, &fields); err != nil {
		return nil, &MalformedError{Field: "arguments", Reason: "are not a JSON object"}
	}

	d := &model.Draft{}

	required := []struct {
		name string
		dst  *string
	}{
		{"to", &d.To},
		{"subject", &d.Subject},
		{"body", &d.Body},
	}

	for _, f := range required {
		raw, ok := fields[f.name]
		if !ok {
			return nil, &MalformedError{Field: f.name, Reason: "is missing"}
		}
		if err := json.Unmarshal(raw, f.dst); err != nil {
			return nil, &MalformedError{Field: f.name, Reason: "is not a string"}
		}
		if *f.dst == "" {
			return nil, &MalformedError{Field: f.name, Reason: "is empty"}
		}
	}

	optional := []struct {
		name string
		dst  *string
	}{
		{"cc", &d.Cc},
		{"bcc", &d.Bcc},
	}

	for _, f := range optional {
		raw, ok := fields[f.name]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, f.dst); err != nil {
			return nil, &MalformedError{Field: f.name, Reason: "is not a string"}
		}
	}

	return d, nil
}
