package domain

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ApplicationRequest is one applicant record as received by the service.
type ApplicationRequest struct {
	ID              float64      `json:"id"`
	ApplicationDate string       `json:"application_date"`
	Contracts       RawContracts `json:"contracts"`
}

// RawContracts holds the contracts field exactly as it arrived: absent/null,
// a JSON-encoded string, or an inline JSON value (normally an array).
type RawContracts struct {
	Text   string
	Inline json.RawMessage
}

// ContractsText wraps a JSON-encoded contract list.
func ContractsText(s string) RawContracts {
	return RawContracts{Text: s}
}

// IsEmpty reports whether nothing usable was supplied.
func (c RawContracts) IsEmpty() bool {
	return c.Text == "" && len(c.Inline) == 0
}

func (c *RawContracts) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	*c = RawContracts{}

	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] == '"' {
		return json.Unmarshal(trimmed, &c.Text)
	}

	c.Inline = append(json.RawMessage(nil), trimmed...)
	return nil
}

func (c RawContracts) MarshalJSON() ([]byte, error) {
	switch {
	case len(c.Inline) > 0:
		return c.Inline, nil
	case c.Text != "":
		return json.Marshal(c.Text)
	default:
		return []byte("null"), nil
	}
}

var (
	ErrMissingID              = errors.New("id is required")
	ErrMissingApplicationDate = errors.New("application_date is required")
)

// ApplicationPayload is the wire shape of an ApplicationRequest before the
// required fields have been checked.
type ApplicationPayload struct {
	ID              *float64     `json:"id"`
	ApplicationDate *string      `json:"application_date"`
	Contracts       RawContracts `json:"contracts"`
}

// Request validates the required top-level fields.
func (p ApplicationPayload) Request() (ApplicationRequest, error) {
	if p.ID == nil {
		return ApplicationRequest{}, ErrMissingID
	}
	if p.ApplicationDate == nil {
		return ApplicationRequest{}, ErrMissingApplicationDate
	}
	return ApplicationRequest{
		ID:              *p.ID,
		ApplicationDate: *p.ApplicationDate,
		Contracts:       p.Contracts,
	}, nil
}
