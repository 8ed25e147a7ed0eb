package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// PageViews keeps the raw annualPageViews value from a request body. Clients
// send either a JSON number or a numeric string; validation happens in the
// traffic estimator so that every entry point shares the same rules.
type PageViews struct {
	Raw string
}

// UnmarshalJSON never fails; non-numeric input is rejected at validation
func (p *PageViews) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		p.Raw = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		p.Raw = strings.TrimSpace(s)
		return nil
	}

	p.Raw = string(data)
	return nil
}
