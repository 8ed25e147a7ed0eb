package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Carbon schema versions. Version 1 stored a single grams value; version 2
// keeps the grid and renewable estimates separately.
const (
	CarbonSchemaScalar     = 1
	CarbonSchemaStructured = 2
)

// CarbonEmissions is the per-page-view CO2 estimate in grams, for grid
// powered and renewably powered hosting
type CarbonEmissions struct {
	Grid      float64 `json:"grid"`
	Renewable float64 `json:"renewable"`
}

// CarbonEmissionsFromScalar converts a legacy single value. Both estimates
// take the scalar since it carried no split.
func CarbonEmissionsFromScalar(grams float64) CarbonEmissions {
	return CarbonEmissions{Grid: grams, Renewable: grams}
}

// Effective returns the estimate that applies to the site's hosting
func (c CarbonEmissions) Effective(greenHosting bool) float64 {
	if greenHosting {
		return c.Renewable
	}
	return c.Grid
}

// UnmarshalJSON accepts a bare number (legacy) or an object whose grid and
// renewable members are numbers or {"grams": n} objects
func (c *CarbonEmissions) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("carbon emissions: missing value")
	}

	if len(data) > 0 && data[0] != '{' {
		var scalar float64
		if err := json.Unmarshal(data, &scalar); err != nil {
			return fmt.Errorf("carbon emissions: %w", err)
		}
		*c = CarbonEmissionsFromScalar(scalar)
		return nil
	}

	var detail struct {
		Grid      *grams `json:"grid"`
		Renewable *grams `json:"renewable"`
	}
	if err := json.Unmarshal(data, &detail); err != nil {
		return fmt.Errorf("carbon emissions: %w", err)
	}
	if detail.Grid == nil || detail.Renewable == nil {
		return fmt.Errorf("carbon emissions: grid and renewable are required")
	}

	c.Grid = float64(*detail.Grid)
	c.Renewable = float64(*detail.Renewable)
	return nil
}

type grams float64

func (g *grams) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var wrapped struct {
			Grams *float64 `json:"grams"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return err
		}
		if wrapped.Grams == nil {
			return fmt.Errorf("missing grams")
		}
		*g = grams(*wrapped.Grams)
		return nil
	}

	var value float64
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	*g = grams(value)
	return nil
}
