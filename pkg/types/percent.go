package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Percent is an admin-entered percentage. Backends have been observed
// serving it as a JSON number, a numeric string, or null; all three decode.
// Values outside 0–100 are preserved as-is and left to the pricing rules.
type Percent float64

// Float returns the percentage as a plain float64.
func (p Percent) Float() float64 {
	return float64(p)
}

func (p Percent) MarshalJSON() ([]byte, error) {
	return json.Marshal(float64(p))
}

func (p *Percent) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		return nil
	}

	if strings.HasPrefix(trimmed, `"`) {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return nil
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("parse percent %q: %w", raw, err)
		}
		*p = Percent(value)
		return nil
	}

	var value float64
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	*p = Percent(value)
	return nil
}
