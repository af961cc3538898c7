package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringSlice stores a list of strings as a JSON array column.
type StringSlice []string

func (s StringSlice) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (s *StringSlice) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*s = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported StringSlice source %T", value)
	}

	if len(data) == 0 || string(data) == "null" {
		*s = nil
		return nil
	}
	return json.Unmarshal(data, (*[]string)(s))
}

// TrailOf converts a state sequence into a storable slice.
func TrailOf(states []AcquisitionState) StringSlice {
	out := make(StringSlice, len(states))
	for i, st := range states {
		out[i] = string(st)
	}
	return out
}
