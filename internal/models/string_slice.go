package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringSlice persists an ordered list of strings as a JSON text column.
type StringSlice []string

// Value implements driver.Valuer.
func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (s *StringSlice) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*s = StringSlice{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StringSlice", value)
	}
	if len(raw) == 0 {
		*s = StringSlice{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("decode string slice: %w", err)
	}
	*s = out
	return nil
}
