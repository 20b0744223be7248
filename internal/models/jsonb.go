package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// marshalColumn encodes v for a JSONB column.
func marshalColumn(name string, v interface{}) (driver.Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", name, err)
	}
	return data, nil
}

// scanColumn decodes a JSONB column into dest. It reports false when the
// column is NULL or empty, leaving dest untouched.
func scanColumn(name string, value, dest interface{}) (bool, error) {
	var data []byte
	switch v := value.(type) {
	case nil:
		return false, nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return false, fmt.Errorf("%s: unsupported column type %T", name, value)
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", name, err)
	}
	return true, nil
}
