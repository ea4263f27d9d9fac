package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// StringArray is stored as a PostgreSQL array literal ({"a","b"}) in a text
// column, which keeps it readable on both postgres and sqlite.
type StringArray []string

// Scan implements the sql.Scanner interface
func (s *StringArray) Scan(value interface{}) error {
	if value == nil {
		*s = StringArray{}
		return nil
	}

	switch v := value.(type) {
	case string:
		trimmed := strings.TrimSuffix(strings.TrimPrefix(v, "{"), "}")
		if strings.TrimSpace(trimmed) == "" {
			*s = StringArray{}
			return nil
		}

		*s = splitArrayLiteral(trimmed)
		return nil
	case []byte:
		// Older rows may hold a JSON array
		var arr []string
		if err := json.Unmarshal(v, &arr); err == nil {
			*s = arr
			return nil
		}
		return s.Scan(string(v))
	default:
		return fmt.Errorf("cannot scan %T into StringArray", value)
	}
}

// Value implements the driver.Valuer interface
func (s StringArray) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "{}", nil
	}

	quoted := make([]string, len(s))
	for i, v := range s {
		escaped := strings.ReplaceAll(v, `\`, `\\`)
		escaped = strings.ReplaceAll(escaped, `"`, `\"`)
		quoted[i] = `"` + escaped + `"`
	}

	return "{" + strings.Join(quoted, ",") + "}", nil
}

// splitArrayLiteral splits the body of an array literal on commas that are
// outside double quotes and unescapes each element.
func splitArrayLiteral(body string) []string {
	var (
		parts   []string
		current strings.Builder
		quoted  bool
		escaped bool
	)

	for _, r := range body {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == '"':
			quoted = !quoted
		case r == ',' && !quoted:
			parts = append(parts, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	parts = append(parts, strings.TrimSpace(current.String()))

	return parts
}
