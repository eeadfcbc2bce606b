package normalize

import (
	"encoding/json"
	"strconv"
	"strings"
)

// flexString decodes a JSON string, number, or bool into its string form.
// Upstream payloads are inconsistent about quoting numeric fields.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	*s = flexString(b)
	return nil
}

func (s flexString) String() string { return string(s) }

// orDefault returns the value, or def when empty.
func (s flexString) orDefault(def string) string {
	if s == "" {
		return def
	}
	return string(s)
}

// int64Value parses the value as an integer, tolerating a decimal suffix.
func (s flexString) int64Value() (int64, bool) {
	v := strings.TrimSpace(string(s))
	if v == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return int64(f), true
	}
	return 0, false
}

// floatValue parses the value as a float.
func (s flexString) floatValue() (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(string(s)), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
