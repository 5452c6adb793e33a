package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// FlexNumber accepts a JSON number or a string holding one. Vision models
// report power levels inconsistently ("12,345,678", "12.3M", 12345678), so
// the raw form is preserved and parsing happens on demand.
type FlexNumber string

// UnmarshalJSON accepts strings, numbers and null.
func (n *FlexNumber) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*n = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*n = FlexNumber(str)
		return nil
	}
	*n = FlexNumber(s)
	return nil
}

// MarshalJSON emits the value as a JSON string, preserving the raw form.
func (n FlexNumber) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(n))
}

// Int64 parses the value, tolerating digit separators and common magnitude
// suffixes (K/M/B). Unparsable values yield 0.
func (n FlexNumber) Int64() int64 {
	s := strings.TrimSpace(string(n))
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")

	multiplier := float64(1)
	switch {
	case strings.HasSuffix(s, "K"), strings.HasSuffix(s, "k"):
		multiplier = 1e3
		s = s[:len(s)-1]
	case strings.HasSuffix(s, "M"), strings.HasSuffix(s, "m"):
		multiplier = 1e6
		s = s[:len(s)-1]
	case strings.HasSuffix(s, "B"), strings.HasSuffix(s, "b"):
		multiplier = 1e9
		s = s[:len(s)-1]
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int64(f * multiplier)
}

// String returns the raw value.
func (n FlexNumber) String() string {
	return string(n)
}
