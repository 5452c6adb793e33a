package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexNumberUnmarshal(t *testing.T) {
	var payload struct {
		Power FlexNumber `json:"power"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"power":"2,500,000"}`), &payload))
	assert.Equal(t, FlexNumber("2,500,000"), payload.Power)

	require.NoError(t, json.Unmarshal([]byte(`{"power":2500000}`), &payload))
	assert.Equal(t, int64(2500000), payload.Power.Int64())

	require.NoError(t, json.Unmarshal([]byte(`{"power":null}`), &payload))
	assert.Equal(t, FlexNumber(""), payload.Power)
}

func TestFlexNumberInt64(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"2500000", 2500000},
		{"2,500,000", 2500000},
		{"12,345,678", 12345678},
		{"1.5M", 1500000},
		{"2.4m", 2400000},
		{"980K", 980000},
		{"1B", 1000000000},
		{"  3 200 ", 3200},
		{"", 0},
		{"unknown", 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FlexNumber(tt.in).Int64(), "input %q", tt.in)
	}
}
