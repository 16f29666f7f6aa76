package jsonutil

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexibleStringValue(t *testing.T) {
	tests := []struct {
		name  string
		input json.RawMessage
		want  string
	}{
		{name: "string value", input: json.RawMessage(`"12.5"`), want: "12.5"},
		{name: "integer value", input: json.RawMessage(`42`), want: "42"},
		{name: "float value keeps literal", input: json.RawMessage(`3.140`), want: "3.140"},
		{name: "exponent keeps literal", input: json.RawMessage(`-9.57e-08`), want: "-9.57e-08"},
		{name: "negative integer", input: json.RawMessage(`-7`), want: "-7"},
		{name: "boolean true", input: json.RawMessage(`true`), want: "true"},
		{name: "null value", input: json.RawMessage(`null`), want: ""},
		{name: "empty raw message", input: json.RawMessage{}, want: ""},
		{name: "nil raw message", input: nil, want: ""},
		{name: "empty string", input: json.RawMessage(`""`), want: ""},
		{name: "large integer preserves precision", input: json.RawMessage(`9007199254740993`), want: "9007199254740993"},
		{name: "array falls back to raw string", input: json.RawMessage(`[1,2,3]`), want: `[1,2,3]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FlexibleStringValue(tt.input))
		})
	}
}

func TestFlexibleString_DecodeMixedRow(t *testing.T) {
	var row struct {
		InstTemp FlexibleString `json:"inst_temp"`
		InstFreq FlexibleString `json:"inst_freq"`
		Residual FlexibleString `json:"residual"`
	}

	err := json.Unmarshal([]byte(`{"inst_temp":22.5,"inst_freq":"5123.4","residual":null}`), &row)
	require.NoError(t, err)

	assert.Equal(t, "22.5", row.InstTemp.String())
	assert.Equal(t, "5123.4", row.InstFreq.String())
	assert.Equal(t, "", row.Residual.String())
}

func TestFlexibleString_EncodesAsString(t *testing.T) {
	out, err := json.Marshal(struct {
		G FlexibleString `json:"g"`
	}{G: "-4.1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"g":"-4.1"}`, string(out))
}
