package jsonedit

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEqual(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected bool
	}{
		{"identical text", `{"a":1}`, `{"a":1}`, true},
		{"whitespace only", `{"a": 1, "b": [1, 2]}`, "{\n  \"a\": 1,\n  \"b\": [1,2]\n}", true},
		{"key order", `{"a":1,"b":2}`, `{"b":2,"a":1}`, true},
		{"number formatting", `{"a":1.0}`, `{"a":1}`, true},
		{"different values", `{"a":1}`, `{"a":2}`, false},
		{"integers beyond float64 precision", `{"id":12345678901234567890}`, `{"id":12345678901234567891}`, false},
		{"large integer unchanged", `{"id":12345678901234567890}`, `{ "id": 12345678901234567890 }`, true},
		{"exponent notation", `{"a":1e2}`, `{"a":100}`, true},
		{"nested array order matters", `{"a":[1,2]}`, `{"a":[2,1]}`, false},
		{"extra key", `{"a":1}`, `{"a":1,"b":null}`, false},
		{"string versus number", `"1"`, `1`, false},
		{"plain text equal", `<div>x</div>`, `<div>x</div>`, true},
		{"plain text differs", `<div>x</div>`, `<div>y</div>`, false},
		{"json versus text", `{}`, `{`, false},
		{"both empty", ``, ``, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Equal(tt.a, tt.b))
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, `{"a":1,"b":"<x>"}`, Normalize("{ \"b\": \"<x>\",\n \"a\": 1 }"))
	assert.Equal(t, "not json", Normalize("not json"))
}

func TestIsStructured(t *testing.T) {
	assert.True(t, IsStructured(`{"a":1}`))
	assert.True(t, IsStructured(` [1,2] `))
	assert.False(t, IsStructured(`"string"`))
	assert.False(t, IsStructured(`42`))
	assert.False(t, IsStructured(`<div>{}</div>`))
	assert.False(t, IsStructured(`{broken`))
	assert.False(t, IsStructured(``))
}

func TestCoerce(t *testing.T) {
	assert.Equal(t, json.Number("42"), Coerce("42"))
	assert.Equal(t, true, Coerce("true"))
	assert.Nil(t, Coerce("null"))
	assert.Equal(t, "quoted", Coerce(`"quoted"`))
	assert.Equal(t, "plain text", Coerce("plain text"))
	assert.Equal(t, "", Coerce(""))

	obj, ok := Coerce(`{"a":[1]}`).(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{json.Number("1")}, obj["a"])
}
