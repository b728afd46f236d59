package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamespace(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "replaces every dot", in: "alice.near", want: "alice_near"},
		{name: "nested account", in: "app.alice.near", want: "app_alice_near"},
		{name: "no dots", in: "capacitor", want: "capacitor"},
		{name: "empty", in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Namespace(tt.in)
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, ".")
			assert.Equal(t, got, Namespace(got), "namespace derivation must be idempotent")
		})
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		success bool
	}{
		{in: "SuccessValue", want: StatusSuccessValue, success: true},
		{in: "SuccessReceiptId", want: StatusSuccessReceiptID, success: true},
		{in: " SuccessValue ", want: StatusSuccessValue, success: true},
		{in: "Failure", want: StatusFailure},
		{in: "Unknown", want: StatusUnknown},
		{in: "successvalue", want: StatusUnknown},
		{in: "", want: StatusUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseStatus(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.success, got.IsSuccess())
		})
	}
}

func TestDocumentClone(t *testing.T) {
	t.Run("deep copies nested values", func(t *testing.T) {
		orig := Document{
			"text":  "hi",
			"meta":  map[string]any{"likes": int64(1)},
			"tags":  []any{"a", map[string]any{"k": "v"}},
			"inner": Document{"x": "y"},
		}
		cp := orig.Clone()
		require.Equal(t, orig, cp)

		cp["meta"].(map[string]any)["likes"] = int64(2)
		cp["tags"].([]any)[1].(map[string]any)["k"] = "changed"
		cp["inner"].(Document)["x"] = "z"

		assert.Equal(t, int64(1), orig["meta"].(map[string]any)["likes"])
		assert.Equal(t, "v", orig["tags"].([]any)[1].(map[string]any)["k"])
		assert.Equal(t, "y", orig["inner"].(Document)["x"])
	})

	t.Run("nil stays nil", func(t *testing.T) {
		var d Document
		assert.Nil(t, d.Clone())
	})

	t.Run("scalar values are shared", func(t *testing.T) {
		now := time.Now()
		cp := Document{"at": now}.Clone()
		assert.Equal(t, now, cp["at"])
	})
}
