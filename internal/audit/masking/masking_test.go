package masking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskGSTIN(t *testing.T) {
	assert.Equal(t, "29****F1Z5", MaskGSTIN("29ABCDE1234F1Z5"))
	assert.Equal(t, "****", MaskGSTIN("29AB"))
}

func TestMaskMetadata(t *testing.T) {
	in := map[string]any{
		"gstin":          "27AAACB2230M1ZA",
		"vehicle_number": "KA01AB1234",
		"invoice_number": "INV-7",
		"total":          int64(5310000),
		"customer":       map[string]any{"email": "ops@acme.in"},
		" ":              "dropped",
	}

	out := MaskMetadata(in)
	assert.Equal(t, "27****M1ZA", out["gstin"])
	assert.Equal(t, "****1234", out["vehicle_number"])
	assert.Equal(t, "INV-7", out["invoice_number"])
	assert.Equal(t, int64(5310000), out["total"])
	assert.Equal(t, map[string]any{"email": "****e.in"}, out["customer"])
	assert.NotContains(t, out, " ")
	assert.NotContains(t, out, "")

	assert.Nil(t, MaskMetadata(nil))
}
