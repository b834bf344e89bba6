package statecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_HasThirtySixEntries(t *testing.T) {
	assert.Equal(t, 36, Len())
	assert.Len(t, All(), 36)

	seen := map[string]bool{}
	for _, s := range All() {
		assert.Len(t, s.Code, 2)
		assert.False(t, seen[s.Code], "duplicate code %s", s.Code)
		seen[s.Code] = true
	}
	for _, retired := range []string{"25", "28", "97", "00", "39"} {
		assert.False(t, IsValidCode(retired), retired)
	}
}

func TestRegistry_RoundTrip(t *testing.T) {
	for _, s := range All() {
		code, ok := CodeForState(s.Name)
		require.True(t, ok, s.Name)
		name, ok := StateForCode(code)
		require.True(t, ok, code)
		assert.Equal(t, s.Name, name)
	}
}

func TestRegistry_Lookups(t *testing.T) {
	code, ok := CodeForState("  karnataka ")
	assert.True(t, ok)
	assert.Equal(t, "29", code)

	code, ok = CodeForState("Jammu & Kashmir")
	assert.True(t, ok)
	assert.Equal(t, "01", code)

	name, ok := StateForCode("7")
	assert.True(t, ok)
	assert.Equal(t, "Delhi", name)

	name, ok = StateForCode("38")
	assert.True(t, ok)
	assert.Equal(t, "Ladakh", name)

	_, ok = CodeForState("Atlantis")
	assert.False(t, ok)
	_, ok = StateForCode("99")
	assert.False(t, ok)
	_, ok = StateForCode("")
	assert.False(t, ok)
}

func TestAll_ReturnsCopy(t *testing.T) {
	list := All()
	list[0].Name = "mutated"
	name, _ := StateForCode("01")
	assert.Equal(t, "Jammu and Kashmir", name)
}

func TestValidatePincode(t *testing.T) {
	assert.True(t, ValidatePincode("560001"))
	assert.True(t, ValidatePincode("110092"))
	assert.False(t, ValidatePincode("060001"))
	assert.False(t, ValidatePincode("56000"))
	assert.False(t, ValidatePincode("56000A"))
}
