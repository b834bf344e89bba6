package statecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateGSTIN(t *testing.T) {
	cases := []struct {
		name  string
		value string
		want  bool
	}{
		{"valid karnataka", "29ABCDE1234F1Z5", true},
		{"valid maharashtra", "27FGHIJ5678K1Z2", true},
		{"lower case and spaces", " 29abcde 1234f1z5 ", true},
		{"alpha checksum", "07AAACB2230M1ZA", true},
		{"fourteen chars", "29ABCDE1234F1Z", false},
		{"sixteen chars", "29ABCDE1234F1Z55", false},
		{"unknown state", "99ABCDE1234F1Z5", false},
		{"retired state", "28ABCDE1234F1Z5", false},
		{"digit in pan letters", "29ABCD91234F1Z5", false},
		{"letter in pan digits", "29ABCDE12X4F1Z5", false},
		{"pan last not letter", "29ABCDE123451Z5", false},
		{"entity not digit", "29ABCDE1234FAZ5", false},
		{"missing Z", "29ABCDE1234F1Y5", false},
		{"bad checksum char", "29ABCDE1234F1Z-", false},
		{"empty", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ValidateGSTIN(tc.value))
		})
	}
}

func TestStateCodeFromGSTIN(t *testing.T) {
	code, ok := StateCodeFromGSTIN("33aabcu9603r1zx")
	assert.True(t, ok)
	assert.Equal(t, "33", code)

	_, ok = StateCodeFromGSTIN("33AABCU9603R1Z")
	assert.False(t, ok)
}
