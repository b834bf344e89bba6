package statecode

import (
	"strings"
	"unicode"
)

// GSTINLength is the fixed length of a GST identification number.
const GSTINLength = 15

// ValidateGSTIN checks the shape of a GSTIN: registered state code, PAN-shaped
// body, numeric entity ordinal, literal Z and an alphanumeric trailing character.
// It does not verify the statutory checksum; a true result only means the value
// is well formed.
func ValidateGSTIN(value string) bool {
	v := normalizeGSTIN(value)
	if len(v) != GSTINLength {
		return false
	}
	if !IsValidCode(v[0:2]) {
		return false
	}
	if !isPAN(v[2:12]) {
		return false
	}
	if !isDigit(v[12]) {
		return false
	}
	if v[13] != 'Z' {
		return false
	}
	return isDigit(v[14]) || isUpper(v[14])
}

// StateCodeFromGSTIN returns the state code embedded in a structurally valid GSTIN.
func StateCodeFromGSTIN(value string) (string, bool) {
	if !ValidateGSTIN(value) {
		return "", false
	}
	return normalizeGSTIN(value)[0:2], true
}

// NormalizeGSTIN strips whitespace and upper-cases the value.
func NormalizeGSTIN(value string) string {
	return normalizeGSTIN(value)
}

func normalizeGSTIN(value string) string {
	return strings.ToUpper(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, value))
}

// isPAN matches five letters, four digits, one letter.
func isPAN(s string) bool {
	if len(s) != 10 {
		return false
	}
	for i := 0; i < 5; i++ {
		if !isUpper(s[i]) {
			return false
		}
	}
	for i := 5; i < 9; i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return isUpper(s[9])
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isUpper(b byte) bool { return b >= 'A' && b <= 'Z' }
