// Package statecode holds the fixed GST state/union-territory code table and the
// structural GSTIN validator built on top of it.
package statecode

import (
	"sort"
	"strings"
)

// StateCode pairs a state or union territory name with its two digit GST code.
type StateCode struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// Canonical GST state codes. 25 and 28 are retired (merged into 26 and 37),
// 97 "Other Territory" is not a place of supply for this engine.
var states = []StateCode{
	{Name: "Jammu and Kashmir", Code: "01"},
	{Name: "Himachal Pradesh", Code: "02"},
	{Name: "Punjab", Code: "03"},
	{Name: "Chandigarh", Code: "04"},
	{Name: "Uttarakhand", Code: "05"},
	{Name: "Haryana", Code: "06"},
	{Name: "Delhi", Code: "07"},
	{Name: "Rajasthan", Code: "08"},
	{Name: "Uttar Pradesh", Code: "09"},
	{Name: "Bihar", Code: "10"},
	{Name: "Sikkim", Code: "11"},
	{Name: "Arunachal Pradesh", Code: "12"},
	{Name: "Nagaland", Code: "13"},
	{Name: "Manipur", Code: "14"},
	{Name: "Mizoram", Code: "15"},
	{Name: "Tripura", Code: "16"},
	{Name: "Meghalaya", Code: "17"},
	{Name: "Assam", Code: "18"},
	{Name: "West Bengal", Code: "19"},
	{Name: "Jharkhand", Code: "20"},
	{Name: "Odisha", Code: "21"},
	{Name: "Chhattisgarh", Code: "22"},
	{Name: "Madhya Pradesh", Code: "23"},
	{Name: "Gujarat", Code: "24"},
	{Name: "Dadra and Nagar Haveli and Daman and Diu", Code: "26"},
	{Name: "Maharashtra", Code: "27"},
	{Name: "Karnataka", Code: "29"},
	{Name: "Goa", Code: "30"},
	{Name: "Lakshadweep", Code: "31"},
	{Name: "Kerala", Code: "32"},
	{Name: "Tamil Nadu", Code: "33"},
	{Name: "Puducherry", Code: "34"},
	{Name: "Andaman and Nicobar Islands", Code: "35"},
	{Name: "Telangana", Code: "36"},
	{Name: "Andhra Pradesh", Code: "37"},
	{Name: "Ladakh", Code: "38"},
}

var (
	byName = make(map[string]StateCode, len(states))
	byCode = make(map[string]StateCode, len(states))
)

func init() {
	for _, s := range states {
		byName[normalizeName(s.Name)] = s
		byCode[s.Code] = s
	}
}

// All returns a copy of the registry ordered by code.
func All() []StateCode {
	out := make([]StateCode, len(states))
	copy(out, states)
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Len reports the number of registered states.
func Len() int { return len(states) }

// CodeForState returns the code for a state name. Matching ignores case and
// surrounding whitespace, and treats "&" as "and".
func CodeForState(name string) (string, bool) {
	s, ok := byName[normalizeName(name)]
	if !ok {
		return "", false
	}
	return s.Code, true
}

// StateForCode returns the canonical state name for a code. Single digit codes
// are zero padded ("7" resolves like "07").
func StateForCode(code string) (string, bool) {
	s, ok := byCode[NormalizeCode(code)]
	if !ok {
		return "", false
	}
	return s.Name, true
}

// IsValidCode reports whether code is present in the registry.
func IsValidCode(code string) bool {
	_, ok := byCode[NormalizeCode(code)]
	return ok
}

// NormalizeCode trims and zero pads a numeric code to two characters. Anything
// else is returned trimmed and unchanged.
func NormalizeCode(code string) string {
	code = strings.TrimSpace(code)
	if len(code) == 1 && code[0] >= '0' && code[0] <= '9' {
		return "0" + code
	}
	return code
}

func normalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, "&", "and")
	return strings.Join(strings.Fields(name), " ")
}

// ValidatePincode reports whether v is a 6-digit Indian PIN code. PIN codes never start with 0.
func ValidatePincode(v string) bool {
	if len(v) != 6 || v[0] < '1' || v[0] > '9' {
		return false
	}
	for i := 1; i < len(v); i++ {
		if !isDigit(v[i]) {
			return false
		}
	}
	return true
}
