package masking

import "strings"

const maskToken = "****"

var sensitiveKeys = map[string]struct{}{
	"gstin":          {},
	"email":          {},
	"vehicle_number": {},
	"transporter_id": {},
}

// MaskGSTIN keeps the state code and the last four characters.
func MaskGSTIN(value string) string {
	v := strings.TrimSpace(value)
	if len(v) <= 6 {
		return maskToken
	}
	return v[:2] + maskToken + v[len(v)-4:]
}

// MaskIdentifier keeps only the last four characters.
func MaskIdentifier(value string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return ""
	}
	if len(v) <= 4 {
		return maskToken
	}
	return maskToken + v[len(v)-4:]
}

// MaskMetadata returns a copy of input with sensitive string values masked.
// Nested maps are walked.
func MaskMetadata(input map[string]any) map[string]any {
	if len(input) == 0 {
		return nil
	}

	out := make(map[string]any, len(input))
	for key, value := range input {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		out[key] = maskValue(key, value)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func maskValue(key string, value any) any {
	switch cast := value.(type) {
	case map[string]any:
		return MaskMetadata(cast)
	case string:
		if _, ok := sensitiveKeys[strings.ToLower(key)]; !ok {
			return cast
		}
		if strings.EqualFold(key, "gstin") {
			return MaskGSTIN(cast)
		}
		return MaskIdentifier(cast)
	default:
		return value
	}
}
