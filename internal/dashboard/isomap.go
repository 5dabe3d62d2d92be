package dashboard

import "strings"

// UnknownCountry is the map region name used for records without a country code.
const UnknownCountry = "UNKNOWN"

// IsoMap maps ISO 3166 alpha-2 codes to country display names.
type IsoMap map[string]string

// Name returns the display name for code, falling back to the code itself.
func (m IsoMap) Name(code string) string {
	if name, ok := m[code]; ok {
		return name
	}

	return code
}

// Inverse builds the display name to code lookup used to resolve map clicks.
func (m IsoMap) Inverse() map[string]string {
	inv := make(map[string]string, len(m))
	for code, name := range m {
		inv[name] = code
	}

	return inv
}

// regionCode normalises a record country code for the geographic view.
func regionCode(code string) string {
	if code == "" {
		return UnknownCountry
	}

	return strings.ToUpper(code)
}
