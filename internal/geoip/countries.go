package geoip

import (
	"github.com/pariz/gountries"
	"github.com/woozymasta/zenit-dash/internal/dashboard"
)

// CountryNames builds the ISO code to common name table from the bundled
// gountries dataset. It backs the map view when the collector does not
// publish its own table.
func CountryNames() dashboard.IsoMap {
	countries := gountries.New().FindAllCountries()

	iso := make(dashboard.IsoMap, len(countries))
	for _, c := range countries {
		if c.Codes.Alpha2 == "" || c.Name.Common == "" {
			continue
		}
		iso[c.Codes.Alpha2] = c.Name.Common
	}

	return iso
}
