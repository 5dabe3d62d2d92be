package dashboard

import (
	"fmt"
	"math"
	"time"
)

// AllApplications selects every application.
const AllApplications = "all"

const day = 24 * time.Hour

// TimeWindow limits records by their last_seen timestamp.
type TimeWindow string

// Supported time windows.
const (
	Window24h TimeWindow = "24h"
	Window7d  TimeWindow = "7d"
	Window30d TimeWindow = "30d"
	WindowAll TimeWindow = "all"
)

// ParseTimeWindow validates a window name.
func ParseTimeWindow(s string) (TimeWindow, error) {
	switch w := TimeWindow(s); w {
	case Window24h, Window7d, Window30d, WindowAll:
		return w, nil
	default:
		return "", fmt.Errorf("unknown time window %q", s)
	}
}

// Cutoff returns the earliest last_seen, in Unix milliseconds, admitted by the window.
func (w TimeWindow) Cutoff(now time.Time) int64 {
	switch w {
	case Window24h:
		return now.Add(-day).UnixMilli()
	case Window7d:
		return now.Add(-7 * day).UnixMilli()
	case Window30d:
		return now.Add(-30 * day).UnixMilli()
	default:
		return math.MinInt64
	}
}

// Title is the heading of the activity timeline for the window.
func (w TimeWindow) Title() string {
	switch w {
	case Window24h:
		return "Activity Timeline (Last 24 Hours)"
	case Window7d:
		return "Activity Timeline (Last 7 Days)"
	case Window30d:
		return "Activity Timeline (Last 30 Days)"
	default:
		return "Activity Timeline (All Time)"
	}
}

// Dimension is a categorical chart that can narrow the filtered set.
type Dimension string

// Chart dimensions.
const (
	DimCountry Dimension = "country"
	DimOS      Dimension = "os"
	DimVersion Dimension = "version"
	DimMap     Dimension = "map"
)

// ParseDimension validates a dimension name.
func ParseDimension(s string) (Dimension, error) {
	switch d := Dimension(s); d {
	case DimCountry, DimOS, DimVersion, DimMap:
		return d, nil
	default:
		return "", fmt.Errorf("unknown dimension %q", s)
	}
}

// Field returns the record field the dimension filters on.
func (d Dimension) Field() Field {
	switch d {
	case DimCountry:
		return FieldCountry
	case DimOS:
		return FieldOS
	case DimVersion:
		return FieldVersion
	case DimMap:
		return FieldMap
	default:
		return ""
	}
}

// DimensionFilters holds one optional value per chart dimension.
// An empty string means no selection.
type DimensionFilters struct {
	Country string `json:"country,omitempty" yaml:"country,omitempty"`
	OS      string `json:"os,omitempty" yaml:"os,omitempty"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
	Map     string `json:"map,omitempty" yaml:"map,omitempty"`
}

// Get returns the selection of dimension d.
func (f DimensionFilters) Get(d Dimension) string {
	switch d {
	case DimCountry:
		return f.Country
	case DimOS:
		return f.OS
	case DimVersion:
		return f.Version
	case DimMap:
		return f.Map
	default:
		return ""
	}
}

// With returns a copy with dimension d set to value.
func (f DimensionFilters) With(d Dimension, value string) DimensionFilters {
	switch d {
	case DimCountry:
		f.Country = value
	case DimOS:
		f.OS = value
	case DimVersion:
		f.Version = value
	case DimMap:
		f.Map = value
	}

	return f
}

// FilterState is the set of active filters.
//
// MapCountry and Dimensions.Country are separate slots over the same field,
// set from the map and from the country chart. Both apply.
type FilterState struct {
	Application string           `json:"application" yaml:"application"`
	Window      TimeWindow       `json:"window" yaml:"window"`
	MapCountry  string           `json:"map_country,omitempty" yaml:"map_country,omitempty"`
	Dimensions  DimensionFilters `json:"dimensions" yaml:"dimensions"`
	Search      string           `json:"search,omitempty" yaml:"search,omitempty"`
}

// DefaultFilterState selects every application over all time.
func DefaultFilterState() FilterState {
	return FilterState{Application: AllApplications, Window: WindowAll}
}

// IsMember reports whether r passes every filter in s at instant now.
// Search is not considered: it only narrows the table.
func IsMember(r Record, s FilterState, now time.Time) bool {
	return s.matcher(now)(r)
}

// matcher precomputes the time cutoff so a full pass does it once.
func (s FilterState) matcher(now time.Time) func(Record) bool {
	cutoff := s.Window.Cutoff(now)

	return func(r Record) bool {
		if s.Application != AllApplications && r.Application != s.Application {
			return false
		}
		if s.MapCountry != "" && r.CountryCode != s.MapCountry {
			return false
		}
		d := s.Dimensions
		if d.Country != "" && r.CountryCode != d.Country {
			return false
		}
		if d.OS != "" && r.ServerOS != d.OS {
			return false
		}
		if d.Version != "" && r.Version != d.Version {
			return false
		}
		if d.Map != "" && r.MapName != d.Map {
			return false
		}

		return r.LastSeen.Millis() >= cutoff
	}
}

// Filter returns the members of records, preserving their order.
func Filter(records []Record, s FilterState, now time.Time) []Record {
	match := s.matcher(now)
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if match(r) {
			out = append(out, r)
		}
	}

	return out
}
