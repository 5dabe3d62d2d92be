package dashboard

import (
	"testing"
	"time"
)

func TestIsMemberClauses(t *testing.T) {
	base := Record{
		Application: "MetricZ",
		CountryCode: "US",
		ServerOS:    "Linux",
		Version:     "1.0.0",
		MapName:     "chernarusplus",
		LastSeen:    ago(2 * time.Hour),
	}

	tests := []struct {
		name   string
		mutate func(*FilterState)
		want   bool
	}{
		{"defaults", func(*FilterState) {}, true},
		{"app match", func(s *FilterState) { s.Application = "MetricZ" }, true},
		{"app mismatch", func(s *FilterState) { s.Application = "Other" }, false},
		{"map country match", func(s *FilterState) { s.MapCountry = "US" }, true},
		{"map country mismatch", func(s *FilterState) { s.MapCountry = "DE" }, false},
		{"chart country mismatch", func(s *FilterState) { s.Dimensions.Country = "DE" }, false},
		{"os match", func(s *FilterState) { s.Dimensions.OS = "Linux" }, true},
		{"os mismatch", func(s *FilterState) { s.Dimensions.OS = "Windows" }, false},
		{"version mismatch", func(s *FilterState) { s.Dimensions.Version = "2.0.0" }, false},
		{"map mismatch", func(s *FilterState) { s.Dimensions.Map = "livonia" }, false},
		{"24h window", func(s *FilterState) { s.Window = Window24h }, true},
		{"search ignored", func(s *FilterState) { s.Search = "zzz" }, true},
		{"all clauses", func(s *FilterState) {
			s.Application = "MetricZ"
			s.MapCountry = "US"
			s.Dimensions = DimensionFilters{Country: "US", OS: "Linux", Version: "1.0.0", Map: "chernarusplus"}
			s.Window = Window7d
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultFilterState()
			tt.mutate(&s)
			if got := IsMember(base, s, testNow); got != tt.want {
				t.Errorf("IsMember = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsMemberDualCountrySlotsConflict(t *testing.T) {
	records := []Record{
		{Application: "A", CountryCode: "US", LastSeen: NewTimestamp(testNow)},
		{Application: "A", CountryCode: "DE", LastSeen: NewTimestamp(testNow)},
		{Application: "A", LastSeen: NewTimestamp(testNow)},
	}

	s := DefaultFilterState()
	s.MapCountry = "US"
	s.Dimensions.Country = "DE"

	if got := Filter(records, s, testNow); len(got) != 0 {
		t.Fatalf("mismatched country slots must yield an empty set, got %d", len(got))
	}
}

func TestTimeWindows(t *testing.T) {
	tests := []struct {
		window TimeWindow
		seen   Timestamp
		want   bool
	}{
		{Window24h, ago(23 * time.Hour), true},
		{Window24h, ago(25 * time.Hour), false},
		{Window24h, ago(24 * time.Hour), true},
		{Window7d, ago(6 * day), true},
		{Window7d, ago(8 * day), false},
		{Window30d, ago(29 * day), true},
		{Window30d, ago(31 * day), false},
		{WindowAll, ago(3650 * day), true},
		{Window24h, ParseTimestamp("bogus"), false},
		{Window30d, ParseTimestamp("bogus"), false},
		{WindowAll, ParseTimestamp("bogus"), true},
	}

	for _, tt := range tests {
		s := DefaultFilterState()
		s.Window = tt.window
		r := Record{Application: "A", LastSeen: tt.seen}
		if got := IsMember(r, s, testNow); got != tt.want {
			t.Errorf("window %s, last_seen %q: got %v, want %v", tt.window, tt.seen.String(), got, tt.want)
		}
	}
}

func TestFilterPreservesOrder(t *testing.T) {
	records := []Record{
		rec("A", "1.1.1.1", 1, 1),
		rec("B", "2.2.2.2", 1, 1),
		rec("A", "3.3.3.3", 1, 1),
		rec("A", "4.4.4.4", 1, 1),
	}

	s := DefaultFilterState()
	s.Application = "A"

	got := Filter(records, s, testNow)
	var ips []string
	for _, r := range got {
		ips = append(ips, r.IP)
	}

	want := []string{"1.1.1.1", "3.3.3.3", "4.4.4.4"}
	if !equalStrings(ips, want) {
		t.Errorf("filtered order = %v, want %v", ips, want)
	}
}

func TestParseTimeWindowAndDimension(t *testing.T) {
	if _, err := ParseTimeWindow("1y"); err == nil {
		t.Error("expected error for unknown window")
	}
	if w, err := ParseTimeWindow("7d"); err != nil || w != Window7d {
		t.Errorf("ParseTimeWindow(7d) = %q, %v", w, err)
	}
	if _, err := ParseDimension("players"); err == nil {
		t.Error("expected error for unknown dimension")
	}
	if d, err := ParseDimension("map"); err != nil || d.Field() != FieldMap {
		t.Errorf("ParseDimension(map) = %q, %v", d, err)
	}
}
