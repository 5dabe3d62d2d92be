package dashboard

import "testing"

func TestReducePrimarySelectorsResetView(t *testing.T) {
	s := DefaultState()
	s.View = ViewState{SortKey: FieldPlayers, Direction: Ascending, Page: 3}
	s.Filter.Dimensions.OS = "Linux"

	next, effect := Reduce(s, SelectApplication{Application: "MetricZ"}, Env{})
	if effect != EffectRefilter {
		t.Errorf("effect = %v, want refilter", effect)
	}
	if next.Filter.Application != "MetricZ" {
		t.Errorf("application = %q", next.Filter.Application)
	}
	if next.View != DefaultViewState() {
		t.Errorf("view = %+v, want default", next.View)
	}
	if next.Filter.Dimensions.OS != "Linux" {
		t.Error("selector change must keep dimension filters")
	}

	next, _ = Reduce(s, SelectWindow{Window: Window24h}, Env{})
	if next.Filter.Window != Window24h || next.View != DefaultViewState() {
		t.Errorf("window change = %+v", next)
	}

	next, _ = Reduce(s, SelectApplication{}, Env{})
	if next.Filter.Application != AllApplications {
		t.Errorf("empty application = %q, want %q", next.Filter.Application, AllApplications)
	}
}

func TestReduceToggleDimension(t *testing.T) {
	s := DefaultState()
	s.View = ViewState{SortKey: FieldPlayers, Direction: Ascending, Page: 2}
	s.Filter.Search = "pvp"

	s, effect := Reduce(s, ToggleDimension{Dimension: DimOS, Value: "Linux"}, Env{})
	if effect != EffectRefilter || s.Filter.Dimensions.OS != "Linux" {
		t.Fatalf("select: effect %v, os %q", effect, s.Filter.Dimensions.OS)
	}
	if s.View.SortKey != FieldPlayers || s.View.Direction != Ascending || s.Filter.Search != "pvp" {
		t.Error("chart click must not reset sort or search")
	}
	if s.View.Page != 1 {
		t.Errorf("page = %d, want 1", s.View.Page)
	}

	s, _ = Reduce(s, ToggleDimension{Dimension: DimOS, Value: "Windows"}, Env{})
	if s.Filter.Dimensions.OS != "Windows" {
		t.Errorf("replace: os = %q", s.Filter.Dimensions.OS)
	}

	s, _ = Reduce(s, ToggleDimension{Dimension: DimOS, Value: "Windows"}, Env{})
	if s.Filter.Dimensions.OS != "" {
		t.Errorf("toggle off: os = %q", s.Filter.Dimensions.OS)
	}
}

func TestReduceClickRegion(t *testing.T) {
	env := Env{NameToIso: map[string]string{"Germany": "DE", "United States": "US"}}
	s := DefaultState()
	s.Filter.Dimensions.Country = "US"

	s, effect := Reduce(s, ClickRegion{Name: "Germany"}, env)
	if effect != EffectRefilter || s.Filter.MapCountry != "DE" {
		t.Fatalf("select: effect %v, map country %q", effect, s.Filter.MapCountry)
	}
	if s.Filter.Dimensions.Country != "US" {
		t.Error("map click must not touch the chart country slot")
	}

	s, _ = Reduce(s, ClickRegion{Name: "United States"}, env)
	if s.Filter.MapCountry != "US" {
		t.Errorf("replace: %q", s.Filter.MapCountry)
	}

	s, _ = Reduce(s, ClickRegion{Name: "United States"}, env)
	if s.Filter.MapCountry != "" {
		t.Errorf("toggle off: %q", s.Filter.MapCountry)
	}

	before := s
	s, effect = Reduce(s, ClickRegion{Name: "Atlantis"}, env)
	if effect != EffectNone || s != before {
		t.Errorf("unresolved region must be a no-op, effect %v", effect)
	}
}

func TestReduceSortHeader(t *testing.T) {
	s := DefaultState()
	s.View.Page = 4

	s, effect := Reduce(s, ClickSort{Key: FieldCount}, Env{})
	if effect != EffectTable || s.View.Direction != Ascending || s.View.Page != 1 {
		t.Errorf("same key should flip: %+v (effect %v)", s.View, effect)
	}

	s, _ = Reduce(s, ClickSort{Key: FieldServerName}, Env{})
	if s.View.SortKey != FieldServerName || s.View.Direction != Ascending {
		t.Errorf("new key should sort ascending: %+v", s.View)
	}

	s, _ = Reduce(s, SetSort{Key: FieldPlayers, Direction: "sideways"}, Env{})
	if s.View.SortKey != FieldPlayers || s.View.Direction != Descending {
		t.Errorf("set sort: %+v", s.View)
	}
}

func TestReduceSearchKeepsFilteredSet(t *testing.T) {
	s := DefaultState()
	s.View.Page = 2

	s, effect := Reduce(s, SetSearch{Query: "alpha"}, Env{})
	if effect != EffectTable {
		t.Errorf("search effect = %v, want table only", effect)
	}
	if s.Filter.Search != "alpha" || s.View.Page != 1 {
		t.Errorf("state = %+v", s)
	}
}

func TestReducePaging(t *testing.T) {
	env := Env{Rows: 31}
	s := DefaultState()

	s, effect := Reduce(s, PrevPage{}, env)
	if effect != EffectNone || s.View.Page != 1 {
		t.Errorf("prev on first page: page %d, effect %v", s.View.Page, effect)
	}

	s, _ = Reduce(s, NextPage{}, env)
	s, _ = Reduce(s, NextPage{}, env)
	if s.View.Page != 3 {
		t.Fatalf("page = %d, want 3", s.View.Page)
	}

	s, effect = Reduce(s, NextPage{}, env)
	if effect != EffectNone || s.View.Page != 3 {
		t.Errorf("next on last page: page %d, effect %v", s.View.Page, effect)
	}

	s, _ = Reduce(s, GoToPage{Page: 99}, env)
	if s.View.Page != 3 {
		t.Errorf("goto clamps high: %d", s.View.Page)
	}
	s, _ = Reduce(s, GoToPage{Page: -1}, env)
	if s.View.Page != 1 {
		t.Errorf("goto clamps low: %d", s.View.Page)
	}
}
