package dashboard

// State is the complete mutable state of a dashboard session.
type State struct {
	Filter FilterState `json:"filter" yaml:"filter"`
	View   ViewState   `json:"view" yaml:"view"`
}

// DefaultState is the state of a freshly opened dashboard.
func DefaultState() State {
	return State{Filter: DefaultFilterState(), View: DefaultViewState()}
}

// Effect tells the engine how much to recompute after an event.
type Effect int

// Effects, from cheapest to most expensive.
const (
	// Nothing changed.
	EffectNone Effect = iota
	// Only the table page must be rebuilt; the filtered set is reused.
	EffectTable
	// The filtered set, every chart and the table must be rebuilt.
	EffectRefilter
)

// Event is a user action handled by Reduce.
type Event interface {
	isEvent()
}

// SelectApplication changes the application selector.
type SelectApplication struct {
	Application string
}

// SelectWindow changes the time window selector.
type SelectWindow struct {
	Window TimeWindow
}

// ToggleDimension is a click on a chart category.
type ToggleDimension struct {
	Dimension Dimension
	Value     string
}

// ClickRegion is a click on a country of the map, by display name.
type ClickRegion struct {
	Name string
}

// SetSearch replaces the table search query.
type SetSearch struct {
	Query string
}

// ClickSort is a click on a table header.
type ClickSort struct {
	Key Field
}

// SetSort selects a sort key and direction directly.
type SetSort struct {
	Key       Field
	Direction SortDirection
}

// NextPage moves the table one page forward.
type NextPage struct{}

// PrevPage moves the table one page back.
type PrevPage struct{}

// GoToPage jumps to a page, clamped to the available range.
type GoToPage struct {
	Page int
}

// RecordsChanged signals that the record store was replaced or shrunk.
type RecordsChanged struct{}

func (SelectApplication) isEvent() {}
func (SelectWindow) isEvent()      {}
func (ToggleDimension) isEvent()   {}
func (ClickRegion) isEvent()       {}
func (SetSearch) isEvent()         {}
func (ClickSort) isEvent()         {}
func (SetSort) isEvent()           {}
func (NextPage) isEvent()          {}
func (PrevPage) isEvent()          {}
func (GoToPage) isEvent()          {}
func (RecordsChanged) isEvent()    {}

// Env is the read-only context some events need.
type Env struct {
	// NameToIso resolves map region names to country codes.
	NameToIso map[string]string
	// Rows is the number of table rows after search, used to bound paging.
	Rows int
}

// Reduce applies ev to s and reports what must be recomputed.
func Reduce(s State, ev Event, env Env) (State, Effect) {
	switch e := ev.(type) {
	case SelectApplication:
		s.Filter.Application = e.Application
		if s.Filter.Application == "" {
			s.Filter.Application = AllApplications
		}
		s.View = DefaultViewState()
		return s, EffectRefilter

	case SelectWindow:
		s.Filter.Window = e.Window
		s.View = DefaultViewState()
		return s, EffectRefilter

	case ToggleDimension:
		current := s.Filter.Dimensions.Get(e.Dimension)
		next := e.Value
		if current == e.Value {
			next = ""
		}
		s.Filter.Dimensions = s.Filter.Dimensions.With(e.Dimension, next)
		s.View.Page = 1
		return s, EffectRefilter

	case ClickRegion:
		code, ok := env.NameToIso[e.Name]
		if !ok || code == "" {
			return s, EffectNone
		}
		if s.Filter.MapCountry == code {
			s.Filter.MapCountry = ""
		} else {
			s.Filter.MapCountry = code
		}
		s.View.Page = 1
		return s, EffectRefilter

	case SetSearch:
		s.Filter.Search = e.Query
		s.View.Page = 1
		return s, EffectTable

	case ClickSort:
		if s.View.SortKey == e.Key {
			s.View.Direction = s.View.Direction.Flip()
		} else {
			s.View.SortKey = e.Key
			s.View.Direction = Ascending
		}
		s.View.Page = 1
		return s, EffectTable

	case SetSort:
		s.View.SortKey = e.Key
		s.View.Direction = e.Direction
		if s.View.Direction != Ascending {
			s.View.Direction = Descending
		}
		s.View.Page = 1
		return s, EffectTable

	case NextPage:
		if s.View.Page >= PageCount(env.Rows) {
			return s, EffectNone
		}
		s.View.Page++
		return s, EffectTable

	case PrevPage:
		if s.View.Page <= 1 {
			return s, EffectNone
		}
		s.View.Page--
		return s, EffectTable

	case GoToPage:
		page := min(e.Page, PageCount(env.Rows))
		page = max(page, 1)
		if page == s.View.Page {
			return s, EffectNone
		}
		s.View.Page = page
		return s, EffectTable

	case RecordsChanged:
		s.View.Page = 1
		return s, EffectRefilter

	default:
		return s, EffectNone
	}
}
