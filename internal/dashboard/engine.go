package dashboard

import (
	"sort"
	"time"
)

// Snapshot is everything renderers consume after a recomputation.
// It shares no memory with the Dashboard.
type Snapshot struct {
	Generated time.Time `json:"generated" yaml:"generated"`
	State     State     `json:"state" yaml:"state"`
	Stats     Stats     `json:"stats" yaml:"stats"`
	Charts    Charts    `json:"charts" yaml:"charts"`
	Table     Page      `json:"table" yaml:"table"`
	Apps      []string  `json:"applications" yaml:"applications"`
	Error     string    `json:"error,omitempty" yaml:"error,omitempty"`
	Records   int       `json:"records" yaml:"records"`
	Filtered  int       `json:"filtered" yaml:"filtered"`
	Loaded    bool      `json:"loaded" yaml:"loaded"`
}

// Option configures a Dashboard.
type Option func(*Dashboard)

// WithClock overrides the source of "now" used by time windows.
func WithClock(now func() time.Time) Option {
	return func(d *Dashboard) { d.now = now }
}

// WithLocation sets the zone used for time buckets and displayed timestamps.
func WithLocation(loc *time.Location) Option {
	return func(d *Dashboard) { d.loc = loc }
}

// Dashboard owns the record store and the session state and keeps the
// derived views current. It is not safe for concurrent use.
type Dashboard struct {
	now       func() time.Time
	loc       *time.Location
	err       error
	iso       IsoMap
	nameToIso map[string]string
	records   []Record
	filtered  []Record
	searched  []Record
	charts    Charts
	page      Page
	stats     Stats
	state     State
	loaded    bool
}

// New creates an empty dashboard with default filters.
func New(opts ...Option) *Dashboard {
	d := &Dashboard{
		now:   time.Now,
		loc:   time.Local,
		state: DefaultState(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.recompute(EffectRefilter)

	return d
}

// Load replaces the record store and the country names, then recomputes.
func (d *Dashboard) Load(records []Record, iso IsoMap) {
	d.records = clone(records)

	d.iso = make(IsoMap, len(iso))
	for k, v := range iso {
		d.iso[k] = v
	}
	d.nameToIso = d.iso.Inverse()

	d.loaded = true
	d.err = nil
	d.Dispatch(RecordsChanged{})
}

// Fail records a retrieval failure. The store is emptied and the views
// fall back to their zero state.
func (d *Dashboard) Fail(err error) {
	d.records = nil
	d.loaded = false
	d.err = err
	d.recompute(EffectRefilter)
}

// Err returns the retrieval error passed to Fail, if any.
func (d *Dashboard) Err() error {
	return d.err
}

// Dispatch applies a user event and recomputes what it invalidated.
func (d *Dashboard) Dispatch(ev Event) Effect {
	next, effect := Reduce(d.state, ev, Env{NameToIso: d.nameToIso, Rows: len(d.searched)})
	d.state = next
	d.recompute(effect)

	return effect
}

// Remove drops every record of node key from the store, as after a
// confirmed deletion, and returns how many were removed.
func (d *Dashboard) Remove(key NodeKey) int {
	kept := make([]Record, 0, len(d.records))
	for _, r := range d.records {
		if r.Key() != key {
			kept = append(kept, r)
		}
	}

	removed := len(d.records) - len(kept)
	d.records = kept
	if removed > 0 {
		d.Dispatch(RecordsChanged{})
	}

	return removed
}

// Lookup returns the first record of node key.
func (d *Dashboard) Lookup(key NodeKey) (Record, bool) {
	for _, r := range d.records {
		if r.Key() == key {
			return r, true
		}
	}

	return Record{}, false
}

// State returns the current filter and view state.
func (d *Dashboard) State() State {
	return d.state
}

// Filtered returns a copy of the filtered set.
func (d *Dashboard) Filtered() []Record {
	return clone(d.filtered)
}

// Applications lists the distinct applications of the store, sorted.
func (d *Dashboard) Applications() []string {
	seen := make(map[string]struct{})
	apps := make([]string, 0)
	for _, r := range d.records {
		if _, ok := seen[r.Application]; ok {
			continue
		}
		seen[r.Application] = struct{}{}
		apps = append(apps, r.Application)
	}
	sort.Strings(apps)

	return apps
}

// Snapshot returns a deep copy of the current derived views.
func (d *Dashboard) Snapshot() Snapshot {
	snap := Snapshot{
		State:     d.state,
		Stats:     d.stats,
		Charts:    copyCharts(d.charts),
		Table:     d.page,
		Apps:      d.Applications(),
		Records:   len(d.records),
		Filtered:  len(d.filtered),
		Loaded:    d.loaded,
		Generated: d.now(),
	}
	snap.Table.Rows = clone(d.page.Rows)
	if d.err != nil {
		snap.Error = d.err.Error()
	}

	return snap
}

func (d *Dashboard) recompute(effect Effect) {
	switch effect {
	case EffectRefilter:
		d.filtered = Filter(d.records, d.state.Filter, d.now())
		d.stats = Summarize(d.filtered)
		d.charts = Aggregate(d.filtered, d.state.Filter, d.iso, d.loc)
		fallthrough
	case EffectTable:
		d.searched = Search(d.filtered, d.state.Filter.Search)
		d.page = Table(d.searched, "", d.state.View, d.loc)
	}
}

func copyCharts(c Charts) Charts {
	c.Countries = clone(c.Countries)
	c.OS = clone(c.OS)
	c.Versions = clone(c.Versions)
	c.Maps = clone(c.Maps)
	c.Timeline = clone(c.Timeline)
	c.TopServers = clone(c.TopServers)
	c.Regions = clone(c.Regions)

	return c
}

// clone copies s into a new, never nil, slice.
func clone[T any](s []T) []T {
	out := make([]T, len(s))
	copy(out, s)

	return out
}
