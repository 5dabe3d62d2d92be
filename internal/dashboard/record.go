// Package dashboard implements the filter-and-aggregation engine behind the
// telemetry dashboard: filter composition, chart aggregates, the sortable and
// paginated server table, and the cross-filter event reducer.
package dashboard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Unknown is the category name used for missing or empty categorical values.
const Unknown = "Unknown"

// Record is one observed server snapshot as served by the collector.
// Records are immutable once loaded into a Dashboard.
type Record struct {
	LastSeen    Timestamp `json:"last_seen" yaml:"last_seen"`
	FirstSeen   Timestamp `json:"first_seen" yaml:"first_seen"`
	Application string    `json:"application" yaml:"application"`
	Type        string    `json:"type,omitempty" yaml:"type,omitempty"`
	IP          string    `json:"ip" yaml:"ip"`
	CountryCode string    `json:"country_code,omitempty" yaml:"country_code,omitempty"`
	Version     string    `json:"version,omitempty" yaml:"version,omitempty"`
	ServerName  string    `json:"server_name,omitempty" yaml:"server_name,omitempty"`
	MapName     string    `json:"map_name,omitempty" yaml:"map_name,omitempty"`
	GameVersion string    `json:"game_version,omitempty" yaml:"game_version,omitempty"`
	GameName    string    `json:"game_name,omitempty" yaml:"game_name,omitempty"`
	ServerOS    string    `json:"server_os,omitempty" yaml:"server_os,omitempty"`
	Port        Number    `json:"port" yaml:"port"`
	Players     Number    `json:"players" yaml:"players"`
	MaxPlayers  Number    `json:"max_players" yaml:"max_players"`
	Count       Number    `json:"count" yaml:"count"`
}

// Key returns the identity of the logical node the record belongs to.
func (r Record) Key() NodeKey {
	return NodeKey{Application: r.Application, IP: r.IP, Port: int(r.Port)}
}

// Address returns "ip:port".
func (r Record) Address() string {
	return fmt.Sprintf("%s:%d", r.IP, r.Port)
}

// Online reports whether the record carries the liveness marker.
func (r Record) Online() bool {
	return r.GameVersion != ""
}

// DisplayName returns the server name, falling back to the IP address.
func (r Record) DisplayName() string {
	if r.ServerName != "" {
		return r.ServerName
	}

	return r.IP
}

// Raw returns the record field named by its JSON key as a string.
// Unknown keys yield an empty string.
func (r Record) Raw(field Field) string {
	switch field {
	case FieldApplication:
		return r.Application
	case FieldType:
		return r.Type
	case FieldIP:
		return r.IP
	case FieldPort:
		return r.Port.String()
	case FieldCountry:
		return r.CountryCode
	case FieldVersion:
		return r.Version
	case FieldServerName:
		return r.ServerName
	case FieldMap:
		return r.MapName
	case FieldGameVersion:
		return r.GameVersion
	case FieldGameName:
		return r.GameName
	case FieldOS:
		return r.ServerOS
	case FieldPlayers:
		return r.Players.String()
	case FieldMaxPlayers:
		return r.MaxPlayers.String()
	case FieldCount:
		return r.Count.String()
	case FieldFirstSeen:
		return r.FirstSeen.String()
	case FieldLastSeen:
		return r.LastSeen.String()
	case FieldAddress:
		return r.Address()
	default:
		return ""
	}
}

// Category returns the field value used for grouping: missing or empty
// values collapse into Unknown.
func (r Record) Category(field Field) string {
	if v := r.Raw(field); v != "" {
		return v
	}

	return Unknown
}

// ParseField validates a field name, including the synthetic address key.
func ParseField(s string) (Field, error) {
	switch f := Field(s); f {
	case FieldApplication, FieldType, FieldIP, FieldPort, FieldCountry, FieldVersion,
		FieldServerName, FieldMap, FieldGameVersion, FieldGameName, FieldOS,
		FieldPlayers, FieldMaxPlayers, FieldCount, FieldFirstSeen, FieldLastSeen, FieldAddress:
		return f, nil
	default:
		return "", fmt.Errorf("unknown field %q", s)
	}
}

// Field names a record attribute by its JSON key.
type Field string

// Record fields addressable by grouping, dimension filters and table sorting.
const (
	FieldApplication Field = "application"
	FieldType        Field = "type"
	FieldIP          Field = "ip"
	FieldPort        Field = "port"
	FieldCountry     Field = "country_code"
	FieldVersion     Field = "version"
	FieldServerName  Field = "server_name"
	FieldMap         Field = "map_name"
	FieldGameVersion Field = "game_version"
	FieldGameName    Field = "game_name"
	FieldOS          Field = "server_os"
	FieldPlayers     Field = "players"
	FieldMaxPlayers  Field = "max_players"
	FieldCount       Field = "count"
	FieldFirstSeen   Field = "first_seen"
	FieldLastSeen    Field = "last_seen"

	// FieldAddress is the synthetic "ip:port" sort key.
	FieldAddress Field = "address"
)

// NodeKey identifies a logical node: application + ip + port.
type NodeKey struct {
	Application string `json:"app" yaml:"app"`
	IP          string `json:"ip" yaml:"ip"`
	Port        int    `json:"port" yaml:"port"`
}

func (k NodeKey) String() string {
	return fmt.Sprintf("%s @ %s:%d", k.Application, k.IP, k.Port)
}

// Number is an integer that decodes leniently: JSON numbers and numeric
// strings are accepted, anything else becomes 0.
type Number int64

// String implements fmt.Stringer.
func (n Number) String() string {
	return strconv.FormatInt(int64(n), 10)
}

// UnmarshalJSON never fails; non-numeric input yields 0.
func (n *Number) UnmarshalJSON(data []byte) error {
	*n = ParseNumber(string(bytes.Trim(bytes.TrimSpace(data), `"`)))
	return nil
}

// ParseNumber converts s to a Number, returning 0 for non-numeric input.
func ParseNumber(s string) Number {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Number(i)
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}

	return Number(f)
}

// timestampLayouts are the accepted ISO 8601 shapes, most specific first.
// Date-times without a zone are local time; a bare date is UTC.
var timestampLayouts = []struct {
	layout string
	local  bool
}{
	{time.RFC3339Nano, false},
	{"2006-01-02T15:04:05.999999999", true},
	{"2006-01-02 15:04:05.999999999-07:00", false},
	{"2006-01-02 15:04:05.999999999 -0700 MST", false},
	{"2006-01-02 15:04:05.999999999", true},
	{"2006-01-02T15:04", true},
	{"2006-01-02", false},
}

// Timestamp keeps the raw timestamp string next to its parsed value.
// Unparsable input is retained for display as "-" and sorts as epoch 0.
type Timestamp struct {
	t     time.Time
	raw   string
	valid bool
}

// NewTimestamp wraps an already parsed time.
func NewTimestamp(t time.Time) Timestamp {
	if t.IsZero() {
		return Timestamp{}
	}

	return Timestamp{t: t, raw: t.Format(time.RFC3339Nano), valid: true}
}

// ParseTimestamp parses an ISO 8601 string. It never fails; the returned
// Timestamp reports Valid() == false for unparsable input.
func ParseTimestamp(s string) Timestamp {
	ts := Timestamp{raw: s}
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return ts
	}

	for _, l := range timestampLayouts {
		loc := time.UTC
		if l.local {
			loc = time.Local
		}
		if t, err := time.ParseInLocation(l.layout, trimmed, loc); err == nil {
			ts.t = t
			ts.valid = true
			return ts
		}
	}

	return ts
}

// Valid reports whether the timestamp was parsed.
func (ts Timestamp) Valid() bool {
	return ts.valid
}

// Time returns the parsed time, or the Unix epoch when unparsable.
func (ts Timestamp) Time() time.Time {
	if !ts.valid {
		return time.Unix(0, 0)
	}

	return ts.t
}

// Millis returns milliseconds since the Unix epoch, 0 when unparsable.
func (ts Timestamp) Millis() int64 {
	if !ts.valid {
		return 0
	}

	return ts.t.UnixMilli()
}

// String returns the raw value as received.
func (ts Timestamp) String() string {
	return ts.raw
}

// Format renders the timestamp in loc, or "-" when unparsable.
func (ts Timestamp) Format(loc *time.Location) string {
	if !ts.valid {
		return "-"
	}
	if loc == nil {
		loc = time.Local
	}

	return ts.t.In(loc).Format("2006-01-02 15:04")
}

// UnmarshalJSON never fails; non-string input is kept as unparsable.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*ts = Timestamp{raw: string(data)}
		return nil
	}

	*ts = ParseTimestamp(s)
	return nil
}

// MarshalJSON emits the raw string.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(ts.raw)
}

// MarshalYAML emits the raw string.
func (ts Timestamp) MarshalYAML() (interface{}, error) {
	return ts.raw, nil
}
