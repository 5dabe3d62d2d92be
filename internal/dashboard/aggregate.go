package dashboard

import (
	"sort"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
)

// TopServersLimit is the number of entries in the top servers ranking.
const TopServersLimit = 20

// CountryChartLimit is the number of entries in the countries chart.
const CountryChartLimit = 10

// Bucket is one category of a grouped count.
type Bucket struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"value" yaml:"value"`
}

// Group counts records by field in first-occurrence order.
// Missing or empty values are counted under Unknown.
func Group(records []Record, field Field) []Bucket {
	index := make(map[string]int)
	buckets := make([]Bucket, 0)

	for _, r := range records {
		v := r.Category(field)
		if i, ok := index[v]; ok {
			buckets[i].Count++
			continue
		}
		index[v] = len(buckets)
		buckets = append(buckets, Bucket{Name: v, Count: 1})
	}

	return buckets
}

// TopN returns the n largest groups of field, ties kept in first-occurrence order.
func TopN(records []Record, field Field, n int) []Bucket {
	buckets := Group(records, field)
	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].Count > buckets[j].Count
	})

	if n >= 0 && len(buckets) > n {
		buckets = buckets[:n]
	}

	return buckets
}

// Stats are the headline counters of the filtered set.
type Stats struct {
	Total        int   `json:"total" yaml:"total"`
	OnlineUnique int   `json:"online_unique" yaml:"online_unique"`
	UniqueHosts  int   `json:"unique_hosts" yaml:"unique_hosts"`
	TotalPlayers int64 `json:"total_players" yaml:"total_players"`
}

// Summarize computes Stats. Players are summed once per ip:port, taking the
// first record seen for each address.
func Summarize(records []Record) Stats {
	online := make(map[uint64]struct{})
	hosts := make(map[uint64]struct{})
	counted := make(map[uint64]struct{})

	stats := Stats{Total: len(records)}
	for _, r := range records {
		addr := xxhash.Sum64String(r.IP + ":" + strconv.FormatInt(int64(r.Port), 10))

		if r.Online() {
			online[addr] = struct{}{}
		}
		hosts[xxhash.Sum64String(r.IP)] = struct{}{}

		if _, seen := counted[addr]; !seen {
			counted[addr] = struct{}{}
			stats.TotalPlayers += int64(r.Players)
		}
	}

	stats.OnlineUnique = len(online)
	stats.UniqueHosts = len(hosts)

	return stats
}

// TimePoint is a non-empty bucket of the activity timeline.
type TimePoint struct {
	Time  time.Time `json:"time" yaml:"time"`
	Label string    `json:"label" yaml:"label"`
	Count int       `json:"count" yaml:"count"`
}

// Timeline buckets records by last_seen: hourly for the 24h window, daily
// otherwise, truncated in loc. Only non-empty buckets are returned, oldest
// first. Records with an unparsable last_seen are left out.
func Timeline(records []Record, window TimeWindow, loc *time.Location) []TimePoint {
	if loc == nil {
		loc = time.Local
	}

	hourly := window == Window24h
	counts := make(map[int64]int)
	for _, r := range records {
		if !r.LastSeen.Valid() {
			continue
		}
		counts[truncate(r.LastSeen.Time().In(loc), hourly).Unix()]++
	}

	keys := make([]int64, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	points := make([]TimePoint, 0, len(keys))
	for _, k := range keys {
		t := time.Unix(k, 0).In(loc)
		label := t.Format("Jan 2")
		if hourly {
			label = t.Format("15:04")
		}
		points = append(points, TimePoint{Time: t, Label: label, Count: counts[k]})
	}

	return points
}

func truncate(t time.Time, hourly bool) time.Time {
	if hourly {
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
	}

	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// RankedServer is an entry of the top servers ranking.
type RankedServer struct {
	Node  NodeKey `json:"node" yaml:"node"`
	Name  string  `json:"name" yaml:"name"`
	Count int64   `json:"count" yaml:"count"`
}

// TopServers returns the TopServersLimit records with the highest count,
// ties in input order, listed lowest first so the leader renders last.
func TopServers(records []Record) []RankedServer {
	ordered := make([]Record, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Count > ordered[j].Count
	})

	if len(ordered) > TopServersLimit {
		ordered = ordered[:TopServersLimit]
	}

	ranked := make([]RankedServer, len(ordered))
	for i, r := range ordered {
		ranked[len(ordered)-1-i] = RankedServer{
			Node:  r.Key(),
			Name:  r.DisplayName(),
			Count: int64(r.Count),
		}
	}

	return ranked
}

// Region is the number of records located in one country of the map.
type Region struct {
	Name     string `json:"name" yaml:"name"`
	Code     string `json:"code" yaml:"code"`
	Count    int    `json:"value" yaml:"value"`
	Selected bool   `json:"selected" yaml:"selected"`
}

// Regions counts records per country display name in first-occurrence order.
// It also returns the largest count, at least 1, as the colour scale bound.
func Regions(records []Record, iso IsoMap, selected string) ([]Region, int) {
	inverse := iso.Inverse()
	index := make(map[string]int)
	regions := make([]Region, 0)

	for _, r := range records {
		code := regionCode(r.CountryCode)
		name := iso.Name(code)
		if i, ok := index[name]; ok {
			regions[i].Count++
			continue
		}
		index[name] = len(regions)
		regions = append(regions, Region{
			Name:     name,
			Code:     code,
			Count:    1,
			Selected: selected != "" && inverse[name] == selected,
		})
	}

	maxCount := 1
	for _, reg := range regions {
		if reg.Count > maxCount {
			maxCount = reg.Count
		}
	}

	return regions, maxCount
}

// Charts bundles every chart aggregate of one recomputation.
type Charts struct {
	Title      string         `json:"timeline_title" yaml:"timeline_title"`
	Countries  []Bucket       `json:"countries" yaml:"countries"`
	OS         []Bucket       `json:"os" yaml:"os"`
	Versions   []Bucket       `json:"versions" yaml:"versions"`
	Maps       []Bucket       `json:"maps" yaml:"maps"`
	Timeline   []TimePoint    `json:"timeline" yaml:"timeline"`
	TopServers []RankedServer `json:"top_servers" yaml:"top_servers"`
	Regions    []Region       `json:"regions" yaml:"regions"`
	RegionMax  int            `json:"region_max" yaml:"region_max"`
}

// Aggregate computes every chart over the filtered set.
func Aggregate(filtered []Record, s FilterState, iso IsoMap, loc *time.Location) Charts {
	regions, regionMax := Regions(filtered, iso, s.MapCountry)

	return Charts{
		Title:      s.Window.Title(),
		Countries:  TopN(filtered, FieldCountry, CountryChartLimit),
		OS:         Group(filtered, FieldOS),
		Versions:   Group(filtered, FieldVersion),
		Maps:       Group(filtered, FieldMap),
		Timeline:   Timeline(filtered, s.Window, loc),
		TopServers: TopServers(filtered),
		Regions:    regions,
		RegionMax:  regionMax,
	}
}
