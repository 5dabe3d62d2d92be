// Package report renders dashboard snapshots for the terminal or for tools.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/woozymasta/zenit-dash/internal/dashboard"
	"github.com/woozymasta/zenit-dash/internal/game"
	"github.com/woozymasta/zenit-dash/internal/probe"
	"gopkg.in/yaml.v3"
)

// Format selects the rendering.
type Format string

// Supported formats.
const (
	Text Format = "text"
	JSON Format = "json"
	YAML Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case Text, JSON, YAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown report format %q", s)
	}
}

const barWidth = 30

// Snapshot writes the whole dashboard.
func Snapshot(w io.Writer, f Format, snap dashboard.Snapshot) error {
	switch f {
	case JSON:
		return encodeJSON(w, snap)
	case YAML:
		return encodeYAML(w, snap)
	}

	tw := newTabWriter(w)
	writeSummary(tw, snap)
	if snap.Loaded {
		writeBuckets(tw, "Countries", snap.Charts.Countries)
		writeBuckets(tw, "Operating Systems", snap.Charts.OS)
		writeBuckets(tw, "App Versions", snap.Charts.Versions)
		writeBuckets(tw, "Maps", snap.Charts.Maps)
		writeTimeline(tw, snap.Charts)
		writeTopServers(tw, snap.Charts.TopServers)
		writeRegions(tw, snap.Charts)
		writeTable(tw, snap)
	}

	return tw.Flush()
}

// Table writes only the visible page of the server table.
func Table(w io.Writer, f Format, snap dashboard.Snapshot) error {
	switch f {
	case JSON:
		return encodeJSON(w, snap.Table)
	case YAML:
		return encodeYAML(w, snap.Table)
	}

	tw := newTabWriter(w)
	writeTable(tw, snap)
	return tw.Flush()
}

// Node writes the stored details of one node.
func Node(w io.Writer, f Format, rec dashboard.Record) error {
	switch f {
	case JSON:
		return encodeJSON(w, rec)
	case YAML:
		return encodeYAML(w, rec)
	}

	tw := newTabWriter(w)
	fields := []struct{ name, value string }{
		{"Application", rec.Application},
		{"Type", rec.Type},
		{"Address", rec.Address()},
		{"Country", rec.Category(dashboard.FieldCountry)},
		{"App Version", rec.Category(dashboard.FieldVersion)},
		{"Server Name", rec.DisplayName()},
		{"Map", rec.Category(dashboard.FieldMap)},
		{"Players", fmt.Sprintf("%d/%d", rec.Players, rec.MaxPlayers)},
		{"Game", rec.GameName},
		{"Game Version", rec.GameVersion},
		{"OS", rec.Category(dashboard.FieldOS)},
		{"Reports", humanize.Comma(int64(rec.Count))},
		{"First Seen", rec.FirstSeen.String()},
		{"Last Seen", rec.LastSeen.String()},
	}
	for _, fld := range fields {
		_, _ = fmt.Fprintf(tw, "%s:\t%s\n", fld.name, fld.value)
	}

	return tw.Flush()
}

// Pings writes the outcome of a page sweep.
func Pings(w io.Writer, f Format, results []probe.Result) error {
	switch f {
	case JSON:
		return encodeJSON(w, pingDocs(results))
	case YAML:
		return encodeYAML(w, pingDocs(results))
	}

	tw := newTabWriter(w)
	_, _ = fmt.Fprintln(tw, "NODE\tSTATUS\tPING\tPLAYERS\tMAP\tNAME")
	for _, r := range results {
		if !r.Online() {
			_, _ = fmt.Fprintf(tw, "%s\toffline\t-\t-\t-\t%v\n", r.Key, r.Err)
			continue
		}
		_, _ = fmt.Fprintf(tw, "%s\tonline\t%s\t%d/%d\t%s\t%s\n",
			r.Key, r.Info.Latency.Round(1e6), r.Info.Players, r.Info.MaxPlayers, r.Info.Map, r.Info.Name)
	}

	return tw.Flush()
}

// Info writes a single live A2S answer.
func Info(w io.Writer, f Format, info *game.Info) error {
	switch f {
	case JSON:
		return encodeJSON(w, info)
	case YAML:
		return encodeYAML(w, info)
	}

	_, err := fmt.Fprintf(w, "%s  %s  %d/%d  %s  %s (%s)  ping %s\n",
		info.Address, info.Name, info.Players, info.MaxPlayers, info.Map, info.Game, info.OS, info.Latency.Round(1e6))
	return err
}

type pingDoc struct {
	Info  *game.Info        `json:"info,omitempty" yaml:"info,omitempty"`
	Node  dashboard.NodeKey `json:"node" yaml:"node"`
	Error string            `json:"error,omitempty" yaml:"error,omitempty"`
}

func pingDocs(results []probe.Result) []pingDoc {
	docs := make([]pingDoc, len(results))
	for i, r := range results {
		docs[i] = pingDoc{Node: r.Key, Info: r.Info}
		if r.Err != nil {
			docs[i].Error = r.Err.Error()
		}
	}

	return docs
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func encodeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func writeSummary(w io.Writer, snap dashboard.Snapshot) {
	if snap.Error != "" {
		_, _ = fmt.Fprintf(w, "Error loading data: %s\n", snap.Error)
		return
	}
	if !snap.Loaded {
		_, _ = fmt.Fprintln(w, "No data loaded")
		return
	}

	f := snap.State.Filter
	_, _ = fmt.Fprintf(w, "Application: %s  Window: %s  Records: %s/%s\n",
		f.Application, f.Window, humanize.Comma(int64(snap.Filtered)), humanize.Comma(int64(snap.Records)))
	if active := activeFilters(f); active != "" {
		_, _ = fmt.Fprintf(w, "Filters: %s\n", active)
	}

	s := snap.Stats
	_, _ = fmt.Fprintf(w, "\nTotal Reports\tOnline Servers\tUnique Hosts\tTotal Players\n")
	_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
		humanize.Comma(int64(s.Total)), humanize.Comma(int64(s.OnlineUnique)),
		humanize.Comma(int64(s.UniqueHosts)), humanize.Comma(s.TotalPlayers))
}

func activeFilters(f dashboard.FilterState) string {
	var parts []string
	add := func(name, value string) {
		if value != "" {
			parts = append(parts, name+"="+value)
		}
	}
	add("region", f.MapCountry)
	add("country", f.Dimensions.Country)
	add("os", f.Dimensions.OS)
	add("version", f.Dimensions.Version)
	add("map", f.Dimensions.Map)
	add("search", f.Search)

	return strings.Join(parts, " ")
}

func writeBuckets(w io.Writer, title string, buckets []dashboard.Bucket) {
	_, _ = fmt.Fprintf(w, "\n%s\n", title)
	if len(buckets) == 0 {
		_, _ = fmt.Fprintln(w, "  (none)")
		return
	}

	top, total := 0, 0
	for _, b := range buckets {
		top = max(top, b.Count)
		total += b.Count
	}
	for _, b := range buckets {
		share := float64(b.Count) / float64(total) * 100
		_, _ = fmt.Fprintf(w, "  %s\t%d\t%s%%\t%s\n", b.Name, b.Count, humanize.FtoaWithDigits(share, 1), bar(b.Count, top))
	}
}

func writeTimeline(w io.Writer, c dashboard.Charts) {
	_, _ = fmt.Fprintf(w, "\n%s\n", c.Title)
	if len(c.Timeline) == 0 {
		_, _ = fmt.Fprintln(w, "  (none)")
		return
	}

	top := 0
	for _, p := range c.Timeline {
		top = max(top, p.Count)
	}
	for _, p := range c.Timeline {
		_, _ = fmt.Fprintf(w, "  %s\t%d\t%s\n", p.Label, p.Count, bar(p.Count, top))
	}
}

func writeTopServers(w io.Writer, servers []dashboard.RankedServer) {
	_, _ = fmt.Fprintln(w, "\nTop Servers")
	if len(servers) == 0 {
		_, _ = fmt.Fprintln(w, "  (none)")
		return
	}

	// Stored lowest first; print the leader on top.
	for i := len(servers) - 1; i >= 0; i-- {
		s := servers[i]
		_, _ = fmt.Fprintf(w, "  %d.\t%s\t%s\t%s\n", len(servers)-i, s.Name, s.Node, humanize.Comma(s.Count))
	}
}

func writeRegions(w io.Writer, c dashboard.Charts) {
	_, _ = fmt.Fprintln(w, "\nWorld Map")
	if len(c.Regions) == 0 {
		_, _ = fmt.Fprintln(w, "  (none)")
		return
	}

	for _, r := range c.Regions {
		mark := " "
		if r.Selected {
			mark = "*"
		}
		_, _ = fmt.Fprintf(w, " %s%s\t%s\t%d\t%s\n", mark, r.Name, r.Code, r.Count, bar(r.Count, c.RegionMax))
	}
}

func writeTable(w io.Writer, snap dashboard.Snapshot) {
	view := snap.State.View
	_, _ = fmt.Fprintf(w, "\nServers (sort: %s %s)\n", view.SortKey, view.Direction)
	_, _ = fmt.Fprintln(w, "#\tAPP\tADDRESS\tNAME\tMAP\tPLAYERS\tVERSION\tOS\tCOUNT\tFIRST SEEN\tLAST SEEN")
	for _, row := range snap.Table.Rows {
		r := row.Record
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d/%d\t%s\t%s\t%s\t%s\t%s\n",
			row.Number, r.Application, row.Address, r.DisplayName(), r.Category(dashboard.FieldMap),
			r.Players, r.MaxPlayers, r.Category(dashboard.FieldVersion), r.Category(dashboard.FieldOS),
			humanize.Comma(int64(r.Count)), row.FirstSeen, row.LastSeen)
	}

	nav := ""
	if snap.Table.HasPrev {
		nav += " [prev]"
	}
	if snap.Table.HasNext {
		nav += " [next]"
	}
	_, _ = fmt.Fprintf(w, "%s (page %d of %d)%s\n", snap.Table.Info(), snap.Table.Page, max(snap.Table.Pages, 1), nav)
}

func bar(n, top int) string {
	if top <= 0 || n <= 0 {
		return ""
	}

	width := n * barWidth / top
	return strings.Repeat("#", max(width, 1))
}
