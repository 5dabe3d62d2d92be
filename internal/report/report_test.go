package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/woozymasta/zenit-dash/internal/dashboard"
	"github.com/woozymasta/zenit-dash/internal/game"
	"github.com/woozymasta/zenit-dash/internal/probe"
	"gopkg.in/yaml.v3"
)

var testNow = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

func testSnapshot() dashboard.Snapshot {
	records := []dashboard.Record{
		{
			Application: "MetricZ", IP: "1.1.1.1", Port: 2302, CountryCode: "DE",
			ServerName: "Alpha", ServerOS: "Linux", Players: 7, MaxPlayers: 60, Count: 1234,
			LastSeen: dashboard.NewTimestamp(testNow.Add(-time.Hour)),
		},
		{
			Application: "MetricZ", IP: "2.2.2.2", Port: 2402, Count: 5,
			LastSeen: dashboard.NewTimestamp(testNow.Add(-2 * time.Hour)),
		},
	}

	d := dashboard.New(dashboard.WithClock(func() time.Time { return testNow }), dashboard.WithLocation(time.UTC))
	d.Load(records, dashboard.IsoMap{"DE": "Germany"})
	d.Dispatch(dashboard.ToggleDimension{Dimension: dashboard.DimOS, Value: "Linux"})

	return d.Snapshot()
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("yaml"); err != nil || f != YAML {
		t.Errorf("ParseFormat(yaml) = %q, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("xml must be rejected")
	}
}

func TestSnapshotText(t *testing.T) {
	var buf bytes.Buffer
	if err := Snapshot(&buf, Text, testSnapshot()); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{
		"Records: 1/2",
		"Filters: os=Linux",
		"1,234",
		"Activity Timeline (All Time)",
		"Germany",
		"Alpha",
		"Showing 1-1 of 1 (page 1 of 1)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "2.2.2.2") {
		t.Error("filtered out server rendered")
	}
}

func TestSnapshotTextError(t *testing.T) {
	d := dashboard.New()
	d.Fail(errors.New("connection refused"))

	var buf bytes.Buffer
	if err := Snapshot(&buf, Text, d.Snapshot()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Error loading data: connection refused") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestSnapshotJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Snapshot(&buf, JSON, testSnapshot()); err != nil {
		t.Fatal(err)
	}

	var doc struct {
		Stats struct {
			Total        int   `json:"total"`
			TotalPlayers int64 `json:"total_players"`
		} `json:"stats"`
		Table struct {
			Rows []struct {
				Address string `json:"address"`
			} `json:"rows"`
		} `json:"table"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Stats.Total != 1 || doc.Stats.TotalPlayers != 7 {
		t.Errorf("stats = %+v", doc.Stats)
	}
	if len(doc.Table.Rows) != 1 || doc.Table.Rows[0].Address != "1.1.1.1:2302" {
		t.Errorf("rows = %+v", doc.Table.Rows)
	}
}

func TestSnapshotYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Snapshot(&buf, YAML, testSnapshot()); err != nil {
		t.Fatal(err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if doc["filtered"] != 1 || doc["loaded"] != true {
		t.Errorf("doc = %v", doc)
	}
}

func TestPings(t *testing.T) {
	results := []probe.Result{
		{Key: dashboard.NodeKey{Application: "A", IP: "1.1.1.1", Port: 2302}, Info: &game.Info{Name: "Alpha", Players: 3, MaxPlayers: 10}},
		{Key: dashboard.NodeKey{Application: "A", IP: "2.2.2.2", Port: 2302}, Err: errors.New("i/o timeout")},
	}

	var buf bytes.Buffer
	if err := Pings(&buf, Text, results); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "online") || !strings.Contains(buf.String(), "i/o timeout") {
		t.Errorf("output = %q", buf.String())
	}

	buf.Reset()
	if err := Pings(&buf, JSON, results); err != nil {
		t.Fatal(err)
	}
	var docs []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &docs); err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 || docs[1]["error"] != "i/o timeout" {
		t.Errorf("docs = %v", docs)
	}
}

func TestNode(t *testing.T) {
	rec := dashboard.Record{Application: "A", IP: "1.1.1.1", Port: 2302, Count: 1500}

	var buf bytes.Buffer
	if err := Node(&buf, Text, rec); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"1.1.1.1:2302", "1,500", "Unknown"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output missing %q:\n%s", want, buf.String())
		}
	}
}
