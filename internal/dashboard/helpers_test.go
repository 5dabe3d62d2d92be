package dashboard

import (
	"fmt"
	"time"
)

var testNow = time.Date(2025, time.March, 15, 12, 30, 0, 0, time.UTC)

func ago(d time.Duration) Timestamp {
	return NewTimestamp(testNow.Add(-d))
}

func rec(app, ip string, port int, count int64) Record {
	return Record{
		Application: app,
		IP:          ip,
		Port:        Number(port),
		Count:       Number(count),
		LastSeen:    NewTimestamp(testNow),
		FirstSeen:   NewTimestamp(testNow.Add(-time.Hour)),
	}
}

func newTestDashboard(records []Record) *Dashboard {
	d := New(WithClock(func() time.Time { return testNow }), WithLocation(time.UTC))
	d.Load(records, IsoMap{"US": "United States", "DE": "Germany", "FR": "France"})

	return d
}

// manyRecords returns n records with distinct addresses and count == index.
func manyRecords(n int) []Record {
	out := make([]Record, n)
	for i := range out {
		out[i] = rec("MetricZ", fmt.Sprintf("10.0.0.%d", i+1), 2302, int64(i))
	}

	return out
}

func bucketNames(b []Bucket) []string {
	out := make([]string, len(b))
	for i := range b {
		out[i] = b[i].Name
	}

	return out
}

func rowIPs(p Page) []string {
	out := make([]string, len(p.Rows))
	for i := range p.Rows {
		out[i] = p.Rows[i].Record.IP
	}

	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}
