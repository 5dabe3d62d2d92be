package dashboard

import (
	"testing"
	"time"
)

func TestGroupFirstOccurrenceOrder(t *testing.T) {
	records := []Record{
		{ServerOS: "Windows"},
		{ServerOS: "Linux"},
		{},
		{ServerOS: "Linux"},
		{ServerOS: "Windows"},
		{ServerOS: "Linux"},
	}

	got := Group(records, FieldOS)
	want := []Bucket{{"Windows", 2}, {"Linux", 3}, {Unknown, 1}}

	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("bucket %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestTopNTieBreakByFirstOccurrence(t *testing.T) {
	// A x3, B x5, C x3 in first-occurrence order A, B, C.
	var records []Record
	add := func(v string, n int) {
		for i := 0; i < n; i++ {
			records = append(records, Record{MapName: v})
		}
	}
	add("A", 1)
	add("B", 5)
	add("C", 3)
	add("A", 2)

	got := bucketNames(TopN(records, FieldMap, 2))
	if want := []string{"B", "A"}; !equalStrings(got, want) {
		t.Errorf("TopN(2) = %v, want %v", got, want)
	}

	got = bucketNames(TopN(records, FieldMap, 10))
	if want := []string{"B", "A", "C"}; !equalStrings(got, want) {
		t.Errorf("TopN(10) = %v, want %v", got, want)
	}
}

func TestSummarizeFirstWinsPlayers(t *testing.T) {
	first := rec("A", "1.1.1.1", 2302, 1)
	first.Players = 5
	dup := rec("A", "1.1.1.1", 2302, 1)
	dup.Players = 9
	dup.GameVersion = "1.25"
	other := rec("B", "1.1.1.1", 2303, 1)
	other.Players = 2
	offline := rec("B", "2.2.2.2", 2302, 1)
	offline.Players = 4

	got := Summarize([]Record{first, dup, other, offline})

	if got.Total != 4 {
		t.Errorf("total = %d, want 4", got.Total)
	}
	if got.TotalPlayers != 5+2+4 {
		t.Errorf("total players = %d, want %d (first record per address wins)", got.TotalPlayers, 5+2+4)
	}
	if got.OnlineUnique != 1 {
		t.Errorf("online unique = %d, want 1", got.OnlineUnique)
	}
	if got.UniqueHosts != 2 {
		t.Errorf("unique hosts = %d, want 2", got.UniqueHosts)
	}
}

func TestSummarizeDuplicateOrder(t *testing.T) {
	a := rec("A", "9.9.9.9", 1, 1)
	a.Players = 9
	b := rec("A", "9.9.9.9", 1, 1)
	b.Players = 5

	if got := Summarize([]Record{b, a}).TotalPlayers; got != 5 {
		t.Errorf("total players = %d, want 5", got)
	}
	if got := Summarize([]Record{a, b}).TotalPlayers; got != 9 {
		t.Errorf("total players = %d, want 9", got)
	}
}

func TestTimelineSparseDailyBuckets(t *testing.T) {
	records := []Record{
		{LastSeen: NewTimestamp(time.Date(2025, 3, 14, 18, 0, 0, 0, time.UTC))},
		{LastSeen: NewTimestamp(time.Date(2025, 3, 10, 9, 15, 0, 0, time.UTC))},
		{LastSeen: NewTimestamp(time.Date(2025, 3, 14, 1, 0, 0, 0, time.UTC))},
		{LastSeen: ParseTimestamp("nope")},
	}

	got := Timeline(records, Window7d, time.UTC)
	if len(got) != 2 {
		t.Fatalf("buckets = %d, want 2 (no zero fill): %+v", len(got), got)
	}

	if !got[0].Time.Equal(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)) || got[0].Count != 1 {
		t.Errorf("first bucket = %+v", got[0])
	}
	if !got[1].Time.Equal(time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)) || got[1].Count != 2 {
		t.Errorf("second bucket = %+v", got[1])
	}
	if got[0].Label != "Mar 10" {
		t.Errorf("label = %q, want %q", got[0].Label, "Mar 10")
	}
}

func TestTimelineHourlyFor24h(t *testing.T) {
	records := []Record{
		{LastSeen: NewTimestamp(time.Date(2025, 3, 15, 11, 59, 59, 0, time.UTC))},
		{LastSeen: NewTimestamp(time.Date(2025, 3, 15, 11, 0, 0, 0, time.UTC))},
		{LastSeen: NewTimestamp(time.Date(2025, 3, 15, 9, 30, 0, 0, time.UTC))},
	}

	got := Timeline(records, Window24h, time.UTC)
	if len(got) != 2 {
		t.Fatalf("buckets = %d, want 2", len(got))
	}
	if got[0].Label != "09:00" || got[0].Count != 1 {
		t.Errorf("first bucket = %+v", got[0])
	}
	if got[1].Label != "11:00" || got[1].Count != 2 {
		t.Errorf("second bucket = %+v", got[1])
	}
}

func TestTimelineUsesLocation(t *testing.T) {
	zone := time.FixedZone("UTC+3", 3*60*60)
	records := []Record{
		{LastSeen: NewTimestamp(time.Date(2025, 3, 14, 22, 0, 0, 0, time.UTC))},
		{LastSeen: NewTimestamp(time.Date(2025, 3, 15, 1, 0, 0, 0, time.UTC))},
	}

	if got := Timeline(records, Window30d, zone); len(got) != 1 || got[0].Count != 2 {
		t.Errorf("both records fall on Mar 15 in UTC+3, got %+v", got)
	}
	if got := Timeline(records, Window30d, time.UTC); len(got) != 2 {
		t.Errorf("records fall on two UTC days, got %+v", got)
	}
}

func TestTopServersReversedTop20(t *testing.T) {
	records := manyRecords(25)
	// Tie with the leader, later in input order.
	tie := rec("MetricZ", "10.1.1.1", 1, 24)
	tie.ServerName = "Tied"
	records = append(records, tie)

	got := TopServers(records)
	if len(got) != TopServersLimit {
		t.Fatalf("len = %d, want %d", len(got), TopServersLimit)
	}

	last := got[len(got)-1]
	if last.Count != 24 || last.Name != "10.0.0.25" {
		t.Errorf("leader = %+v, want 10.0.0.25 (earlier of the tie) rendered last", last)
	}
	if got[len(got)-2].Name != "Tied" {
		t.Errorf("runner-up = %+v, want Tied", got[len(got)-2])
	}
	if got[0].Count != 6 {
		t.Errorf("first entry count = %d, want 6 (lowest of the top 20)", got[0].Count)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Count < got[i-1].Count {
			t.Fatalf("ranking not ascending at %d: %+v", i, got)
		}
	}
}

func TestRegions(t *testing.T) {
	iso := IsoMap{"US": "United States", "DE": "Germany"}
	records := []Record{
		{CountryCode: "de"},
		{CountryCode: "US"},
		{},
		{CountryCode: "DE"},
		{CountryCode: "ZZ"},
	}

	got, maxCount := Regions(records, iso, "DE")
	want := []Region{
		{Name: "Germany", Code: "DE", Count: 2, Selected: true},
		{Name: "United States", Code: "US", Count: 1},
		{Name: UnknownCountry, Code: UnknownCountry, Count: 1},
		{Name: "ZZ", Code: "ZZ", Count: 1},
	}

	if len(got) != len(want) {
		t.Fatalf("regions = %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("region %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if maxCount != 2 {
		t.Errorf("max = %d, want 2", maxCount)
	}

	if _, m := Regions(nil, iso, ""); m != 1 {
		t.Errorf("empty max = %d, want 1", m)
	}
}
