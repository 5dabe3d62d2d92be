package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/woozymasta/zenit-dash/internal/dashboard"
	"github.com/woozymasta/zenit-dash/internal/game"
	"github.com/woozymasta/zenit-dash/internal/probe"
)

var testNow = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

type memSource struct {
	err       error
	deleteErr error
	iso       dashboard.IsoMap
	records   []dashboard.Record
	deleted   []dashboard.NodeKey
}

func (m *memSource) Records(context.Context) ([]dashboard.Record, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]dashboard.Record, len(m.records))
	copy(out, m.records)
	return out, nil
}

func (m *memSource) Node(_ context.Context, key dashboard.NodeKey) (*dashboard.Record, error) {
	for _, r := range m.records {
		if r.Key() == key {
			return &r, nil
		}
	}
	return nil, errors.New("node not found")
}

func (m *memSource) DeleteNode(_ context.Context, key dashboard.NodeKey) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, key)
	return nil
}

type isoSource struct {
	*memSource
}

func (s isoSource) Countries(context.Context) (dashboard.IsoMap, error) {
	return s.iso, nil
}

type stubEnricher struct{}

func (stubEnricher) Enrich(records []dashboard.Record) int {
	n := 0
	for i := range records {
		if records[i].CountryCode == "" {
			records[i].CountryCode = "FR"
			n++
		}
	}
	return n
}

type stubPinger struct{}

func (stubPinger) Ping(_ context.Context, ip string, _ int) (*game.Info, error) {
	return &game.Info{Name: "live " + ip}, nil
}

func record(ip, country string, count int64) dashboard.Record {
	return dashboard.Record{
		Application: "MetricZ",
		IP:          ip,
		Port:        2302,
		CountryCode: country,
		Count:       dashboard.Number(count),
		LastSeen:    dashboard.NewTimestamp(testNow.Add(-time.Hour)),
		FirstSeen:   dashboard.NewTimestamp(testNow.Add(-48 * time.Hour)),
	}
}

func newSession(src Source, opts ...Option) *Session {
	opts = append(opts, WithEngine(
		dashboard.WithClock(func() time.Time { return testNow }),
		dashboard.WithLocation(time.UTC),
	))
	return New(src, opts...)
}

func TestRefreshLoadsAndEnriches(t *testing.T) {
	src := &memSource{records: []dashboard.Record{record("1.1.1.1", "DE", 3), record("2.2.2.2", "", 1)}}
	s := newSession(src, WithEnricher(stubEnricher{}))

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	snap := s.Snapshot()
	if !snap.Loaded || snap.Records != 2 {
		t.Fatalf("snapshot = %+v", snap)
	}
	if len(snap.Charts.Regions) != 2 {
		t.Fatalf("regions = %+v", snap.Charts.Regions)
	}
	// Bundled table names both countries.
	names := map[string]bool{}
	for _, r := range snap.Charts.Regions {
		names[r.Name] = true
	}
	if !names["Germany"] || !names["France"] {
		t.Errorf("regions = %+v", snap.Charts.Regions)
	}
}

func TestRefreshPrefersSourceCountries(t *testing.T) {
	src := &memSource{
		records: []dashboard.Record{record("1.1.1.1", "DE", 3)},
		iso:     dashboard.IsoMap{"DE": "Deutschland"},
	}
	s := newSession(isoSource{src})

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	snap := s.Dispatch(dashboard.ClickRegion{Name: "Deutschland"})
	if snap.State.Filter.MapCountry != "DE" {
		t.Errorf("map country = %q", snap.State.Filter.MapCountry)
	}
}

func TestRefreshFailure(t *testing.T) {
	src := &memSource{records: []dashboard.Record{record("1.1.1.1", "DE", 3)}}
	s := newSession(src)
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	src.err = errors.New("connection refused")
	if err := s.Refresh(context.Background()); err == nil {
		t.Fatal("expected error")
	}

	snap := s.Snapshot()
	if snap.Loaded || snap.Records != 0 || snap.Error != "connection refused" {
		t.Errorf("failed snapshot = %+v", snap)
	}
}

func TestDelete(t *testing.T) {
	src := &memSource{records: []dashboard.Record{record("1.1.1.1", "DE", 3), record("2.2.2.2", "DE", 1)}}
	s := newSession(src)
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	s.Dispatch(dashboard.SetSearch{Query: "2.2"})

	key := src.records[1].Key()
	if err := s.Delete(context.Background(), key); err != nil {
		t.Fatal(err)
	}

	snap := s.Snapshot()
	if snap.Records != 1 || len(src.deleted) != 1 {
		t.Errorf("records = %d, deleted = %v", snap.Records, src.deleted)
	}
	if snap.State.Filter.Search != "2.2" {
		t.Error("delete must keep the search query")
	}

	src.deleteErr = errors.New("Database Error")
	if err := s.Delete(context.Background(), src.records[0].Key()); err == nil {
		t.Error("expected delete error")
	}
	if s.Snapshot().Records != 1 {
		t.Error("failed delete must not touch the snapshot")
	}
}

func TestPingPage(t *testing.T) {
	src := &memSource{records: []dashboard.Record{record("1.1.1.1", "DE", 3), record("2.2.2.2", "DE", 1)}}

	if _, err := newSession(src).PingPage(context.Background()); !errors.Is(err, ErrNoProber) {
		t.Errorf("err = %v, want ErrNoProber", err)
	}

	s := newSession(src, WithSweeper(probe.New(stubPinger{}, 2, 0)))
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	results, err := s.PingPage(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	// Count desc puts 1.1.1.1 first.
	if len(results) != 2 || results[0].Info.Name != "live 1.1.1.1" {
		t.Errorf("results = %+v", results)
	}
}
