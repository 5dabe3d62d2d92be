// Package session binds the dashboard engine to a snapshot source and makes
// it safe to drive from several goroutines.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/zenit-dash/internal/dashboard"
	"github.com/woozymasta/zenit-dash/internal/geoip"
	"github.com/woozymasta/zenit-dash/internal/metrics"
	"github.com/woozymasta/zenit-dash/internal/probe"
)

// ErrNoProber is returned by PingPage when the session has no Sweeper.
var ErrNoProber = errors.New("server pinging is not configured")

// Source provides the server snapshot and node administration.
type Source interface {
	Records(ctx context.Context) ([]dashboard.Record, error)
	Node(ctx context.Context, key dashboard.NodeKey) (*dashboard.Record, error)
	DeleteNode(ctx context.Context, key dashboard.NodeKey) error
}

// CountrySource is implemented by sources that publish their own country
// name table.
type CountrySource interface {
	Countries(ctx context.Context) (dashboard.IsoMap, error)
}

// Enricher fills missing country codes in place.
type Enricher interface {
	Enrich(records []dashboard.Record) int
}

// Option configures a Session.
type Option func(*Session)

// WithEnricher locates records the source could not place on the map.
func WithEnricher(e Enricher) Option {
	return func(s *Session) { s.enricher = e }
}

// WithSweeper enables PingPage.
func WithSweeper(sw *probe.Sweeper) Option {
	return func(s *Session) { s.sweeper = sw }
}

// WithEngine passes options through to the dashboard engine.
func WithEngine(opts ...dashboard.Option) Option {
	return func(s *Session) { s.engineOpts = append(s.engineOpts, opts...) }
}

// Session owns one dashboard and serializes access to it.
type Session struct {
	source     Source
	enricher   Enricher
	sweeper    *probe.Sweeper
	dash       *dashboard.Dashboard
	engineOpts []dashboard.Option
	mu         sync.Mutex
}

// New creates a Session over source. Call Refresh to load data.
func New(source Source, opts ...Option) *Session {
	s := &Session{source: source}
	for _, opt := range opts {
		opt(s)
	}
	s.dash = dashboard.New(s.engineOpts...)

	return s
}

// Refresh retrieves the snapshot and reloads the dashboard. On failure the
// dashboard is emptied and keeps the error for display.
func (s *Session) Refresh(ctx context.Context) error {
	records, err := s.source.Records(ctx)
	metrics.ObserveLoad(err)
	if err != nil {
		s.mu.Lock()
		s.dash.Fail(err)
		s.mu.Unlock()

		log.Error().Err(err).Msg("Failed to load server snapshot")
		return err
	}

	iso := s.countries(ctx)
	if s.enricher != nil {
		if n := s.enricher.Enrich(records); n > 0 {
			log.Debug().Int("count", n).Msg("Located servers by GeoIP")
		}
	}

	s.mu.Lock()
	s.dash.Load(records, iso)
	snap := s.dash.Snapshot()
	s.mu.Unlock()

	metrics.SetSizes(snap.Records, snap.Filtered)
	log.Info().
		Int("records", snap.Records).
		Int("applications", len(snap.Apps)).
		Msg("Server snapshot loaded")

	return nil
}

func (s *Session) countries(ctx context.Context) dashboard.IsoMap {
	if cs, ok := s.source.(CountrySource); ok {
		iso, err := cs.Countries(ctx)
		if err == nil && len(iso) > 0 {
			return iso
		}
		log.Warn().Err(err).Msg("Country names unavailable from source, using bundled table")
	}

	return geoip.CountryNames()
}

// Dispatch applies events in order and returns the resulting snapshot.
func (s *Session) Dispatch(events ...dashboard.Event) dashboard.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ev := range events {
		start := time.Now()
		effect := s.dash.Dispatch(ev)
		metrics.ObserveEvent(effect, time.Since(start))

		log.Trace().
			Str("event", fmt.Sprintf("%T", ev)).
			Int("effect", int(effect)).
			Msg("Event applied")
	}

	snap := s.dash.Snapshot()
	metrics.SetSizes(snap.Records, snap.Filtered)

	return snap
}

// Snapshot returns the current views.
func (s *Session) Snapshot() dashboard.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.dash.Snapshot()
}

// Node fetches the authoritative record of a node from the source.
func (s *Session) Node(ctx context.Context, key dashboard.NodeKey) (*dashboard.Record, error) {
	return s.source.Node(ctx, key)
}

// Delete removes a node at the source and, once confirmed, from the
// loaded snapshot.
func (s *Session) Delete(ctx context.Context, key dashboard.NodeKey) error {
	err := s.source.DeleteNode(ctx, key)
	metrics.ObserveDelete(err)
	if err != nil {
		log.Error().Err(err).Str("node", key.String()).Msg("Failed to delete node")
		return fmt.Errorf("delete %s: %w", key, err)
	}

	s.mu.Lock()
	removed := s.dash.Remove(key)
	s.mu.Unlock()

	log.Info().
		Str("app", key.Application).
		Str("ip", key.IP).
		Int("port", key.Port).
		Int("removed", removed).
		Msg("Node deleted")

	return nil
}

// PingPage pings every server on the visible table page.
func (s *Session) PingPage(ctx context.Context) ([]probe.Result, error) {
	if s.sweeper == nil {
		return nil, ErrNoProber
	}

	s.mu.Lock()
	snap := s.dash.Snapshot()
	s.mu.Unlock()

	keys := make([]dashboard.NodeKey, len(snap.Table.Rows))
	for i, row := range snap.Table.Rows {
		keys[i] = row.Record.Key()
	}

	results := s.sweeper.Sweep(ctx, keys)
	for _, r := range results {
		metrics.ObservePing(r.Err)
	}

	return results, nil
}
