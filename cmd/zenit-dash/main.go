// main is the entry point of the Zenit dashboard client.
// It loads a server snapshot from a Zenit collector or its database and
// presents the filtered dashboard as a report, an interactive console, or a local API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/zenit-dash/internal/client"
	"github.com/woozymasta/zenit-dash/internal/config"
	"github.com/woozymasta/zenit-dash/internal/console"
	"github.com/woozymasta/zenit-dash/internal/dashboard"
	"github.com/woozymasta/zenit-dash/internal/fake"
	"github.com/woozymasta/zenit-dash/internal/game"
	"github.com/woozymasta/zenit-dash/internal/geoip"
	"github.com/woozymasta/zenit-dash/internal/logger"
	"github.com/woozymasta/zenit-dash/internal/probe"
	"github.com/woozymasta/zenit-dash/internal/report"
	"github.com/woozymasta/zenit-dash/internal/server"
	"github.com/woozymasta/zenit-dash/internal/session"
	"github.com/woozymasta/zenit-dash/internal/storage"
)

func main() {
	cfg := config.Parse()

	closeLog := logger.Setup(cfg.Logger)
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("Dashboard failed")
		closeLog()
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	// data generation
	if cfg.Source.GenerateCount > 0 {
		store, err := storage.New(ctx, cfg.Source.DBPath)
		if err != nil {
			return err
		}
		defer closeWithLog(store.Close, "database")

		return fake.GenerateData(ctx, store, cfg.Source.GenerateCount)
	}

	source, closeSource, err := openSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	format, err := report.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}

	prober := game.NewProber(cfg.A2S)
	opts := []session.Option{
		session.WithSweeper(probe.New(prober, cfg.A2S.Workers, cfg.A2S.Rate)),
	}
	if geo := openGeoIP(ctx, cfg.GeoIP); geo != nil {
		defer closeWithLog(geo.Close, "GeoIP provider")
		opts = append(opts, session.WithEnricher(geo))
	}

	sess := session.New(source, opts...)
	loadErr := sess.Refresh(ctx)

	events, err := initialEvents(cfg.Filter)
	if err != nil {
		return err
	}
	snap := sess.Dispatch(events...)

	switch {
	case cfg.Output.Listen != "":
		return serve(ctx, cfg, sess, prober)

	case cfg.Output.Interactive:
		c := console.New(sess, prober, os.Stdin, os.Stdout, format)
		if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}

	if err := report.Snapshot(os.Stdout, format, snap); err != nil {
		return err
	}
	if loadErr != nil {
		return loadErr
	}

	if cfg.Output.PingPage {
		results, err := sess.PingPage(ctx)
		if err != nil {
			return err
		}
		return report.Pings(os.Stdout, format, results)
	}

	return nil
}

// openSource connects to the collector API or opens its database.
func openSource(ctx context.Context, cfg *config.Config) (session.Source, func(), error) {
	if cfg.Source.APIURL != "" {
		log.Debug().Str("url", cfg.Source.APIURL).Msg("Using collector API")
		return client.New(cfg.Source.APIURL, cfg.Source.AuthToken, cfg.Source.Timeout), func() {}, nil
	}

	store, err := storage.New(ctx, cfg.Source.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize database: %w", err)
	}
	log.Debug().Str("path", cfg.Source.DBPath).Msg("Using collector database")

	return store, func() { closeWithLog(store.Close, "database") }, nil
}

// openGeoIP prepares country detection. It returns nil when disabled or unavailable.
func openGeoIP(ctx context.Context, cfg config.GeoIP) *geoip.Provider {
	if cfg.Path == "" {
		return nil
	}

	log.Info().Msg("Checking GeoIP database...")
	if err := geoip.EnsureDB(ctx, cfg.Path, cfg.URL, cfg.Interval); err != nil {
		log.Error().Err(err).Msg("Failed to download GeoIP database")
	}

	geo, err := geoip.Open(cfg.Path)
	if err != nil {
		log.Error().Err(err).Msg("Failed to open GeoIP database, country detection disabled")
		return nil
	}

	return geo
}

// initialEvents turns filter flags into the events a user would trigger.
func initialEvents(f config.Filter) ([]dashboard.Event, error) {
	window, err := dashboard.ParseTimeWindow(f.Window)
	if err != nil {
		return nil, err
	}

	events := []dashboard.Event{
		dashboard.SelectApplication{Application: f.Application},
		dashboard.SelectWindow{Window: window},
	}

	dims := []struct {
		dim   dashboard.Dimension
		value string
	}{
		{dashboard.DimCountry, f.Country},
		{dashboard.DimOS, f.OS},
		{dashboard.DimVersion, f.Version},
		{dashboard.DimMap, f.Map},
	}
	for _, d := range dims {
		if d.value != "" {
			events = append(events, dashboard.ToggleDimension{Dimension: d.dim, Value: d.value})
		}
	}
	if f.Region != "" {
		events = append(events, dashboard.ClickRegion{Name: f.Region})
	}

	key, err := dashboard.ParseField(strings.ToLower(f.Sort))
	if err != nil {
		return nil, err
	}
	dir := dashboard.Descending
	if f.Ascending {
		dir = dashboard.Ascending
	}
	events = append(events,
		dashboard.SetSort{Key: key, Direction: dir},
		dashboard.SetSearch{Query: f.Search},
	)
	if f.Page > 1 {
		events = append(events, dashboard.GoToPage{Page: f.Page})
	}

	return events, nil
}

func serve(ctx context.Context, cfg *config.Config, sess *session.Session, prober *game.Prober) error {
	srvHandler := server.New(sess, prober, cfg)
	defer srvHandler.Close()

	httpServer := &http.Server{
		Addr:         cfg.Output.Listen,
		Handler:      srvHandler.Run(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("address", cfg.Output.Listen).Msg("Dashboard API listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
	return nil
}

func closeWithLog(closer func() error, name string) {
	if err := closer(); err != nil {
		log.Error().Err(err).Msgf("Error closing %s", name)
	}
}
