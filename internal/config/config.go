// Package config handles the parsing and validation of application configuration
// from command-line arguments and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/woozymasta/zenit-dash/internal/logger"
	"github.com/woozymasta/zenit-dash/internal/vars"
)

// Config represents the complete application flags configuration.
type Config struct {
	// betteralign:ignore

	Source    Source        `group:"Source Options" env-namespace:"ZENIT_DASH"`
	Filter    Filter        `group:"Filter Options" env-namespace:"ZENIT_DASH"`
	Output    Output        `group:"Output Options" env-namespace:"ZENIT_DASH"`
	A2S       A2S           `group:"A2S Options" namespace:"a2s" env-namespace:"ZENIT_DASH_A2S"`
	GeoIP     GeoIP         `group:"GeoIP Options" namespace:"geoip" env-namespace:"ZENIT_DASH_GEOIP"`
	RateLimit RateLimit     `group:"Rate Limit Options" namespace:"rate-limit" env-namespace:"ZENIT_DASH_RATE_LIMIT"`
	Logger    logger.Config `group:"Logger Options" namespace:"log" env-namespace:"ZENIT_DASH_LOG"`

	Version bool `short:"v" long:"version" description:"Print version and build info"`
}

// Source selects where the server snapshot is loaded from.
type Source struct {
	// betteralign:ignore

	APIURL        string        `short:"u" long:"api-url" env:"API_URL" description:"Base URL of the Zenit collector API"`
	AuthToken     string        `short:"t" long:"auth-token" env:"AUTH_TOKEN" description:"Zenit admin authentication token"`
	DBPath        string        `short:"d" long:"db" env:"DB" description:"Read a Zenit SQLite database directly instead of the API"`
	Timeout       time.Duration `long:"timeout" env:"TIMEOUT" description:"Timeout for collector requests" default:"10s"`
	GenerateCount int           `long:"gen-fake-data" hidden:"true"`
}

// Filter holds the initial dashboard selections.
type Filter struct {
	// betteralign:ignore

	Application string `short:"a" long:"app" env:"APP" description:"Application to show" default:"all"`
	Window      string `short:"w" long:"window" env:"WINDOW" description:"Time window" choice:"24h" choice:"7d" choice:"30d" choice:"all" default:"all"`
	Country     string `long:"country" description:"Countries chart selection (ISO code)"`
	OS          string `long:"os" description:"OS chart selection"`
	Version     string `long:"version-filter" description:"App version chart selection"`
	Map         string `long:"map" description:"Maps chart selection"`
	Region      string `long:"region" description:"World map selection (country name)"`
	Search      string `short:"s" long:"search" description:"Table search query (server name or IP)"`
	Sort        string `long:"sort" description:"Table sort column" default:"count"`
	Ascending   bool   `long:"asc" description:"Sort the table ascending"`
	Page        int    `short:"p" long:"page" description:"Table page" default:"1"`
}

// Output controls how the dashboard is presented.
type Output struct {
	// betteralign:ignore

	Format      string `short:"f" long:"format" env:"FORMAT" description:"Report format" choice:"text" choice:"json" choice:"yaml" default:"text"`
	Listen      string `short:"l" long:"listen" env:"LISTEN_ADDRESS" description:"Serve the dashboard API on this address instead of printing a report"`
	Token       string `long:"listen-token" env:"LISTEN_TOKEN" description:"Token required by the dashboard API (Bearer or Basic auth as admin)"`
	TrustProxy  bool   `long:"trust-proxy" env:"TRUST_PROXY" description:"Trust CF-Connecting-IP and X-Forwarded-For headers for rate limiting"`
	Interactive bool   `short:"i" long:"interactive" description:"Start an interactive console"`
	PingPage    bool   `long:"ping-page" description:"Ping every server on the visible table page"`
}

// A2S holds Source Query protocol configuration.
type A2S struct {
	// betteralign:ignore

	Timeout    time.Duration `long:"timeout" env:"TIMEOUT" description:"Query timeout" default:"3s"`
	BufferSize uint16        `long:"buffer-size" env:"BUFFER_SIZE" description:"Response body buffer size" default:"1400"`
	Workers    int           `long:"workers" env:"WORKERS" description:"Concurrent queries when pinging a page" default:"10"`
	Rate       float64       `long:"rate" env:"RATE" description:"Maximum queries per second when pinging a page" default:"20"`
}

// GeoIP holds MaxMind GeoIP configuration.
type GeoIP struct {
	// betteralign:ignore

	Path     string        `short:"g" long:"path" env:"PATH" description:"Path to MMDB file used to locate servers without a country"`
	URL      string        `long:"url" env:"URL" description:"URL to download MMDB" default:"https://git.io/GeoLite2-Country.mmdb"`
	Interval time.Duration `long:"interval" env:"INTERVAL" description:"Update interval check" default:"24h"`
}

// RateLimit holds the local dashboard API rate limiting configuration.
type RateLimit struct {
	// betteralign:ignore

	HardLimitCount int           `long:"hard-count" env:"HARD_COUNT" description:"Hard IP limit: requests count" default:"120"`
	HardLimitWin   time.Duration `long:"hard-window" env:"HARD_WINDOW" description:"Hard IP limit: window duration" default:"1m"`
}

// Validate checks option combinations that flags cannot express.
func (c *Config) Validate() error {
	if c.Source.GenerateCount > 0 {
		if c.Source.DBPath == "" {
			return errors.New("`--gen-fake-data' requires `-d, --db'")
		}
		return nil
	}

	switch {
	case c.Source.APIURL == "" && c.Source.DBPath == "":
		return errors.New("one of `-u, --api-url' or `-d, --db' must be specified")
	case c.Source.APIURL != "" && c.Source.DBPath != "":
		return errors.New("`-u, --api-url' and `-d, --db' are mutually exclusive")
	case c.Source.APIURL != "" && c.Source.AuthToken == "":
		return errors.New("`-t, --auth-token' or environment variable `ZENIT_DASH_AUTH_TOKEN' is required with `--api-url'")
	}

	if c.Filter.Page < 1 {
		return fmt.Errorf("invalid page %d", c.Filter.Page)
	}
	if c.Output.Listen != "" && c.Output.Interactive {
		return errors.New("`--listen' and `--interactive' are mutually exclusive")
	}
	if c.A2S.Workers < 1 {
		c.A2S.Workers = 1
	}

	return nil
}

// Parse reads the configuration from flags and environment variables.
// It terminates the application if the configuration is invalid or if the help flag is invoked.
func Parse() *Config {
	var cfg Config
	parser := flags.NewParser(&cfg, flags.Default)
	parser.NamespaceDelimiter = "-"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}

	if cfg.Version {
		vars.Print()
		os.Exit(0)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	return &cfg
}
