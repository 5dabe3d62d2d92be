// Package fake provides utilities for generating random server snapshots for testing and development purposes.
package fake

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/zenit-dash/internal/dashboard"
)

// Inserter stores generated records.
type Inserter interface {
	InsertRecords(ctx context.Context, records []dashboard.Record) error
}

// GenerateData populates the storage with a specified number of randomized node records.
func GenerateData(ctx context.Context, store Inserter, count int) error {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	records := Records(rng, count, time.Now())

	if err := store.InsertRecords(ctx, records); err != nil {
		return fmt.Errorf("insert fake nodes: %w", err)
	}

	log.Info().Int("count", len(records)).Msg("Fake nodes generated")
	return nil
}

// Records builds count randomized records seen within 30 days before now.
// It simulates various game maps, versions, countries, and player counts,
// with some offline servers and some servers the collector could not locate.
func Records(rng *rand.Rand, count int, now time.Time) []dashboard.Record {
	apps := []string{"MetricZ", "DayZMod", "AdminTool"}
	maps := []string{"chernarusplus", "livonia", "namalsk", "takistan", "enoch", "sakhal", "deerisle"}
	osTypes := []string{"Windows", "Linux"}
	versions := []string{"1.0.0", "1.0.1", "1.1.0", "1.2.0-beta"}
	gameVers := []string{"1.23.150000", "1.24.160000", "1.25.170000"}

	// Countries list
	countriesHigh := []string{"US", "DE", "RU", "CN", "BR", "FR", "GB", "PL", "CZ", "KZ", "UA"}
	countriesMid := []string{"CA", "AU", "IT", "ES", "NL", "SE", "JP", "KR", "TR", "BE", "RO"}
	countriesLow := []string{"ZA", "AR", "MX", "IN", "ID", "VN", "CH", "NO", "FI", "DK", "PT"}

	// Cache for ip reuse
	type cachedIP struct {
		Address string
		Country string
	}
	var ipHistory []cachedIP

	seen := make(map[dashboard.NodeKey]struct{}, count)
	records := make([]dashboard.Record, 0, count)

	for len(records) < count {
		// Random date-time in 30 days range
		daysAgo := rng.Intn(30)
		seenTime := now.Add(-time.Duration(daysAgo) * 24 * time.Hour).
			Add(-time.Duration(rng.Intn(1440)) * time.Minute)

		var ip, country string

		// 20% chance for reuse IP address
		if len(ipHistory) > 0 && rng.Float32() < 0.2 {
			cached := ipHistory[rng.Intn(len(ipHistory))]
			ip = cached.Address
			country = cached.Country
		} else {
			ip = fmt.Sprintf("%d.%d.%d.%d", rng.Intn(220)+1, rng.Intn(255), rng.Intn(255), rng.Intn(255))

			roll := rng.Float32()
			switch {
			case roll < 0.65:
				country = countriesHigh[rng.Intn(len(countriesHigh))]
			case roll < 0.85:
				country = countriesMid[rng.Intn(len(countriesMid))]
			case roll < 0.95:
				country = countriesLow[rng.Intn(len(countriesLow))]
			default:
				// unlocated
			}

			ipHistory = append(ipHistory, cachedIP{Address: ip, Country: country})
		}

		rec := dashboard.Record{
			Application: apps[rng.Intn(len(apps))],
			Type:        "steam",
			IP:          ip,
			Port:        dashboard.Number(2302 + rng.Intn(100)),
			Version:     versions[rng.Intn(len(versions))],
			CountryCode: country,
			Count:       dashboard.Number(1 + rng.Intn(500)),
			FirstSeen:   dashboard.NewTimestamp(seenTime.Add(-time.Hour * 24 * 7)),
			LastSeen:    dashboard.NewTimestamp(seenTime),
		}
		if _, dup := seen[rec.Key()]; dup {
			continue
		}
		seen[rec.Key()] = struct{}{}

		// 80% answered A2S
		if rng.Float32() < 0.8 {
			rec.ServerName = fmt.Sprintf("DayZ Server #%d [PvP]", rng.Intn(1000))
			rec.MapName = maps[rng.Intn(len(maps))]
			rec.Players = dashboard.Number(rng.Intn(60))
			rec.MaxPlayers = 60
			rec.GameVersion = gameVers[rng.Intn(len(gameVers))]
			rec.GameName = "dayz"
			rec.ServerOS = osTypes[rng.Intn(len(osTypes))]
		}

		records = append(records, rec)
	}

	return records
}
