// Package game provides functionality to query game servers using the Source Engine Query (A2S) protocol.
package game

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/woozymasta/a2s/pkg/a2s"
	"github.com/woozymasta/zenit-dash/internal/config"
)

// Info is the live state a server reported to an A2S_INFO request.
type Info struct {
	Name       string        `json:"name" yaml:"name"`
	Map        string        `json:"map" yaml:"map"`
	Game       string        `json:"game" yaml:"game"`
	Version    string        `json:"version" yaml:"version"`
	OS         string        `json:"environment" yaml:"environment"`
	Address    string        `json:"address" yaml:"address"`
	Latency    time.Duration `json:"ping" yaml:"ping"`
	Players    int           `json:"players" yaml:"players"`
	MaxPlayers int           `json:"max_players" yaml:"max_players"`
}

// Prober pings game servers with the configured A2S options.
type Prober struct {
	options config.A2S
}

// NewProber creates a Prober.
func NewProber(options config.A2S) *Prober {
	return &Prober{options: options}
}

// Ping queries ip:port unless ctx is already done.
func (p *Prober) Ping(ctx context.Context, ip string, port int) (*Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return QueryServer(ip, port, p.options)
}

// QueryServer connects to a game server via UDP and requests A2S_INFO.
// It returns server details (such as name, map, players) or an error if the server is unreachable.
func QueryServer(ip string, port int, options config.A2S) (*Info, error) {
	client, err := a2s.New(ip, port)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Close() }()

	client.BufferSize = options.BufferSize
	client.Timeout = options.Timeout

	start := time.Now()
	info, err := client.GetInfo()
	if err != nil {
		return nil, err
	}

	return &Info{
		Name:       info.Name,
		Map:        info.Map,
		Game:       info.Game,
		Version:    info.Version,
		OS:         info.Environment.String(),
		Address:    net.JoinHostPort(ip, strconv.Itoa(port)),
		Latency:    time.Since(start),
		Players:    int(info.Players),
		MaxPlayers: int(info.MaxPlayers),
	}, nil
}
