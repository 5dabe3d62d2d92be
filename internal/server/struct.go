package server

import (
	"time"

	"github.com/woozymasta/zenit-dash/internal/probe"
	"github.com/woozymasta/zenit-dash/internal/session"
)

// Server holds the dependencies and configuration required to serve the
// dashboard API.
type Server struct {
	// sess is the dashboard every request reads and drives.
	sess *session.Session

	// pinger answers live A2S queries for single servers. It can be nil.
	pinger probe.Pinger

	// shutdown stops background routines started by middleware.
	shutdown chan struct{}

	// authToken, when set, is required as a Bearer token or as the
	// password of the "admin" user on every API endpoint.
	authToken string

	// hardLimitCount is the maximum number of requests allowed per IP address
	// within the hardLimitWin duration.
	hardLimitCount int

	// hardLimitWin is the time window duration for the hard rate limiter.
	hardLimitWin time.Duration

	// trustProxy indicates whether the server should trust headers like X-Forwarded-For
	// or CF-Connecting-IP when determining the client's real IP address.
	trustProxy bool
}
