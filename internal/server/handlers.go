package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/zenit-dash/internal/client"
	"github.com/woozymasta/zenit-dash/internal/dashboard"
	"github.com/woozymasta/zenit-dash/internal/report"
	"github.com/woozymasta/zenit-dash/internal/session"
	"github.com/woozymasta/zenit-dash/internal/storage"
	"github.com/woozymasta/zenit-dash/internal/vars"
)

// maxEventsBody bounds the size of an events request.
const maxEventsBody = 64 << 10

// handleView returns the current dashboard snapshot.
// Query params: ?format=yaml for YAML instead of JSON.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	s.respondSnapshot(w, r, s.sess.Snapshot())
}

// handleEvents applies one or more dashboard events and returns the new snapshot.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEventsBody))
	if err != nil {
		http.Error(w, "Request too large", http.StatusRequestEntityTooLarge)
		return
	}

	events, err := decodeEvents(body)
	if err != nil {
		log.Debug().Err(err).Msg("Invalid events")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.respondSnapshot(w, r, s.sess.Dispatch(events...))
}

// handleRefresh reloads the snapshot from the source.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.sess.Refresh(r.Context()); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	s.respondSnapshot(w, r, s.sess.Snapshot())
}

// handleServerQuery performs a live A2S query to a specific game server IP and port.
// Query params: ?ip=1.2.3.4&port=2302
func (s *Server) handleServerQuery(w http.ResponseWriter, r *http.Request) {
	if s.pinger == nil {
		http.Error(w, session.ErrNoProber.Error(), http.StatusNotImplemented)
		return
	}

	ip := r.URL.Query().Get("ip")
	portStr := r.URL.Query().Get("port")

	if ip == "" || portStr == "" {
		http.Error(w, "Missing ip or port", http.StatusBadRequest)
		return
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		http.Error(w, "Invalid port", http.StatusBadRequest)
		return
	}

	info, err := s.pinger.Ping(r.Context(), ip, port)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusGatewayTimeout)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(info)
}

// handlePingPage queries every server on the visible table page.
func (s *Server) handlePingPage(w http.ResponseWriter, r *http.Request) {
	results, err := s.sess.PingPage(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotImplemented)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = report.Pings(w, report.JSON, results)
}

// handleGetNode returns details for a specific node.
// Query params: ?app=MetricZ&ip=1.2.3.4&port=2302
func (s *Server) handleGetNode(w http.ResponseWriter, r *http.Request) {
	key, ok := nodeKey(w, r)
	if !ok {
		return
	}

	node, err := s.sess.Node(r.Context(), key)
	if isNotFound(err) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch node")
		http.Error(w, "Source Error", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(node)
}

// handleDeleteNode removes a specific node at the source and from the dashboard.
// Query params: ?app=MetricZ&ip=1.2.3.4&port=2302
func (s *Server) handleDeleteNode(w http.ResponseWriter, r *http.Request) {
	key, ok := nodeKey(w, r)
	if !ok {
		return
	}

	if err := s.sess.Delete(r.Context(), key); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "message": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "message": "Node deleted"})
}

// handleVersion returns build information.
func handleVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(vars.Info())
}

func (s *Server) respondSnapshot(w http.ResponseWriter, r *http.Request, snap dashboard.Snapshot) {
	format := report.JSON
	contentType := "application/json"
	if r.URL.Query().Get("format") == "yaml" {
		format = report.YAML
		contentType = "application/yaml"
	}

	w.Header().Set("Content-Type", contentType)
	if err := report.Snapshot(w, format, snap); err != nil {
		log.Error().Err(err).Msg("Failed to encode snapshot")
	}
}

func nodeKey(w http.ResponseWriter, r *http.Request) (dashboard.NodeKey, bool) {
	app := r.URL.Query().Get("app")
	ip := r.URL.Query().Get("ip")
	portStr := r.URL.Query().Get("port")

	if app == "" || ip == "" || portStr == "" {
		http.Error(w, "Missing required params (app, ip, port)", http.StatusBadRequest)
		return dashboard.NodeKey{}, false
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		http.Error(w, "Invalid port", http.StatusBadRequest)
		return dashboard.NodeKey{}, false
	}

	return dashboard.NodeKey{Application: app, IP: ip, Port: port}, true
}

func isNotFound(err error) bool {
	return errors.Is(err, client.ErrNotFound) || errors.Is(err, storage.ErrNotFound)
}
