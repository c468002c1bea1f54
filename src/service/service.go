package service

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/corknet/corkboard/src/node"
	"github.com/sirupsen/logrus"
)

// Service is the HTTP API wrapping the node's control surface. It exposes the
// same operations as the interactive console: stats, peers, a message dump,
// and the pause/resume toggle.
type Service struct {
	sync.Mutex

	bindAddress string
	node        *node.Node
	logger      *logrus.Entry
}

// NewService is a factory method for a Service.
func NewService(bindAddress string, n *node.Node, logger *logrus.Entry) *Service {
	service := Service{
		bindAddress: bindAddress,
		node:        n,
		logger:      logger,
	}

	service.registerHandlers()

	return &service
}

// registerHandlers registers the API handlers with the DefaultServerMux of
// the http package. It is possible that another server in the same process is
// simultaneously using the DefaultServerMux. In which case, the handlers will
// be accessible from both servers.
func (s *Service) registerHandlers() {
	s.logger.Debug("Registering corkboard API handlers")
	http.HandleFunc("/stats", s.makeHandler(s.GetStats))
	http.HandleFunc("/peers", s.makeHandler(s.GetPeers))
	http.HandleFunc("/messages", s.makeHandler(s.GetMessages))
	http.HandleFunc("/pause", s.makeHandler(s.Pause))
	http.HandleFunc("/resume", s.makeHandler(s.Resume))
}

func (s *Service) makeHandler(fn func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Lock()
		defer s.Unlock()

		// enable CORS
		w.Header().Set("Access-Control-Allow-Origin", "*")

		fn(w, r)
	}
}

// Serve calls ListenAndServe. This is a blocking call. It is not necessary to
// call Serve when another server has already been started with the
// DefaultServerMux and the same address:port combination.
func (s *Service) Serve() {
	s.logger.WithField("bind_address", s.bindAddress).Debug("Serving corkboard API")

	err := http.ListenAndServe(s.bindAddress, nil)
	if err != nil {
		s.logger.Error(err)
	}
}

// GetStats returns the node's counters.
func (s *Service) GetStats(w http.ResponseWriter, r *http.Request) {
	stats := s.node.GetStats()
	s.writeJSON(w, stats)
}

// GetPeers returns the static peer list.
func (s *Service) GetPeers(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.node.Peers())
}

// GetMessages returns every stored message in canonical order.
func (s *Service) GetMessages(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.node.Dump())
}

// Pause suspends replication.
func (s *Service) Pause(w http.ResponseWriter, r *http.Request) {
	s.node.Pause()
	s.writeJSON(w, s.node.GetStats())
}

// Resume re-activates replication.
func (s *Service) Resume(w http.ResponseWriter, r *http.Request) {
	s.node.Resume()
	s.writeJSON(w, s.node.GetStats())
}

func (s *Service) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithField("error", err).Error("Failed to encode response")
	}
}
