package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Prabhath77/soduku-containereized-np-solver/internal/registry"
)

const gridPushInterval = 500 * time.Millisecond

// handleGridWebSocket implements GET /ws/grid/:jobId, a supplemented
// live-push alternative to polling /grid/:jobId. Grounded on
// concurrentanalyticsadashboard.go's handleWebSocket/
// handleWebSocketConnection/websocketSender: upgrade, register the
// connection, run a dedicated sender goroutine driven by a ticker, and
// a blocking read loop whose only job is to notice the client going away.
func (s *Server) handleGridWebSocket(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("jobId")
	job := s.reg.Get(jobID)
	if job == nil {
		writeError(w, http.StatusNotFound, "unknown job")
		return
	}

	conn, err := s.wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	s.registerConn(jobID, conn)
	defer s.unregisterConn(jobID, conn)

	go s.gridSender(jobID, job, conn)

	// Drain and discard inbound frames; their only purpose here is
	// letting ReadMessage's error return signal the client disconnected.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) registerConn(jobID string, conn *websocket.Conn) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.connections[jobID] == nil {
		s.connections[jobID] = make(map[*websocket.Conn]bool)
	}
	s.connections[jobID][conn] = true
}

func (s *Server) unregisterConn(jobID string, conn *websocket.Conn) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	delete(s.connections[jobID], conn)
	conn.Close()
}

func (s *Server) gridSender(jobID string, job *registry.Job, conn *websocket.Conn) {
	ticker := time.NewTicker(gridPushInterval)
	defer ticker.Stop()

	for range ticker.C {
		s.connMu.Lock()
		_, open := s.connections[jobID][conn]
		s.connMu.Unlock()
		if !open {
			return
		}

		job.Lock()
		resp := gridResponse{JobID: job.ID, PartialBoard: job.CurrentBlueprint.ToRows()}
		terminal := job.State != registry.StateActive
		job.Unlock()

		if err := conn.WriteJSON(resp); err != nil {
			return
		}
		if terminal {
			return
		}
	}
}
