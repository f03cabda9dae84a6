package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

var eventsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleEvents streams store change events to a websocket client. Auth is via
// ?token= query param because browser websocket clients cannot set headers.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		tokenStr = r.Header.Get("Authorization")
		if strings.HasPrefix(tokenStr, "Bearer ") {
			tokenStr = tokenStr[7:]
		}
	}
	if tokenStr == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	username, err := s.auth.ValidateToken(tokenStr)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := eventsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("events: upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	sub := s.bus.Subscribe()
	defer s.bus.Unsubscribe(sub)

	s.logger.Info("events: client connected", "user", username)
	defer s.logger.Info("events: client disconnected", "user", username)

	// Reader goroutine notices the peer going away. Clients never send
	// payloads on this socket.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	for {
		select {
		case evt, ok := <-sub:
			if !ok {
				return
			}
			if err := conn.WriteJSON(evt); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
