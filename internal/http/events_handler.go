package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/hlog"

	"github.com/AhmedMaher123384/pet-hub-sub001/internal/events"
)

// Events streams the session's cart updates as Server-Sent Events. Each event
// only says the cart changed; clients re-read GET /cart.
func (s *Server) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming_unsupported", "streaming is not supported")
		return
	}
	session := SessionID(r.Context())

	updates := make(chan events.CartUpdated, 16)
	unsubscribe := s.Bus.Subscribe(session, func(ev events.CartUpdated) {
		select {
		case updates <- ev:
		default:
			// slow reader; it will see a later update
		}
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	heartbeat := time.NewTicker(s.Heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			s.Sessions.Touch(session)
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case ev := <-updates:
			data, err := json.Marshal(ev)
			if err != nil {
				hlog.FromRequest(r).Error().Err(err).Msg("failed to encode cart event")
				continue
			}
			if _, err := fmt.Fprintf(w, "event: cart-updated\ndata: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
