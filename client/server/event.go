package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/gitify-app/updater/client/internal/updatemanager/event"
	"github.com/gitify-app/updater/client/server/util"
)

const keepAliveInterval = 15 * time.Second

// subscribeEvents streams bus events as Server-Sent Events. With history=true the retained
// events are replayed first.
func (s *Server) subscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		util.WriteErrorResponse("streaming unsupported", http.StatusInternalServerError, w)
		return
	}

	subscription := s.bus.Subscribe()
	defer func() {
		s.bus.Unsubscribe(subscription)
		log.Debug("client unsubscribed from events")
	}()

	log.Debug("client subscribed to events")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// events published between Subscribe and History arrive on both
	replayed := make(map[string]struct{})
	if r.URL.Query().Get("history") == "true" {
		for _, e := range s.bus.History() {
			if err := writeEvent(w, e); err != nil {
				log.Warnf("error sending event history: %v", err)
				return
			}
			replayed[e.ID] = struct{}{}
		}
	}
	flusher.Flush()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case e, ok := <-subscription.Events():
			if !ok {
				return
			}
			if _, seen := replayed[e.ID]; seen {
				continue
			}
			if err := writeEvent(w, e); err != nil {
				log.Warnf("error sending event %s: %v", e.Name, err)
				return
			}
			flusher.Flush()
		case <-keepAlive.C:
			if _, err := io.WriteString(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func writeEvent(w io.Writer, e *event.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	_, err = fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", e.ID, e.Name, data)
	return err
}
