package http

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"solfege-learning-service/internal/app"
)

// WSHandler streams a learner's own progress events (points, level changes,
// achievement unlocks) over a websocket, so a client can react live to a
// submission made from any of the learner's devices.
type WSHandler struct {
	service  *app.LearningService
	log      *logrus.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.LearningService, log *logrus.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage struct {
	Type    string            `json:"type"`
	Payload app.ProgressEvent `json:"payload"`
}

// ServeWS upgrades the request and forwards progress events until the client
// disconnects.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	learnerID := r.URL.Query().Get("learnerId")
	if learnerID == "" {
		http.Error(w, "missing learnerId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()

	events, cancel := h.service.SubscribeProgress(learnerID)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Drain inbound frames to notice the close handshake.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(outboundMessage{Type: "progress", Payload: event}); err != nil {
				h.log.WithError(err).Debug("ws write error")
				return
			}
		case <-done:
			return
		}
	}
}
