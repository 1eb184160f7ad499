package ws

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/vncsmyrnk/livetally/internal/core/domain"
	"github.com/vncsmyrnk/livetally/internal/core/ports"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// LiveHandler upgrades /ws/polls/{id} requests and streams tally
// updates for that poll. The channel is one-way: inbound frames are
// read and discarded so transport keep-alives are tolerated.
type LiveHandler struct {
	pollRepo    ports.PollRepository
	broadcaster ports.Broadcaster
	upgrader    websocket.Upgrader
	logger      zerolog.Logger
}

func NewLiveHandler(pollRepo ports.PollRepository, broadcaster ports.Broadcaster, logger zerolog.Logger) *LiveHandler {
	return &LiveHandler{
		pollRepo:    pollRepo,
		broadcaster: broadcaster,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Handshake-level origin policy belongs to the transport
			// collaborator in front of this service.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger.With().Str("handler", "live").Logger(),
	}
}

type liveFrame struct {
	Type   string          `json:"type"`
	PollID uuid.UUID       `json:"poll_id"`
	Votes  domain.Snapshot `json:"votes"`
}

func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	pollID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid poll id", http.StatusBadRequest)
		return
	}

	poll, err := h.pollRepo.GetByPublicID(r.Context(), pollID)
	if err != nil {
		if errors.Is(err, domain.ErrPollNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		h.logger.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	sub := h.broadcaster.Subscribe(poll.PublicID)

	go h.readLoop(conn, sub)
	h.writeLoop(conn, sub, poll.PublicID)
}

// readLoop drains inbound frames until the peer goes away, then tears
// the subscription down. Client payloads carry no meaning here.
func (h *LiveHandler) readLoop(conn *websocket.Conn, sub ports.Subscription) {
	defer sub.Close()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *LiveHandler) writeLoop(conn *websocket.Conn, sub ports.Subscription, pollID uuid.UUID) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case update, ok := <-sub.Updates():
			if !ok {
				conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			frame := liveFrame{Type: "vote_update", PollID: update.PollID, Votes: update.Votes}
			if err := conn.WriteJSON(frame); err != nil {
				h.logger.Debug().Err(err).Stringer("poll_id", pollID).Msg("dropping live subscriber")
				sub.Close()
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				sub.Close()
				return
			}
		}
	}
}
