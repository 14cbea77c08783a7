package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"vocab-drill-service/internal/app"
)

// WSHandler runs one game session per websocket connection. The connection
// doubles as the playback sink: synthesized audio is pushed to the client as
// base64 frames.
type WSHandler struct {
	service  *app.GameService
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService, logger *zap.Logger) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Word string `json:"word"`
}

type audioPayload struct {
	Word   string `json:"word"`
	Audio  []byte `json:"audio"` // base64 in JSON
	Format string `json:"format"`
}

type completePayload struct {
	FinalScore int `json:"finalScore"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// connSink pushes audio frames onto the connection's send queue. Play may be
// called from playback goroutines after the handler has returned, so sends
// race against closeSignals instead of a channel close.
type connSink struct {
	send   chan<- outboundMessage[any]
	closed <-chan struct{}
}

func (s *connSink) Play(word string, audio []byte) {
	msg := outboundMessage[any]{Type: "audio", Payload: audioPayload{
		Word:   word,
		Audio:  audio,
		Format: "mp3",
	}}
	select {
	case s.send <- msg:
	case <-s.closed:
	}
}

// ServeGame upgrades the request and drives a full drill session: level
// vocabulary is resolved, the challenge queue is built, and state snapshots,
// answer results, and audio frames stream to the client until the queue is
// exhausted or the learner leaves.
func (h *WSHandler) ServeGame(w http.ResponseWriter, r *http.Request) {
	levelID := r.URL.Query().Get("levelId")
	userID := r.URL.Query().Get("userId")
	if levelID == "" || userID == "" {
		http.Error(w, "missing levelId or userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 32)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	sink := &connSink{send: send, closed: closeSignals}
	hooks := app.Hooks{
		OnComplete: func(finalScore int) {
			msg := outboundMessage[any]{Type: "complete", Payload: completePayload{FinalScore: finalScore}}
			select {
			case send <- msg:
			case <-closeSignals:
			}
		},
	}

	session, err := h.service.StartSession(r.Context(), levelID, sink, hooks)
	if err != nil {
		h.logger.Info("session start rejected", zap.String("levelId", levelID), zap.Error(err))
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer h.service.EndSession(session.ID())

	updates, cancel, err := h.service.Subscribe(session.ID())
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	go func() {
		defer close(writerDone)
		for {
			select {
			case msg := <-send:
				if err := conn.WriteJSON(msg); err != nil {
					h.logger.Debug("ws write error", zap.Error(err))
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	// Arm the first step only after the subscriber loop is live.
	session.Start()

readLoop:
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
				continue
			}
			outcome, ok, err := h.service.SubmitAnswer(session.ID(), payload.Word)
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			if !ok {
				// Double submission or unscored step; guards no-op.
				continue
			}
			send <- outboundMessage[any]{Type: "answerResult", Payload: outcome}
		case "advance":
			if err := h.service.Advance(session.ID()); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
			}
		case "exit":
			break readLoop
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(closeSignals)
	<-updatesDone
	<-writerDone
}
