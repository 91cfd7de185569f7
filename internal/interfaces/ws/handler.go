package ws

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/brnikita/refine-supabase-apps-builder/internal/application/services"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/constants"
	apperrors "github.com/brnikita/refine-supabase-apps-builder/pkg/errors"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/models"
)

const (
	writeWait         = 10 * time.Second
	outboundQueueSize = 64
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // origin policy is CORS middleware's concern
	},
}

// Handler attaches websockets to runtime sessions. The session service pushes
// session_state and block_refreshed frames through the attached connection;
// inbound frames drive the same dispatch path as the REST surface.
type Handler struct {
	svc *services.ServiceManager
}

func NewHandler(svc *services.ServiceManager) *Handler {
	return &Handler{svc: svc}
}

// wsFrame is one outbound message.
type wsFrame struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// clientMessage is one inbound message: action, navigate or ping.
type clientMessage struct {
	Type    string                 `json:"type"`
	BlockID string                 `json:"blockId,omitempty"`
	Trigger string                 `json:"trigger,omitempty"`
	Action  string                 `json:"action,omitempty"`
	Config  map[string]interface{} `json:"config,omitempty"`
	Context map[string]interface{} `json:"context,omitempty"`
	Route   string                 `json:"route,omitempty"`
	Tab     int                    `json:"tab,omitempty"`
}

// wsConn wraps one socket with a buffered outbound queue so pushes arriving
// from event-bus goroutines never block the session service. A full queue
// drops the frame with a log line; the client resyncs on the next push.
type wsConn struct {
	sessionID string
	sock      *websocket.Conn
	frames    chan wsFrame
	once      sync.Once
	closed    chan struct{}
}

func newWSConn(sessionID string, sock *websocket.Conn) *wsConn {
	return &wsConn{
		sessionID: sessionID,
		sock:      sock,
		frames:    make(chan wsFrame, outboundQueueSize),
		closed:    make(chan struct{}),
	}
}

// enqueue never blocks. It is the push function handed to the session service.
func (w *wsConn) enqueue(messageType string, payload interface{}) {
	select {
	case <-w.closed:
	case w.frames <- wsFrame{Type: messageType, Payload: payload}:
	default:
		log.Printf("⚠️ WS: session %s outbound queue full, dropping %s frame", w.sessionID, messageType)
	}
}

func (w *wsConn) close() {
	w.once.Do(func() { close(w.closed) })
}

// writeLoop is the only goroutine writing to the socket.
func (w *wsConn) writeLoop() {
	for {
		select {
		case <-w.closed:
			return
		case frame := <-w.frames:
			w.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := w.sock.WriteJSON(frame); err != nil {
				w.close()
				return
			}
		}
	}
}

// HandleConnection handles GET /api/runtime/sessions/:sid/ws
func (h *Handler) HandleConnection(c *gin.Context) {
	sessionID := c.Param("sid")

	sock, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("⚠️ WS: upgrade for session %s failed: %v", sessionID, err)
		return
	}
	defer sock.Close()

	wc := newWSConn(sessionID, sock)

	detach, err := h.svc.Sessions.Attach(sessionID, wc.enqueue)
	if err != nil {
		// No writer goroutine yet, writing directly is safe.
		sock.SetWriteDeadline(time.Now().Add(writeWait))
		_ = sock.WriteJSON(wsFrame{Type: constants.WSTypeError, Payload: apperrors.ToResponse(err)})
		return
	}
	defer detach()

	go wc.writeLoop()
	defer wc.close()

	wc.enqueue(constants.WSTypeSystem, gin.H{
		constants.FieldMessage: "connected",
		"sessionId":            sessionID,
	})
	if state, err := h.svc.Sessions.Get(sessionID); err == nil {
		wc.enqueue(constants.WSTypeSessionState, state)
	}

	reqCtx := c.Request.Context()
	for {
		var msg clientMessage
		if err := sock.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case constants.WSTypeAction:
			err = h.handleAction(reqCtx, wc, sessionID, &msg)
		case constants.WSTypeNavigate:
			err = h.handleNavigate(reqCtx, wc, sessionID, &msg)
		case constants.WSTypePing:
			wc.enqueue(constants.WSTypePong, nil)
			continue
		default:
			wc.enqueue(constants.WSTypeError, apperrors.ToResponse(
				apperrors.NewValidationError("type", fmt.Sprintf("unknown message type %q", msg.Type))))
			continue
		}

		// A dead session cannot recover on this socket.
		if apperrors.IsSession(err) {
			return
		}
	}
}

func (h *Handler) handleAction(ctx context.Context, wc *wsConn, sessionID string, msg *clientMessage) error {
	req := &models.ActionRequest{
		BlockID: msg.BlockID,
		Trigger: msg.Trigger,
		Action:  msg.Action,
		Config:  msg.Config,
		Context: msg.Context,
	}
	if _, err := h.svc.Sessions.DispatchAction(ctx, sessionID, req); err != nil {
		wc.enqueue(constants.WSTypeError, apperrors.ToResponse(err))
		return err
	}
	// Dispatch already pushed session_state to every attached socket;
	// follow up with the page this socket should now show.
	return h.pushRenderedPage(ctx, wc, sessionID, msg.Tab)
}

func (h *Handler) handleNavigate(ctx context.Context, wc *wsConn, sessionID string, msg *clientMessage) error {
	if _, err := h.svc.Sessions.Navigate(ctx, sessionID, msg.Route); err != nil {
		wc.enqueue(constants.WSTypeError, apperrors.ToResponse(err))
		return err
	}
	return h.pushRenderedPage(ctx, wc, sessionID, msg.Tab)
}

func (h *Handler) pushRenderedPage(ctx context.Context, wc *wsConn, sessionID string, tab int) error {
	page, err := h.svc.Sessions.RenderPage(ctx, sessionID, tab)
	if err != nil {
		wc.enqueue(constants.WSTypeError, apperrors.ToResponse(err))
		return err
	}
	wc.enqueue(constants.WSTypePageRendered, page)
	return nil
}
