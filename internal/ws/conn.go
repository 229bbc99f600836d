package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-food-delivery.git/internal/auth"
)

const (
	authWait   = 10 * time.Second
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuf    = 32
)

// Conn is one live websocket after a successful authenticate handshake.
type Conn struct {
	sock *websocket.Conn
	send chan []byte
}

type authenticateMsg struct {
	Type   string `json:"type"`
	UserID string `json:"user_id"`
	Token  string `json:"token"`
}

// Handler upgrades HTTP to websocket and runs the per-connection state
// machine: connected, then authenticated(userID), then disconnected. Until the
// authenticate message checks out, the connection is not addressable.
type Handler struct {
	Hub      *Hub
	Auth     *auth.Verifier
	Log      *zap.Logger
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub, verifier *auth.Verifier, log *zap.Logger) *Handler {
	return &Handler{
		Hub:  hub,
		Auth: verifier,
		Log:  log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sock, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Log.Debug("ws upgrade failed", zap.Error(err))
		return
	}
	go h.serve(sock)
}

func (h *Handler) serve(sock *websocket.Conn) {
	userID, ok := h.handshake(sock)
	if !ok {
		_ = sock.Close()
		return
	}

	c := &Conn{sock: sock, send: make(chan []byte, sendBuf)}
	h.Hub.register(userID, c)
	h.Log.Info("ws bound", zap.String("user_id", userID))

	go c.writePump()
	c.readPump() // blocks until the peer goes away
	h.Hub.unregister(userID, c)
	h.Log.Info("ws unbound", zap.String("user_id", userID))
}

// handshake waits for a single authenticate message and checks that the
// token actually belongs to the claimed user id.
func (h *Handler) handshake(sock *websocket.Conn) (string, bool) {
	_ = sock.SetReadDeadline(time.Now().Add(authWait))
	_, raw, err := sock.ReadMessage()
	if err != nil {
		return "", false
	}
	var msg authenticateMsg
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Type != "authenticate" {
		return "", false
	}
	id, err := h.Auth.Verify(msg.Token)
	if err != nil || id.UserID != msg.UserID {
		h.Log.Debug("ws authenticate rejected", zap.String("claimed", msg.UserID))
		return "", false
	}

	_ = sock.SetWriteDeadline(time.Now().Add(writeWait))
	if err := sock.WriteJSON(map[string]string{"type": "authenticated"}); err != nil {
		return "", false
	}
	return id.UserID, true
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.sock.Close()
	}()
	for {
		select {
		case payload, ok := <-c.send:
			_ = c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.sock.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.sock.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only services control frames; clients send nothing after the
// handshake.
func (c *Conn) readPump() {
	_ = c.sock.SetReadDeadline(time.Now().Add(pongWait))
	c.sock.SetPongHandler(func(string) error {
		return c.sock.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.sock.ReadMessage(); err != nil {
			return
		}
	}
}
