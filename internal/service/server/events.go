package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"login_gateway/internal/model"
	"login_gateway/internal/utils/log"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	hubSendBuffer = 64
	hubWriteWait  = 5 * time.Second
)

type (
	// Hub streams login events to websocket subscribers. A subscriber that
	// falls behind loses events rather than slowing the gateway.
	Hub struct {
		mu       sync.Mutex
		clients  map[*hubClient]struct{}
		upgrader websocket.Upgrader
	}

	hubClient struct {
		conn *websocket.Conn
		send chan []byte
	}
)

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*hubClient]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (h *Hub) Emit(ev model.LoginEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Error("marshal event failed", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			log.Debug("event dropped for slow subscriber", zap.String("remote", c.conn.RemoteAddr().String()))
		}
	}
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeWS upgrades the request and streams events until the subscriber
// disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &hubClient{conn: conn, send: make(chan []byte, hubSendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go c.writeLoop()

	// subscribers only listen; reading detects the close
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			log.Debug("event subscriber closed", zap.Error(err))
			break
		}
	}

	h.mu.Lock()
	delete(h.clients, c)
	close(c.send)
	h.mu.Unlock()
}

func (c *hubClient) writeLoop() {
	defer c.conn.Close()
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(hubWriteWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Debug("event write failed", zap.Error(err))
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(hubWriteWait))
}

// LogSink writes every event to the process logger.
type LogSink struct{}

func (LogSink) Emit(ev model.LoginEvent) {
	fields := []zap.Field{
		zap.String("kind", string(ev.Kind)),
		zap.String("address", ev.Address),
		zap.Bool("reconnecting", ev.Reconnecting),
	}
	if ev.Username != "" {
		fields = append(fields, zap.String("username", ev.Username))
	}
	if ev.StatusName != "" {
		fields = append(fields, zap.String("status", ev.StatusName))
	}
	if ev.Reason != "" {
		fields = append(fields, zap.String("reason", ev.Reason))
	}

	switch ev.Kind {
	case model.EventRejected, model.EventDenied:
		log.Warn("login "+string(ev.Kind), fields...)
	default:
		log.Info("login "+string(ev.Kind), fields...)
	}
}
