package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/convolens/internal/utils"
)

// WSHandler relays analysis events from the Redis channel to websocket
// clients. Clients may narrow the feed with ?conversation_id=.
type WSHandler struct {
	redis    *redis.Client
	channel  string
	log      *logrus.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(rdb *redis.Client, channel string, allowOrigin func(*http.Request) bool, log *logrus.Logger) *WSHandler {
	if allowOrigin == nil {
		allowOrigin = func(*http.Request) bool { return true }
	}
	return &WSHandler{
		redis:   rdb,
		channel: channel,
		log:     log,
		upgrader: websocket.Upgrader{
			CheckOrigin: allowOrigin,
		},
	}
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) write(typ int, b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteMessage(typ, b)
}

func (h *WSHandler) AnalysisFeed(c *gin.Context) {
	if h.redis == nil {
		writeError(c, utils.E(utils.CodeUnavailable, "WSHandler.AnalysisFeed", "event feed is not configured", nil))
		return
	}
	filter := c.Query("conversation_id")

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	pubsub := h.redis.Subscribe(ctx, h.channel)
	defer pubsub.Close()

	// reader: only drains control frames and detects close
	go func() {
		defer cancel()
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	msgs := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			if err := wc.write(websocket.PingMessage, nil); err != nil {
				return
			}
		case m, ok := <-msgs:
			if !ok {
				return
			}
			if filter != "" && !matchesConversation(m.Payload, filter) {
				continue
			}
			if err := wc.write(websocket.TextMessage, []byte(m.Payload)); err != nil {
				h.log.WithError(err).Debug("ws write failed")
				return
			}
		}
	}
}

func matchesConversation(payload, id string) bool {
	var head struct {
		ConversationID string `json:"conversation_id"`
	}
	if err := json.Unmarshal([]byte(payload), &head); err != nil {
		return false
	}
	return head.ConversationID == id
}
