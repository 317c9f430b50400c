package ws

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"growthai-backend/internal/status"
)

const writeTimeout = 10 * time.Second

// relayTypes are device-originated events that are immediately re-broadcast
// to every connection, tagged with the originating device id.
var relayTypes = map[string]struct{}{
	"alert":         {},
	"agent_decision": {},
	"system_update": {},
	"event":         {},
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The realtime feed is consumed by mobile and web clients on arbitrary
	// origins; auth happens at the edge.
	CheckOrigin: func(*http.Request) bool { return true },
}

// socket wraps a gorilla connection with a write mutex and per-write
// deadline, so a hung peer is bounded by the transport timeout rather than
// blocking the hub.
type socket struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *socket) WriteJSON(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteJSON(v)
}

func (s *socket) Close() error {
	return s.conn.Close()
}

// Timestamp renders the server timestamp attached to every outbound message.
func Timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// Serve returns the gin handler for GET /ws/:device_id. The connection's
// device identity is fixed at handshake time by the path parameter.
func Serve(hub *Hub, statusSvc *status.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		deviceID := c.Param("device_id")

		raw, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("ws: upgrade failed for device %s: %v", deviceID, err)
			return
		}

		conn := &socket{conn: raw}
		hub.Connect(conn, deviceID)
		defer func() {
			hub.Disconnect(conn)
			_ = conn.Close()
		}()

		hub.SendPersonal(gin.H{
			"type":      "connection",
			"message":   "Connected to GrowthAI garden monitoring",
			"device_id": deviceID,
			"timestamp": Timestamp(),
		}, conn)

		for {
			var msg map[string]any
			if err := raw.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("ws: read error for device %s: %v", deviceID, err)
				}
				return
			}

			msgType, _ := msg["type"].(string)
			handleInbound(c, hub, statusSvc, conn, deviceID, msgType, msg)
		}
	}
}

func handleInbound(c *gin.Context, hub *Hub, statusSvc *status.Service, conn Conn, deviceID, msgType string, msg map[string]any) {
	if _, ok := relayTypes[msgType]; ok {
		payload, hasPayload := msg["data"]
		if !hasPayload {
			payload = msg
		}
		hub.Broadcast(gin.H{
			"type":      msgType,
			"device_id": deviceID,
			"garden_id": msg["garden_id"],
			"data":      payload,
			"timestamp": Timestamp(),
		})
		return
	}

	switch msgType {
	case "ping":
		hub.SendPersonal(gin.H{
			"type":      "pong",
			"device_id": deviceID,
			"timestamp": Timestamp(),
		}, conn)

	case "request_status":
		sys, err := statusSvc.SystemStatus(c.Request.Context())
		if err != nil {
			hub.SendPersonal(gin.H{
				"type":      "error",
				"message":   err.Error(),
				"timestamp": Timestamp(),
			}, conn)
			return
		}
		hub.SendPersonal(gin.H{
			"type":      "system_status",
			"data":      sys,
			"timestamp": Timestamp(),
		}, conn)

	case "chat":
		// The generative chat surface lives outside this service.
		hub.SendPersonal(gin.H{
			"type":      "chat_response",
			"message":   "The garden assistant is not available on this channel.",
			"timestamp": Timestamp(),
		}, conn)
	}
}
