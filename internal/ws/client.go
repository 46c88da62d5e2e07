package ws

import (
	"context"
	"encoding/json"
	"time"

	"callbreak-service/internal/service/game"
	appErr "callbreak-service/pkg/errors"
	"callbreak-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	pongWait     = 60 * time.Second
	writeTimeout = 5 * time.Second
	actionWait   = 10 * time.Second
)

// client owns one connection. Only writePump writes to conn.
type client struct {
	conn      *websocket.Conn
	playerID  int64
	tableUID  string
	gameSvc   *game.Service
	outbound  chan OutgoingMessage
	done      chan struct{}
	pingEvery time.Duration
}

func newClient(conn *websocket.Conn, playerID int64, tableUID string, gameSvc *game.Service) *client {
	conn.SetReadLimit(1 << 16)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	return &client{
		conn:      conn,
		playerID:  playerID,
		tableUID:  tableUID,
		gameSvc:   gameSvc,
		outbound:  make(chan OutgoingMessage, 32),
		done:      make(chan struct{}),
		pingEvery: 25 * time.Second,
	}
}

func (c *client) run() {
	go c.writePump()
	c.readPump()
}

// relay forwards table events from Redis until the connection closes.
func (c *client) relay(events <-chan *redis.Message) {
	for {
		select {
		case msg, ok := <-events:
			if !ok {
				return
			}
			var ev json.RawMessage = []byte(msg.Payload)
			c.send(OutgoingMessage{Type: "event", Data: ev})
		case <-c.done:
			return
		}
	}
}

func (c *client) send(msg OutgoingMessage) {
	select {
	case c.outbound <- msg:
	case <-c.done:
	default:
		logger.Log.Warn("WS outbound full, dropping message",
			zap.Int64("playerID", c.playerID),
			zap.String("tableUID", c.tableUID),
		)
	}
}

func (c *client) readPump() {
	defer func() {
		close(c.done)
		c.conn.Close()
	}()

	for {
		mt, message, err := c.conn.ReadMessage()
		if err != nil {
			logger.Log.Info("WS read error", zap.Error(err), zap.Int64("playerID", c.playerID), zap.String("tableUID", c.tableUID))
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		var incoming struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(message, &incoming); err != nil {
			c.send(OutgoingMessage{Type: "error", Data: gin.H{"message": "invalid payload"}})
			continue
		}
		if incoming.Type == "" {
			continue
		}
		c.handleAction(incoming.Type, incoming.Data)
	}
}

func (c *client) handleAction(action string, data json.RawMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), actionWait)
	defer cancel()

	switch action {
	case "ping":
		c.send(OutgoingMessage{Type: "pong", Data: gin.H{"message": "pong"}})
	case "play_card":
		var body struct {
			Card string `json:"card"`
		}
		if err := json.Unmarshal(data, &body); err != nil || body.Card == "" {
			c.send(OutgoingMessage{Type: "error", Data: gin.H{"message": "card is required"}})
			return
		}
		summary, err := c.gameSvc.PlayCard(ctx, c.playerID, body.Card)
		if err != nil {
			c.sendError(action, err)
			return
		}
		c.send(OutgoingMessage{Type: "played", Data: summary})
	case "declare_score":
		var body struct {
			Score int `json:"score"`
		}
		if err := json.Unmarshal(data, &body); err != nil {
			c.send(OutgoingMessage{Type: "error", Data: gin.H{"message": "score is required"}})
			return
		}
		score, err := c.gameSvc.DeclareScore(ctx, c.playerID, body.Score)
		if err != nil {
			c.sendError(action, err)
			return
		}
		c.send(OutgoingMessage{Type: "declared", Data: gin.H{"declared": score.DeclaredScore}})
	case "hand":
		hand, err := c.gameSvc.GetHand(ctx, c.playerID)
		if err != nil {
			c.sendError(action, err)
			return
		}
		c.send(OutgoingMessage{Type: "hand", Data: gin.H{"hand": hand}})
	default:
		c.send(OutgoingMessage{Type: "error", Data: gin.H{"message": "unknown action"}})
	}
}

func (c *client) sendError(action string, err error) {
	msg := err.Error()
	if k := appErr.KindOf(err); k == appErr.KindInternal || k == appErr.KindIntegrity {
		logger.Log.Error("WS action failed", zap.String("action", action), zap.Int64("playerID", c.playerID), zap.Error(err))
		msg = "internal error"
	}
	c.send(OutgoingMessage{Type: "error", Data: gin.H{
		"action":  action,
		"code":    appErr.CodeOf(err),
		"message": msg,
	}})
}

func (c *client) writePump() {
	ticker := time.NewTicker(c.pingEvery)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.outbound:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteJSON(msg); err != nil {
				logger.Log.Info("WS write error", zap.Error(err), zap.Int64("playerID", c.playerID), zap.String("tableUID", c.tableUID))
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeTimeout)); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
