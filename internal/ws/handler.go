package ws

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"callbreak-service/internal/service/game"
	"callbreak-service/internal/service/notify"
	"callbreak-service/internal/service/table"
	pkgAuth "callbreak-service/pkg/auth"
	appErr "callbreak-service/pkg/errors"
	"callbreak-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type Handler struct {
	tableSvc *table.Service
	gameSvc  *game.Service
	events   *notify.Redis
}

func NewHandler(tableSvc *table.Service, gameSvc *game.Service, events *notify.Redis) *Handler {
	return &Handler{tableSvc: tableSvc, gameSvc: gameSvc, events: events}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for dev
	},
}

// OutgoingMessage is every frame the server writes.
type OutgoingMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func (h *Handler) HandleTableWS(c *gin.Context) {
	tableUID := strings.TrimSpace(c.Param("tableUid"))
	if tableUID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid table id"})
		return
	}

	token, err := getTokenFromRequest(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	claims, err := pkgAuth.ParsePlayerToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	playerID := claims.SubjectID

	if _, err := h.tableSvc.CheckMembership(c.Request.Context(), playerID, tableUID); err != nil {
		switch {
		case errors.Is(err, appErr.ErrUnauthorized):
			c.JSON(http.StatusForbidden, gin.H{"error": "table access denied"})
		case errors.Is(err, appErr.ErrTableNotFound), errors.Is(err, appErr.ErrPlayerNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "table not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to validate table access"})
		}
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Log.Error("Failed to upgrade websocket", zap.Error(err))
		return
	}

	logger.Log.Info("New WebSocket connection",
		zap.String("tableUID", tableUID),
		zap.Int64("playerID", playerID),
	)

	ctx, cancel := context.WithCancel(context.Background())
	sub := h.events.Subscribe(ctx, tableUID)
	if _, err := sub.Receive(ctx); err != nil {
		logger.Log.Error("Failed to subscribe to table events", zap.Error(err))
		sub.Close()
		cancel()
		conn.Close()
		return
	}

	client := newClient(conn, playerID, tableUID, h.gameSvc)
	go client.relay(sub.Channel())
	client.run()
	sub.Close()
	cancel()
}

func getTokenFromRequest(c *gin.Context) (string, error) {
	token := strings.TrimSpace(c.Query("token"))
	if token != "" {
		return token, nil
	}
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			token = strings.TrimSpace(parts[1])
			if token != "" {
				return token, nil
			}
		}
	}
	return "", errors.New("missing token")
}
