package api

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"callbreak-service/internal/middleware"
	"callbreak-service/internal/service"
	"callbreak-service/internal/ws"
	appErr "callbreak-service/pkg/errors"
	"callbreak-service/pkg/logger"
	"callbreak-service/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	services *service.Container
}

func RegisterRoutes(r *gin.Engine, services *service.Container) {
	handler := &Handler{services: services}
	wsHandler := ws.NewHandler(services.Table, services.Game, services.Events)

	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{"message": "pong"})
	})

	v1 := r.Group("/callbreak/v1")
	{
		v1.POST("/tables", handler.CreateTable)
		v1.POST("/tables/join", handler.JoinTable)

		tableGroup := v1.Group("/table")
		tableGroup.Use(middleware.PlayerAuthRequired())
		{
			tableGroup.GET("/players", handler.ListPlayers)
			tableGroup.GET("/scores", handler.TableScores)
			tableGroup.POST("/close", handler.CloseTable)
		}

		gameGroup := v1.Group("/game")
		gameGroup.Use(middleware.PlayerAuthRequired())
		{
			gameGroup.POST("/start", handler.StartGame)
			gameGroup.GET("/active", handler.HasActiveGame)
			gameGroup.GET("/hand", handler.GetHand)
			gameGroup.POST("/declare", handler.DeclareScore)
			gameGroup.POST("/play", handler.PlayCard)
			gameGroup.GET("/turn", handler.LatestTurn)
			gameGroup.GET("/hand-counts", handler.HandCounts)
			gameGroup.GET("/played-cards", handler.PlayedCards)
			gameGroup.GET("/scores", handler.Scores)
		}
	}

	r.GET("/ws/table/:tableUid", wsHandler.HandleTableWS)
}

type createTableBody struct {
	Capacity int    `json:"capacity" binding:"required,min=2,max=6"`
	Name     string `json:"name" binding:"required,max=50"`
}

type joinTableBody struct {
	JoinCode string `json:"joinCode" binding:"required"`
	Name     string `json:"name" binding:"required,max=50"`
}

type declareBody struct {
	Score int `json:"score"`
}

type playBody struct {
	Card string `json:"card" binding:"required"`
}

type seatResponse struct {
	TableID  int64  `json:"tableId"`
	TableUID string `json:"tableUid"`
	JoinCode string `json:"joinCode"`
	Capacity int    `json:"capacity"`
	PlayerID int64  `json:"playerId"`
	Token    string `json:"token"`
}

func (h *Handler) CreateTable(c *gin.Context) {
	var body createTableBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	seat, err := h.services.Table.CreateTable(c.Request.Context(), body.Capacity, strings.TrimSpace(body.Name))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, seatResponse{
		TableID:  seat.Table.ID,
		TableUID: seat.Table.UID,
		JoinCode: seat.Table.JoinCode,
		Capacity: seat.Table.Capacity,
		PlayerID: seat.Player.ID,
		Token:    seat.Token,
	})
}

func (h *Handler) JoinTable(c *gin.Context) {
	var body joinTableBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	code := strings.ToUpper(strings.TrimSpace(body.JoinCode))
	seat, err := h.services.Table.JoinTable(c.Request.Context(), code, strings.TrimSpace(body.Name))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, seatResponse{
		TableID:  seat.Table.ID,
		TableUID: seat.Table.UID,
		JoinCode: seat.Table.JoinCode,
		Capacity: seat.Table.Capacity,
		PlayerID: seat.Player.ID,
		Token:    seat.Token,
	})
}

func (h *Handler) ListPlayers(c *gin.Context) {
	tableID, ok := getTableID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	players, err := h.services.Table.Players(c.Request.Context(), tableID)
	if err != nil {
		h.fail(c, err)
		return
	}
	items := make([]gin.H, 0, len(players))
	for _, p := range players {
		items = append(items, gin.H{"playerId": p.ID, "name": p.Name})
	}
	response.Success(c, gin.H{"items": items})
}

func (h *Handler) CloseTable(c *gin.Context) {
	playerID, ok := getPlayerID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.services.Table.Close(c.Request.Context(), playerID); err != nil {
		h.fail(c, err)
		return
	}
	response.SuccessWithMsg(c, gin.H{}, "table closed")
}

func (h *Handler) TableScores(c *gin.Context) {
	playerID, ok := getPlayerID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	games, err := h.services.Game.TableScores(c.Request.Context(), playerID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"games": games})
}

func (h *Handler) StartGame(c *gin.Context) {
	playerID, ok := getPlayerID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	game, err := h.services.Game.StartGame(c.Request.Context(), playerID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"gameId": game.ID, "dealerId": game.DealerPlayerID})
}

func (h *Handler) HasActiveGame(c *gin.Context) {
	playerID, ok := getPlayerID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	active, err := h.services.Game.HasActiveGame(c.Request.Context(), playerID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"active": active})
}

func (h *Handler) GetHand(c *gin.Context) {
	playerID, ok := getPlayerID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	hand, err := h.services.Game.GetHand(c.Request.Context(), playerID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"hand": hand})
}

func (h *Handler) DeclareScore(c *gin.Context) {
	playerID, ok := getPlayerID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	var body declareBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	score, err := h.services.Game.DeclareScore(c.Request.Context(), playerID, body.Score)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"gameId": score.GameID, "declared": score.DeclaredScore})
}

func (h *Handler) PlayCard(c *gin.Context) {
	playerID, ok := getPlayerID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	var body playBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	summary, err := h.services.Game.PlayCard(c.Request.Context(), playerID, strings.TrimSpace(body.Card))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, summary)
}

func (h *Handler) LatestTurn(c *gin.Context) {
	playerID, ok := getPlayerID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	summary, err := h.services.Game.GetLatestTurnInfo(c.Request.Context(), playerID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, summary)
}

func (h *Handler) HandCounts(c *gin.Context) {
	playerID, ok := getPlayerID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	counts, err := h.services.Game.HandCounts(c.Request.Context(), playerID)
	if err != nil {
		h.fail(c, err)
		return
	}
	ids := make([]int64, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	items := make([]gin.H, 0, len(ids))
	for _, id := range ids {
		items = append(items, gin.H{"playerId": id, "cards": counts[id]})
	}
	response.Success(c, gin.H{"items": items})
}

func (h *Handler) PlayedCards(c *gin.Context) {
	playerID, ok := getPlayerID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	played, err := h.services.Game.PlayedCards(c.Request.Context(), playerID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"items": played})
}

// Scores serves ?gameId=N, or the active game when gameId is absent.
func (h *Handler) Scores(c *gin.Context) {
	playerID, ok := getPlayerID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	var gameID int64
	if raw := c.Query("gameId"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			response.Error(c, http.StatusBadRequest, "invalid game id")
			return
		}
		gameID = parsed
	}
	scores, err := h.services.Game.ScoresFor(c.Request.Context(), playerID, gameID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"items": scores})
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch appErr.KindOf(err) {
	case appErr.KindIntegrity:
		logger.Log.Error("ledger integrity fault", zap.String("path", c.FullPath()), zap.Error(err))
	case appErr.KindInternal:
		logger.Log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	default:
		logger.Log.Debug("request rejected", zap.String("path", c.FullPath()), zap.Error(err))
	}
	response.FromError(c, err)
}

func getPlayerID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(middleware.ContextPlayerIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

func getTableID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(middleware.ContextTableIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
