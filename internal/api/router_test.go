package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"callbreak-service/internal/api"
	"callbreak-service/internal/config"
	"callbreak-service/internal/model"
	"callbreak-service/internal/service"
	"callbreak-service/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type envelope struct {
	Code int             `json:"code"`
	Data json.RawMessage `json:"data"`
	Msg  string          `json:"msg"`
	Err  string          `json:"err"`
}

type seat struct {
	TableUID string `json:"tableUid"`
	JoinCode string `json:"joinCode"`
	PlayerID int64  `json:"playerId"`
	Token    string `json:"token"`
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger.Ensure()
	config.GlobalConfig = &config.Config{JWT: config.JWTConfig{Secret: "test", Expire: 1}}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(model.All()...))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	r := gin.New()
	api.RegisterRoutes(r, service.NewContainer(db, rdb, config.GameConfig{Seed: 11, MaxTableCapacity: 6}))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, srv *httptest.Server, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func seatTable(t *testing.T, srv *httptest.Server, players int) []seat {
	t.Helper()
	status, env := call(t, srv, http.MethodPost, "/callbreak/v1/tables", "", gin.H{"capacity": players, "name": "p0"})
	require.Equal(t, http.StatusOK, status, env.Msg)
	var admin seat
	require.NoError(t, json.Unmarshal(env.Data, &admin))

	seats := []seat{admin}
	for i := 1; i < players; i++ {
		status, env := call(t, srv, http.MethodPost, "/callbreak/v1/tables/join", "", gin.H{
			"joinCode": strings.ToLower(admin.JoinCode),
			"name":     fmt.Sprintf("p%d", i),
		})
		require.Equal(t, http.StatusOK, status, env.Msg)
		var s seat
		require.NoError(t, json.Unmarshal(env.Data, &s))
		seats = append(seats, s)
	}
	return seats
}

func TestPing(t *testing.T) {
	srv := newServer(t)
	status, env := call(t, srv, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"message":"pong"}`, string(env.Data))
}

func TestGameRoutesRequireToken(t *testing.T) {
	srv := newServer(t)
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/callbreak/v1/game/hand", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestErrorKindsMapToStatus(t *testing.T) {
	srv := newServer(t)
	seats := seatTable(t, srv, 2)

	status, env := call(t, srv, http.MethodGet, "/callbreak/v1/game/hand", seats[0].Token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "active_game_not_found", env.Err)

	status, env = call(t, srv, http.MethodPost, "/callbreak/v1/game/start", seats[1].Token, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "not_table_admin", env.Err)

	status, _ = call(t, srv, http.MethodPost, "/callbreak/v1/game/start", seats[0].Token, nil)
	require.Equal(t, http.StatusOK, status)

	status, env = call(t, srv, http.MethodPost, "/callbreak/v1/game/start", seats[0].Token, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "game_in_progress", env.Err)

	status, env = call(t, srv, http.MethodPost, "/callbreak/v1/game/declare", seats[0].Token, gin.H{"score": 99})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_declaration", env.Err)

	status, env = call(t, srv, http.MethodPost, "/callbreak/v1/game/play", seats[0].Token, gin.H{"card": "AS"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "score_declaration_incomplete", env.Err)
}

func TestPlayTrickOverHTTP(t *testing.T) {
	srv := newServer(t)
	seats := seatTable(t, srv, 4)
	tokens := make(map[int64]string)
	for _, s := range seats {
		tokens[s.PlayerID] = s.Token
	}

	status, _ := call(t, srv, http.MethodPost, "/callbreak/v1/game/start", seats[0].Token, nil)
	require.Equal(t, http.StatusOK, status)
	for _, s := range seats {
		status, env := call(t, srv, http.MethodPost, "/callbreak/v1/game/declare", s.Token, gin.H{"score": 2})
		require.Equal(t, http.StatusOK, status, env.Msg)
	}

	for turn := 1; turn <= 4; turn++ {
		status, env := call(t, srv, http.MethodGet, "/callbreak/v1/game/turn", seats[0].Token, nil)
		require.Equal(t, http.StatusOK, status)
		var info struct {
			NextPlayerID int64 `json:"nextPlayerId"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &info))

		token := tokens[info.NextPlayerID]
		status, env = call(t, srv, http.MethodGet, "/callbreak/v1/game/hand", token, nil)
		require.Equal(t, http.StatusOK, status)
		var hand struct {
			Hand string `json:"hand"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &hand))
		card := strings.Split(hand.Hand, ",")[0]

		status, env = call(t, srv, http.MethodPost, "/callbreak/v1/game/play", token, gin.H{"card": strings.ToLower(card)})
		require.Equal(t, http.StatusOK, status, env.Msg)
		var summary struct {
			PlayedCard  string `json:"playedCard"`
			RoundIsOver bool   `json:"roundIsOver"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &summary))
		assert.Equal(t, card, summary.PlayedCard)
		assert.Equal(t, turn == 4, summary.RoundIsOver)
	}

	status, env := call(t, srv, http.MethodGet, "/callbreak/v1/game/played-cards", seats[0].Token, nil)
	require.Equal(t, http.StatusOK, status)
	var played struct {
		Items []struct {
			PlayerID int64  `json:"playerId"`
			Card     string `json:"card"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &played))
	assert.Len(t, played.Items, 4)

	status, env = call(t, srv, http.MethodGet, "/callbreak/v1/game/scores", seats[0].Token, nil)
	require.Equal(t, http.StatusOK, status)
	var scores struct {
		Items []struct {
			Declared int `json:"declared"`
			Actual   int `json:"actual"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &scores))
	require.Len(t, scores.Items, 4)
	total := 0
	for _, s := range scores.Items {
		total += s.Actual
	}
	assert.Equal(t, 1, total)

	status, env = call(t, srv, http.MethodGet, "/callbreak/v1/game/hand-counts", seats[0].Token, nil)
	require.Equal(t, http.StatusOK, status)
	var counts struct {
		Items []struct {
			Cards int `json:"cards"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &counts))
	require.Len(t, counts.Items, 4)
	for _, c := range counts.Items {
		assert.Equal(t, 12, c.Cards)
	}
}

func TestWebSocketRelaysTableEvents(t *testing.T) {
	srv := newServer(t)
	seats := seatTable(t, srv, 2)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/table/" + seats[1].TableUID + "?token=" + seats[1].Token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(gin.H{"type": "ping"}))
	var pong struct {
		Type string `json:"type"`
	}
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	require.NoError(t, conn.ReadJSON(&pong))
	assert.Equal(t, "pong", pong.Type)

	status, _ := call(t, srv, http.MethodPost, "/callbreak/v1/game/start", seats[0].Token, nil)
	require.Equal(t, http.StatusOK, status)

	var msg struct {
		Type string `json:"type"`
		Data struct {
			Type     string `json:"type"`
			TableUID string `json:"tableUid"`
		} `json:"data"`
	}
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "event", msg.Type)
	assert.Equal(t, "cards_dealt", msg.Data.Type)
	assert.Equal(t, seats[1].TableUID, msg.Data.TableUID)
}

func TestWebSocketRejectsOtherTables(t *testing.T) {
	srv := newServer(t)
	mine := seatTable(t, srv, 2)
	other := seatTable(t, srv, 2)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/table/" + other[0].TableUID + "?token=" + mine[0].Token
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
