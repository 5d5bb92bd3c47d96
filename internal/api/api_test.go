package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/rpsarena/internal/api"
	"github.com/mcoot/rpsarena/internal/api/apierr"
	"github.com/mcoot/rpsarena/internal/api/response"
	"github.com/mcoot/rpsarena/internal/factory"
	"github.com/mcoot/rpsarena/internal/testutil"
)

const maintenanceToken = "let-me-sweep"

// testServer wraps the router around a test app
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	app := factory.NewTestApp()
	t.Cleanup(func() { _ = app.Close() })

	router := api.NewRouter(api.RouterConfig{
		Logger:           testutil.NopLogger(),
		Players:          app.PlayerService,
		Queue:            app.QueueController,
		Rooms:            app.RoomController,
		Games:            app.GameController,
		Sweeper:          app.Sweeper,
		Health:           app.App,
		MaintenanceToken: maintenanceToken,
	})

	return &testServer{handler: router, app: app}
}

func (ts *testServer) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	reqBody := bytes.NewBuffer(nil)
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func createPlayer(t *testing.T, ts *testServer, name string) response.AuthResponse {
	t.Helper()
	rr := ts.request(http.MethodPost, "/api/v1/players", map[string]string{"display_name": name}, "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[response.AuthResponse](t, rr)
}

func move(t *testing.T, ts *testServer, gameID, token, m string) response.Game {
	t.Helper()
	rr := ts.request(http.MethodPost, "/api/v1/games/"+gameID+"/moves", map[string]string{"move": m}, token)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	return decode[response.Game](t, rr)
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", decode[response.Health](t, rr).Status)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestCreatePlayer(t *testing.T) {
	ts := newTestServer(t)

	resp := createPlayer(t, ts, "Alice")
	assert.Equal(t, "Alice", resp.Player.DisplayName)
	assert.Equal(t, 1000, resp.Player.Rating)
	assert.NotEmpty(t, resp.SessionToken)
}

func TestCreatePlayerRejectsBlankName(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/players", map[string]string{"display_name": "   "}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidDisplayName, decode[apierr.ErrorResponse](t, rr).Error.Code)
}

func TestGetMe(t *testing.T) {
	ts := newTestServer(t)
	auth := createPlayer(t, ts, "Bob")

	rr := ts.request(http.MethodGet, "/api/v1/players/me", nil, auth.SessionToken)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Bob", decode[response.Player](t, rr).DisplayName)

	// The session cookie works in place of a bearer token
	req := httptest.NewRequest(http.MethodGet, "/api/v1/players/me", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: auth.SessionToken})
	cookieRR := httptest.NewRecorder()
	ts.handler.ServeHTTP(cookieRR, req)
	assert.Equal(t, http.StatusOK, cookieRR.Code)
}

func TestUnauthorized(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/players/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/queue/join", nil, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, apierr.CodeUnauthorized, decode[apierr.ErrorResponse](t, rr).Error.Code)
}

func TestQueueMatchAndPlay(t *testing.T) {
	ts := newTestServer(t)
	alice := createPlayer(t, ts, "alice")
	bob := createPlayer(t, ts, "bob")

	rr := ts.request(http.MethodPost, "/api/v1/queue/join", nil, alice.SessionToken)
	require.Equal(t, http.StatusOK, rr.Code)
	status := decode[response.QueueStatus](t, rr)
	assert.True(t, status.InQueue)
	assert.False(t, status.Matched)

	rr = ts.request(http.MethodPost, "/api/v1/queue/join", nil, bob.SessionToken)
	require.Equal(t, http.StatusOK, rr.Code)
	status = decode[response.QueueStatus](t, rr)
	require.True(t, status.Matched)
	require.NotNil(t, status.GameID)
	gameID := *status.GameID

	rr = ts.request(http.MethodGet, "/api/v1/queue/status", nil, alice.SessionToken)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, gameID, *decode[response.QueueStatus](t, rr).GameID)

	// A player in a game cannot queue again
	rr = ts.request(http.MethodPost, "/api/v1/queue/join", nil, alice.SessionToken)
	assert.Equal(t, http.StatusConflict, rr.Code)
	apiErr := decode[apierr.ErrorResponse](t, rr).Error
	assert.Equal(t, apierr.CodeAlreadyInGame, apiErr.Code)
	assert.Equal(t, gameID, apiErr.GameID)

	// Alice's pending move is hidden from bob
	move(t, ts, gameID, alice.SessionToken, "rock")
	rr = ts.request(http.MethodGet, "/api/v1/games/"+gameID, nil, bob.SessionToken)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "rock")
	bobView := decode[response.Game](t, rr)
	assert.True(t, bobView.OpponentHasMoved)
	assert.Nil(t, bobView.YourMove)

	rr = ts.request(http.MethodPost, "/api/v1/games/"+gameID+"/moves", map[string]string{"move": "paper"}, alice.SessionToken)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeMoveAlreadySubmitted, decode[apierr.ErrorResponse](t, rr).Error.Code)

	rr = ts.request(http.MethodPost, "/api/v1/games/"+gameID+"/moves", map[string]string{"move": "lizard"}, bob.SessionToken)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	move(t, ts, gameID, bob.SessionToken, "SCISSORS")
	move(t, ts, gameID, alice.SessionToken, "rock")
	final := move(t, ts, gameID, bob.SessionToken, "scissors")

	assert.Equal(t, "finished", final.Status)
	assert.Equal(t, 2, final.OpponentScore)
	require.NotNil(t, final.WinnerID)
	assert.Equal(t, alice.Player.ID, *final.WinnerID)
	require.NotNil(t, final.RatingChange)
	assert.Equal(t, -16, final.RatingChange.Delta)
	assert.Len(t, final.Rounds, 2)

	// Standings are public
	rr = ts.request(http.MethodGet, "/api/v1/players/"+bob.Player.ID+"/stats", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	stats := decode[response.Stats](t, rr)
	assert.Equal(t, 984, stats.Player.Rating)
	assert.Equal(t, 2, stats.GlobalRank)

	rr = ts.request(http.MethodGet, "/api/v1/players/"+alice.Player.ID+"/matches?limit=5", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	matches := decode[[]response.Match](t, rr)
	require.Len(t, matches, 1)
	assert.Equal(t, "win", matches[0].Result)

	rr = ts.request(http.MethodGet, "/api/v1/leaderboard?sort=rating", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	board := decode[[]response.LeaderboardEntry](t, rr)
	require.Len(t, board, 2)
	assert.Equal(t, "alice", board[0].DisplayName)
	assert.Equal(t, 1, board[0].Position)
}

func TestQueueLeave(t *testing.T) {
	ts := newTestServer(t)
	alice := createPlayer(t, ts, "alice")

	rr := ts.request(http.MethodPost, "/api/v1/queue/join", nil, alice.SessionToken)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/queue/leave", nil, alice.SessionToken)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/queue/status", nil, alice.SessionToken)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, decode[response.QueueStatus](t, rr).InQueue)
}

func TestPrivateRoomFlow(t *testing.T) {
	ts := newTestServer(t)
	host := createPlayer(t, ts, "host")
	guest := createPlayer(t, ts, "guest")
	ts.app.MockRandom.QueueString("XQ7F2K")

	rr := ts.request(http.MethodPost, "/api/v1/rooms", map[string]int{"max_rounds": 5}, host.SessionToken)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode[response.CreatedRoom](t, rr)
	assert.Equal(t, "XQ7F2K", created.Code)
	assert.Equal(t, 5, created.MaxRounds)

	rr = ts.request(http.MethodGet, "/api/v1/rooms/status", nil, host.SessionToken)
	require.Equal(t, http.StatusOK, rr.Code)
	roomStatus := decode[response.RoomStatus](t, rr)
	assert.True(t, roomStatus.HasRoom)
	assert.False(t, roomStatus.Matched)

	rr = ts.request(http.MethodPost, "/api/v1/rooms/join", map[string]string{"code": "ZZZZZZ"}, guest.SessionToken)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeInvalidRoomCode, decode[apierr.ErrorResponse](t, rr).Error.Code)

	rr = ts.request(http.MethodPost, "/api/v1/rooms/join", map[string]string{"code": " xq7f2k "}, guest.SessionToken)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	joined := decode[response.JoinedRoom](t, rr)

	rr = ts.request(http.MethodGet, "/api/v1/rooms/status", nil, host.SessionToken)
	require.Equal(t, http.StatusOK, rr.Code)
	roomStatus = decode[response.RoomStatus](t, rr)
	assert.True(t, roomStatus.Matched)
	require.NotNil(t, roomStatus.GameID)
	assert.Equal(t, joined.GameID, *roomStatus.GameID)
	assert.Equal(t, "guest", roomStatus.OpponentName)

	rr = ts.request(http.MethodGet, "/api/v1/games/"+joined.GameID, nil, host.SessionToken)
	require.Equal(t, http.StatusOK, rr.Code)
	view := decode[response.Game](t, rr)
	assert.True(t, view.Private)
	assert.Equal(t, 5, view.MaxRounds)
	assert.Equal(t, 3, view.WinsNeeded)
}

func TestRoomDefaultsAndCancel(t *testing.T) {
	ts := newTestServer(t)
	host := createPlayer(t, ts, "host")
	ts.app.MockRandom.QueueString("ABCDEF")

	rr := ts.request(http.MethodPost, "/api/v1/rooms", nil, host.SessionToken)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, 3, decode[response.CreatedRoom](t, rr).MaxRounds)

	rr = ts.request(http.MethodPost, "/api/v1/rooms", map[string]int{"max_rounds": 4}, host.SessionToken)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/rooms/cancel", nil, host.SessionToken)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/rooms/status", nil, host.SessionToken)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, decode[response.RoomStatus](t, rr).HasRoom)
}

func TestForfeit(t *testing.T) {
	ts := newTestServer(t)
	alice := createPlayer(t, ts, "alice")
	bob := createPlayer(t, ts, "bob")

	ts.request(http.MethodPost, "/api/v1/queue/join", nil, alice.SessionToken)
	rr := ts.request(http.MethodPost, "/api/v1/queue/join", nil, bob.SessionToken)
	require.Equal(t, http.StatusOK, rr.Code)
	gameID := *decode[response.QueueStatus](t, rr).GameID

	rr = ts.request(http.MethodPost, "/api/v1/games/"+gameID+"/forfeit", nil, bob.SessionToken)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	view := decode[response.Game](t, rr)
	assert.Equal(t, "abandoned", view.Status)
	require.NotNil(t, view.WinnerID)
	assert.Equal(t, alice.Player.ID, *view.WinnerID)

	// Outsiders cannot see the game
	carol := createPlayer(t, ts, "carol")
	rr = ts.request(http.MethodGet, "/api/v1/games/"+gameID, nil, carol.SessionToken)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHeartbeat(t *testing.T) {
	ts := newTestServer(t)
	alice := createPlayer(t, ts, "alice")

	rr := ts.request(http.MethodPost, "/api/v1/players/me/heartbeat", nil, alice.SessionToken)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, decode[response.Heartbeat](t, rr).ActiveGameID)
}

func TestLeaderboardRejectsUnknownSort(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/leaderboard?sort=elo", nil, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidSort, decode[apierr.ErrorResponse](t, rr).Error.Code)

	rr = ts.request(http.MethodGet, "/api/v1/leaderboard?limit=lots", nil, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestOnlinePlayers(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/players/online", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	idle := createPlayer(t, ts, "idle")
	ts.app.MockClock.Advance(10 * time.Minute)
	alice := createPlayer(t, ts, "alice")
	createPlayer(t, ts, "bob")

	rr = ts.request(http.MethodGet, "/api/v1/players/online", nil, alice.SessionToken)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	online := decode[response.OnlinePlayers](t, rr)
	assert.Equal(t, 2, online.Count)
	for _, p := range online.Players {
		assert.NotEqual(t, idle.Player.ID, p.Player.ID)
		assert.False(t, p.InGame)
	}

	rr = ts.request(http.MethodGet, "/api/v1/players/online?limit=1", nil, alice.SessionToken)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, decode[response.OnlinePlayers](t, rr).Count)

	rr = ts.request(http.MethodGet, "/api/v1/players/online?limit=many", nil, alice.SessionToken)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMaintenanceSweep(t *testing.T) {
	ts := newTestServer(t)
	alice := createPlayer(t, ts, "alice")
	ts.request(http.MethodPost, "/api/v1/queue/join", nil, alice.SessionToken)

	rr := ts.request(http.MethodPost, "/api/v1/maintenance/sweep", nil, "")
	assert.Equal(t, http.StatusForbidden, rr.Code)

	ts.app.MockClock.Advance(6 * time.Minute)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/maintenance/sweep", nil)
	req.Header.Set("X-Maintenance-Token", maintenanceToken)
	rr = httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, 1, decode[response.SweepReport](t, rr).QueueEvicted)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/queue/join", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	assert.NotEmpty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}
