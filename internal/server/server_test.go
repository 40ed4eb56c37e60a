package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brinkhaven/brinksmanship-server/internal/config"
	"github.com/brinkhaven/brinksmanship-server/internal/game"
	"github.com/brinkhaven/brinksmanship-server/internal/scenario"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{}
	cfg.Server.Address = ":0"
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.TokenTTL = time.Hour
	return New(Options{
		Config:   cfg,
		Scenario: scenario.Default(),
		Registry: prometheus.NewRegistry(),
	})
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createTestGame(t *testing.T, router http.Handler) createGameResponse {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/v1/games", "", createGameRequest{Seed: 42})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp createGameResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.GameID)
	require.NotEmpty(t, resp.TokenA)
	require.NotEmpty(t, resp.TokenB)
	return resp
}

func TestCreateGame_ReturnsSeatTokens(t *testing.T) {
	s := testServer(t)
	router := s.Routes()
	resp := createTestGame(t, router)
	assert.NotEqual(t, resp.TokenA, resp.TokenB)
	assert.NotEmpty(t, resp.Briefing)
}

func TestStateEndpoint_RequiresToken(t *testing.T) {
	s := testServer(t)
	router := s.Routes()
	resp := createTestGame(t, router)

	w := doJSON(t, router, http.MethodGet, "/api/v1/games/"+resp.GameID+"/state", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/games/"+resp.GameID+"/state", resp.TokenA, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSeatToken_BoundToGame(t *testing.T) {
	s := testServer(t)
	router := s.Routes()
	first := createTestGame(t, router)
	second := createTestGame(t, router)

	w := doJSON(t, router, http.MethodGet, "/api/v1/games/"+second.GameID+"/state", first.TokenA, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPostAction_ResolvesWhenBothSeatsStaged(t *testing.T) {
	s := testServer(t)
	router := s.Routes()
	resp := createTestGame(t, router)

	body := postActionRequest{Action: game.Action{ID: "accommodate"}}
	path := fmt.Sprintf("/api/v1/games/%s/action", resp.GameID)

	w := doJSON(t, router, http.MethodPost, path, resp.TokenA, body)
	require.Equal(t, http.StatusAccepted, w.Code, "first seat should be pending")

	w = doJSON(t, router, http.MethodPost, path, resp.TokenB, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result game.TurnResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Success)
	require.NotNil(t, result.Result)
	assert.Equal(t, "CC", result.Result.OutcomeCode)

	// The resolved turn is visible through the state endpoint.
	w = doJSON(t, router, http.MethodGet, "/api/v1/games/"+resp.GameID+"/state", resp.TokenA, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stateResp struct {
		State game.GameState `json:"state"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stateResp))
	assert.Equal(t, 2, stateResp.State.Turn)
}

func TestPostAction_InvalidActionIsNonFatal(t *testing.T) {
	s := testServer(t)
	router := s.Routes()
	resp := createTestGame(t, router)
	path := fmt.Sprintf("/api/v1/games/%s/action", resp.GameID)

	w := doJSON(t, router, http.MethodPost, path, resp.TokenA, postActionRequest{Action: game.Action{ID: "surrender"}})
	require.Equal(t, http.StatusAccepted, w.Code)
	w = doJSON(t, router, http.MethodPost, path, resp.TokenB, postActionRequest{Action: game.Action{ID: "accommodate"}})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var result game.TurnResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "unknown action")

	// Failed validation must not advance the game.
	w = doJSON(t, router, http.MethodGet, "/api/v1/games/"+resp.GameID+"/state", resp.TokenA, nil)
	var stateResp struct {
		State game.GameState `json:"state"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stateResp))
	assert.Equal(t, 1, stateResp.State.Turn)
}

func TestAdminEndpoints_DisabledWithoutKeyHash(t *testing.T) {
	s := testServer(t)
	router := s.Routes()
	w := doJSON(t, router, http.MethodGet, "/api/v1/admin/games", "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHealthz(t *testing.T) {
	s := testServer(t)
	router := s.Routes()
	w := doJSON(t, router, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
