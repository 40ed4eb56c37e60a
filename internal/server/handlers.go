package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/brinkhaven/brinksmanship-server/internal/game"
	"github.com/brinkhaven/brinksmanship-server/internal/repository"
	"github.com/brinkhaven/brinksmanship-server/internal/sim"
)

const persistTimeout = 5 * time.Second

type createGameRequest struct {
	// Seed pins the game's random stream; zero draws a fresh one.
	Seed int64 `json:"seed"`
}

type createGameResponse struct {
	GameID   string `json:"game_id"`
	TokenA   string `json:"token_a"`
	TokenB   string `json:"token_b"`
	Briefing string `json:"briefing"`
}

func (s *Server) createGame(c *gin.Context) {
	// An empty body is fine; anything unparseable is not.
	var req createGameRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	seed := req.Seed
	if seed == 0 {
		var err error
		seed, err = sim.NewBaseSeed()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "seed generation failed"})
			return
		}
	}

	engine, err := s.manager.Create(s.scenario.TurnMap(), s.scenario.StartKey, seed)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.addSession(engine)
	s.metrics.GamesCreated.Inc()

	tokenA, err := s.issueSeatToken(engine.ID(), game.SeatA)
	if err != nil {
		s.removeSession(engine.ID())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	tokenB, err := s.issueSeatToken(engine.ID(), game.SeatB)
	if err != nil {
		s.removeSession(engine.ID())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}

	c.JSON(http.StatusCreated, createGameResponse{
		GameID:   engine.ID(),
		TokenA:   tokenA,
		TokenB:   tokenB,
		Briefing: engine.Briefing(),
	})
}

func (s *Server) engineFor(c *gin.Context) (*game.Engine, bool) {
	engine, err := s.manager.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
		return nil, false
	}
	return engine, true
}

func (s *Server) getState(c *gin.Context) {
	engine, ok := s.engineFor(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"state":   engine.CurrentState(),
		"phase":   engine.Phase().String(),
		"is_over": engine.IsOver(),
	})
}

func (s *Server) getBriefing(c *gin.Context) {
	engine, ok := s.engineFor(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"briefing": engine.Briefing()})
}

func (s *Server) getAvailableActions(c *gin.Context) {
	engine, ok := s.engineFor(c)
	if !ok {
		return
	}
	seat := callerSeat(c)
	c.JSON(http.StatusOK, gin.H{"seat": seat, "actions": engine.AvailableActions(seat)})
}

func (s *Server) getInformation(c *gin.Context) {
	engine, ok := s.engineFor(c)
	if !ok {
		return
	}
	seat := callerSeat(c)
	info := engine.Information(seat)
	turn := engine.CurrentState().Turn
	c.JSON(http.StatusOK, gin.H{
		"seat":               seat,
		"information":        info,
		"position_estimate":  info.EstimatePosition(turn),
		"resources_estimate": info.EstimateResources(turn),
	})
}

func (s *Server) getHistory(c *gin.Context) {
	engine, ok := s.engineFor(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": engine.History()})
}

func (s *Server) getEnding(c *gin.Context) {
	engine, ok := s.engineFor(c)
	if !ok {
		return
	}
	ending := engine.Ending()
	if ending == nil {
		c.JSON(http.StatusOK, gin.H{"is_over": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"is_over": true, "ending": ending})
}

type postActionRequest struct {
	Action game.Action `json:"action"`
}

// postAction stages the caller's action for the current turn. The turn
// resolves once both seats have staged; until then the response reports the
// submission as pending.
func (s *Server) postAction(c *gin.Context) {
	engine, ok := s.engineFor(c)
	if !ok {
		return
	}
	sess, ok := s.getSession(engine.ID())
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
		return
	}

	var req postActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	seat := callerSeat(c)
	result, resolved := sess.stage(seat, req.Action)
	if !resolved {
		c.JSON(http.StatusAccepted, gin.H{"pending": true, "seat": seat})
		return
	}

	s.metrics.observeTurn(result)
	if result.Success {
		s.persist(engine)
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, result)
}

// persist saves the engine's snapshot if a store is configured.
func (s *Server) persist(engine *game.Engine) {
	if s.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.store.Save(ctx, s.scenario.Name, engine.Snapshot()); err != nil {
		s.logger.Warn("game persistence failed",
			zap.String("game_id", engine.ID()),
			zap.Error(err),
		)
	}
}

func (s *Server) adminListGames(c *gin.Context) {
	active := s.manager.List()
	resp := gin.H{"active": active}
	if s.store != nil {
		stored, err := s.store.List(c.Request.Context(), 100)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		resp["stored"] = stored
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) adminDeleteGame(c *gin.Context) {
	id := c.Param("id")
	if _, err := s.manager.Get(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
		return
	}
	s.removeSession(id)
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// adminRestoreGame loads a persisted snapshot and resumes it under its
// original ID, replaying the random stream to where it stopped.
func (s *Server) adminRestoreGame(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "persistence not configured"})
		return
	}
	id := c.Param("id")
	snap, err := s.store.Load(c.Request.Context(), id)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repository.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	engine, err := game.Restore(snap, s.scenario.TurnMap(), s.logger)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := s.manager.Adopt(engine); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	s.addSession(engine)

	tokenA, errA := s.issueSeatToken(engine.ID(), game.SeatA)
	tokenB, errB := s.issueSeatToken(engine.ID(), game.SeatB)
	if errA != nil || errB != nil {
		s.removeSession(engine.ID())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}

	c.JSON(http.StatusOK, createGameResponse{
		GameID:   engine.ID(),
		TokenA:   tokenA,
		TokenB:   tokenB,
		Briefing: engine.Briefing(),
	})
}
