// Package server exposes the Brinksmanship engine over HTTP: a gin JSON API
// for game lifecycle and turn submission, a websocket stream of state
// snapshots, prometheus metrics and JWT seat sessions. The engine itself
// stays synchronous; this layer only stages each seat's decision until both
// are in.
package server

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/brinkhaven/brinksmanship-server/internal/config"
	"github.com/brinkhaven/brinksmanship-server/internal/game"
	"github.com/brinkhaven/brinksmanship-server/internal/repository"
	"github.com/brinkhaven/brinksmanship-server/internal/scenario"
)

// Server wires the game manager, scenario, persistence and metrics behind
// the HTTP surface.
type Server struct {
	cfg      *config.Config
	logger   *zap.Logger
	manager  *game.Manager
	scenario *scenario.Scenario
	store    *repository.GameStore
	metrics  *Metrics

	mu       sync.Mutex
	sessions map[string]*session
}

// Options collects the server's collaborators. Store may be nil; games then
// live only in memory.
type Options struct {
	Config   *config.Config
	Logger   *zap.Logger
	Scenario *scenario.Scenario
	Store    *repository.GameStore
	Registry prometheus.Registerer
}

// New builds a server.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &Server{
		cfg:      opts.Config,
		logger:   logger,
		manager:  game.NewManager(logger),
		scenario: opts.Scenario,
		store:    opts.Store,
		metrics:  NewMetrics(reg),
		sessions: make(map[string]*session),
	}
}

// Routes builds the gin engine with all endpoints registered.
func (s *Server) Routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "active_games": s.manager.Count()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	v1.POST("/games", s.createGame)

	g := v1.Group("/games/:id", s.seatAuth())
	g.GET("/state", s.getState)
	g.GET("/briefing", s.getBriefing)
	g.GET("/actions", s.getAvailableActions)
	g.GET("/information", s.getInformation)
	g.GET("/history", s.getHistory)
	g.GET("/ending", s.getEnding)
	g.POST("/action", s.postAction)
	g.GET("/ws", s.streamGame)

	admin := v1.Group("/admin", s.adminAuth())
	admin.GET("/games", s.adminListGames)
	admin.DELETE("/games/:id", s.adminDeleteGame)
	admin.POST("/games/:id/restore", s.adminRestoreGame)

	return r
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Address,
		Handler:      s.Routes(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("address", s.cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// requestLogger logs each request at debug with zap fields.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
		)
	}
}

// session wraps one engine with the staging area for per-seat submissions
// and the set of websocket subscribers.
type session struct {
	engine *game.Engine

	mu          sync.Mutex
	pending     map[game.Seat]game.Action
	subscribers map[chan gameUpdate]struct{}
}

// gameUpdate is one websocket push: the post-turn snapshot plus the result
// that produced it.
type gameUpdate struct {
	State  game.GameState   `json:"state"`
	Result *game.TurnResult `json:"result,omitempty"`
}

func newSession(engine *game.Engine) *session {
	return &session{
		engine:      engine,
		pending:     make(map[game.Seat]game.Action),
		subscribers: make(map[chan gameUpdate]struct{}),
	}
}

// stage records one seat's action and resolves the turn once both seats
// have decided. The bool reports whether a resolution happened.
func (sess *session) stage(seat game.Seat, action game.Action) (game.TurnResult, bool) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.pending[seat] = action
	actionA, okA := sess.pending[game.SeatA]
	actionB, okB := sess.pending[game.SeatB]
	if !okA || !okB {
		return game.TurnResult{}, false
	}
	delete(sess.pending, game.SeatA)
	delete(sess.pending, game.SeatB)

	result := sess.engine.SubmitActions(actionA, actionB)
	if result.Success {
		update := gameUpdate{State: sess.engine.CurrentState(), Result: &result}
		for ch := range sess.subscribers {
			select {
			case ch <- update:
			default: // slow subscriber, drop rather than block resolution
			}
		}
	}
	return result, true
}

func (sess *session) subscribe() chan gameUpdate {
	ch := make(chan gameUpdate, 8)
	sess.mu.Lock()
	sess.subscribers[ch] = struct{}{}
	sess.mu.Unlock()
	return ch
}

func (sess *session) unsubscribe(ch chan gameUpdate) {
	sess.mu.Lock()
	delete(sess.subscribers, ch)
	sess.mu.Unlock()
	close(ch)
}

// getSession fetches a session by game ID.
func (s *Server) getSession(id string) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// addSession registers a session for a managed engine.
func (s *Server) addSession(engine *game.Engine) *session {
	sess := newSession(engine)
	s.mu.Lock()
	s.sessions[engine.ID()] = sess
	s.mu.Unlock()
	return sess
}

// removeSession drops a session and its engine.
func (s *Server) removeSession(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	s.manager.Delete(id)
}
