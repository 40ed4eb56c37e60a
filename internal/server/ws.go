package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/brinkhaven/brinksmanship-server/internal/game"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
)

// streamGame upgrades the connection and pushes a snapshot after every
// resolved turn until the game ends or the client goes away. The first
// frame is the current snapshot, so late subscribers start consistent.
func (s *Server) streamGame(c *gin.Context) {
	engine, ok := s.engineFor(c)
	if !ok {
		return
	}
	sess, ok := s.getSession(engine.ID())
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if s.cfg.Server.AllowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == s.cfg.Server.AllowedOrigin
		},
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	updates := sess.subscribe()
	go s.writeUpdates(conn, sess, updates, engine)
	go discardReads(conn)
}

// writeUpdates owns the connection's write side.
func (s *Server) writeUpdates(conn *websocket.Conn, sess *session, updates chan gameUpdate, engine *game.Engine) {
	defer func() {
		sess.unsubscribe(updates)
		conn.Close()
	}()

	first := gameUpdate{State: engine.CurrentState()}
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteJSON(first); err != nil {
		return
	}

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case update, open := <-updates:
			if !open {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(update); err != nil {
				return
			}
			if update.Result != nil && update.Result.Ending != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// discardReads drains the read side so control frames are processed; any
// read error ends the connection via the writer's next failure.
func discardReads(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
