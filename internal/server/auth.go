package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/brinkhaven/brinksmanship-server/internal/game"
)

// seatClaims binds a session token to one seat of one game.
type seatClaims struct {
	GameID string    `json:"game_id"`
	Seat   game.Seat `json:"seat"`
	jwt.RegisteredClaims
}

// issueSeatToken signs a token authorizing one seat of one game.
func (s *Server) issueSeatToken(gameID string, seat game.Seat) (string, error) {
	now := time.Now()
	claims := seatClaims{
		GameID: gameID,
		Seat:   seat,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.Auth.TokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Auth.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign seat token: %w", err)
	}
	return signed, nil
}

// parseSeatToken verifies a token and returns its claims.
func (s *Server) parseSeatToken(tokenString string) (*seatClaims, error) {
	claims := &seatClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.cfg.Auth.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.GameID == "" || (claims.Seat != game.SeatA && claims.Seat != game.SeatB) {
		return nil, errors.New("invalid claims")
	}
	return claims, nil
}

const (
	ctxKeyGameID = "auth_game_id"
	ctxKeySeat   = "auth_seat"
)

// seatAuth requires a seat token for the game named in the route, from the
// Authorization header or a token query parameter (for websockets).
func (s *Server) seatAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.Query("token")
		if tokenString == "" {
			header := c.GetHeader("Authorization")
			tokenString = strings.TrimPrefix(header, "Bearer ")
			if tokenString == header {
				tokenString = ""
			}
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}
		claims, err := s.parseSeatToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if claims.GameID != c.Param("id") {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "token is for a different game"})
			return
		}
		c.Set(ctxKeyGameID, claims.GameID)
		c.Set(ctxKeySeat, claims.Seat)
		c.Next()
	}
}

// adminAuth checks the X-Admin-Key header against the configured bcrypt
// hash. No hash configured means admin endpoints are disabled.
func (s *Server) adminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.Auth.AdminKeyHash == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access disabled"})
			return
		}
		key := c.GetHeader("X-Admin-Key")
		if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.Auth.AdminKeyHash), []byte(key)); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid admin key"})
			return
		}
		c.Next()
	}
}

// callerSeat reads the authenticated seat from the request context.
func callerSeat(c *gin.Context) game.Seat {
	if v, ok := c.Get(ctxKeySeat); ok {
		if seat, ok := v.(game.Seat); ok {
			return seat
		}
	}
	return game.SeatA
}
