package devserver

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/fitpulse/companion/internal/domain"
	"github.com/fitpulse/companion/internal/session"
	"github.com/fitpulse/companion/pkg/logger"
)

const accessTokenTTL = 15 * time.Minute

// devUserID is the single account the stub serves; any credentials log in.
const devUserID int64 = 1001

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type sendRequest struct {
	UserID         int64  `json:"user_id"`
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
}

func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Email == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "email required"})
	}

	access, err := s.issueToken(devUserID, domain.RoleNormalUser, accessTokenTTL)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	refresh, err := s.issueToken(devUserID, domain.RoleNormalUser, session.RefreshTokenLifetime)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, domain.Session{
		UserID:       devUserID,
		Role:         domain.RoleNormalUser,
		AccessToken:  access,
		RefreshToken: refresh,
	})
}

func (s *Server) handleRefresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	userID, role, err := s.verifyToken(req.RefreshToken)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid refresh token"})
	}

	access, err := s.issueToken(userID, role, accessTokenTTL)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{"access_token": access})
}

func (s *Server) handleProfile(c echo.Context) error {
	userID, role, err := s.bearerIdentity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}

	return c.JSON(http.StatusOK, domain.Profile{
		UserID:         userID,
		Role:           role,
		ChatEnabled:    true,
		ConversationID: conversationIDFor(userID),
	})
}

func (s *Server) handleMessages(c echo.Context) error {
	conversationID := c.QueryParam("conversation_id")
	if conversationID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "conversation_id required"})
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	perPage, err := strconv.Atoi(c.QueryParam("per_page"))
	if err != nil || perPage <= 0 {
		perPage = 20
	}

	return c.JSON(http.StatusOK, s.history.Page(conversationID, page, perPage))
}

func (s *Server) handleStream(c echo.Context) error {
	var req sendRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if strings.TrimSpace(req.Message) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "message required"})
	}

	s.history.Append(req.ConversationID, domain.MessageRoleUser, req.Message)

	w := newSSEWriter(c.Response())
	var full strings.Builder
	err := s.respond.Reply(c.Request().Context(), req.Message, func(chunk string) error {
		full.WriteString(chunk)
		return w.WriteEvent(domain.StreamEvent{Type: domain.StreamEventChunk, Content: chunk})
	})
	if err != nil {
		logger.Errorf("devserver: responder failed: %v", err)
		// Headers are already out; surface the failure as a final event.
		_ = w.WriteEvent(domain.StreamEvent{Type: "error"})
	}

	if full.Len() > 0 {
		s.history.Append(req.ConversationID, domain.MessageRoleBot, full.String())
	}

	_ = w.WriteEvent(domain.StreamEvent{Type: domain.StreamEventDone})
	return w.Close()
}

// conversationIDFor derives a stable conversation id for a user.
func conversationIDFor(userID int64) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("fitpulse-conv-%d", userID))).String()
}

func (s *Server) issueToken(userID int64, role string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(userID, 10),
		"role": role,
		"exp":  now.Add(ttl).Unix(),
		"iat":  now.Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
}

func (s *Server) verifyToken(token string) (int64, string, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return 0, "", fmt.Errorf("invalid token: %w", err)
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return 0, "", fmt.Errorf("missing subject: %w", err)
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("invalid subject: %w", err)
	}
	role, _ := claims["role"].(string)
	return userID, role, nil
}

func (s *Server) bearerIdentity(c echo.Context) (int64, string, error) {
	header := c.Request().Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return 0, "", fmt.Errorf("missing bearer token")
	}
	return s.verifyToken(token)
}
