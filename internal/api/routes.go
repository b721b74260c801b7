package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/voicearena/server/domain/repositories"
	"github.com/voicearena/server/internal/auth"
	"github.com/voicearena/server/internal/websocket"
)

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, hub *websocket.Hub, profiles repositories.SpeakerProfileStore, authn *auth.Authenticator, logger *zap.Logger) {
	// Health check
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "voicearena-server",
		})
	})

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// API v1 routes
	v1 := e.Group("/api/v1")

	v1.POST("/auth/token", func(c echo.Context) error {
		return issueToken(c, authn, logger)
	})

	// Speaker management, mirroring the list/remove control messages for
	// clients that are not holding a live connection.
	v1.GET("/speakers", func(c echo.Context) error {
		return listSpeakers(c, profiles, logger)
	})
	v1.DELETE("/speakers/:name", func(c echo.Context) error {
		return removeSpeaker(c, profiles, logger)
	})

	// WebSocket endpoint with JWT validation
	e.GET("/ws", func(c echo.Context) error {
		return websocketWithAuth(hub, c, authn, logger)
	})
}

func issueToken(c echo.Context, authn *auth.Authenticator, logger *zap.Logger) error {
	var req TokenRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind token request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	if req.ClientID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "Client ID is required",
		})
	}

	token, err := authn.GenerateClientToken(req.ClientID)
	if err != nil {
		logger.Error("Failed to generate client token",
			zap.String("client_id", req.ClientID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate authentication token",
		})
	}

	return c.JSON(http.StatusOK, TokenResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(24 * time.Hour),
		ClientID:  req.ClientID,
	})
}

func listSpeakers(c echo.Context, profiles repositories.SpeakerProfileStore, logger *zap.Logger) error {
	names, err := profiles.ListNames(c.Request().Context())
	if err != nil {
		logger.Error("Failed to list speakers", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "store_error",
			Message: "Failed to list speakers",
		})
	}
	if names == nil {
		names = []string{}
	}
	return c.JSON(http.StatusOK, SpeakersResponse{Speakers: names})
}

func removeSpeaker(c echo.Context, profiles repositories.SpeakerProfileStore, logger *zap.Logger) error {
	name := c.Param("name")
	removed, err := profiles.Remove(c.Request().Context(), name)
	if err != nil {
		logger.Error("Failed to remove speaker", zap.String("name", name), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "store_error",
			Message: "Failed to remove speaker",
		})
	}
	return c.JSON(http.StatusOK, RemovedResponse{Name: name, Removed: removed})
}

// websocketWithAuth handles WebSocket connections with JWT authentication
func websocketWithAuth(hub *websocket.Hub, c echo.Context, authn *auth.Authenticator, logger *zap.Logger) error {
	if !authn.Enabled() {
		return websocket.HandleWebSocket(hub, c, logger)
	}

	// Browsers cannot set headers on WebSocket upgrades, so accept the
	// token from either the Authorization header or a query parameter.
	var token string
	authHeader := c.Request().Header.Get("Authorization")
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		token = authHeader[7:]
	}
	if token == "" {
		token = c.QueryParam("token")
	}

	if token == "" {
		logger.Warn("WebSocket connection rejected: missing token")
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "missing_token",
			Message: "JWT token is required",
		})
	}

	claims, err := authn.ValidateToken(token)
	if err != nil {
		logger.Warn("WebSocket connection rejected: invalid token", zap.Error(err))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "Invalid or expired JWT token",
		})
	}

	logger.Info("WebSocket connection authenticated",
		zap.String("client_id", claims.ClientID))

	return websocket.HandleWebSocket(hub, c, logger)
}
