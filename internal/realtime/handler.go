package realtime

import (
	"log"
	"net/http"

	"github.com/campuslink-app/backend/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// Handler upgrades authenticated connections and joins them to the caller's
// room.
type Handler struct {
	hub       *Hub
	jwtSecret string
	upgrader  websocket.Upgrader
}

// NewHandler creates a websocket handler. allowedOrigin is the browser origin
// permitted to open connections; empty permits any origin.
func NewHandler(hub *Hub, jwtSecret, allowedOrigin string) *Handler {
	return &Handler{
		hub:       hub,
		jwtSecret: jwtSecret,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowedOrigin),
		},
	}
}

// checkOrigin accepts requests without an Origin header (non-browser clients)
// and browser requests from the configured origin.
func checkOrigin(allowedOrigin string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || allowedOrigin == "" {
			return true
		}
		return origin == allowedOrigin
	}
}

// ServeWS handles GET /ws?token=<jwt>. Browsers cannot set an Authorization
// header on the websocket handshake, so the session token travels as a query
// parameter and is verified here with the same claims as the HTTP middleware.
func (h *Handler) ServeWS(c echo.Context) error {
	tokenString := c.QueryParam("token")
	if tokenString == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing token")
	}

	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, echo.NewHTTPError(http.StatusUnauthorized, "Unexpected signing method")
		}
		return []byte(h.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("realtime: upgrade failed: %v", err)
		return nil
	}

	client := newClient(h.hub, conn, claims.UserID)
	h.hub.Join(client)

	go client.writePump()
	go client.readPump()
	return nil
}
