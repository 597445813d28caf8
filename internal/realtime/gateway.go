package realtime

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/mariamm-maher/graduation-project-BE/internal/auth"
	"github.com/mariamm-maher/graduation-project-BE/internal/model"
	"github.com/mariamm-maher/graduation-project-BE/internal/utils"
)

var errNotParticipant = errors.New("not a participant")

// ChatStore is the persistence surface the gateway needs: load a chat
// to authorize membership and record a message.
type ChatStore interface {
	GetChat(ctx context.Context, chatID uint64) (model.Chat, error)
	SaveMessage(ctx context.Context, chatID, senderID uint64, content string) (model.Message, error)
}

// Gateway authenticates websocket handshakes and owns the hub shared by
// all connections. Authentication runs against the same access-token
// secret and user store as the HTTP middleware; a rejected handshake is
// a plain 401 JSON response, never an upgraded-then-closed socket.
type Gateway struct {
	Hub          *Hub
	AccessSecret string
	Users        auth.UserStore
	Chats        ChatStore
	upgrader     websocket.Upgrader
}

func NewGateway(accessSecret string, users auth.UserStore, chats ChatStore) *Gateway {
	return &Gateway{
		Hub:          NewHub(),
		AccessSecret: accessSecret,
		Users:        users,
		Chats:        chats,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Cross-origin policy is enforced by the frontend origin
			// check at the proxy; the token is the credential here.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handle authenticates the handshake and, on success, upgrades the
// connection, auto-joins the client to its personal room and starts the
// read and write pumps. The token arrives as a "token" query parameter
// or an Authorization bearer header.
func (g *Gateway) Handle(c echo.Context) error {
	raw := c.QueryParam("token")
	if raw == "" {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if strings.HasPrefix(header, "Bearer ") {
			raw = strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		}
	}
	if raw == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Token required"})
	}

	claims, err := utils.VerifyToken(raw, g.AccessSecret)
	if err != nil {
		msg := "Invalid token"
		if errors.Is(err, utils.ErrTokenExpired) {
			msg = "Token expired"
		}
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	user, err := g.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "User not found"})
	}

	conn, err := g.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the failure response.
		return nil
	}

	client := &Client{
		gw:     g,
		conn:   conn,
		userID: user.ID,
		send:   make(chan []byte, 64),
	}
	g.Hub.Join(userRoom(user.ID), client)
	log.Printf("websocket connected: user %d", user.ID)

	go client.writePump()
	go client.readPump()
	return nil
}
