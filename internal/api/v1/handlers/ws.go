package handlers

import (
	"community-service/internal/authz"
	"community-service/internal/middleware"
	hub "community-service/internal/websocket"
	"community-service/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// UpgradeGuard menolak request /ws yang bukan websocket upgrade.
func UpgradeGuard(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// CanSubscribe runs after UseToken so a refused caller gets a JSON error
// instead of a dropped upgrade.
func CanSubscribe(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	if err := authz.Require(p, authz.SubscribeSchedule); err != nil {
		return err
	}
	return c.Next()
}

// TaskFeed streams the task events the caller may read. The connection only
// receives; anything the client sends is ignored.
func (h *Handler) TaskFeed() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		p, ok := conn.Locals(middleware.PrincipalKey).(authz.Principal)
		if !ok {
			conn.Close()
			return
		}
		client := &hub.Client{Conn: conn, Principal: p}
		h.deps.Hub.Register(client)
		logger.SystemLogger.Info("Websocket connected", zap.Int("user_id", p.AccountID))
		defer h.deps.Hub.Unregister(client)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
}
