package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/dkeye/Relay/internal/adapters/signal"
	"github.com/dkeye/Relay/internal/app/orch"
	"github.com/dkeye/Relay/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const helpText = "Relay signaling server. Connect over WebSocket or use /api."

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery(), CORS())

	ws := signal.NewSignalWSController(o, signal.Options{
		ReadLimit:  cfg.ReadLimit,
		PingPeriod: cfg.PingPeriod,
		PongWait:   cfg.PongWait,
		WriteWait:  cfg.WriteWait,
		SendQueue:  cfg.SendQueue,
	})
	upgrade := func(c *gin.Context) {
		if !websocket.IsWebSocketUpgrade(c.Request) {
			c.String(http.StatusOK, helpText)
			return
		}
		ws.HandleSignal(ctx, c)
	}
	r.GET("/", upgrade)
	r.GET("/ws", upgrade)
	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	a := &API{Orch: o}
	api := r.Group("/api")

	limiter := NewRateLimiter(cfg.InviteRateLimit, cfg.InviteRateWindow)
	invites := api.Group("/invites", limiter.Middleware())
	invites.GET("/:code", a.getInvite)
	invites.POST("/:code/redeem", a.redeemInvite)
	invites.POST("/:code/revoke", a.revokeInvite)

	houses := api.Group("/houses/:key")
	houses.POST("/register", a.putHint)
	houses.GET("/hint", a.getHint)
	houses.POST("/invites", a.createInvite)
	houses.POST("/events", a.postEvent)
	houses.GET("/events", a.listEvents)
	houses.POST("/events/ack", a.ack)
	houses.POST("/ack", a.ack)

	r.NoMethod(func(c *gin.Context) {
		c.String(http.StatusMethodNotAllowed, "Method not allowed")
	})
	r.NoRoute(func(c *gin.Context) {
		path := c.Request.URL.Path
		switch {
		case path == "/api" || strings.HasPrefix(path, "/api/"):
			c.String(http.StatusNotFound, "API endpoint not found")
		case websocket.IsWebSocketUpgrade(c.Request):
			ws.HandleSignal(ctx, c)
		default:
			c.String(http.StatusNotFound, helpText)
		}
	})

	log.Info().Str("module", "adapters.http").Str("mode", cfg.Mode).Msg("router setup")
	return r
}
