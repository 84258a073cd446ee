package httpapi

import (
	"net/http"
	"time"

	"github.com/azuradaemon/hati/internal/common"
	"github.com/azuradaemon/hati/internal/config"
	"github.com/azuradaemon/hati/internal/httpapi/handlers"
	"github.com/azuradaemon/hati/internal/httpapi/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter wires all routes. Everything under /api except ping and login
// requires a session token.
func NewRouter(h *handlers.Handler, cfg config.Config) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(gin.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())

	if cfg.FrontendURL != "" {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     []string{cfg.FrontendURL},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Idempotency-Key"},
			ExposeHeaders:    []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	api := r.Group("/api")
	{
		api.GET("/ping", h.Ping)
		api.POST("/auth/login", h.Login)

		authed := api.Group("")
		authed.Use(middleware.AuthRequired(cfg.JWTSecret))
		{
			authed.POST("/conversations", h.CreateConversation)
			authed.GET("/conversations", h.ListConversations)
			authed.GET("/conversations/:id", h.GetConversation)
			authed.DELETE("/conversations/:id", h.DeleteConversation)
			authed.POST("/conversations/:id/messages", h.SendConversationMessage)
			authed.POST("/conversations/:id/messages/async", h.SendConversationMessageAsync)
			authed.GET("/jobs/:job_id", h.GetJob)

			authed.GET("/projects", h.ListProjects)
			authed.POST("/projects", h.CreateProject)
			authed.GET("/projects/:id", h.GetProject)

			authed.GET("/songs", h.ListSongs)
			authed.POST("/songs", h.CreateSong)
			authed.GET("/songs/:id", h.GetSong)

			authed.POST("/tts", h.Speak)
			authed.POST("/generate-image", h.GenerateImage)
			authed.POST("/terminal/execute", h.TerminalExecute)
			authed.POST("/upload", h.Upload)
		}
	}

	return r
}
