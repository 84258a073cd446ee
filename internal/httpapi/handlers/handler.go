package handlers

import (
	"github.com/azuradaemon/hati/internal/ai"
	"github.com/azuradaemon/hati/internal/chat"
	"github.com/azuradaemon/hati/internal/common"
	"github.com/azuradaemon/hati/internal/config"
	"github.com/azuradaemon/hati/internal/project"
	"github.com/azuradaemon/hati/internal/song"
	"github.com/azuradaemon/hati/internal/store/rabbitmq"
	"github.com/azuradaemon/hati/internal/store/redisstore"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handler struct {
	DB  *gorm.DB
	Cfg config.Config

	// Redis and Rabbit may be nil; the affected features degrade
	// (no advisory stream lock, no async sends).
	Redis  *redisstore.Store
	Rabbit *rabbitmq.Publisher

	ChatSvc  *chat.Service
	Projects *project.Repo
	Songs    *song.Repo

	Terminal ai.Provider
	Speech   ai.SpeechProvider
	Images   ai.ImageProvider
}

func NewHandler(db *gorm.DB, cfg config.Config, rds *redisstore.Store, rabbit *rabbitmq.Publisher) *Handler {
	provider := ai.NewOpenAIProvider(
		cfg.AIBaseURL, cfg.AIAPIKey,
		cfg.ChatModel, cfg.TTSModel, cfg.ImageModel,
		cfg.MaxCompletionTokens,
	)

	// terminal simulation runs on a smaller model with a tight budget
	terminal := ai.NewOpenAIProvider(cfg.AIBaseURL, cfg.AIAPIKey, cfg.TerminalModel, "", "", 500)

	chatSvc := chat.NewService(chat.NewRepo(db), provider, cfg.Persona, cfg.ChatContextWindowSize)

	return &Handler{
		DB:       db,
		Cfg:      cfg,
		Redis:    rds,
		Rabbit:   rabbit,
		ChatSvc:  chatSvc,
		Projects: project.NewRepo(db),
		Songs:    song.NewRepo(db),
		Terminal: terminal,
		Speech:   provider,
		Images:   provider,
	}
}

func (h *Handler) Ping(c *gin.Context) {
	common.Ok(c, gin.H{"pong": true})
}
