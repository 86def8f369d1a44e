package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RouterConfig struct {
	QuestHandler *QuestHandler
	WSHandler    *WSHandler
	AllowOrigins []string
	Logger       *zap.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(cfg.Logger))
	r.Use(CORS(cfg.AllowOrigins))

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	api := r.Group("/api")
	if cfg.QuestHandler != nil {
		api.GET("/quests", cfg.QuestHandler.ListQuests)
		api.POST("/quests", cfg.QuestHandler.CreateQuest)
		api.GET("/quests/:id", cfg.QuestHandler.GetQuest)
		api.PATCH("/quests/:id", cfg.QuestHandler.UpdateQuest)
		api.DELETE("/quests/:id", cfg.QuestHandler.DeleteQuest)
		api.GET("/quests/:id/content", cfg.QuestHandler.GetContent)
		api.POST("/quests/:id/content", cfg.QuestHandler.SaveContent)
	}

	if cfg.WSHandler != nil {
		r.GET("/ws/play", gin.WrapF(cfg.WSHandler.ServeWS))
	}
	return r
}
