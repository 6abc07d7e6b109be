package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"feedbackbot/internal/bootstrap"
	"feedbackbot/internal/transport/http/handler"
	"feedbackbot/internal/transport/http/middleware"
	"feedbackbot/internal/web"
)

func NewRouter(app *bootstrap.App) (*gin.Engine, error) {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	templates, err := web.Templates()
	if err != nil {
		return nil, err
	}
	router.SetHTMLTemplate(templates)

	healthHandler := handler.NewHealthHandler(app)
	chatHandler := handler.NewChatHandler(app.Chat)
	feedbackHandler := handler.NewFeedbackHandler(app.Feedback, app.History)
	pageHandler := handler.NewPageHandler(app.Chat, app.Feedback, app.History, app.SampleData, app.Config.Model.Name)
	tourHandler := handler.NewTourHandler()

	router.GET("/healthz", healthHandler.Check)

	pages := router.Group("/")
	pages.Use(middleware.Session(app.Sessions, middleware.SessionOptions{
		Secret: app.Config.App.SessionSecret,
		TTL:    time.Duration(app.Config.App.SessionTTLMinutes) * time.Minute,
		Secure: app.Config.App.Env == "prod",
	}))
	pages.GET("/", pageHandler.Index)
	pages.GET("/chat", pageHandler.Chat)
	pages.POST("/chat/ask", pageHandler.Ask)
	pages.POST("/chat/feedback", pageHandler.Feedback)
	pages.POST("/chat/discard", pageHandler.Discard)
	pages.GET("/history", pageHandler.History)
	pages.GET("/data", pageHandler.Data)
	pages.POST("/data/reseed", pageHandler.Reseed)
	pages.POST("/developer", pageHandler.Developer)
	pages.GET("/tour", tourHandler.Show)
	pages.POST("/tour/interactive/upload", tourHandler.Upload)
	pages.POST("/tour/:section", tourHandler.Apply)

	v1 := router.Group("/api/v1")
	v1.POST("/chat/ask", chatHandler.Ask)
	v1.POST("/feedback", feedbackHandler.Record)
	v1.GET("/history", feedbackHandler.History)
	v1.GET("/history/stats", feedbackHandler.Stats)

	return router, nil
}
