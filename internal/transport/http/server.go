package http

import (
	"path/filepath"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"finrag/internal/bootstrap"
	"finrag/internal/transport/http/handler"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(cors.New(corsConfig(app.Config.CORS.AllowOrigins)))

	frontendDir := app.Config.App.FrontendDir
	router.StaticFile("/", filepath.Join(frontendDir, "index.html"))
	router.Static("/static", frontendDir)

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)
	router.GET("/api/about", handler.About)

	askHandler := handler.NewAskHandler(app.AnswerService)
	router.POST("/ask", askHandler.Ask)

	if app.ExchangeRepo != nil {
		exchangeHandler := handler.NewExchangeHandler(app.ExchangeRepo)
		router.GET("/api/exchanges", exchangeHandler.List)
	}

	return router
}

// corsConfig builds the CORS policy from config. The default is the
// wildcard posture the front end expects; deployments can narrow it.
func corsConfig(allowOrigins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, origin := range allowOrigins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = allowOrigins
	return cfg
}
