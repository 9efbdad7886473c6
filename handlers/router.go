package handlers

import (
	"github.com/hakikicode/SmartDesign/middleware"
	"github.com/hakikicode/SmartDesign/pkg/notify"
	"github.com/hakikicode/SmartDesign/repository"
	"github.com/hakikicode/SmartDesign/websocket"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterDeps struct {
	Repo             *repository.UpdatesRepository
	Hub              *websocket.Hub
	MaxMessageLength int
	TrustedProxies   []string
}

// NewRouter wires middleware and routes onto a fresh gin engine.
func NewRouter(deps RouterDeps) (*gin.Engine, error) {
	r := gin.New()
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())
	r.Use(gin.Recovery())

	proxies := deps.TrustedProxies
	if len(proxies) == 0 {
		proxies = []string{"127.0.0.1", "::1"}
	}
	if err := r.SetTrustedProxies(proxies); err != nil {
		return nil, err
	}
	r.Use(middleware.CORSMiddleware())

	updatesHandler := NewUpdatesHandler(deps.Repo, deps.MaxMessageLength)
	if deps.Hub != nil {
		updatesHandler.WithNotifier(&notify.WSNotifier{Hub: deps.Hub})
		r.GET("/ws", websocket.ServeWS(deps.Hub))
	}

	r.GET("/health", HealthCheck(deps.Repo))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/updates", updatesHandler.List)

	// Producers are rate limited; pollers are not.
	ingest := r.Group("/", middleware.RateLimitMiddleware())
	ingest.POST("/updates", updatesHandler.Ingest)
	ingest.POST("/webhook", updatesHandler.Ingest)

	return r, nil
}
