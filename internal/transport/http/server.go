package http

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"concierge/internal/bootstrap"
	"concierge/internal/logger"
	"concierge/internal/platform/database"
	rabbitmqClient "concierge/internal/platform/rabbitmq"
	redisClient "concierge/internal/platform/redis"
	"concierge/internal/transport/http/handler"
	"concierge/internal/transport/http/middleware"
)

const adminScope = "admin"

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(app.Log, app.Metrics), middleware.CORS())

	checks := map[string]handler.CheckFunc{
		"database": func(ctx context.Context) error { return database.Ping(ctx, app.DB) },
	}
	if app.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx, app.Redis) }
	}
	if app.MQConn != nil {
		checks["rabbitmq"] = func(context.Context) error { return rabbitmqClient.Check(app.MQConn) }
	}
	healthHandler := handler.NewHealthHandler(app.Config.App.Name, app.Config.App.Env, app.StartedAt, checks)
	router.GET("/healthz", healthHandler.Check)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{Registry: app.Registry})))

	answerHandler := handler.NewAnswerHandler(app.Answers, logger.Component(app.Log, "answer_handler"))
	descriptionHandler := handler.NewDescriptionHandler(app.Descriptions, logger.Component(app.Log, "description_handler"))
	adminHandler := handler.NewAdminHandler(app.AnswerRepo, app.PageStats, logger.Component(app.Log, "admin_handler"))

	limit := middleware.RateLimit(app.Config.App.RateLimitRPS, app.Config.App.RateLimitBurst)

	// Unversioned paths match the original edge function names.
	router.POST("/answer", limit, answerHandler.Answer)
	router.POST("/description", limit, descriptionHandler.Describe)

	v1 := router.Group("/api/v1")
	v1.POST("/answer", limit, answerHandler.Answer)
	v1.POST("/description", limit, descriptionHandler.Describe)

	adminGroup := v1.Group("/admin")
	adminGroup.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret, adminScope))
	adminGroup.GET("/answers/:id", adminHandler.GetAnswer)
	adminGroup.GET("/page-stats", adminHandler.ListPageStats)

	return router
}
