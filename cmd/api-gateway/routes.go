package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/noah-isme/planucab-api/internal/handler"
	"github.com/noah-isme/planucab-api/pkg/config"
)

type handlers struct {
	events       *handler.EventHandler
	horarios     *handler.HorarioHandler
	evaluaciones *handler.EvaluacionHandler
	materias     *handler.MateriaHandler
	agenda       *handler.AgendaHandler
	metrics      *handler.MetricsHandler
}

func registerRoutes(r *gin.Engine, cfg *config.Config, h handlers) {
	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)
	r.GET("/metrics", h.metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	materias := api.Group("/materias")
	materias.GET("", h.materias.List)
	materias.GET("/:id", h.materias.Get)

	user := api.Group("/users/:userId")

	events := user.Group("/events")
	events.GET("", h.events.List)
	events.POST("", h.events.Create)
	events.GET("/:id", h.events.Get)
	events.PUT("/:id", h.events.Update)
	events.DELETE("/:id", h.events.Delete)

	horarios := user.Group("/horarios")
	horarios.GET("", h.horarios.List)
	horarios.POST("", h.horarios.Create)
	horarios.GET("/:id", h.horarios.Get)
	horarios.PUT("/:id", h.horarios.Update)
	horarios.DELETE("/:id", h.horarios.Delete)

	evaluaciones := user.Group("/evaluaciones")
	evaluaciones.GET("", h.evaluaciones.List)
	evaluaciones.POST("", h.evaluaciones.Create)
	evaluaciones.GET("/summary", h.evaluaciones.Summary)
	evaluaciones.GET("/:id", h.evaluaciones.Get)
	evaluaciones.PUT("/:id", h.evaluaciones.Update)
	evaluaciones.DELETE("/:id", h.evaluaciones.Delete)

	user.GET("/agenda", h.agenda.Agenda)
	user.GET("/agenda/export", h.agenda.Export)
}
