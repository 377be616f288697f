package server

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/cm-fl-mit/interaction-assess/internal/config"
	"github.com/cm-fl-mit/interaction-assess/internal/handler"
	"github.com/cm-fl-mit/interaction-assess/internal/repository"
	"github.com/cm-fl-mit/interaction-assess/internal/service"
)

// Server wires repositories, services and handlers onto a gin router.
type Server struct {
	router *gin.Engine
	logger *zap.Logger
}

func NewServer(db *sqlx.DB, cfg *config.Config, mirror service.AnnotationSink, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), CORS())

	s := &Server{
		router: router,
		logger: logger,
	}

	sliceRepo := repository.NewSliceRepository(db, logger)
	assignmentRepo := repository.NewAssignmentRepository(db, logger)
	annotationRepo := repository.NewAnnotationRepository(db, logger)

	allocator := service.NewAllocator(sliceRepo, assignmentRepo, cfg.Assignment.BatchSize, logger)
	annotations := service.NewAnnotationService(annotationRepo, mirror, logger)

	participantHandler := handler.NewParticipantHandler(allocator, logger)
	annotationHandler := handler.NewAnnotationHandler(annotations, logger)
	statsHandler := handler.NewStatsHandler(assignmentRepo, annotationRepo, logger)

	api := router.Group("/api")
	{
		api.GET("/participant/:id/slices", participantHandler.GetSlices)
		api.POST("/annotations", annotationHandler.Submit)
		api.GET("/export", annotationHandler.ExportCSV)
		api.GET("/stats", statsHandler.Stats)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	if cfg.Static.Dir != "" {
		router.Static("/static", cfg.Static.Dir)
		router.StaticFile("/", filepath.Join(cfg.Static.Dir, "index.html"))
	}

	return s
}

// Handler exposes the router for http.Server and tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// RequestID tags every request with an id for log correlation.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

// CORS allows the annotation frontend to be served from anywhere.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
