package handler

import (
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/johnquangdev/atc-shift-analyzer/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/atc-shift-analyzer/pkg/config"
	"github.com/johnquangdev/atc-shift-analyzer/pkg/jwt"
)

// Router holds all handlers
type Router struct {
	cfg                  *config.Config
	jwtManager           *jwt.Manager
	healthHandler        *Health
	shiftHandler         *Shift
	transcriptionHandler *Transcription
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, jwtManager *jwt.Manager, health *Health, shift *Shift, transcription *Transcription) *Router {
	return &Router{
		cfg:                  cfg,
		jwtManager:           jwtManager,
		healthHandler:        health,
		shiftHandler:         shift,
		transcriptionHandler: transcription,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", rt.healthHandler.Check)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// API v1 group
	v1 := e.Group("/v1")

	rt.setupShiftRoutes(v1)
	rt.setupTranscriptionRoutes(v1)
	rt.setupStatsRoutes(v1)
}

// protected returns the middleware chain guarding mutating routes
func (rt *Router) protected() []echo.MiddlewareFunc {
	if !rt.cfg.Server.AuthEnabled || rt.jwtManager == nil {
		return nil
	}
	return []echo.MiddlewareFunc{
		middleware.EchoAuth(rt.jwtManager),
		middleware.RequireRole(jwt.RoleSupervisor, jwt.RoleAdmin),
	}
}

// setupShiftRoutes configures shift and analysis routes
func (rt *Router) setupShiftRoutes(g *echo.Group) {
	shifts := g.Group("/shifts")
	guard := rt.protected()

	shifts.GET("", rt.shiftHandler.ListShifts)
	shifts.POST("", rt.shiftHandler.CreateShift, guard...)
	shifts.POST("/ingest", rt.transcriptionHandler.IngestShift, guard...)
	shifts.GET("/high-risk", rt.shiftHandler.HighRisk)
	shifts.GET("/attention/required", rt.shiftHandler.AttentionRequired)
	shifts.GET("/export", rt.shiftHandler.ExportShifts, guard...)

	shifts.GET("/:shift_id", rt.shiftHandler.GetShift)
	shifts.PATCH("/:shift_id", rt.shiftHandler.UpdateShift, guard...)
	shifts.DELETE("/:shift_id", rt.shiftHandler.DeleteShift, guard...)
	shifts.POST("/:shift_id/analyze", rt.shiftHandler.AnalyzeShift, guard...)
}

// setupTranscriptionRoutes configures transcription routes
func (rt *Router) setupTranscriptionRoutes(g *echo.Group) {
	transcriptions := g.Group("/transcriptions")

	transcriptions.GET("", rt.transcriptionHandler.ListTranscriptions)
	transcriptions.GET("/:shift_id", rt.transcriptionHandler.GetTranscription)
	transcriptions.POST("/:shift_id/retranscribe", rt.transcriptionHandler.Retranscribe, rt.protected()...)
}

// setupStatsRoutes configures aggregate count routes
func (rt *Router) setupStatsRoutes(g *echo.Group) {
	stats := g.Group("/stats")

	stats.GET("/shifts", rt.shiftHandler.ShiftStats)
	stats.GET("/transcriptions", rt.transcriptionHandler.TranscriptionStats)
}
