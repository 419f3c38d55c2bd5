package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/glpitrack/glpitrack/internal/middleware"
	"github.com/glpitrack/glpitrack/internal/repository"
	"github.com/glpitrack/glpitrack/internal/service"
)

// Server holds the handler dependencies and builds the HTTP router.
type Server struct {
	auth      *service.AuthService
	tracker   *service.TrackerService
	configs   repository.GLPIConfigRepository
	tickets   repository.TrackedTicketRepository
	columns   repository.KanbanColumnRepository
	reminders repository.ReminderRepository
	logger    *slog.Logger
}

// NewServer creates a server with all handler dependencies.
func NewServer(
	auth *service.AuthService,
	tracker *service.TrackerService,
	configs repository.GLPIConfigRepository,
	tickets repository.TrackedTicketRepository,
	columns repository.KanbanColumnRepository,
	reminders repository.ReminderRepository,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		auth:      auth,
		tracker:   tracker,
		configs:   configs,
		tickets:   tickets,
		columns:   columns,
		reminders: reminders,
		logger:    logger,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(s.logger))

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST("/api/auth/register", s.handleRegister)
	router.POST("/api/auth/login", s.handleLogin)

	authed := router.Group("/api", middleware.RequireAuth(s.auth))
	{
		authed.GET("/auth/me", s.handleMe)

		authed.GET("/glpi-config", s.handleGetConfig)
		authed.PUT("/glpi-config", s.handleSaveConfig)
		authed.DELETE("/glpi-config", s.handleDeleteConfig)
		authed.POST("/glpi-config/test", s.handleTestConnection)

		authed.GET("/tickets", s.handleListTickets)
		authed.POST("/tickets", s.handleTrackTicket)
		authed.GET("/tickets/:id", s.handleGetTicket)
		authed.POST("/tickets/:id/refresh", s.handleRefreshTicket)
		authed.PATCH("/tickets/:id", s.handleUpdateTicket)
		authed.DELETE("/tickets/:id", s.handleUntrackTicket)

		authed.GET("/kanban/columns", s.handleListColumns)
		authed.POST("/kanban/columns", s.handleCreateColumn)
		authed.PUT("/kanban/columns/reorder", s.handleReorderColumns)
		authed.PUT("/kanban/columns/:id", s.handleRenameColumn)
		authed.DELETE("/kanban/columns/:id", s.handleDeleteColumn)

		authed.GET("/reminders", s.handleListReminders)
		authed.POST("/reminders", s.handleCreateReminder)
		authed.DELETE("/reminders/:id", s.handleDeleteReminder)

		authed.GET("/monitor/groups", s.handleListGroups)
		authed.GET("/monitor/search", s.handleMonitorSearch)
	}

	return router
}

// userID returns the authenticated user ID or aborts with 401.
func (s *Server) userID(c *gin.Context) (int, bool) {
	id, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	}
	return id, ok
}

// glpiError maps GLPI-side failures onto an HTTP response. A missing
// configuration is the caller's problem; everything else is upstream.
func (s *Server) glpiError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrNotConfigured) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "GLPI is not configured"})
		return
	}
	s.logger.Error("GLPI request failed", "error", err)
	c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
}
