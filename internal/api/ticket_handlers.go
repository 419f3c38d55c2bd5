package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/glpitrack/glpitrack/internal/glpi"
	"github.com/glpitrack/glpitrack/internal/models"
	"github.com/glpitrack/glpitrack/internal/repository"
)

// handleListTickets handles GET /api/tickets.
func (s *Server) handleListTickets(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}

	tickets, err := s.tickets.List(userID)
	if err != nil {
		s.logger.Error("failed to list tracked tickets", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list tickets"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": tickets})
}

// handleTrackTicket handles POST /api/tickets. The ticket is fetched live
// from GLPI and its scalar projection stored for the board.
func (s *Server) handleTrackTicket(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}

	var req struct {
		TicketID string `json:"ticket_id" binding:"required"`
		ColumnID *int   `json:"column_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ticket_id is required"})
		return
	}

	ticket, err := s.tracker.FetchTicket(c.Request.Context(), userID, req.TicketID)
	if err != nil {
		s.glpiError(c, err)
		return
	}
	if ticket == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found in GLPI"})
		return
	}

	stored, err := s.tickets.Upsert(&models.TrackedTicket{
		UserID:        userID,
		TicketID:      ticket.ID,
		Title:         ticket.Title,
		Status:        ticket.Status,
		Priority:      ticket.Priority,
		Assignee:      ticket.Assignee,
		Requester:     ticket.Requester,
		HasNewUpdates: false,
		ColumnID:      req.ColumnID,
		GLPICreatedAt: ticket.CreatedAt,
		GLPIUpdatedAt: ticket.UpdatedAt,
	})
	if err != nil {
		s.logger.Error("failed to store tracked ticket", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store ticket"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ticket": stored, "detail": ticket})
}

// handleGetTicket handles GET /api/tickets/:id. Returns the live aggregated
// view, including the update timeline.
func (s *Server) handleGetTicket(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}
	ticketID := c.Param("id")

	tracked, err := s.tickets.Get(userID, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "ticket is not tracked"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load ticket"})
		return
	}

	detail, err := s.tracker.FetchTicket(c.Request.Context(), userID, ticketID)
	if err != nil {
		s.glpiError(c, err)
		return
	}
	if detail == nil {
		// Tracked locally but gone upstream; keep the stored projection.
		c.JSON(http.StatusOK, gin.H{"ticket": tracked, "detail": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ticket": tracked, "detail": detail})
}

// handleRefreshTicket handles POST /api/tickets/:id/refresh. Refetches the
// ticket and marks it updated when GLPI reports a newer modification time.
func (s *Server) handleRefreshTicket(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}
	ticketID := c.Param("id")

	tracked, err := s.tickets.Get(userID, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "ticket is not tracked"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load ticket"})
		return
	}

	detail, err := s.tracker.FetchTicket(c.Request.Context(), userID, ticketID)
	if err != nil {
		s.glpiError(c, err)
		return
	}
	if detail == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found in GLPI"})
		return
	}

	stored, err := s.tickets.Update(userID, ticketID, map[string]any{
		"title":           detail.Title,
		"status":          detail.Status,
		"priority":        detail.Priority,
		"assignee":        detail.Assignee,
		"requester":       detail.Requester,
		"glpi_updated_at": detail.UpdatedAt,
		"has_new_updates": hasNewerUpdate(tracked, detail),
	})
	if err != nil {
		s.logger.Error("failed to refresh tracked ticket", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to refresh ticket"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ticket": stored, "detail": detail})
}

// handleUpdateTicket handles PATCH /api/tickets/:id for board-local fields.
func (s *Server) handleUpdateTicket(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}
	ticketID := c.Param("id")

	var req map[string]any
	if err := c.ShouldBindJSON(&req); err != nil || len(req) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
		return
	}

	stored, err := s.tickets.Update(userID, ticketID, req)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "ticket is not tracked"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ticket": stored})
}

// handleUntrackTicket handles DELETE /api/tickets/:id.
func (s *Server) handleUntrackTicket(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}

	if err := s.tickets.Delete(userID, c.Param("id")); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "ticket is not tracked"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete ticket"})
		return
	}
	c.Status(http.StatusNoContent)
}

func hasNewerUpdate(tracked *models.TrackedTicket, detail *glpi.Ticket) bool {
	return detail.UpdatedAt != "" && detail.UpdatedAt != tracked.GLPIUpdatedAt
}
