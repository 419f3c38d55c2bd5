package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/glpitrack/glpitrack/internal/models"
	"github.com/glpitrack/glpitrack/internal/repository"
)

// handleListReminders handles GET /api/reminders.
func (s *Server) handleListReminders(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}

	reminders, err := s.reminders.List(userID)
	if err != nil {
		s.logger.Error("failed to list reminders", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list reminders"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reminders": reminders})
}

// handleCreateReminder handles POST /api/reminders.
func (s *Server) handleCreateReminder(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}

	var req struct {
		TicketID string    `json:"ticket_id" binding:"required"`
		Phone    string    `json:"phone" binding:"required"`
		Message  string    `json:"message" binding:"required"`
		RemindAt time.Time `json:"remind_at" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ticket_id, phone, message and remind_at are required"})
		return
	}
	if req.RemindAt.Before(time.Now()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "remind_at must be in the future"})
		return
	}

	reminder := &models.Reminder{
		ID:       uuid.NewString(),
		UserID:   userID,
		TicketID: req.TicketID,
		Phone:    req.Phone,
		Message:  req.Message,
		RemindAt: req.RemindAt.UTC(),
	}
	if err := s.reminders.Create(reminder); err != nil {
		s.logger.Error("failed to create reminder", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create reminder"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"reminder": reminder})
}

// handleDeleteReminder handles DELETE /api/reminders/:id.
func (s *Server) handleDeleteReminder(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}

	if err := s.reminders.Delete(userID, c.Param("id")); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "reminder not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete reminder"})
		return
	}
	c.Status(http.StatusNoContent)
}
