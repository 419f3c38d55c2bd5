package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/glpitrack/glpitrack/internal/glpi"
	"github.com/glpitrack/glpitrack/internal/models"
)

type glpiConfigRequest struct {
	BaseURL   string `json:"base_url" binding:"required"`
	AppToken  string `json:"app_token" binding:"required"`
	UserToken string `json:"user_token" binding:"required"`
}

// handleGetConfig handles GET /api/glpi-config. Token values are masked so
// the stored credentials never round-trip through the browser.
func (s *Server) handleGetConfig(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}

	cfg, err := s.configs.Load(userID)
	if err != nil {
		s.logger.Error("failed to load GLPI config", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load configuration"})
		return
	}
	if cfg == nil {
		c.JSON(http.StatusOK, gin.H{"configured": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"configured": true,
		"base_url":   cfg.BaseURL,
		"app_token":  maskToken(cfg.AppToken),
		"user_token": maskToken(cfg.UserToken),
		"updated_at": cfg.UpdatedAt,
	})
}

// handleSaveConfig handles PUT /api/glpi-config.
func (s *Server) handleSaveConfig(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}

	var req glpiConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "base_url, app_token and user_token are required"})
		return
	}

	cfg := &models.GLPIConfig{
		BaseURL:   glpi.NormalizeBaseURL(req.BaseURL),
		AppToken:  strings.TrimSpace(req.AppToken),
		UserToken: strings.TrimSpace(req.UserToken),
	}
	if err := s.configs.Save(userID, cfg); err != nil {
		s.logger.Error("failed to save GLPI config", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save configuration"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"configured": true, "base_url": cfg.BaseURL})
}

// handleDeleteConfig handles DELETE /api/glpi-config.
func (s *Server) handleDeleteConfig(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}

	if err := s.configs.Clear(userID); err != nil {
		s.logger.Error("failed to clear GLPI config", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete configuration"})
		return
	}
	c.Status(http.StatusNoContent)
}

// handleTestConnection handles POST /api/glpi-config/test. The credentials
// come from the request body so they can be verified before being saved.
func (s *Server) handleTestConnection(c *gin.Context) {
	if _, ok := s.userID(c); !ok {
		return
	}

	var req struct {
		glpiConfigRequest
		TestTicketID string `json:"test_ticket_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "base_url, app_token and user_token are required"})
		return
	}

	result := s.tracker.TestConnection(c.Request.Context(), &models.GLPIConfig{
		BaseURL:   glpi.NormalizeBaseURL(req.BaseURL),
		AppToken:  strings.TrimSpace(req.AppToken),
		UserToken: strings.TrimSpace(req.UserToken),
	}, req.TestTicketID)

	c.JSON(http.StatusOK, result)
}

func maskToken(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return "****" + token[len(token)-4:]
}
