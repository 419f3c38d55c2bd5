package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/glpitrack/glpitrack/internal/repository"
)

// handleListColumns handles GET /api/kanban/columns.
func (s *Server) handleListColumns(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}

	columns, err := s.columns.List(userID)
	if err != nil {
		s.logger.Error("failed to list columns", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list columns"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"columns": columns})
}

// handleCreateColumn handles POST /api/kanban/columns.
func (s *Server) handleCreateColumn(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	column, err := s.columns.Create(userID, strings.TrimSpace(req.Name))
	if err != nil {
		s.logger.Error("failed to create column", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create column"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"column": column})
}

// handleRenameColumn handles PUT /api/kanban/columns/:id.
func (s *Server) handleRenameColumn(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}

	columnID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid column ID"})
		return
	}

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	if err := s.columns.Rename(userID, columnID, strings.TrimSpace(req.Name)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "column not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to rename column"})
		return
	}
	c.Status(http.StatusNoContent)
}

// handleReorderColumns handles PUT /api/kanban/columns/reorder. The body
// carries the full column ID list in the desired order.
func (s *Server) handleReorderColumns(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}

	var req struct {
		ColumnIDs []int `json:"column_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || len(req.ColumnIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "column_ids is required"})
		return
	}

	if err := s.columns.Reorder(userID, req.ColumnIDs); err != nil {
		s.logger.Error("failed to reorder columns", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reorder columns"})
		return
	}
	c.Status(http.StatusNoContent)
}

// handleDeleteColumn handles DELETE /api/kanban/columns/:id. Tickets in the
// column fall back to the unassigned lane.
func (s *Server) handleDeleteColumn(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}

	columnID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid column ID"})
		return
	}

	if err := s.columns.Delete(userID, columnID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "column not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete column"})
		return
	}
	c.Status(http.StatusNoContent)
}
