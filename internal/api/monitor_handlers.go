package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// handleListGroups handles GET /api/monitor/groups.
func (s *Server) handleListGroups(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}

	groups, err := s.tracker.ListGroups(c.Request.Context(), userID)
	if err != nil {
		s.glpiError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

// handleMonitorSearch handles GET /api/monitor/search. Dates are
// YYYY-MM-DD and both boundary days are included; group is optional.
func (s *Server) handleMonitorSearch(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}

	dateFrom := c.Query("date_from")
	dateTo := c.Query("date_to")
	if dateFrom == "" || dateTo == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date_from and date_to are required"})
		return
	}

	var groupID *int
	if raw := c.Query("group_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group_id"})
			return
		}
		groupID = &id
	}

	tickets, err := s.tracker.SearchTickets(c.Request.Context(), userID, groupID, dateFrom, dateTo)
	if err != nil {
		s.glpiError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": tickets, "count": len(tickets)})
}
