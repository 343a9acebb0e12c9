package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	eventdomain "github.com/pyar/asocmembers/internal/event/domain"
)

type pendingSponsoringsResponse struct {
	Sponsorings []eventdomain.PendingSponsoring `json:"sponsorings"`
}

func (s *Server) EventMoneyReport(c *gin.Context) {
	id, err := parseSnowflakeID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	report, err := s.eventSvc.MoneyReport(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// PendingSponsorings lists checked or partially paid sponsorings, optionally
// restricted to one event.
func (s *Server) PendingSponsorings(c *gin.Context) {
	var eventID *snowflake.ID
	if raw := c.Query("event_id"); raw != "" {
		id, err := parseSnowflakeID(raw)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		eventID = &id
	}

	pending, err := s.eventSvc.PendingSponsorings(c.Request.Context(), eventID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, pendingSponsoringsResponse{Sponsorings: pending})
}
