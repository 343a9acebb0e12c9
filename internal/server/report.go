package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pyar/asocmembers/internal/calendar"
	debtdomain "github.com/pyar/asocmembers/internal/debt/domain"
)

type debtReportResponse struct {
	Limit   calendar.YearMonth  `json:"limit"`
	Debtors []debtdomain.Debtor `json:"debtors"`
}

func (s *Server) DebtReport(c *gin.Context) {
	limit, err := s.debtLimit(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	debtors, err := s.debtSvc.Report(c.Request.Context(), limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, debtReportResponse{Limit: limit, Debtors: debtors})
}
