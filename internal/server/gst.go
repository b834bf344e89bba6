package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	taxdomain "github.com/smallbiznis/gstbook/internal/tax/domain"
	taxservice "github.com/smallbiznis/gstbook/internal/tax/service"
)

type splitPreviewRequest struct {
	OriginStateCode      string                `json:"origin_state_code"`
	DestinationStateCode string                `json:"destination_state_code"`
	Items                []taxdomain.LineInput `json:"items"`
}

type updateHSNRateRequest struct {
	Description *string         `json:"description,omitempty"`
	Rate        *taxdomain.Rate `json:"rate,omitempty"`
}

func (s *Server) ListGSTRates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": taxdomain.Rates()})
}

// PreviewSplit computes a document split without persisting anything. The
// origin defaults to the business's registered state.
func (s *Server) PreviewSplit(c *gin.Context) {
	var req splitPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	origin := strings.TrimSpace(req.OriginStateCode)
	if origin == "" {
		origin = s.cfg.Business.StateCode
	}

	split, err := taxservice.ComputeDocumentSplit(req.Items, origin, strings.TrimSpace(req.DestinationStateCode))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": split})
}

func (s *Server) ListHSNRates(c *gin.Context) {
	var query struct {
		Code string `form:"code"`
		Rate string `form:"rate"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	rawRate, err := parseOptionalInt64(query.Rate)
	if err != nil {
		AbortWithError(c, newValidationError("rate", "invalid_rate", "invalid rate"))
		return
	}
	var rate *taxdomain.Rate
	if rawRate != nil {
		r := taxdomain.Rate(*rawRate)
		rate = &r
	}

	resp, err := s.taxSvc.List(c.Request.Context(), taxdomain.ListRequest{
		Code: strings.TrimSpace(query.Code),
		Rate: rate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateHSNRate(c *gin.Context) {
	var req taxdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.taxSvc.Create(c.Request.Context(), taxdomain.CreateRequest{
		Code:        strings.TrimSpace(req.Code),
		Description: strings.TrimSpace(req.Description),
		Rate:        req.Rate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) UpdateHSNRate(c *gin.Context) {
	var req updateHSNRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.taxSvc.Update(c.Request.Context(), taxdomain.UpdateRequest{
		ID:          strings.TrimSpace(c.Param("id")),
		Description: trimStringPtr(req.Description),
		Rate:        req.Rate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
