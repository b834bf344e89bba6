package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/gstbook/internal/statecode"
)

type validateGSTINRequest struct {
	GSTIN string `json:"gstin"`
}

type validateGSTINResponse struct {
	GSTIN     string `json:"gstin"`
	Valid     bool   `json:"valid"`
	StateCode string `json:"state_code,omitempty"`
	StateName string `json:"state_name,omitempty"`
}

func (s *Server) ListStates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": statecode.All()})
}

func (s *Server) GetState(c *gin.Context) {
	code := statecode.NormalizeCode(c.Param("code"))
	name, ok := statecode.StateForCode(code)
	if !ok {
		AbortWithError(c, ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": statecode.StateCode{Name: name, Code: code}})
}

// ValidateGSTIN is structural only; it never reports whether the GSTIN is registered.
func (s *Server) ValidateGSTIN(c *gin.Context) {
	var req validateGSTINRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	value := statecode.NormalizeGSTIN(strings.TrimSpace(req.GSTIN))
	resp := validateGSTINResponse{GSTIN: value, Valid: statecode.ValidateGSTIN(value)}
	if resp.Valid {
		resp.StateCode, _ = statecode.StateCodeFromGSTIN(value)
		resp.StateName, _ = statecode.StateForCode(resp.StateCode)
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
