package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	ewaybilldomain "github.com/smallbiznis/gstbook/internal/ewaybill/domain"
	"github.com/smallbiznis/gstbook/pkg/db/pagination"
)

type activateEwayBillRequest struct {
	VehicleNumber string `json:"vehicle_number"`
}

type cancelEwayBillRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) GenerateEwayBill(c *gin.Context) {
	var req ewaybilldomain.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.InvoiceID = strings.TrimSpace(req.InvoiceID)

	resp, err := s.ewayBillSvc.Generate(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListEwayBills(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Status    string `form:"status"`
		InvoiceID string `form:"invoice_id"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.ewayBillSvc.List(c.Request.Context(), ewaybilldomain.ListRequest{
		Pagination: pagination.Pagination{
			PageToken: strings.TrimSpace(query.PageToken),
			PageSize:  query.PageSize,
		},
		Status:    strings.TrimSpace(query.Status),
		InvoiceID: strings.TrimSpace(query.InvoiceID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.EwayBills, "page_info": resp.PageInfo})
}

func (s *Server) GetEwayBillByID(c *gin.Context) {
	resp, err := s.ewayBillSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateEwayBill(c *gin.Context) {
	var req ewaybilldomain.EditInput
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.ewayBillSvc.Update(c.Request.Context(), ewaybilldomain.UpdateRequest{
		ID:        strings.TrimSpace(c.Param("id")),
		EditInput: req,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ActivateEwayBill(c *gin.Context) {
	var req activateEwayBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.ewayBillSvc.Activate(c.Request.Context(), ewaybilldomain.ActivateRequest{
		ID:            strings.TrimSpace(c.Param("id")),
		VehicleNumber: strings.TrimSpace(req.VehicleNumber),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CancelEwayBill(c *gin.Context) {
	var req cancelEwayBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.ewayBillSvc.Cancel(c.Request.Context(), ewaybilldomain.CancelRequest{
		ID:     strings.TrimSpace(c.Param("id")),
		Reason: strings.TrimSpace(req.Reason),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
