package handler

import (
	"net/http"

	"leadhub/internal/leads/service"
	"leadhub/internal/leads/transport"
	"leadhub/platform/httpkit"
	"leadhub/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/deliver", h.Deliver)
	rg.GET("/delivered", h.ListDelivered)
	rg.GET("/competitors", h.Competitors)
	rg.GET("/:id", h.GetCase)
	rg.POST("/status", h.UpdateDetailStatus)
	rg.POST("/report", h.SubmitContractReport)
	rg.POST("/contact", h.RecordContact)
	rg.POST("/schedule", h.SetSchedule)
}

func merchantIDQuery(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Query("merchantId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "merchantId is required", nil)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) Deliver(c *gin.Context) {
	var req transport.DeliverLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	caseResp, err := h.svc.DeliverLead(c.Request.Context(), req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.Created(c, caseResp)
}

func (h *Handler) ListDelivered(c *gin.Context) {
	merchantID, ok := merchantIDQuery(c)
	if !ok {
		return
	}
	includeArchived := c.Query("includeArchived") == "true"

	cases, err := h.svc.ListDeliveredCases(c.Request.Context(), merchantID, includeArchived)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, cases)
}

func (h *Handler) GetCase(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	merchantID, ok := merchantIDQuery(c)
	if !ok {
		return
	}

	caseResp, contacts, err := h.svc.GetCase(c.Request.Context(), id, merchantID)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, gin.H{"case": caseResp, "contacts": contacts})
}

func (h *Handler) Competitors(c *gin.Context) {
	leadID, err := uuid.Parse(c.Query("cvId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "cvId is required", nil)
		return
	}
	merchantID, ok := merchantIDQuery(c)
	if !ok {
		return
	}

	summary, err := h.svc.CompetitorActivity(c.Request.Context(), leadID, merchantID)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, summary)
}

func (h *Handler) UpdateDetailStatus(c *gin.Context) {
	var req transport.UpdateDetailStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	caseResp, err := h.svc.UpdateDetailStatus(c.Request.Context(), req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, caseResp)
}

func (h *Handler) SubmitContractReport(c *gin.Context) {
	var req transport.ContractReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	caseResp, err := h.svc.SubmitContractReport(c.Request.Context(), req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, caseResp)
}

func (h *Handler) RecordContact(c *gin.Context) {
	var req transport.RecordContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	log, err := h.svc.RecordContact(c.Request.Context(), req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.Created(c, log)
}

func (h *Handler) SetSchedule(c *gin.Context) {
	var req transport.SetScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	caseResp, err := h.svc.SetSchedule(c.Request.Context(), req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, caseResp)
}
