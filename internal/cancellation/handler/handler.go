package handler

import (
	"net/http"

	"leadhub/internal/cancellation/service"
	"leadhub/internal/cancellation/transport"
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
	rg.GET("/eligibility", h.Eligibility)
	rg.GET("/:id", h.GetRequest)
	rg.POST("", h.Submit)
}

func (h *Handler) Eligibility(c *gin.Context) {
	assignmentID, err := uuid.Parse(c.Query("assignmentId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "assignmentId is required", nil)
		return
	}
	merchantID, err := uuid.Parse(c.Query("merchantId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "merchantId is required", nil)
		return
	}

	resp, err := h.svc.Eligibility(c.Request.Context(), assignmentID, merchantID)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) Submit(c *gin.Context) {
	var req transport.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	resp, err := h.svc.Submit(c.Request.Context(), req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.Created(c, resp)
}

func (h *Handler) GetRequest(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	resp, err := h.svc.GetRequest(c.Request.Context(), id)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, resp)
}
