package handler

import (
	"net/http"

	"leadhub/internal/archive/service"
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
	rg.GET("", h.List)
	rg.POST("", h.Archive)
	rg.POST("/restore", h.Restore)
}

type markRequest struct {
	AssignmentID uuid.UUID `json:"assignmentId" validate:"required"`
	MerchantID   uuid.UUID `json:"merchantId" validate:"required"`
	UserID       uuid.UUID `json:"userId" validate:"required"`
}

func (h *Handler) Archive(c *gin.Context) {
	var req markRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	mark, err := h.svc.Archive(c.Request.Context(), req.AssignmentID, req.MerchantID, req.UserID)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.Created(c, gin.H{
		"assignmentId": mark.AssignmentID,
		"archivedBy":   mark.ArchivedBy,
		"archivedAt":   mark.ArchivedAt,
	})
}

func (h *Handler) Restore(c *gin.Context) {
	var req markRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	if err := h.svc.Restore(c.Request.Context(), req.AssignmentID, req.MerchantID, req.UserID); err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OKMessage(c, "assignment restored", nil)
}

func (h *Handler) List(c *gin.Context) {
	merchantID, err := uuid.Parse(c.Query("merchantId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "merchantId is required", nil)
		return
	}

	cases, err := h.svc.List(c.Request.Context(), merchantID)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, cases)
}
