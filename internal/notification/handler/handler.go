package handler

import (
	"net/http"
	"strconv"

	"leadhub/internal/notification/service"
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
	rg.GET("/profile", h.GetProfile)
	rg.PUT("/profile", h.UpsertProfile)
	rg.POST("/messaging", h.LinkMessaging)
	rg.DELETE("/messaging", h.UnlinkMessaging)
	rg.POST("/push", h.RegisterPush)
	rg.DELETE("/push", h.RemovePush)
	rg.GET("/events", h.DeliveryLog)
}

func userAndMerchant(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, err := uuid.Parse(c.Query("userId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "userId is required", nil)
		return uuid.Nil, uuid.Nil, false
	}
	merchantID, err := uuid.Parse(c.Query("merchantId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "merchantId is required", nil)
		return uuid.Nil, uuid.Nil, false
	}
	return userID, merchantID, true
}

func (h *Handler) GetProfile(c *gin.Context) {
	userID, merchantID, ok := userAndMerchant(c)
	if !ok {
		return
	}

	profile, err := h.svc.Profile(c.Request.Context(), userID, merchantID)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, profile)
}

type upsertProfileRequest struct {
	UserID            uuid.UUID `json:"userId" validate:"required"`
	MerchantID        uuid.UUID `json:"merchantId" validate:"required"`
	Phone             string    `json:"phone" validate:"max=32"`
	MessagingEnabled  bool      `json:"messagingEnabled"`
	PushEnabled       bool      `json:"pushEnabled"`
	SMSEnabled        bool      `json:"smsEnabled"`
	AlertOptouts      []string  `json:"alertOptouts"`
	QuietStartMinutes *int      `json:"quietStartMinutes"`
	QuietEndMinutes   *int      `json:"quietEndMinutes"`
}

func (h *Handler) UpsertProfile(c *gin.Context) {
	var req upsertProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	profile, err := h.svc.UpsertProfile(c.Request.Context(), service.UpsertProfileParams{
		UserID:            req.UserID,
		MerchantID:        req.MerchantID,
		Phone:             req.Phone,
		MessagingEnabled:  req.MessagingEnabled,
		PushEnabled:       req.PushEnabled,
		SMSEnabled:        req.SMSEnabled,
		AlertOptouts:      req.AlertOptouts,
		QuietStartMinutes: req.QuietStartMinutes,
		QuietEndMinutes:   req.QuietEndMinutes,
	})
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, profile)
}

type linkMessagingRequest struct {
	UserID     uuid.UUID `json:"userId" validate:"required"`
	MerchantID uuid.UUID `json:"merchantId" validate:"required"`
	ExternalID string    `json:"externalId" validate:"required,max=128"`
}

func (h *Handler) LinkMessaging(c *gin.Context) {
	var req linkMessagingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	if err := h.svc.LinkMessagingIdentity(c.Request.Context(), req.UserID, req.MerchantID, req.ExternalID); err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OKMessage(c, "messaging identity linked", nil)
}

func (h *Handler) UnlinkMessaging(c *gin.Context) {
	userID, merchantID, ok := userAndMerchant(c)
	if !ok {
		return
	}

	if err := h.svc.UnlinkMessagingIdentity(c.Request.Context(), userID, merchantID); err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OKMessage(c, "messaging identity removed", nil)
}

type pushSubscriptionRequest struct {
	UserID     uuid.UUID `json:"userId" validate:"required"`
	MerchantID uuid.UUID `json:"merchantId" validate:"required"`
	Endpoint   string    `json:"endpoint" validate:"required,url"`
	P256dh     string    `json:"p256dh" validate:"required"`
	Auth       string    `json:"auth" validate:"required"`
}

func (h *Handler) RegisterPush(c *gin.Context) {
	var req pushSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	if err := h.svc.RegisterPushSubscription(c.Request.Context(), req.UserID, req.MerchantID, req.Endpoint, req.P256dh, req.Auth); err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.Created(c, gin.H{"endpoint": req.Endpoint})
}

func (h *Handler) RemovePush(c *gin.Context) {
	userID, merchantID, ok := userAndMerchant(c)
	if !ok {
		return
	}
	endpoint := c.Query("endpoint")
	if endpoint == "" {
		httpkit.Error(c, http.StatusBadRequest, "endpoint is required", nil)
		return
	}

	if err := h.svc.RemovePushSubscription(c.Request.Context(), userID, merchantID, endpoint); err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OKMessage(c, "push subscription removed", nil)
}

func (h *Handler) DeliveryLog(c *gin.Context) {
	merchantID, err := uuid.Parse(c.Query("merchantId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "merchantId is required", nil)
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	events, err := h.svc.DeliveryLog(c.Request.Context(), merchantID, limit)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, events)
}
