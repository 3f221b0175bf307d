package handler

import (
	"leadhub/internal/approval/service"
	"leadhub/platform/httpkit"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	gate *service.Gate
}

func New(gate *service.Gate) *Handler {
	return &Handler{gate: gate}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	// GET serves the message buttons, POST serves programmatic integrations.
	rg.GET("/callback", h.Callback)
	rg.POST("/callback", h.Callback)
}

type callbackBody struct {
	Token    string `json:"token"`
	Approver string `json:"approver"`
}

// Callback resolves a decision token. The reply is success no matter what:
// the messaging platform retries on failure and a retry of an invalid or
// already-decided token can never succeed, so errors stay internal.
func (h *Handler) Callback(c *gin.Context) {
	rawToken := c.Query("token")
	approver := c.Query("approver")

	if rawToken == "" {
		var body callbackBody
		if err := c.ShouldBindJSON(&body); err == nil {
			rawToken = body.Token
			approver = body.Approver
		}
	}
	if approver == "" {
		approver = "approver"
	}

	if rawToken != "" {
		h.gate.Resolve(c.Request.Context(), rawToken, approver)
	}

	httpkit.OKMessage(c, "decision received", nil)
}
