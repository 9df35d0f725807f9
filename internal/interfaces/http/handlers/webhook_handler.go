package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"member-care.backend/internal/infrastructure/gateway"
	"member-care.backend/internal/usecases"
	"member-care.backend/pkg/logger"
)

// SignatureHeader carries the gateway's HMAC over the raw payload
const SignatureHeader = "Stripe-Signature"

// EventProcessor is the reconciliation surface the webhook endpoint needs
type EventProcessor interface {
	ProcessEvent(ctx context.Context, event *usecases.WebhookEvent) error
}

// WebhookHandler receives gateway lifecycle notifications
type WebhookHandler struct {
	reconciler    EventProcessor
	webhookSecret string
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(reconciler EventProcessor, webhookSecret string) *WebhookHandler {
	return &WebhookHandler{
		reconciler:    reconciler,
		webhookSecret: webhookSecret,
	}
}

// HandleWebhook verifies and processes one gateway event
// POST /webhook
//
// The signature is checked over the raw body before any parsing. 4xx means
// the delivery itself is bad and must not be retried; 5xx asks the gateway
// to redeliver.
func (h *WebhookHandler) HandleWebhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read request body"})
		return
	}

	if err := gateway.VerifySignature(payload, c.GetHeader(SignatureHeader), h.webhookSecret, gateway.DefaultSignatureTolerance); err != nil {
		logger.Warn(c.Request.Context(), "webhook signature rejected", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	var envelope struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			Object json.RawMessage `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed event payload"})
		return
	}

	event := &usecases.WebhookEvent{
		ID:     envelope.ID,
		Type:   envelope.Type,
		Object: envelope.Data.Object,
	}
	if err := h.reconciler.ProcessEvent(c.Request.Context(), event); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "event processing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
