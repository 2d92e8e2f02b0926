package webhooks

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"taniconnect_back_end/internal/apperr"
	"taniconnect_back_end/internal/handlers"
)

const maxBodyBytes = int64(65536)

type Processor interface {
	HandleMidtrans(ctx context.Context, body []byte) (string, error)
	HandleStripe(ctx context.Context, body []byte, signatureHeader string) (string, error)
}

type Handler struct {
	processor Processor
}

func NewHandler(p Processor) *Handler {
	return &Handler{processor: p}
}

// Midtrans acknowledges with a plain "OK" once the notification is applied.
func (h *Handler) Midtrans(c *gin.Context) {
	body, ok := readBody(c)
	if !ok {
		return
	}

	outcome, err := h.processor.HandleMidtrans(c.Request.Context(), body)
	if err != nil {
		handlers.Error(c, err)
		return
	}

	log.Printf("📥 Midtrans notification processed: %s", outcome)
	c.String(http.StatusOK, "OK")
}

func (h *Handler) Stripe(c *gin.Context) {
	body, ok := readBody(c)
	if !ok {
		return
	}

	outcome, err := h.processor.HandleStripe(c.Request.Context(), body, c.GetHeader("Stripe-Signature"))
	if err != nil {
		handlers.Error(c, err)
		return
	}

	log.Printf("📥 Stripe event processed: %s", outcome)
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func readBody(c *gin.Context) ([]byte, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	body, err := c.GetRawData()
	if err != nil {
		log.Printf("❌ Failed to read webhook body: %v", err)
		handlers.Error(c, apperr.Validation("Failed to read request body"))
		return nil, false
	}
	return body, true
}
