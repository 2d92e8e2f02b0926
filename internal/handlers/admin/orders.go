package admin

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"taniconnect_back_end/internal/apperr"
	"taniconnect_back_end/internal/handlers"
	"taniconnect_back_end/internal/models"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

type OrderSearcher interface {
	Search(ctx context.Context, query string, size int) ([]models.Order, error)
}

type EventLister interface {
	ListForOrder(ctx context.Context, orderID string, limit int) ([]models.PaymentEvent, error)
}

// Handler serves support tooling. Either dependency may be nil when its
// back end is not configured; the route then answers 503.
type Handler struct {
	search OrderSearcher
	events EventLister
}

func NewHandler(search OrderSearcher, events EventLister) *Handler {
	return &Handler{search: search, events: events}
}

// SearchOrders runs a full-text order search: GET /api/admin/orders/search?q=&limit=
func (h *Handler) SearchOrders(c *gin.Context) {
	if h.search == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Order search is not configured"})
		return
	}

	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		handlers.Error(c, apperr.Validation("Query is required",
			apperr.FieldError{Field: "q", Message: "is required"}))
		return
	}

	found, err := h.search.Search(c.Request.Context(), q, limit(c))
	if err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": found, "count": len(found)})
}

// PaymentEvents lists the gateway notifications recorded for one order.
func (h *Handler) PaymentEvents(c *gin.Context) {
	if h.events == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Payment audit trail is not configured"})
		return
	}

	events, err := h.events.ListForOrder(c.Request.Context(), c.Param("id"), limit(c))
	if err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}

func limit(c *gin.Context) int {
	n, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || n <= 0 {
		return defaultLimit
	}
	if n > maxLimit {
		return maxLimit
	}
	return n
}
