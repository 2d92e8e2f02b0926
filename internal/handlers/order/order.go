package order

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"taniconnect_back_end/internal/apperr"
	"taniconnect_back_end/internal/handlers"
	"taniconnect_back_end/internal/middleware"
	"taniconnect_back_end/internal/models"
	"taniconnect_back_end/internal/repository"
	"taniconnect_back_end/internal/services/orders"
)

type Creator interface {
	CreateOrder(ctx context.Context, buyer models.Principal, req orders.CreateOrderRequest) (*orders.Result, error)
}

type Reader interface {
	FindForBuyer(ctx context.Context, id, buyerID string) (*models.Order, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]models.Order, error)
}

type Handler struct {
	creator Creator
	reader  Reader
	stream  Subscriber
	origins map[string]bool
}

func NewHandler(creator Creator, reader Reader, stream Subscriber) *Handler {
	return &Handler{creator: creator, reader: reader, stream: stream}
}

// WithAllowedOrigins sets the browser origins allowed to open status
// streams, usually the CORS origins. Same-host origins are always allowed.
func (h *Handler) WithAllowedOrigins(origins []string) *Handler {
	h.origins = make(map[string]bool, len(origins))
	for _, o := range origins {
		h.origins[strings.TrimRight(o, "/")] = true
	}
	return h
}

// Create places an order from the submitted cart and returns the payment token.
func (h *Handler) Create(c *gin.Context) {
	buyer, ok := middleware.PrincipalFrom(c)
	if !ok {
		handlers.Error(c, &apperr.AuthError{Message: "You are not logged in. Please log in to get access."})
		return
	}

	var req orders.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.Error(c, apperr.Validation("Invalid request body",
			apperr.FieldError{Field: "body", Message: err.Error()}))
		return
	}

	res, err := h.creator.CreateOrder(c.Request.Context(), buyer, req)
	if err != nil {
		handlers.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":      "Order created successfully",
		"order":        res.Order,
		"paymentToken": res.PaymentToken,
	})
}

// List returns the caller's orders, newest first.
func (h *Handler) List(c *gin.Context) {
	buyer, ok := middleware.PrincipalFrom(c)
	if !ok {
		handlers.Error(c, &apperr.AuthError{Message: "You are not logged in. Please log in to get access."})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	list, err := h.reader.ListByBuyer(ctx, buyer.ID)
	if err != nil {
		handlers.Error(c, err)
		return
	}

	log.Printf("✅ %d orders found for buyer %s", len(list), buyer.ID)
	c.JSON(http.StatusOK, gin.H{"orders": list})
}

// Get returns one order if it belongs to the caller.
func (h *Handler) Get(c *gin.Context) {
	buyer, ok := middleware.PrincipalFrom(c)
	if !ok {
		handlers.Error(c, &apperr.AuthError{Message: "You are not logged in. Please log in to get access."})
		return
	}

	o, err := h.findOwned(c, c.Param("id"), buyer.ID)
	if err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": o})
}

func (h *Handler) findOwned(c *gin.Context, id, buyerID string) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	o, err := h.reader.FindForBuyer(ctx, id, buyerID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil, apperr.NotFound("order", id)
	}
	return o, err
}
