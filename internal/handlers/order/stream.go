package order

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"taniconnect_back_end/internal/apperr"
	"taniconnect_back_end/internal/handlers"
	"taniconnect_back_end/internal/middleware"
	"taniconnect_back_end/internal/services/stream"
)

const pingInterval = 30 * time.Second

type Subscriber interface {
	Subscribe(ctx context.Context, orderID string) *redis.PubSub
}

// checkOrigin accepts requests without an Origin header (non-browser
// clients), same-host origins and the configured allowed origins.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if h.origins[strings.TrimRight(origin, "/")] {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// Stream upgrades to a websocket, sends the current status and then every
// status change published for the order.
func (h *Handler) Stream(c *gin.Context) {
	buyer, ok := middleware.PrincipalFrom(c)
	if !ok {
		handlers.Error(c, &apperr.AuthError{Message: "You are not logged in. Please log in to get access."})
		return
	}

	if !h.checkOrigin(c.Request) {
		log.Printf("⚠️ Status stream refused for origin %q", c.GetHeader("Origin"))
		handlers.Error(c, &apperr.AuthError{Forbidden: true, Message: "Origin not allowed"})
		return
	}

	o, err := h.findOwned(c, c.Param("id"), buyer.ID)
	if err != nil {
		handlers.Error(c, err)
		return
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request.Context()))
	defer cancel()

	// Subscribe before upgrading so no change published in between is lost.
	pubsub := h.stream.Subscribe(ctx, o.ID)
	defer pubsub.Close()
	if _, err := pubsub.Receive(ctx); err != nil {
		handlers.Error(c, err)
		return
	}

	upgrader := websocket.Upgrader{CheckOrigin: h.checkOrigin}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("❌ WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	if err := conn.WriteJSON(stream.StatusMessage{Type: "current", OrderID: o.ID, Status: o.Status}); err != nil {
		return
	}

	// The client never sends data; reading detects the close frame.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ch := pubsub.Channel()
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			update, err := stream.Decode(msg.Payload)
			if err != nil {
				log.Printf("⚠️ Dropping status message for %s: %v", o.ID, err)
				continue
			}
			if err := conn.WriteJSON(update); err != nil {
				log.Printf("❌ WebSocket write failed: %v", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
