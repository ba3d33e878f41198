package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"koperasi-bci/internal/core/domain"
	"koperasi-bci/internal/core/services"

	"github.com/gofiber/fiber/v2"
)

// EventHandler handles the server-sent events stream
type EventHandler struct {
	notifyService *services.NotificationService
}

// NewEventHandler creates a new event handler
func NewEventHandler(notifyService *services.NotificationService) *EventHandler {
	return &EventHandler{notifyService: notifyService}
}

// Stream opens an SSE connection for the authenticated member
// @Summary Subscribe to events
// @Description Open a server-sent events stream for loan and payment notifications
// @Tags Events
// @Produce text/event-stream
// @Security BearerAuth
// @Success 200 {string} string "event stream"
// @Router /events [get]
func (h *EventHandler) Stream(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return fiber.ErrUnauthorized
	}
	role, _ := c.Locals("role").(string)

	clientID := fmt.Sprintf("user-%d-%d", userID, time.Now().UnixNano())

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("Transfer-Encoding", "chunked")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		client := &services.SSEClient{
			ID:      clientID,
			UserID:  userID,
			Role:    domain.Role(role),
			Channel: make(chan services.SSEEvent, 50),
		}

		h.notifyService.Hub.Register(client)
		defer h.notifyService.Hub.Unregister(clientID)

		// Send initial connection event
		fmt.Fprintf(w, "event: connected\ndata: {\"client_id\":\"%s\"}\n\n", clientID)
		w.Flush()

		// Heartbeat ticker
		heartbeat := time.NewTicker(30 * time.Second)
		defer heartbeat.Stop()

		for {
			select {
			case event, ok := <-client.Channel:
				if !ok {
					return
				}
				writeSSEEvent(w, event)
				if err := w.Flush(); err != nil {
					return
				}

			case <-heartbeat.C:
				fmt.Fprintf(w, ": heartbeat\n\n")
				if err := w.Flush(); err != nil {
					log.Printf("📡 SSE client disconnected: %s", clientID)
					return
				}
			}
		}
	})

	return nil
}

// writeSSEEvent writes a formatted SSE event to the writer
func writeSSEEvent(w *bufio.Writer, event services.SSEEvent) {
	fmt.Fprintf(w, "event: %s\n", event.Event)

	data, err := json.Marshal(event.Data)
	if err != nil {
		fmt.Fprintf(w, "data: {}\n\n")
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}
