// Package http exposes the runtime's observer surface: the multiplexed
// event stream and a health probe. Command routes live with external
// collaborators, not here.
package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/broadcast"
)

// heartbeatInterval keeps idle SSE connections alive through proxies.
const heartbeatInterval = 15 * time.Second

// Handler serves the event stream.
type Handler struct {
	hub *broadcast.Hub
}

// NewServer creates the observer-facing HTTP server.
func NewServer(hub *broadcast.Hub) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	h := &Handler{hub: hub}
	e.GET("/healthz", h.Health)
	e.GET("/v1/events", h.StreamEvents)
	return e
}

// Health reports liveness.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// StreamEvents pushes every broadcast frame to the client as server-sent
// events until the client disconnects.
func (h *Handler) StreamEvents(c echo.Context) error {
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	events, unsubscribe := h.hub.Subscribe()
	defer unsubscribe()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-c.Request().Context().Done():
			return nil
		case <-heartbeat.C:
			if _, err := fmt.Fprint(res, ": heartbeat\n\n"); err != nil {
				return nil
			}
			res.Flush()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			data, err := json.Marshal(ev.Data)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(res, "id: %s\nevent: %s\ndata: %s\n\n", ev.ID, ev.Kind, data); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}
