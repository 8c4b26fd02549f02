package ws

import (
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"nearby-jobs/internal/domain/geo"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gorilla/websocket"
)

type Handler struct {
	hub      *Hub
	logger   *log.Logger
	upgrader websocket.Upgrader
}

// NewHandler upgrades /ws/jobs connections. With no origins every Origin is
// accepted; otherwise the Origin header must match one of them exactly.
func NewHandler(hub *Hub, logger *log.Logger, origins ...string) *Handler {
	allowed := map[string]bool{}
	for _, o := range origins {
		allowed[strings.TrimRight(strings.ToLower(o), "/")] = true
	}
	h := &Handler{hub: hub, logger: logger}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowed) == 0 {
				return true
			}
			return allowed[strings.ToLower(r.Header.Get("Origin"))]
		},
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	area, err := parseArea(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		if h.logger != nil {
			h.logger.Printf("[WS] Upgrade error origin=%q err=%v", r.Header.Get("Origin"), err)
		}
		return
	}

	client := NewClient(h.hub, conn, area)
	h.hub.Register(client)
	go client.WritePump()
	go client.ReadPump()
}

func (h *Handler) HandleJobsWS(c fiber.Ctx) error {
	if h == nil || h.hub == nil {
		return fiber.ErrServiceUnavailable
	}
	return adaptor.HTTPHandler(h)(c)
}

// parseArea reads the optional lat, lng and radius (km) parameters. All
// three are required once any of them is present.
func parseArea(q url.Values) (*geo.Circle, error) {
	lat, lng, radius := q.Get("lat"), q.Get("lng"), q.Get("radius")
	if lat == "" && lng == "" && radius == "" {
		return nil, nil
	}
	if lat == "" || lng == "" || radius == "" {
		return nil, errors.New("lat, lng and radius must be given together")
	}

	la, errLat := strconv.ParseFloat(lat, 64)
	ln, errLng := strconv.ParseFloat(lng, 64)
	if err := errors.Join(errLat, errLng); err != nil {
		return nil, geo.ErrInvalidCoordinate
	}
	center, err := geo.NewPoint(la, ln)
	if err != nil {
		return nil, err
	}
	r, err := strconv.ParseFloat(radius, 64)
	if err != nil {
		return nil, geo.ErrInvalidRadius
	}
	if err := geo.ValidateRadius(r); err != nil {
		return nil, err
	}
	return &geo.Circle{Center: center, RadiusKm: r}, nil
}
