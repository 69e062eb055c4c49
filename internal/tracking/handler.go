package tracking

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Infifrontend/SOAR-AI-V1/internal/pkg/logger"
)

// 1x1 transparent GIF
var pixelGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00,
	0x80, 0x00, 0x00, 0xff, 0xff, 0xff, 0x00, 0x00, 0x00, 0x2c,
	0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x02,
	0x02, 0x44, 0x01, 0x00, 0x3b,
}

// Handler exposes the public tracking endpoints hit by mail clients.
type Handler struct {
	svc         *Service
	fallbackURL string
}

// NewHandler creates a tracking handler. fallbackURL is where clicks land
// when the url parameter is missing or undecodable.
func NewHandler(svc *Service, fallbackURL string) *Handler {
	if fallbackURL == "" {
		fallbackURL = "https://soar-ai.com"
	}
	return &Handler{svc: svc, fallbackURL: fallbackURL}
}

// Routes mounts the tracking endpoints. Beacon URLs embedded in sent emails
// carry a trailing slash, so both forms are routed.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/track/open/{token}", h.HandleOpen)
	r.Get("/track/open/{token}/", h.HandleOpen)
	r.Get("/track/click/{token}", h.HandleClick)
	r.Get("/track/click/{token}/", h.HandleClick)
	r.Get("/health", h.HandleHealth)
	return r
}

// HandleOpen records an open event and serves the beacon. The response is
// the pixel no matter what happened during ingestion.
func (h *Handler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	h.svc.TrackOpen(r.Context(), token, r.UserAgent(), realIP(r))
	h.servePixel(w)
}

// HandleClick records a click event and redirects to the original
// destination carried in the url parameter. Unknown tokens land on the
// fallback URL instead of an arbitrary caller-supplied destination.
func (h *Handler) HandleClick(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	known := h.svc.TrackClick(r.Context(), token, r.UserAgent(), realIP(r))

	target := r.URL.Query().Get("url")
	if target == "" || !known {
		target = h.fallbackURL
	}

	logger.Debug("click redirect", "token", token, "url", target)
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// servePixel writes the beacon with no-cache headers so mail clients fetch
// it on every open instead of reusing a cached copy.
func (h *Handler) servePixel(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.Write(pixelGIF)
}

func realIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx > 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return xff
	}
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx > 0 {
		ip = ip[:idx]
	}
	return ip
}
