package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"domainlens/internal/platform/metrics"
	"domainlens/internal/platform/middleware"
	"domainlens/internal/registry/models"
	dErrors "domainlens/pkg/domain-errors"
	"domainlens/pkg/platform/httputil"
)

// DefaultRequestTimeout bounds one lookup request end to end. It matches the
// derived config default: three strategies exhausting 3x8s attempts with 1s
// delays, plus slack.
const DefaultRequestTimeout = 80 * time.Second

// Service defines the interface for lookup operations.
type Service interface {
	RDAP(ctx context.Context, rawDomain string, normalized bool) (*models.LookupResult, error)
	Whois(ctx context.Context, rawDomain string, raw bool) (*models.LookupResult, error)
}

// Handler serves the lookup endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
	metrics *metrics.Metrics
	timeout time.Duration
}

// New creates a new lookup Handler. A zero timeout uses DefaultRequestTimeout.
func New(service Service, logger *slog.Logger, metrics *metrics.Metrics, timeout time.Duration) *Handler {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &Handler{
		logger:  logger,
		service: service,
		metrics: metrics,
		timeout: timeout,
	}
}

// Register registers the lookup routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.Recovery(h.logger))
		r.Use(middleware.RequestID)
		r.Use(middleware.Logger(h.logger))
		r.Use(middleware.Timeout(h.timeout))
		r.Use(middleware.LatencyMiddleware(h.metrics))
		r.Get("/api/lookup", h.handleLookup)
		r.Get("/api/whois", h.handleWhois)
	})
}

// handleLookup returns the RDAP record, raw or normalized.
func (h *Handler) handleLookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	res, err := h.service.RDAP(ctx, q.Get("domain"), flag(q.Get("normalize")))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.LookupResponse{Domain: res.Domain, RDAP: res.Payload})
}

// handleWhois returns the canonical record, or every parsed field with raw=true.
func (h *Handler) handleWhois(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	res, err := h.service.Whois(ctx, q.Get("domain"), flag(q.Get("raw")))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.WhoisResponse{Domain: res.Domain, Whois: res.Payload})
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	if dErrors.HasCode(err, dErrors.CodeInvalidInput) {
		h.logger.WarnContext(ctx, "invalid lookup request",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}

func flag(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
