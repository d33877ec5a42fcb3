package dashboardhttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/hotelpulse/hotelpulse/internal/dashboard"
	"github.com/hotelpulse/hotelpulse/internal/dashboard/export"
	"github.com/hotelpulse/hotelpulse/internal/platform/httpx"
	"github.com/hotelpulse/hotelpulse/internal/shared"
	"github.com/hotelpulse/hotelpulse/internal/tenants"
)

const defaultRequestTimeout = 10 * time.Second

// Directory resolves the viewer and the hotels it may see.
type Directory interface {
	User(id string) (tenants.User, error)
	Hotels(u tenants.User) []tenants.Hotel
	ResolveHotels(u tenants.User, requested []string) ([]string, error)
}

// Recorder counts refresh outcomes.
type Recorder interface {
	ObserveRefresh(outcome string)
}

// Refresh outcomes reported to the Recorder.
const (
	OutcomeReady      = "ready"
	OutcomeRetained   = "retained"
	OutcomeEmptied    = "emptied"
	OutcomeSuperseded = "superseded"
)

// PDFRenderer converts an HTML document to PDF. Implemented by *report.Client.
type PDFRenderer interface {
	RenderHTML(ctx context.Context, html []byte) ([]byte, error)
}

// Config tunes the handler.
type Config struct {
	MaxPoints      int
	RequestTimeout time.Duration
}

// Handler serves the dashboard API.
type Handler struct {
	logger    *slog.Logger
	registry  *dashboard.Registry
	builder   dashboard.Builder
	directory Directory
	recorder  Recorder
	validate  *validator.Validate
	maxPoints int
	timeout   time.Duration
	bufPool   sync.Pool
	now       func() time.Time
	pdf       PDFRenderer
}

// NewHandler constructs the dashboard HTTP handler. Exports run through builder directly
// so they never replace the viewer's displayed model.
func NewHandler(logger *slog.Logger, registry *dashboard.Registry, builder dashboard.Builder, directory Directory, recorder Recorder, cfg Config) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		logger:    logger,
		registry:  registry,
		builder:   builder,
		directory: directory,
		recorder:  recorder,
		validate:  validator.New(),
		maxPoints: cfg.MaxPoints,
		timeout:   cfg.RequestTimeout,
		now:       time.Now,
	}
	if h.maxPoints <= 0 {
		h.maxPoints = dashboard.DefaultMaxPoints
	}
	if h.timeout <= 0 {
		h.timeout = defaultRequestTimeout
	}
	h.bufPool.New = func() any { return new(bytes.Buffer) }
	return h
}

// WithPDFRenderer enables the PDF export route.
func (h *Handler) WithPDFRenderer(pdf PDFRenderer) *Handler {
	h.pdf = pdf
	return h
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

type request struct {
	user    tenants.User
	query   dashboard.Query
	options dashboard.Options
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	req, ok := h.resolve(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	ctrl := h.registry.For(req.user.ID)
	snap, err := ctrl.Refresh(ctx, req.query, req.options)
	switch {
	case err == nil:
		h.observe(OutcomeReady)
		httpx.JSON(w, http.StatusOK, snap)
	case errors.Is(err, dashboard.ErrSuperseded):
		h.observe(OutcomeSuperseded)
		httpx.ProblemWith(w, http.StatusConflict, "Conflict", "a newer dashboard request replaced this one", snap)
	case errors.Is(err, dashboard.ErrInvalidRange):
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
	case snap.Retained || isUpstream(err):
		h.observe(OutcomeRetained)
		h.logger.Warn("dashboard refresh held previous model",
			slog.String("user_id", req.user.ID),
			slog.Any("error", err),
		)
		httpx.ProblemWith(w, http.StatusBadGateway, "Bad Gateway", "metrics service unavailable", snap)
	default:
		h.observe(OutcomeEmptied)
		h.logError("refresh dashboard", err)
		httpx.ProblemWith(w, http.StatusInternalServerError, "Internal Error", "", snap)
	}
}

func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	req, ok := h.resolve(w, r)
	if !ok {
		return
	}
	snap := h.registry.For(req.user.ID).Clear(req.query.Range, req.options)
	httpx.JSON(w, http.StatusOK, snap)
}

func (h *Handler) handleHotels(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, h.directory.Hotels(user))
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	h.handleExport(w, r, "text/csv; charset=utf-8", "csv", export.WriteCSV)
}

func (h *Handler) handleXLSX(w http.ResponseWriter, r *http.Request) {
	h.handleExport(w, r, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx", export.WriteXLSX)
}

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	h.handleExport(w, r, "application/pdf", "pdf", func(out io.Writer, model dashboard.Model) error {
		var html bytes.Buffer
		if err := export.WriteHTML(&html, model); err != nil {
			return err
		}
		pdf, err := h.pdf.RenderHTML(r.Context(), html.Bytes())
		if err != nil {
			return fmt.Errorf("%w: %v", httpx.ErrUpstream, err)
		}
		_, err = out.Write(pdf)
		return err
	})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request, contentType, ext string, write func(io.Writer, dashboard.Model) error) {
	req, ok := h.resolve(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cycle, err := h.builder.Build(ctx, req.query, req.options)
	if err != nil {
		if isUpstream(err) {
			httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrUpstream, err))
			return
		}
		h.handleServerError(w, "build export", err)
		return
	}

	buf := h.bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.bufPool.Put(buf)
	}()
	if err := write(buf, cycle.Model); err != nil {
		h.handleServerError(w, "write "+ext, err)
		return
	}

	filename := fmt.Sprintf("dashboard-%s-%s.%s",
		dashboard.FormatDay(req.query.Range.From), dashboard.FormatDay(req.query.Range.To), ext)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logError("stream "+ext, err)
	}
}

func (h *Handler) user(w http.ResponseWriter, r *http.Request) (tenants.User, bool) {
	id, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return tenants.User{}, false
	}
	user, err := h.directory.User(id.UserID)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrForbidden, err))
		return tenants.User{}, false
	}
	return user, true
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) (request, bool) {
	user, ok := h.user(w, r)
	if !ok {
		return request{}, false
	}
	filters, err := h.parseFilters(r)
	if err != nil {
		h.handleFilterError(w, err)
		return request{}, false
	}
	hotels, err := h.directory.ResolveHotels(user, filters.HotelIDs)
	if err != nil {
		if errors.Is(err, tenants.ErrForbiddenHotel) {
			httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrForbidden, err))
			return request{}, false
		}
		h.handleServerError(w, "resolve hotels", err)
		return request{}, false
	}
	id, _ := shared.IdentityFromContext(r.Context())
	return request{
		user: user,
		query: dashboard.Query{
			Range:      filters.Range,
			HotelIDs:   hotels,
			Credential: id.Credential,
		},
		options: dashboard.Options{
			MaxPoints: filters.MaxPoints,
			Language:  dashboard.MatchLanguage(r.Header.Get("Accept-Language")),
		},
	}, true
}

func (h *Handler) observe(outcome string) {
	if h.recorder != nil {
		h.recorder.ObserveRefresh(outcome)
	}
}

func isUpstream(err error) bool {
	return errors.Is(err, dashboard.ErrTransport) ||
		errors.Is(err, dashboard.ErrMalformedPayload) ||
		errors.Is(err, context.DeadlineExceeded)
}

func (h *Handler) handleFilterError(w http.ResponseWriter, err error) {
	var vErr validationError
	if errors.As(err, &vErr) {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, vErr.Error()))
		return
	}
	h.handleServerError(w, "parse filters", err)
}

func (h *Handler) handleServerError(w http.ResponseWriter, context string, err error) {
	h.logError(context, err)
	httpx.RespondError(w, err)
}

func (h *Handler) logError(context string, err error) {
	if h.logger != nil {
		h.logger.Error(context, slog.Any("error", err))
	}
}
