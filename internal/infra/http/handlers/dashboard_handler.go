package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/xavierca1/leadtrack/internal/entity"
	"github.com/xavierca1/leadtrack/internal/infra/http/middleware"
	"github.com/xavierca1/leadtrack/internal/usecase"
)

type DashboardUseCase interface {
	Sales(ctx context.Context, acc *entity.Account, query string) (*usecase.SalesDashboard, error)
	Admin(ctx context.Context, acc *entity.Account, filter usecase.LeadFilter) (*usecase.AdminDashboard, error)
	Directory(ctx context.Context) (usecase.OwnerDirectory, error)
}

type LeadSubscriber interface {
	Subscribe(ctx context.Context, scope entity.Scope) (*usecase.Subscription, error)
}

type DashboardHandler struct {
	dashboards DashboardUseCase
	leads      LeadSubscriber
	logger     *zap.Logger
}

func NewDashboardHandler(dashboards DashboardUseCase, leads LeadSubscriber, logger *zap.Logger) *DashboardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardHandler{dashboards: dashboards, leads: leads, logger: logger}
}

// Sales handles GET /dashboard?q=.
func (h *DashboardHandler) Sales(w http.ResponseWriter, r *http.Request) {
	view, err := h.dashboards.Sales(r.Context(), actor(r), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSalesDashboardResponse(view))
}

// Admin handles GET /admin?q=&salesId=&status=.
func (h *DashboardHandler) Admin(w http.ResponseWriter, r *http.Request) {
	filter, ok := adminFilter(w, r)
	if !ok {
		return
	}
	view, err := h.dashboards.Admin(r.Context(), actor(r), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAdminDashboardResponse(view))
}

// SalesPeople handles GET /admin/sales-people, the owner filter options.
func (h *DashboardHandler) SalesPeople(w http.ResponseWriter, r *http.Request) {
	dir, err := h.dashboards.Directory(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	people := dir.People()
	if people == nil {
		people = []entity.Account{}
	}
	writeJSON(w, http.StatusOK, people)
}

// SalesStream handles GET /dashboard/stream: a server-sent event per
// snapshot of the caller's own leads.
func (h *DashboardHandler) SalesStream(w http.ResponseWriter, r *http.Request) {
	acc := actor(r)
	query := r.URL.Query().Get("q")
	h.stream(w, r, "sales", entity.ScopeFor(acc), func(leads []entity.Lead) any {
		return toSalesDashboardResponse(usecase.BuildSalesDashboard(acc, leads, query))
	})
}

// AdminStream handles GET /admin/stream. Owner names are resolved once when
// the stream opens.
func (h *DashboardHandler) AdminStream(w http.ResponseWriter, r *http.Request) {
	acc := actor(r)
	filter, ok := adminFilter(w, r)
	if !ok {
		return
	}
	dir, err := h.dashboards.Directory(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	h.stream(w, r, "admin", entity.AllLeads(), func(leads []entity.Lead) any {
		return toAdminDashboardResponse(usecase.BuildAdminDashboard(acc, leads, dir, filter))
	})
}

func (h *DashboardHandler) stream(w http.ResponseWriter, r *http.Request, view string, scope entity.Scope, render func([]entity.Lead) any) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeErrorResponse(w, http.StatusInternalServerError, "STREAMING_UNSUPPORTED", "streaming is not supported")
		return
	}

	sub, err := h.leads.Subscribe(r.Context(), scope)
	if err != nil {
		writeError(w, err)
		return
	}
	defer sub.Cancel()
	defer middleware.TrackStream(view)()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for leads := range sub.Updates() {
		if err := writeEvent(w, "leads", render(leads)); err != nil {
			return
		}
		flusher.Flush()
	}

	if err := sub.Err(); err != nil {
		h.logger.Warn("lead stream ended", zap.String("view", view), zap.String("scope", scope.String()), zap.Error(err))
		writeEvent(w, "error", errorResponse{Error: "STORAGE_ERROR", Message: "live updates stopped, reload to resubscribe"})
		flusher.Flush()
	}
}

func writeEvent(w http.ResponseWriter, event string, data any) error {
	body, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, body)
	return err
}

func adminFilter(w http.ResponseWriter, r *http.Request) (usecase.LeadFilter, bool) {
	q := r.URL.Query()
	filter := usecase.LeadFilter{Query: q.Get("q"), SalesID: q.Get("salesId")}
	if s := q.Get("status"); s != "" {
		status, err := entity.ParseStatus(s)
		if err != nil {
			writeErrorResponse(w, http.StatusBadRequest, usecase.CodeValidation, err.Error())
			return filter, false
		}
		filter.Status = status
	}
	return filter, true
}
