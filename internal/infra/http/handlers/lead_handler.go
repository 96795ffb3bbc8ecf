package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xavierca1/leadtrack/internal/entity"
	"github.com/xavierca1/leadtrack/internal/infra/http/middleware"
	"github.com/xavierca1/leadtrack/internal/usecase"
)

type LeadUseCase interface {
	CreateQuickLead(ctx context.Context, actor *entity.Account, input usecase.QuickLeadInput) (string, error)
	SaveFullLead(ctx context.Context, actor *entity.Account, leadID string, input usecase.FullLeadInput) (string, error)
	ChangeStatus(ctx context.Context, actor *entity.Account, leadID string, to entity.Status) error
	FindByID(ctx context.Context, id string) (*entity.Lead, error)
}

type LeadHandler struct {
	leads LeadUseCase
}

func NewLeadHandler(leads LeadUseCase) *LeadHandler {
	return &LeadHandler{leads: leads}
}

type LeadCreatedResponse struct {
	ID string `json:"id"`
}

type StatusChangeRequest struct {
	Status string `json:"status"`
}

// CreateQuick handles POST /leads/quick.
func (h *LeadHandler) CreateQuick(w http.ResponseWriter, r *http.Request) {
	var input usecase.QuickLeadInput
	if !decodeJSON(w, r, &input) {
		return
	}

	id, err := h.leads.CreateQuickLead(r.Context(), actor(r), input)
	if err != nil {
		middleware.RecordLeadWrite("quick_create", "error")
		writeError(w, err)
		return
	}

	middleware.RecordLeadWrite("quick_create", "success")
	writeJSON(w, http.StatusCreated, LeadCreatedResponse{ID: id})
}

// CreateFull handles POST /leads.
func (h *LeadHandler) CreateFull(w http.ResponseWriter, r *http.Request) {
	var input usecase.FullLeadInput
	if !decodeJSON(w, r, &input) {
		return
	}

	id, err := h.leads.SaveFullLead(r.Context(), actor(r), "", input)
	if err != nil {
		middleware.RecordLeadWrite("full_create", "error")
		writeError(w, err)
		return
	}

	middleware.RecordLeadWrite("full_create", "success")
	writeJSON(w, http.StatusCreated, LeadCreatedResponse{ID: id})
}

// Get handles GET /leads/{id}: the lead and its full form pre-populated.
func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	acc := actor(r)
	lead, err := h.leads.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if !entity.ScopeFor(acc).Includes(*lead) {
		writeErrorResponse(w, http.StatusNotFound, usecase.CodeNotFound, "lead not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"lead": toLeadResponse(*lead),
		"form": usecase.FullLeadInputFrom(*lead),
	})
}

// Update handles PUT /leads/{id}, the full form edit.
func (h *LeadHandler) Update(w http.ResponseWriter, r *http.Request) {
	var input usecase.FullLeadInput
	if !decodeJSON(w, r, &input) {
		return
	}

	id, err := h.leads.SaveFullLead(r.Context(), actor(r), chi.URLParam(r, "id"), input)
	if err != nil {
		middleware.RecordLeadWrite("full_update", "error")
		writeError(w, err)
		return
	}

	middleware.RecordLeadWrite("full_update", "success")
	writeJSON(w, http.StatusOK, LeadCreatedResponse{ID: id})
}

// ChangeStatus handles PATCH /leads/{id}/status.
func (h *LeadHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusChangeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	status, err := entity.ParseStatus(req.Status)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, usecase.CodeValidation, err.Error())
		return
	}

	if err := h.leads.ChangeStatus(r.Context(), actor(r), chi.URLParam(r, "id"), status); err != nil {
		middleware.RecordLeadWrite("status_change", "error")
		writeError(w, err)
		return
	}

	middleware.RecordLeadWrite("status_change", "success")
	w.WriteHeader(http.StatusNoContent)
}

func actor(r *http.Request) *entity.Account {
	if sess := middleware.SessionFrom(r.Context()); sess != nil {
		return sess.Account()
	}
	return nil
}
