package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xavierca1/leadtrack/internal/entity"
)

// LeadService is the lead repository as seen by the dashboards: role-scoped
// reads and subscriptions plus the create/update paths of both forms.
type LeadService struct {
	repo   LeadRepository
	feed   ChangeFeed
	events EventPublisher
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// NewLeadService wires the service. feed and events may be nil: without a
// feed subscriptions deliver only their initial snapshot, without a
// publisher no lead events leave the process.
func NewLeadService(repo LeadRepository, feed ChangeFeed, events EventPublisher, logger *zap.Logger) *LeadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeadService{
		repo:   repo,
		feed:   feed,
		events: events,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Subscribe opens a live view of the leads in scope. A pending scope is
// refused without touching storage.
func (s *LeadService) Subscribe(ctx context.Context, scope entity.Scope) (*Subscription, error) {
	if !scope.Resolved() {
		return nil, ErrScopeUnresolved
	}
	return newSubscription(ctx, scope, s.repo, s.feed, s.logger)
}

// Fetch is a one-shot read of the leads in scope, newest first.
func (s *LeadService) Fetch(ctx context.Context, scope entity.Scope) ([]entity.Lead, error) {
	if !scope.Resolved() {
		return nil, ErrScopeUnresolved
	}
	leads, err := s.repo.FindByScope(ctx, scope)
	if err != nil {
		return nil, &StorageError{Op: "fetch leads", Err: err}
	}
	return leads, nil
}

func (s *LeadService) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	lead, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, entity.ErrLeadNotFound) {
		return nil, &DomainError{Code: CodeNotFound, Message: "lead not found"}
	}
	if err != nil {
		return nil, &StorageError{Op: "find lead", Err: err}
	}
	return lead, nil
}

// Create stores a new lead owned by salesID and returns its id. Unset
// optional fields are not written; status defaults to New.
func (s *LeadService) Create(ctx context.Context, salesID string, draft entity.LeadDraft) (string, error) {
	if salesID == "" {
		return "", ErrScopeUnresolved
	}
	status := draft.Status
	if status == "" {
		status = entity.StatusNew
	}
	lead := &entity.Lead{
		ID:           s.newID(),
		BusinessName: draft.BusinessName,
		OwnerName:    draft.OwnerName,
		Phone:        draft.Phone,
		Email:        draft.Email,
		LeadDetails:  draft.LeadDetails,
		Status:       status,
		SalesID:      salesID,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.repo.Insert(ctx, lead, draft.Document()); err != nil {
		s.logger.Error("lead create failed", zap.String("sales_id", salesID), zap.Error(err))
		return "", &StorageError{Op: "create lead", Err: err}
	}

	s.logger.Info("lead created", zap.String("lead_id", lead.ID), zap.String("sales_id", salesID), zap.String("status", string(status)))
	s.publish(ctx, entity.LeadEvent{
		Type:         entity.LeadCreated,
		LeadID:       lead.ID,
		SalesID:      salesID,
		Status:       status,
		BusinessName: lead.BusinessName,
		PlanAccepted: deref(lead.PlanAccepted),
	})
	return lead.ID, nil
}

// Update writes the set fields of patch. Creation time and owner are never
// touched; concurrent writers simply overwrite each other field by field.
func (s *LeadService) Update(ctx context.Context, id string, patch entity.LeadPatch) error {
	if patch.Status != nil && !patch.Status.Valid() {
		return &DomainError{Code: CodeValidation, Message: "invalid status: " + string(*patch.Status)}
	}
	fields := patch.Fields()
	if len(fields) == 0 && patch.Status == nil {
		return nil
	}

	err := s.repo.Update(ctx, id, fields, patch.Status)
	if errors.Is(err, entity.ErrLeadNotFound) {
		return &DomainError{Code: CodeNotFound, Message: "lead not found"}
	}
	if err != nil {
		s.logger.Error("lead update failed", zap.String("lead_id", id), zap.Error(err))
		return &StorageError{Op: "update lead", Err: err}
	}
	return nil
}

// CreateQuickLead stores a lead from the five-field quick form.
func (s *LeadService) CreateQuickLead(ctx context.Context, actor *entity.Account, input QuickLeadInput) (string, error) {
	if actor == nil {
		return "", ErrScopeUnresolved
	}
	if errs := ValidateQuickLeadInput(input); len(errs) > 0 {
		return "", validationFailed(errs)
	}
	return s.Create(ctx, actor.ID, input.draft())
}

// SaveFullLead creates a lead from the full form when leadID is empty and
// edits it otherwise. Only the owning sales account may edit. An accepted
// plan moves the lead to Interested on both paths.
func (s *LeadService) SaveFullLead(ctx context.Context, actor *entity.Account, leadID string, input FullLeadInput) (string, error) {
	if actor == nil {
		return "", ErrScopeUnresolved
	}
	if errs := ValidateFullLeadInput(input); len(errs) > 0 {
		return "", validationFailed(errs)
	}
	if leadID == "" {
		return s.Create(ctx, actor.ID, input.draft())
	}

	current, err := s.FindByID(ctx, leadID)
	if err != nil {
		return "", err
	}
	if current.SalesID != actor.ID {
		return "", &DomainError{Code: CodeForbidden, Message: "only the owning sales account can edit this lead"}
	}

	patch := input.patch()
	if err := s.Update(ctx, leadID, patch); err != nil {
		return "", err
	}

	status := current.Status
	if patch.Status != nil {
		status = *patch.Status
	}
	s.logger.Info("lead updated", zap.String("lead_id", leadID), zap.String("status", string(status)))
	s.publish(ctx, entity.LeadEvent{
		Type:         entity.LeadUpdated,
		LeadID:       leadID,
		SalesID:      current.SalesID,
		Status:       status,
		BusinessName: deref(patch.BusinessName),
		PlanAccepted: input.PlanAccepted && !deref(current.PlanAccepted),
	})
	return leadID, nil
}

// ChangeStatus is the inline status change of the admin dashboard.
func (s *LeadService) ChangeStatus(ctx context.Context, actor *entity.Account, leadID string, to entity.Status) error {
	if actor == nil {
		return ErrScopeUnresolved
	}
	if !actor.IsAdmin() {
		return &DomainError{Code: CodeForbidden, Message: "only admins can change lead status"}
	}

	current, err := s.FindByID(ctx, leadID)
	if err != nil {
		return err
	}
	if !entity.CanTransition(current.Status, to) {
		return &DomainError{Code: CodeValidation, Message: "invalid status: " + string(to)}
	}
	if err := s.Update(ctx, leadID, entity.LeadPatch{Status: &to}); err != nil {
		return err
	}

	s.logger.Info("lead status changed",
		zap.String("lead_id", leadID),
		zap.String("from", string(current.Status)),
		zap.String("to", string(to)),
		zap.String("by", actor.ID),
	)
	s.publish(ctx, entity.LeadEvent{
		Type:         entity.LeadStatusChanged,
		LeadID:       leadID,
		SalesID:      current.SalesID,
		Status:       to,
		BusinessName: current.BusinessName,
	})
	return nil
}

func (s *LeadService) publish(ctx context.Context, ev entity.LeadEvent) {
	if s.events == nil {
		return
	}
	ev.OccurredAt = s.now().UTC()
	if err := s.events.PublishLeadEvent(ctx, ev); err != nil {
		s.logger.Warn("lead event not published", zap.String("type", string(ev.Type)), zap.String("lead_id", ev.LeadID), zap.Error(err))
	}
}
