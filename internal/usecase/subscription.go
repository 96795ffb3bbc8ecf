package usecase

import (
	"context"
	"reflect"
	"sync"

	"go.uber.org/zap"

	"github.com/xavierca1/leadtrack/internal/entity"
)

// Subscription is a live, ordered view of the leads in one scope. A fresh
// snapshot is delivered after the initial read and after every remote
// change. Errors are terminal: Updates is closed and Err reports why.
type Subscription struct {
	scope   entity.Scope
	repo    LeadRepository
	logger  *zap.Logger
	updates chan []entity.Lead
	done    chan struct{}
	cancel  context.CancelFunc

	mu  sync.Mutex
	err error
}

func newSubscription(parent context.Context, scope entity.Scope, repo LeadRepository, feed ChangeFeed, logger *zap.Logger) (*Subscription, error) {
	ctx, cancel := context.WithCancel(parent)

	var events <-chan entity.LeadEvent
	if feed != nil {
		ch, err := feed.Listen(ctx)
		if err != nil {
			cancel()
			return nil, &StorageError{Op: "subscribe leads", Err: err}
		}
		events = ch
	}

	s := &Subscription{
		scope:   scope,
		repo:    repo,
		logger:  logger,
		updates: make(chan []entity.Lead, 1),
		done:    make(chan struct{}),
		cancel:  cancel,
	}
	go s.run(ctx, events)
	return s, nil
}

// Updates delivers snapshots ordered by creation time, newest first.
func (s *Subscription) Updates() <-chan []entity.Lead { return s.updates }

// Done is closed once the subscription has stopped.
func (s *Subscription) Done() <-chan struct{} { return s.done }

func (s *Subscription) Scope() entity.Scope { return s.scope }

// Cancel stops the subscription. It is safe to call more than once.
func (s *Subscription) Cancel() {
	s.cancel()
	<-s.done
}

// Err returns the terminal error, nil after a plain Cancel.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Subscription) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *Subscription) run(ctx context.Context, events <-chan entity.LeadEvent) {
	defer close(s.done)
	defer close(s.updates)

	var last []entity.Lead
	delivered := false

	refresh := func() bool {
		leads, err := s.repo.FindByScope(ctx, s.scope)
		if err != nil {
			if ctx.Err() != nil {
				return false
			}
			s.logger.Error("lead subscription failed", zap.String("scope", s.scope.String()), zap.Error(err))
			s.fail(&StorageError{Op: "subscribe leads", Err: err})
			return false
		}
		if leads == nil {
			leads = []entity.Lead{}
		}
		if delivered && reflect.DeepEqual(last, leads) {
			return true
		}
		select {
		case s.updates <- leads:
		case <-ctx.Done():
			return false
		}
		last, delivered = leads, true
		return true
	}

	if !refresh() {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-events:
			if !ok {
				if ctx.Err() == nil {
					s.fail(&StorageError{Op: "subscribe leads", Err: errFeedClosed})
				}
				return
			}
			if !refresh() {
				return
			}
		}
	}
}
