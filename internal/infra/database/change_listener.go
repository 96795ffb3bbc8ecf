package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/xavierca1/leadtrack/internal/entity"
)

var ErrListenerClosed = errors.New("lead change listener closed")

type leadNotification struct {
	Op      string `json:"op"`
	ID      string `json:"id"`
	SalesID string `json:"sales_id"`
	Status  string `json:"status"`
}

func parseNotification(payload string) (entity.LeadEvent, error) {
	var n leadNotification
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		return entity.LeadEvent{}, fmt.Errorf("decode lead notification: %w", err)
	}
	ev := entity.LeadEvent{
		Type:       entity.LeadUpdated,
		LeadID:     n.ID,
		SalesID:    n.SalesID,
		Status:     entity.Status(n.Status),
		OccurredAt: time.Now().UTC(),
	}
	if n.Op == "INSERT" {
		ev.Type = entity.LeadCreated
	}
	return ev, nil
}

// LeadChangeListener turns NOTIFY messages from the leads trigger into lead
// events for every live subscription.
type LeadChangeListener struct {
	listener *pq.Listener
	logger   *zap.Logger
	fanout   *fanout
}

func NewLeadChangeListener(connString string, logger *zap.Logger) (*LeadChangeListener, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	report := func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.Warn("lead listener connection event", zap.Int("event", int(ev)), zap.Error(err))
		}
	}
	listener := pq.NewListener(connString, 500*time.Millisecond, 30*time.Second, report)
	if err := listener.Listen(LeadChangesChannel); err != nil {
		listener.Close()
		return nil, fmt.Errorf("listen %s: %w", LeadChangesChannel, err)
	}
	return &LeadChangeListener{listener: listener, logger: logger, fanout: newFanout()}, nil
}

// Run dispatches notifications until ctx ends. Subscriber channels are
// closed on return.
func (l *LeadChangeListener) Run(ctx context.Context) {
	defer l.fanout.closeAll()
	defer l.listener.Close()

	ping := time.NewTicker(90 * time.Second)
	defer ping.Stop()

	l.logger.Info("lead change listener started", zap.String("channel", LeadChangesChannel))
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-l.listener.Notify:
			if n == nil {
				// Reconnected: notifications sent while down are lost.
				l.fanout.broadcast(entity.LeadEvent{Type: entity.LeadResync, OccurredAt: time.Now().UTC()})
				continue
			}
			ev, err := parseNotification(n.Extra)
			if err != nil {
				l.logger.Warn("bad lead notification", zap.String("payload", n.Extra), zap.Error(err))
				ev = entity.LeadEvent{Type: entity.LeadResync, OccurredAt: time.Now().UTC()}
			}
			l.fanout.broadcast(ev)
		case <-ping.C:
			go func() {
				if err := l.listener.Ping(); err != nil {
					l.logger.Warn("lead listener ping failed", zap.Error(err))
				}
			}()
		}
	}
}

// Listen registers a subscriber until ctx ends.
func (l *LeadChangeListener) Listen(ctx context.Context) (<-chan entity.LeadEvent, error) {
	return l.fanout.subscribe(ctx)
}

// fanout delivers events to subscribers without blocking. Each subscriber
// holds at most one pending event; further events are dropped while it is
// full since a subscriber re-reads its whole scope on any event.
type fanout struct {
	mu     sync.Mutex
	subs   map[chan entity.LeadEvent]struct{}
	closed bool
}

func newFanout() *fanout {
	return &fanout{subs: map[chan entity.LeadEvent]struct{}{}}
}

func (f *fanout) subscribe(ctx context.Context) (<-chan entity.LeadEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, ErrListenerClosed
	}
	ch := make(chan entity.LeadEvent, 1)
	f.subs[ch] = struct{}{}

	go func() {
		<-ctx.Done()
		f.unsubscribe(ch)
	}()
	return ch, nil
}

func (f *fanout) unsubscribe(ch chan entity.LeadEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.subs[ch]; ok {
		delete(f.subs, ch)
		close(ch)
	}
}

func (f *fanout) broadcast(ev entity.LeadEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (f *fanout) closeAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subs {
		delete(f.subs, ch)
		close(ch)
	}
	f.closed = true
}

func (f *fanout) size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
