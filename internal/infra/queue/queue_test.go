package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/leadtrack/internal/entity"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	args := m.Called(ctx, exchange, key, mandatory, immediate, msg)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyNewLead(ctx context.Context, ev entity.LeadEvent) error {
	return m.Called(ctx, ev).Error(0)
}

func (m *MockNotifier) NotifyPlanAccepted(ctx context.Context, ev entity.LeadEvent) error {
	return m.Called(ctx, ev).Error(0)
}

type fakeAcknowledger struct {
	acked, nacked, requeued bool
}

func (a *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	a.acked = true
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	a.nacked, a.requeued = true, requeue
	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	a.nacked, a.requeued = true, requeue
	return nil
}

func delivery(t *testing.T, ev entity.LeadEvent) (amqp.Delivery, *fakeAcknowledger) {
	t.Helper()
	body, err := json.Marshal(ev)
	require.NoError(t, err)
	ack := &fakeAcknowledger{}
	return amqp.Delivery{Acknowledger: ack, Body: body}, ack
}

func TestPublishLeadEventRoutesByType(t *testing.T) {
	ctx := context.Background()
	pub := new(MockPublisher)
	ev := entity.LeadEvent{Type: entity.LeadStatusChanged, LeadID: "l1", SalesID: "s1", Status: entity.StatusClosed, OccurredAt: time.Now()}

	pub.On("PublishWithContext", ctx, ExchangeName, "lead.status_changed", false, false, mock.MatchedBy(func(msg amqp.Publishing) bool {
		var got entity.LeadEvent
		return json.Unmarshal(msg.Body, &got) == nil &&
			got.LeadID == "l1" &&
			msg.DeliveryMode == amqp.Persistent &&
			msg.ContentType == "application/json"
	})).Return(nil)

	require.NoError(t, NewProducer(pub).PublishLeadEvent(ctx, ev))
	pub.AssertExpectations(t)
}

func TestPublishLeadEventError(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("PublishWithContext", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(amqp.ErrClosed)

	err := NewProducer(pub).PublishLeadEvent(context.Background(), entity.LeadEvent{Type: entity.LeadCreated})

	assert.ErrorIs(t, err, amqp.ErrClosed)
}

func TestWorkerNewLeadWithAcceptedPlan(t *testing.T) {
	ctx := context.Background()
	notifier := new(MockNotifier)
	notifier.On("NotifyNewLead", ctx, mock.Anything).Return(nil)
	notifier.On("NotifyPlanAccepted", ctx, mock.Anything).Return(nil)
	w := NewWorker(nil, notifier, nil)

	d, ack := delivery(t, entity.LeadEvent{Type: entity.LeadCreated, LeadID: "l1", PlanAccepted: true})
	w.handleDelivery(ctx, d)

	assert.True(t, ack.acked)
	notifier.AssertExpectations(t)
}

func TestWorkerIgnoresStatusChanges(t *testing.T) {
	notifier := new(MockNotifier)
	w := NewWorker(nil, notifier, nil)

	d, ack := delivery(t, entity.LeadEvent{Type: entity.LeadStatusChanged, LeadID: "l1"})
	w.handleDelivery(context.Background(), d)

	assert.True(t, ack.acked)
	notifier.AssertNotCalled(t, "NotifyNewLead", mock.Anything, mock.Anything)
	notifier.AssertNotCalled(t, "NotifyPlanAccepted", mock.Anything, mock.Anything)
}

func TestWorkerDeadLettersFailures(t *testing.T) {
	notifier := new(MockNotifier)
	notifier.On("NotifyNewLead", mock.Anything, mock.Anything).Return(errors.New("smtp down"))
	w := NewWorker(nil, notifier, nil)

	d, ack := delivery(t, entity.LeadEvent{Type: entity.LeadCreated, LeadID: "l1"})
	w.handleDelivery(context.Background(), d)
	assert.True(t, ack.nacked)
	assert.False(t, ack.requeued)

	bad := &fakeAcknowledger{}
	w.handleDelivery(context.Background(), amqp.Delivery{Acknowledger: bad, Body: []byte("{")})
	assert.True(t, bad.nacked)
	assert.False(t, bad.acked)
}
