package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/buzzbot/internal/adapter/memory"
	"github.com/pscheid92/buzzbot/internal/domain"
)

// --- Mock implementations ---

type hubCall struct {
	mode, topic, hub, callback string
}

type mockHub struct {
	mu            sync.Mutex
	calls         []hubCall
	subscribeFn   func(ctx context.Context, topic, hub, callback string) error
	unsubscribeFn func(ctx context.Context, topic, hub, callback string) error
}

func (m *mockHub) Subscribe(ctx context.Context, topic, hub, callback string) error {
	m.record("subscribe", topic, hub, callback)
	if m.subscribeFn != nil {
		return m.subscribeFn(ctx, topic, hub, callback)
	}
	return nil
}

func (m *mockHub) Unsubscribe(ctx context.Context, topic, hub, callback string) error {
	m.record("unsubscribe", topic, hub, callback)
	if m.unsubscribeFn != nil {
		return m.unsubscribeFn(ctx, topic, hub, callback)
	}
	return nil
}

func (m *mockHub) record(mode, topic, hub, callback string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, hubCall{mode: mode, topic: topic, hub: hub, callback: callback})
}

func (m *mockHub) Calls() []hubCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]hubCall(nil), m.calls...)
}

type mockSubs struct {
	createFn           func(ctx context.Context, topicURL, searchTerm, subscriber string) (*domain.Subscription, error)
	getFn              func(ctx context.Context, id domain.SubscriptionID) (*domain.Subscription, error)
	listBySubscriberFn func(ctx context.Context, subscriber string) ([]domain.Subscription, error)
	deleteOwnedFn      func(ctx context.Context, id domain.SubscriptionID, subscriber string) (*domain.Subscription, error)
	deleteFn           func(ctx context.Context, id domain.SubscriptionID) error
}

func (m *mockSubs) Create(ctx context.Context, topicURL, searchTerm, subscriber string) (*domain.Subscription, error) {
	if m.createFn != nil {
		return m.createFn(ctx, topicURL, searchTerm, subscriber)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockSubs) Get(ctx context.Context, id domain.SubscriptionID) (*domain.Subscription, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, domain.ErrSubscriptionNotFound
}

func (m *mockSubs) ListBySubscriber(ctx context.Context, subscriber string) ([]domain.Subscription, error) {
	if m.listBySubscriberFn != nil {
		return m.listBySubscriberFn(ctx, subscriber)
	}
	return nil, nil
}

func (m *mockSubs) DeleteOwned(ctx context.Context, id domain.SubscriptionID, subscriber string) (*domain.Subscription, error) {
	if m.deleteOwnedFn != nil {
		return m.deleteOwnedFn(ctx, id, subscriber)
	}
	return nil, domain.ErrSubscriptionNotFound
}

func (m *mockSubs) Delete(ctx context.Context, id domain.SubscriptionID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return domain.ErrSubscriptionNotFound
}

type mockParser struct {
	parseFn func(body []byte, defaults domain.FeedDefaults) (*domain.ParseResult, error)
}

func (m *mockParser) Parse(body []byte, defaults domain.FeedDefaults) (*domain.ParseResult, error) {
	if m.parseFn != nil {
		return m.parseFn(body, defaults)
	}
	return &domain.ParseResult{}, nil
}

type sentMessage struct {
	to, body string
}

type mockNotifier struct {
	mu     sync.Mutex
	sent   []sentMessage
	sendFn func(ctx context.Context, to, body string) error
}

func (m *mockNotifier) Send(ctx context.Context, to, body string) error {
	if m.sendFn != nil {
		if err := m.sendFn(ctx, to, body); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMessage{to: to, body: body})
	return nil
}

func (m *mockNotifier) Sent() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMessage(nil), m.sent...)
}

type mockPoster struct {
	gotToken *domain.UserToken
	gotBody  string
	postFn   func(ctx context.Context, token *domain.UserToken, body string) (string, error)
}

func (m *mockPoster) Post(ctx context.Context, token *domain.UserToken, body string) (string, error) {
	m.gotToken = token
	m.gotBody = body
	if m.postFn != nil {
		return m.postFn(ctx, token, body)
	}
	return "https://activities.example.com/posts/1", nil
}

type mockDeduper struct {
	firstDeliveryFn func(ctx context.Context, id domain.SubscriptionID, postURL string) (bool, error)
}

func (m *mockDeduper) FirstDelivery(ctx context.Context, id domain.SubscriptionID, postURL string) (bool, error) {
	if m.firstDeliveryFn != nil {
		return m.firstDeliveryFn(ctx, id, postURL)
	}
	return true, nil
}

// recordingMetrics counts observations by joined label values.
type recordingMetrics struct {
	mu     sync.Mutex
	counts map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{counts: map[string]int{}}
}

func (r *recordingMetrics) inc(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[key]++
}

func (r *recordingMetrics) Count(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[key]
}

func (r *recordingMetrics) CommandHandled(command string)         { r.inc("command/" + command) }
func (r *recordingMetrics) SubscriptionChanged(op, result string) { r.inc("subscription/" + op + "/" + result) }
func (r *recordingMetrics) HubRequest(mode, result string)        { r.inc("hub/" + mode + "/" + result) }
func (r *recordingMetrics) HubChallenge(mode, result string)      { r.inc("challenge/" + mode + "/" + result) }
func (r *recordingMetrics) Notification(result string)            { r.inc("notification/" + result) }

// --- Fixtures ---

var testTrackerConfig = TrackerConfig{
	SearchAPIBase:  "https://www.googleapis.com/buzz/v1",
	HubURL:         "http://pubsubhubbub.appspot.com/",
	ServiceBaseURL: "https://buzzbot.example.com",
}

func newTestClock() *clockwork.FakeClock {
	return clockwork.NewFakeClockAt(time.Date(2010, 2, 9, 12, 0, 0, 0, time.UTC))
}

type fixture struct {
	subs     *memory.SubscriptionStore
	tokens   *memory.TokenStore
	hub      *mockHub
	poster   *mockPoster
	notifier *mockNotifier
	parser   *mockParser
	metrics  *recordingMetrics
	tracker  *Tracker
}

func newFixture() *fixture {
	clock := newTestClock()
	f := &fixture{
		subs:     memory.NewSubscriptionStore(clock),
		tokens:   memory.NewTokenStore(clock),
		hub:      &mockHub{},
		poster:   &mockPoster{},
		notifier: &mockNotifier{},
		parser:   &mockParser{},
		metrics:  newRecordingMetrics(),
	}
	f.tracker = NewTracker(f.subs, f.hub, testTrackerConfig, f.metrics)
	return f
}
