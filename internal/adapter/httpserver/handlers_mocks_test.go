package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pscheid92/buzzbot/internal/app"
	"github.com/pscheid92/buzzbot/internal/chat"
	"github.com/pscheid92/buzzbot/internal/domain"
	"github.com/pscheid92/buzzbot/internal/message"
)

// --- Mock implementations ---

type mockChatService struct {
	handleMessageFn func(ctx context.Context, msg chat.Message) *message.Builder
	received        []chat.Message
}

func (m *mockChatService) HandleMessage(ctx context.Context, msg chat.Message) *message.Builder {
	m.received = append(m.received, msg)
	if m.handleMessageFn != nil {
		return m.handleMessageFn(ctx, msg)
	}
	return message.NewBuilder(message.ModePlain).Add("ok")
}

type mockHubService struct {
	verifyChallengeFn func(ctx context.Context, mode string, id domain.SubscriptionID) (bool, error)
	deliverFn         func(ctx context.Context, id domain.SubscriptionID, body []byte) (*app.DeliveryReport, error)
}

func (m *mockHubService) VerifyChallenge(ctx context.Context, mode string, id domain.SubscriptionID) (bool, error) {
	if m.verifyChallengeFn != nil {
		return m.verifyChallengeFn(ctx, mode, id)
	}
	return true, nil
}

func (m *mockHubService) Deliver(ctx context.Context, id domain.SubscriptionID, body []byte) (*app.DeliveryReport, error) {
	if m.deliverFn != nil {
		return m.deliverFn(ctx, id, body)
	}
	return &app.DeliveryReport{SubscriptionID: id}, nil
}

type mockAdminService struct {
	removeFn func(ctx context.Context, id domain.SubscriptionID) (*domain.Subscription, error)
	removed  []domain.SubscriptionID
}

func (m *mockAdminService) Remove(ctx context.Context, id domain.SubscriptionID) (*domain.Subscription, error) {
	m.removed = append(m.removed, id)
	if m.removeFn != nil {
		return m.removeFn(ctx, id)
	}
	return nil, domain.ErrSubscriptionNotFound
}

// --- Test helpers ---

type testServerOptions struct {
	chat          chatService
	hub           hubService
	admin         adminService
	config        Config
	observability Observability
	healthChecks  []HealthCheck
}

func newTestServer(t *testing.T, opts ...func(*testServerOptions)) *Server {
	t.Helper()

	o := &testServerOptions{
		chat:   &mockChatService{},
		hub:    &mockHubService{},
		config: Config{Port: "0", ChatRateLimit: 100, ChatRateBurst: 100},
	}
	for _, opt := range opts {
		opt(o)
	}

	return NewServer(o.config, o.chat, o.hub, o.admin, o.observability, o.healthChecks)
}

func withChat(svc chatService) func(*testServerOptions) {
	return func(o *testServerOptions) { o.chat = svc }
}

func withHub(svc hubService) func(*testServerOptions) {
	return func(o *testServerOptions) { o.hub = svc }
}

func withAdmin(svc adminService, token string) func(*testServerOptions) {
	return func(o *testServerOptions) {
		o.admin = svc
		o.config.AdminToken = token
	}
}

func withConfig(cfg Config) func(*testServerOptions) {
	return func(o *testServerOptions) { o.config = cfg }
}

func withObservability(obs Observability) func(*testServerOptions) {
	return func(o *testServerOptions) { o.observability = obs }
}

func withHealthChecks(checks ...HealthCheck) func(*testServerOptions) {
	return func(o *testServerOptions) { o.healthChecks = checks }
}

// serve runs req through the full middleware stack.
func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}
