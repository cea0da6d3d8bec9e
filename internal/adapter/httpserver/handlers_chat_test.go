package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/pscheid92/buzzbot/internal/chat"
	"github.com/pscheid92/buzzbot/internal/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatRequest(form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/chat/message", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.RemoteAddr = testRemoteAddr
	return req
}

func TestHandleChatMessage_RepliesToRawSender(t *testing.T) {
	svc := &mockChatService{
		handleMessageFn: func(_ context.Context, msg chat.Message) *message.Builder {
			return message.NewBuilder(message.ModePlain).Addf("hello %s", msg.Sender)
		},
	}
	srv := newTestServer(t, withChat(svc))

	rec := serve(srv, chatRequest(url.Values{
		"from": {"Alice@Example.com/Laptop"},
		"to":   {"buzzbot@appspot.com"},
		"body": {"/HELP"},
	}))

	require.Equal(t, http.StatusOK, rec.Code)

	var reply chatReply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	assert.Equal(t, "Alice@Example.com/Laptop", reply.To)
	assert.Equal(t, "hello alice@example.com", reply.Body)

	require.Len(t, svc.received, 1)
	msg := svc.received[0]
	assert.Equal(t, "alice@example.com", msg.Sender)
	assert.True(t, msg.Parsed)
	assert.Equal(t, chat.KindHelp, msg.Command.Kind())
}

func TestHandleChatMessage_MissingFields(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
	}{
		{"missing from", url.Values{"body": {"help"}}},
		{"blank from", url.Values{"from": {"  "}, "body": {"help"}}},
		{"missing body", url.Values{"from": {"alice@example.com"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockChatService{}
			srv := newTestServer(t, withChat(svc))

			rec := serve(srv, chatRequest(tt.form))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, svc.received)
		})
	}
}

func TestHandleChatMessage_RateLimited(t *testing.T) {
	srv := newTestServer(t, withConfig(Config{ChatRateLimit: 0.01, ChatRateBurst: 1}))
	form := url.Values{"from": {"alice@example.com"}, "body": {"list"}}

	first := serve(srv, chatRequest(form))
	second := serve(srv, chatRequest(form))

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}
