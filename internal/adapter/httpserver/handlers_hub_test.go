package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pscheid92/buzzbot/internal/app"
	"github.com/pscheid92/buzzbot/internal/domain"
	apperrors "github.com/pscheid92/buzzbot/internal/platform/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func challengeRequest(query string) *http.Request {
	return httptest.NewRequest(http.MethodGet, "/posts?"+query, nil)
}

func TestHandleChallenge_Accepted(t *testing.T) {
	var gotMode string
	var gotID domain.SubscriptionID
	hub := &mockHubService{
		verifyChallengeFn: func(_ context.Context, mode string, id domain.SubscriptionID) (bool, error) {
			gotMode, gotID = mode, id
			return true, nil
		},
	}
	srv := newTestServer(t, withHub(hub))

	rec := serve(srv, challengeRequest("hub.challenge=abc123&hub.mode=subscribe&hub.topic=https%3A%2F%2Fx&id=7"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc123", rec.Body.String())
	assert.Equal(t, "subscribe", gotMode)
	assert.Equal(t, domain.SubscriptionID(7), gotID)
}

func TestHandleChallenge_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		verify     func(context.Context, string, domain.SubscriptionID) (bool, error)
		wantStatus int
		wantType   apperrors.Type
	}{
		{
			name:       "state mismatch",
			query:      "hub.challenge=abc&hub.mode=unsubscribe&id=7",
			verify:     func(context.Context, string, domain.SubscriptionID) (bool, error) { return false, nil },
			wantStatus: http.StatusNotFound,
			wantType:   apperrors.TypeNotFound,
		},
		{
			name:       "missing id",
			query:      "hub.challenge=abc&hub.mode=subscribe",
			wantStatus: http.StatusBadRequest,
			wantType:   apperrors.TypeValidation,
		},
		{
			name:       "non-numeric id",
			query:      "hub.challenge=abc&hub.mode=subscribe&id=seven",
			wantStatus: http.StatusBadRequest,
			wantType:   apperrors.TypeValidation,
		},
		{
			name:       "missing challenge",
			query:      "hub.mode=subscribe&id=7",
			wantStatus: http.StatusBadRequest,
			wantType:   apperrors.TypeValidation,
		},
		{
			name:       "unknown mode",
			query:      "hub.challenge=abc&hub.mode=denied&id=7",
			verify:     func(context.Context, string, domain.SubscriptionID) (bool, error) { return false, app.ErrUnknownHubMode },
			wantStatus: http.StatusBadRequest,
			wantType:   apperrors.TypeValidation,
		},
		{
			name:       "store failure",
			query:      "hub.challenge=abc&hub.mode=subscribe&id=7",
			verify:     func(context.Context, string, domain.SubscriptionID) (bool, error) { return false, errors.New("db down") },
			wantStatus: http.StatusInternalServerError,
			wantType:   apperrors.TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, withHub(&mockHubService{verifyChallengeFn: tt.verify}))

			rec := serve(srv, challengeRequest(tt.query))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.NotContains(t, rec.Body.String(), `"abc"`)

			var resp apperrors.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantType, resp.Type)
		})
	}
}

func TestHandleDelivery_Success(t *testing.T) {
	var gotBody string
	hub := &mockHubService{
		deliverFn: func(_ context.Context, id domain.SubscriptionID, body []byte) (*app.DeliveryReport, error) {
			gotBody = string(body)
			return &app.DeliveryReport{SubscriptionID: id, Delivered: 2, Duplicates: 1}, nil
		},
	}
	srv := newTestServer(t, withHub(hub))

	req := httptest.NewRequest(http.MethodPost, "/posts?id=3", strings.NewReader("<feed/>"))
	req.Header.Set("Content-Type", "application/atom+xml")
	rec := serve(srv, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<feed/>", gotBody)
	assert.JSONEq(t, `{"subscription_id":3,"delivered":2,"duplicates":1,"failed":0}`, rec.Body.String())
}

func TestHandleDelivery_UnknownSubscription(t *testing.T) {
	hub := &mockHubService{
		deliverFn: func(context.Context, domain.SubscriptionID, []byte) (*app.DeliveryReport, error) {
			return nil, domain.ErrSubscriptionNotFound
		},
	}
	srv := newTestServer(t, withHub(hub))

	rec := serve(srv, httptest.NewRequest(http.MethodPost, "/posts?id=99", strings.NewReader("<feed/>")))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleDelivery_MalformedListsEntries(t *testing.T) {
	hub := &mockHubService{
		deliverFn: func(context.Context, domain.SubscriptionID, []byte) (*app.DeliveryReport, error) {
			return nil, &app.MalformedDeliveryError{Entries: []string{"entry 0: missing link", "entry 2: missing link"}}
		},
	}
	srv := newTestServer(t, withHub(hub))

	rec := serve(srv, httptest.NewRequest(http.MethodPost, "/posts?id=1", strings.NewReader("junk")))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "malformed delivery", resp.Error)
	assert.Equal(t, []any{"entry 0: missing link", "entry 2: missing link"}, resp.Context["entries"])
}

func TestHandleDelivery_BadID(t *testing.T) {
	called := false
	hub := &mockHubService{
		deliverFn: func(context.Context, domain.SubscriptionID, []byte) (*app.DeliveryReport, error) {
			called = true
			return nil, nil
		},
	}
	srv := newTestServer(t, withHub(hub))

	rec := serve(srv, httptest.NewRequest(http.MethodPost, "/posts?id=-1", strings.NewReader("<feed/>")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, called)
}

func TestHandleDelivery_BodyTooLarge(t *testing.T) {
	srv := newTestServer(t)

	body := strings.NewReader(strings.Repeat("a", 2<<20))
	rec := serve(srv, httptest.NewRequest(http.MethodPost, "/posts?id=1", body))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
