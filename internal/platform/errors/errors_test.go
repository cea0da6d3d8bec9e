package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	cause := fmt.Errorf("dial tcp: refused")

	tests := []struct {
		name       string
		err        *Error
		wantType   Type
		wantStatus int
	}{
		{"validation", Validation("missing id"), TypeValidation, http.StatusBadRequest},
		{"not found", NotFound("no such subscription"), TypeNotFound, http.StatusNotFound},
		{"internal", Internal("store failed", cause), TypeInternal, http.StatusInternalServerError},
		{"external", External("hub unreachable", cause), TypeExternal, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Equal(t, tt.wantStatus, tt.err.HTTPStatus())
			assert.NotNil(t, tt.err.Context)
			assert.Contains(t, tt.err.Error(), string(tt.wantType))
		})
	}
}

func TestError_UnwrapsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal("store failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "internal: store failed: connection reset", err.Error())
}

func TestWith_Chains(t *testing.T) {
	err := NotFound("no such subscription").With("subscription_id", int64(7)).With("mode", "subscribe")

	resp := err.ToResponse()
	assert.Equal(t, "no such subscription", resp.Error)
	assert.Equal(t, TypeNotFound, resp.Type)
	assert.Equal(t, int64(7), resp.Context["subscription_id"])
	assert.Equal(t, "subscribe", resp.Context["mode"])
}

func TestWith_NilContext(t *testing.T) {
	err := &Error{Type: TypeValidation, Message: "bad"}
	err.With("field", "id")
	assert.Equal(t, "id", err.Context["field"])
}

func TestFrom(t *testing.T) {
	assert.Nil(t, From(nil))

	structured := Validation("bad id")
	wrapped := fmt.Errorf("handler: %w", structured)
	assert.Same(t, structured, From(wrapped))

	plain := errors.New("boom")
	got := From(plain)
	require.NotNil(t, got)
	assert.Equal(t, TypeInternal, got.Type)
	assert.ErrorIs(t, got, plain)
}

func TestFromStatus(t *testing.T) {
	assert.Equal(t, TypeNotFound, FromStatus(http.StatusNotFound, "").Type)
	assert.Equal(t, TypeValidation, FromStatus(http.StatusTooManyRequests, "").Type)
	assert.Equal(t, TypeExternal, FromStatus(http.StatusServiceUnavailable, "").Type)
	assert.Equal(t, TypeInternal, FromStatus(http.StatusInternalServerError, "").Type)
}
