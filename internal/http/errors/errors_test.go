package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithDetailDoesNotMutateBase(t *testing.T) {
	e := ErrBadRequest.WithDetail("email requerido")
	assert.Equal(t, "email requerido", e.Detail)
	assert.Empty(t, ErrBadRequest.Detail)
}

func TestFromErrorUnwrapsWrapped(t *testing.T) {
	wrapped := fmt.Errorf("ctx: %w", ErrSlugTaken)
	assert.Same(t, ErrSlugTaken, FromError(wrapped))

	unknown := FromError(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, unknown.HTTPStatus)
}

func TestWriteErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	rec.Header().Set("X-Request-ID", "rid-1")
	WriteError(rec, httptest.NewRequest("GET", "/", nil), ErrInternalServerError.WithDetail("pq: connection refused"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "INTERNAL_SERVER_ERROR", body["code"])
	assert.Equal(t, "rid-1", body["requestId"])
	assert.NotContains(t, body, "detail")
}

func TestWriteErrorClientError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, nil, ErrAlreadyInvited.WithDetail("bob@x.com"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"detail":"bob@x.com"`)
}
