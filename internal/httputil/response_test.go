package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/sealkeep/sealkeep/internal/errors"
)

func newTestContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, recorder
}

func TestHandleErrorGin(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"not found", apperrors.ErrNotFound, http.StatusNotFound, "not_found"},
		{"conflict", apperrors.ErrConflict, http.StatusConflict, "conflict"},
		{"invalid input", apperrors.ErrInvalidInput, http.StatusUnprocessableEntity, "invalid_input"},
		{"unauthorized", apperrors.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{"forbidden", apperrors.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"unknown", apperrors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, recorder := newTestContext(t)
			HandleErrorGin(c, tt.err, logger)

			assert.Equal(t, tt.wantStatus, recorder.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
			assert.Equal(t, tt.wantError, body.Error)
		})
	}

	t.Run("wrapped errors map through the chain", func(t *testing.T) {
		c, recorder := newTestContext(t)
		HandleErrorGin(c, apperrors.Wrap(apperrors.ErrNotFound, "prf params"), logger)
		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})

	t.Run("nil error writes nothing", func(t *testing.T) {
		c, recorder := newTestContext(t)
		HandleErrorGin(c, nil, logger)
		assert.Empty(t, recorder.Body.String())
	})
}

func TestHandleValidationErrorGin(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	c, recorder := newTestContext(t)
	HandleValidationErrorGin(c, apperrors.New("missing field"), logger)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestMakeJSONResponse(t *testing.T) {
	recorder := httptest.NewRecorder()
	MakeJSONResponse(recorder, http.StatusTeapot, map[string]string{"status": "short and stout"})
	assert.Equal(t, http.StatusTeapot, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))
}
