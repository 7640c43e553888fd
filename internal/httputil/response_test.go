package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/trustcore/internal/errors"
)

func TestHandleErrorGin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "not found",
			err:            apperrors.Wrap(apperrors.ErrNotFound, "key alias k1"),
			expectedStatus: http.StatusNotFound,
			expectedError:  "not_found",
		},
		{
			name:           "invalid input",
			err:            apperrors.Wrap(apperrors.ErrInvalidInput, "alias too long"),
			expectedStatus: http.StatusUnprocessableEntity,
			expectedError:  "invalid_input",
		},
		{
			name:           "unauthorized",
			err:            apperrors.ErrUnauthorized,
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "unauthorized",
		},
		{
			name:           "auth failure",
			err:            apperrors.Wrap(apperrors.ErrAuth, "state mismatch"),
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "unauthorized",
		},
		{
			name:           "forbidden",
			err:            apperrors.ErrForbidden,
			expectedStatus: http.StatusForbidden,
			expectedError:  "forbidden",
		},
		{
			name:           "integrity",
			err:            apperrors.Wrap(apperrors.ErrIntegrity, "debugger attached"),
			expectedStatus: http.StatusForbidden,
			expectedError:  "integrity_compromised",
		},
		{
			name:           "trust",
			err:            apperrors.Wrap(apperrors.ErrTrust, "pin mismatch"),
			expectedStatus: http.StatusBadGateway,
			expectedError:  "untrusted_peer",
		},
		{
			name:           "crypto",
			err:            apperrors.Wrap(apperrors.ErrCrypto, "tag mismatch"),
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "crypto_error",
		},
		{
			name:           "unknown",
			err:            errors.New("boom"),
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			HandleErrorGin(c, tt.err, logger)

			assert.Equal(t, tt.expectedStatus, w.Code)
			var response ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, tt.expectedError, response.Error)
			assert.NotContains(t, response.Message, "boom")
		})
	}

	t.Run("nil error writes nothing", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		HandleErrorGin(c, nil, logger)
		assert.Empty(t, w.Body.String())
	})
}

func TestHandleBadRequestGin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	HandleBadRequestGin(c, errors.New("invalid limit parameter"), nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"bad_request","message":"invalid limit parameter"}`, w.Body.String())
}
