package httputil_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/allisson/trustcore/internal/httputil"
)

func TestParseLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name          string
		url           string
		expectedLimit int
		expectError   bool
	}{
		{name: "default value", url: "/", expectedLimit: 50},
		{name: "custom value", url: "/?limit=20", expectedLimit: 20},
		{name: "max limit", url: "/?limit=100", expectedLimit: 100},
		{name: "limit zero", url: "/?limit=0", expectError: true},
		{name: "limit exceeds max", url: "/?limit=101", expectError: true},
		{name: "limit not an integer", url: "/?limit=xyz", expectError: true},
		{name: "empty limit", url: "/?limit=", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, tt.url, nil)

			limit, err := httputil.ParseLimit(c, 50, 100)

			if tt.expectError {
				assert.EqualError(t, err, "invalid limit parameter: must be between 1 and 100")
				assert.Equal(t, 0, limit)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedLimit, limit)
			}
		})
	}
}
