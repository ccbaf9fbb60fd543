package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commerce/fulfillment/internal/interfaces/http/dto"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping() error { return s.err }

func performHealth(t *testing.T, h *SystemHandler) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/healthz", nil)

	h.Health(c)
	return w
}

func TestSystemHandler_Health(t *testing.T) {
	t.Run("healthy dependencies report ok", func(t *testing.T) {
		h := NewSystemHandler(map[string]Pinger{"database": stubPinger{}})
		w := performHealth(t, h)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "ok", data["status"])

		checks := data["checks"].(map[string]interface{})
		assert.Equal(t, "ok", checks["database"])
	})

	t.Run("failing dependency degrades status", func(t *testing.T) {
		h := NewSystemHandler(map[string]Pinger{
			"database": stubPinger{err: errors.New("connection refused")},
		})
		w := performHealth(t, h)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "degraded", data["status"])
	})

	t.Run("no checks still reports ok", func(t *testing.T) {
		h := NewSystemHandler(nil)
		w := performHealth(t, h)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
