package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRequestID はRequestIDミドルウェアを検証する。
func TestRequestID(t *testing.T) {
	t.Parallel()

	newRouter := func(seen *string) *gin.Engine {
		router := gin.New()
		router.Use(RequestID())
		router.GET("/test", func(c *gin.Context) {
			*seen = RequestIDFrom(c)
			c.Status(http.StatusOK)
		})
		return router
	}

	t.Run("ヘッダーが無ければUUIDを生成すること", func(t *testing.T) {
		t.Parallel()

		var seen string
		w := httptest.NewRecorder()
		newRouter(&seen).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		got := w.Header().Get(RequestIDHeader)
		_, err := uuid.Parse(got)
		require.NoError(t, err)
		assert.Equal(t, got, seen)
	})

	t.Run("受信したIDを引き継ぐこと", func(t *testing.T) {
		t.Parallel()

		var seen string
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(RequestIDHeader, "trace-abc-123")
		w := httptest.NewRecorder()
		newRouter(&seen).ServeHTTP(w, req)

		assert.Equal(t, "trace-abc-123", w.Header().Get(RequestIDHeader))
		assert.Equal(t, "trace-abc-123", seen)
	})

	for name, id := range map[string]string{
		"長すぎるIDは置き換えること":     strings.Repeat("a", 200),
		"制御文字を含むIDは置き換えること":  "abc\tdef",
		"非ASCIIのIDは置き換えること": "リクエスト",
	} {
		name, id := name, id
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var seen string
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.Header.Set(RequestIDHeader, id)
			w := httptest.NewRecorder()
			newRouter(&seen).ServeHTTP(w, req)

			assert.NotEqual(t, id, seen)
			_, err := uuid.Parse(seen)
			assert.NoError(t, err)
		})
	}

	t.Run("ミドルウェアが無ければ空文字を返すこと", func(t *testing.T) {
		t.Parallel()

		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		assert.Empty(t, RequestIDFrom(c))
	})
}
