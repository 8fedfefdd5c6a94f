package gateway

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nao1215/authgate/internal/session"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withToken はtoken Cookieを付けたリクエストを返す。
func withToken(req *http.Request, token string) *http.Request {
	req.AddCookie(&http.Cookie{Name: session.TokenCookie, Value: token})
	return req
}

// TestHandleListToDos はTo-Do一覧取得の転送を検証する。
func TestHandleListToDos(t *testing.T) {
	t.Parallel()

	t.Run("CookieのトークンをBearer認証として転送しレスポンスをそのまま返すこと", func(t *testing.T) {
		t.Parallel()

		b := &recordingBackend{}
		s := newTestServer(t, b.respondWith(http.StatusOK, `{"data":[{"_id":"t1","title":"buy milk"}]}`), nil)

		w := serve(s, withToken(httptest.NewRequest(http.MethodGet, "/to-dos/u1", nil), "T1"))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"data":[{"_id":"t1","title":"buy milk"}]}`, w.Body.String())
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		calls := b.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, http.MethodGet, calls[0].Method)
		assert.Equal(t, "/api/user-to-dos/u1", calls[0].Path)
		assert.Equal(t, "Bearer T1", calls[0].Authorization)
	})

	t.Run("token Cookieが無くても転送しAuthorizationヘッダーを付けないこと", func(t *testing.T) {
		t.Parallel()

		b := &recordingBackend{}
		s := newTestServer(t, b.respondWith(http.StatusUnauthorized, `{"message":"missing token"}`), nil)

		w := serve(s, httptest.NewRequest(http.MethodGet, "/to-dos/u1", nil))

		calls := b.Calls()
		require.Len(t, calls, 1, "ゲートウェイで事前に拒否してはならない")
		assert.False(t, calls[0].HasAuthHeader)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"message":"missing token"}`, w.Body.String())
	})

	t.Run("パスパラメータはエスケープして転送すること", func(t *testing.T) {
		t.Parallel()

		b := &recordingBackend{}
		s := newTestServer(t, b.respondWith(http.StatusOK, `[]`), nil)

		serve(s, httptest.NewRequest(http.MethodGet, "/to-dos/a%3Fb", nil))

		calls := b.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, "/api/user-to-dos/a%3Fb", calls[0].Path)
	})

	t.Run("バックエンドに接続できなければ500を返すこと", func(t *testing.T) {
		t.Parallel()

		s := newTestServerWithURL(t, "http://127.0.0.1:1", nil)
		w := serve(s, withToken(httptest.NewRequest(http.MethodGet, "/to-dos/u1", nil), "T1"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
		assert.Equal(t, 1, testutil.CollectAndCount(s.metrics.UpstreamDuration))
	})
}

// TestHandleCreateToDo はTo-Do作成の転送を検証する。
func TestHandleCreateToDo(t *testing.T) {
	t.Parallel()

	t.Run("201なら採番されたIDを_idとして入力に付けて返すこと", func(t *testing.T) {
		t.Parallel()

		b := &recordingBackend{}
		s := newTestServer(t, b.respondWith(http.StatusCreated, `{"toDoId":"t42","message":"created"}`), nil)

		req := withToken(postJSON("/user-to-dos", `{"title":"buy milk","priority":12345678901234567}`), "T1")
		w := serve(s, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.JSONEq(t, `{"_id":"t42","title":"buy milk","priority":12345678901234567}`, w.Body.String())

		calls := b.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, http.MethodPost, calls[0].Method)
		assert.Equal(t, "/api/user-to-dos", calls[0].Path)
		assert.Equal(t, "Bearer T1", calls[0].Authorization)
		assert.JSONEq(t, `{"title":"buy milk","priority":12345678901234567}`, string(calls[0].Body))
	})

	t.Run("201以外はbad implementationを返しバックエンドのボディを返さないこと", func(t *testing.T) {
		t.Parallel()

		b := &recordingBackend{}
		s := newTestServer(t, b.respondWith(http.StatusOK, `{"toDoId":"leak","secret":"internal"}`), nil)

		w := serve(s, withToken(postJSON("/user-to-dos", `{"title":"x"}`), "T1"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"bad implementation"}`, w.Body.String())
		assert.NotContains(t, w.Body.String(), "internal")
	})

	t.Run("JSONオブジェクトでないボディは400を返すこと", func(t *testing.T) {
		t.Parallel()

		for _, body := range []string{`[1,2]`, `null`, `{"title":`} {
			b := &recordingBackend{}
			s := newTestServer(t, b.respondWith(http.StatusCreated, `{}`), nil)

			w := serve(s, withToken(postJSON("/user-to-dos", body), "T1"))

			assert.Equal(t, http.StatusBadRequest, w.Code, body)
			assert.Empty(t, b.Calls(), body)
		}
	})
}

// TestHandleUpdateToDo はTo-Do更新の転送を検証する。
func TestHandleUpdateToDo(t *testing.T) {
	t.Parallel()

	paths := []struct {
		name        string
		path        string
		backendPath string
	}{
		{name: "更新", path: "/user-to-dos", backendPath: "/api/user-to-dos"},
		{name: "完了", path: "/user-to-dos/completed", backendPath: "/api/user-to-dos/completed"},
	}
	for _, tt := range paths {
		tt := tt
		t.Run(tt.name+"は200なら201でdataに包んで返すこと", func(t *testing.T) {
			t.Parallel()

			b := &recordingBackend{}
			s := newTestServer(t, b.respondWith(http.StatusOK, `{"updated":1}`), nil)

			req := httptest.NewRequest(http.MethodPut, tt.path, strings.NewReader(`{"_id":"t1","completed":true}`))
			w := serve(s, withToken(req, "T1"))

			assert.Equal(t, http.StatusCreated, w.Code)
			assert.JSONEq(t, `{"data":{"updated":1}}`, w.Body.String())

			calls := b.Calls()
			require.Len(t, calls, 1)
			assert.Equal(t, http.MethodPut, calls[0].Method)
			assert.Equal(t, tt.backendPath, calls[0].Path)
			assert.Equal(t, "Bearer T1", calls[0].Authorization)
			assert.JSONEq(t, `{"_id":"t1","completed":true}`, string(calls[0].Body))
		})

		t.Run(tt.name+"は200以外ならbad implementationを返すこと", func(t *testing.T) {
			t.Parallel()

			b := &recordingBackend{}
			s := newTestServer(t, b.respondWith(http.StatusCreated, `{"updated":1}`), nil)

			req := httptest.NewRequest(http.MethodPut, tt.path, strings.NewReader(`{"_id":"t1"}`))
			w := serve(s, withToken(req, "T1"))

			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.JSONEq(t, `{"error":"bad implementation"}`, w.Body.String())
		})
	}

	t.Run("空のボディは空オブジェクトとして転送すること", func(t *testing.T) {
		t.Parallel()

		b := &recordingBackend{}
		s := newTestServer(t, b.respondWith(http.StatusOK, `{}`), nil)

		serve(s, withToken(httptest.NewRequest(http.MethodPut, "/user-to-dos", nil), "T1"))

		calls := b.Calls()
		require.Len(t, calls, 1)
		assert.JSONEq(t, `{}`, string(calls[0].Body))
	})

	t.Run("JSONでないバックエンドのボディは文字列としてdataに入れること", func(t *testing.T) {
		t.Parallel()

		s := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte("OK"))
		}, nil)

		req := httptest.NewRequest(http.MethodPut, "/user-to-dos", strings.NewReader(`{}`))
		w := serve(s, withToken(req, "T1"))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.JSONEq(t, `{"data":"OK"}`, w.Body.String())
	})
}

// TestHandleDeleteToDo はTo-Do削除の転送を検証する。
func TestHandleDeleteToDo(t *testing.T) {
	t.Parallel()

	t.Run("200ならバックエンドのボディをそのまま返すこと", func(t *testing.T) {
		t.Parallel()

		b := &recordingBackend{}
		s := newTestServer(t, b.respondWith(http.StatusOK, `{"deleted":"t1"}`), nil)

		w := serve(s, withToken(httptest.NewRequest(http.MethodDelete, "/user-to-dos/t1", nil), "T1"))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"deleted":"t1"}`, w.Body.String())

		calls := b.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, http.MethodDelete, calls[0].Method)
		assert.Equal(t, "/api/user-to-dos/t1", calls[0].Path)
		assert.Equal(t, "Bearer T1", calls[0].Authorization)
		assert.Empty(t, calls[0].Body)
	})

	t.Run("200以外はbad implementationを返しボディを返さないこと", func(t *testing.T) {
		t.Parallel()

		b := &recordingBackend{}
		s := newTestServer(t, b.respondWith(http.StatusNotFound, `{"message":"no such to-do"}`), nil)

		w := serve(s, withToken(httptest.NewRequest(http.MethodDelete, "/user-to-dos/t1", nil), "T1"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"bad implementation"}`, w.Body.String())
	})
}
