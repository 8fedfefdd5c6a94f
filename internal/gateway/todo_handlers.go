package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/authgate/internal/session"
	"github.com/nao1215/authgate/pkg/httpclient"
)

// バックエンドのTo-Do APIのパス。
const (
	todosPath          = "/api/user-to-dos"
	todosCompletedPath = "/api/user-to-dos/completed"
)

// handleListToDos はユーザーのTo-Do一覧を取得するハンドラを返す。
// バックエンドのステータスとボディをそのまま返す。
func (s *Server) handleListToDos() gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := s.proxy.Forward(c.Request.Context(), ForwardRequest{
			Method: http.MethodGet,
			Path:   todosPath + "/" + url.PathEscape(c.Param("userId")),
			Token:  sessionToken(c),
		})
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Data(resp.StatusCode, resp.ContentType(), resp.Body)
	}
}

// handleCreateToDo はTo-Doを作成するハンドラを返す。
// バックエンドは201を返す必要があり、レスポンスには採番されたIDを_idとして付けた入力を返す。
func (s *Server) handleCreateToDo() gin.HandlerFunc {
	return func(c *gin.Context) {
		todo, err := readJSONObject(c)
		if err != nil {
			abortWithError(c, err)
			return
		}

		resp, err := s.proxy.Forward(c.Request.Context(), ForwardRequest{
			Method:       http.MethodPost,
			Path:         todosPath,
			Token:        sessionToken(c),
			Body:         todo,
			ExpectStatus: http.StatusCreated,
		})
		if err != nil {
			abortWithError(c, err)
			return
		}

		var created struct {
			ToDoID any `json:"toDoId"`
		}
		_ = resp.DecodeJSON(&created)

		out := make(map[string]any, len(todo)+1)
		if created.ToDoID != nil {
			out["_id"] = created.ToDoID
		}
		maps.Copy(out, todo)
		c.JSON(http.StatusCreated, out)
	}
}

// handleUpdateToDo はTo-Doを更新するハンドラを返す。pathで更新内容か完了状態かを切り替える。
// バックエンドは200を返す必要があり、レスポンスは201でバックエンドのボディをdataに包んで返す。
func (s *Server) handleUpdateToDo(path string) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := readJSON(c)
		if err != nil {
			abortWithError(c, err)
			return
		}

		resp, err := s.proxy.Forward(c.Request.Context(), ForwardRequest{
			Method:       http.MethodPut,
			Path:         path,
			Token:        sessionToken(c),
			Body:         body,
			ExpectStatus: http.StatusOK,
		})
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"data": upstreamData(resp)})
	}
}

// handleDeleteToDo はTo-Doを削除するハンドラを返す。
// バックエンドは200を返す必要があり、ボディはそのまま返す。
func (s *Server) handleDeleteToDo() gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := s.proxy.Forward(c.Request.Context(), ForwardRequest{
			Method:       http.MethodDelete,
			Path:         todosPath + "/" + url.PathEscape(c.Param("toDoId")),
			Token:        sessionToken(c),
			ExpectStatus: http.StatusOK,
		})
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Data(http.StatusOK, resp.ContentType(), resp.Body)
	}
}

// sessionToken はCookieのトークンを返す。無ければ空文字を返し、転送時はAuthorizationヘッダーを付けない。
func sessionToken(c *gin.Context) string {
	token, _ := session.Token(c.Request)
	return token
}

// readJSON はリクエストボディをJSONとして読み取る。空のボディは空オブジェクトとして扱う。
func readJSON(c *gin.Context) (json.RawMessage, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidBody, err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return json.RawMessage(`{}`), nil
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: body is not valid JSON", errInvalidBody)
	}
	return json.RawMessage(raw), nil
}

// readJSONObject はリクエストボディをJSONオブジェクトとして読み取る。数値は精度を保つためjson.Numberで保持する。
func readJSONObject(c *gin.Context) (map[string]any, error) {
	raw, err := readJSON(c)
	if err != nil {
		return nil, err
	}

	obj := make(map[string]any)
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidBody, err)
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: body must be a JSON object", errInvalidBody)
	}
	return obj, nil
}

// upstreamData はバックエンドのボディをレスポンスに埋め込める値に変換する。
// JSONでなければ文字列として扱う。
func upstreamData(resp *httpclient.Response) any {
	if json.Valid(resp.Body) {
		return json.RawMessage(resp.Body)
	}
	return string(resp.Body)
}
