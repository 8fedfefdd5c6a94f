package gateway

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/authgate/internal/auth"
	"github.com/nao1215/authgate/pkg/httpclient"
	"github.com/nao1215/authgate/pkg/middleware"
)

// ErrUpstreamContract はバックエンドが想定外のステータスを返したことを表す。
var ErrUpstreamContract = errors.New("upstream contract violation")

var (
	// errInvalidBody はリクエストボディが解釈できないことを表す。
	errInvalidBody = errors.New("invalid request body")
	// errProviderDisabled はOAuth2プロバイダーが設定されていないことを表す。
	errProviderDisabled = errors.New("oauth2 provider is not configured")
)

// resolveError はハンドラーのエラーをステータスとクライアント向けメッセージに変換する。
// 原因の詳細はクライアントに返さない。
func resolveError(err error) (int, string) {
	var statusErr *httpclient.StatusError

	switch {
	case errors.Is(err, auth.ErrAuthFailure):
		return http.StatusUnauthorized, middleware.MessageUnauthorized
	case errors.Is(err, ErrUpstreamContract):
		return http.StatusInternalServerError, "bad implementation"
	case errors.Is(err, errInvalidBody):
		return http.StatusBadRequest, "bad request"
	case errors.Is(err, errProviderDisabled):
		return http.StatusServiceUnavailable, "service unavailable"
	case errors.As(err, &statusErr) && statusErr.StatusCode >= 400 && statusErr.StatusCode < 500:
		return statusErr.StatusCode, strings.ToLower(http.StatusText(statusErr.StatusCode))
	default:
		return http.StatusInternalServerError, middleware.MessageInternal
	}
}

// abortWithError はエラーを登録してハンドラーチェーンを中断する。
// レスポンスはmiddleware.ErrorHandlerが一度だけ書き込む。
func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
