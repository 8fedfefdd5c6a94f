package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// クライアントに返す汎用のエラーメッセージ。
const (
	MessageInternal     = "internal server error"
	MessageUnauthorized = "unauthorized"
)

// ErrorResolver はエラーをHTTPステータスとクライアント向けメッセージに変換する。
type ErrorResolver func(err error) (status int, message string)

// ErrorHandler はハンドラーがc.Errorで登録したエラーをJSONレスポンスに変換するGinミドルウェアを返す。
// ハンドラーが既にレスポンスを書き込んでいる場合は何もしない。
// エラーの詳細はログにのみ出力し、レスポンスにはresolveが返したメッセージだけを載せる。
func ErrorHandler(resolve ErrorResolver, logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	if resolve == nil {
		resolve = func(error) (int, string) { return http.StatusInternalServerError, MessageInternal }
	}
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status, message := resolve(err)

		level := slog.LevelWarn
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.LogAttrs(c.Request.Context(), level, "リクエストの処理に失敗",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", status),
			slog.String("request_id", RequestIDFrom(c)),
			slog.String("error", err.Error()),
		)

		c.JSON(status, gin.H{"error": message})
	}
}
