package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader はリクエストIDを受け渡すヘッダー名。
const RequestIDHeader = "X-Request-ID"

// requestIDKey はgin.ContextにリクエストIDを保存するキー。
const requestIDKey = "request_id"

// maxRequestIDLen は受け入れるリクエストIDの最大長。
const maxRequestIDLen = 128

// RequestID はリクエストごとにIDを割り当てるGinミドルウェアを返す。
// 受信したX-Request-IDが妥当であればそれを引き継ぎ、無ければUUIDを生成する。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLen || !printableASCII(id) {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestIDFrom はRequestIDミドルウェアが割り当てたIDを返す。未設定なら空文字を返す。
func RequestIDFrom(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

func printableASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x21 || s[i] > 0x7e {
			return false
		}
	}
	return true
}
