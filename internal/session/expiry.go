package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry はトークンがJWTであればexpクレームの時刻を返す。
// 署名は検証しない。トークンの正当性はバックエンドが判断するため、
// ここではCookieの有効期限を合わせる目的でのみ読む。
func TokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
