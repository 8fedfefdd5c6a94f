// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// パニックリカバリ、リクエストIDとアクセスログ、CORS設定、
// セキュリティヘッダー、エラーレスポンスの一元化を含む。
package middleware
