// Package httpclient はバックエンドAPIとのHTTP通信を行うクライアントを提供する。
//
// 認証ゲートウェイがバックエンドの認証APIやリソースAPIを呼び出す際に使用する。
// タイムアウト、Bearer/Basic認証ヘッダーの付与、転送失敗とステータス異常の
// 区別（TransportError / StatusError）といった通信パターンを統一する。
package httpclient
