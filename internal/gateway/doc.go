// Package gateway は認証ゲートウェイのHTTPサーバーを提供する。
//
// ローカル認証とGoogle OAuth2ログインでバックエンドが発行したトークンを
// Cookieに載せ、以降のリクエストではそのトークンをBearer認証として
// バックエンドAPIに転送する。ゲートウェイ自身はトークンを発行・検証せず、
// サーバー側にセッションを保存しない。
package gateway
