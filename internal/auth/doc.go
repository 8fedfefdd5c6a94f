// Package auth はゲートウェイの認証方式を提供する。
//
// ローカル認証（メールアドレスとパスワード）とOAuth2認可コードフローの2つの
// Verifierを持ち、どちらもバックエンド認証APIが発行したトークンを含む
// VerifiedIdentityを返す。ゲートウェイ自身はトークンを発行・署名せず、
// 失敗の原因はクライアントに区別して返さない。
package auth
