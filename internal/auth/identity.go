package auth

import (
	"context"
	"errors"
	"fmt"
)

// ErrAuthFailure は認証に失敗したことを表す。
// 資格情報の誤り、OAuth2フローの失敗、バックエンドの障害はすべてこのエラーに集約され、
// クライアントには区別せず401として返す。原因はラップされたエラーとしてログにのみ残す。
var ErrAuthFailure = errors.New("authentication failed")

// authFailure は原因をラップしたErrAuthFailureを返す。
func authFailure(cause error) error {
	return fmt.Errorf("%w: %w", ErrAuthFailure, cause)
}

// Credentials はローカル認証の資格情報。リクエストの処理中にのみ存在し、保存しない。
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// VerifiedIdentity は検証に成功したユーザーの情報。
// Tokenはバックエンドの認証システムが発行した不透明なBearerトークンで、
// ゲートウェイは署名・検証・変更を一切行わずそのまま引き渡す。
type VerifiedIdentity struct {
	UserID string
	Name   string
	Email  string
	Token  string
}

// PublicIdentity はレスポンスボディに載せてよいプロフィール情報。トークンは含まない。
type PublicIdentity struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// Public はトークンを除いたプロフィール情報を返す。
func (v VerifiedIdentity) Public() PublicIdentity {
	return PublicIdentity{
		UserID: v.UserID,
		Name:   v.Name,
		Email:  v.Email,
	}
}

// FederatedProfile はOAuth2プロバイダーから取得したプロフィール。
// Federated Verifierの処理中にのみ存在し、レスポンスには含めない。
type FederatedProfile struct {
	ProviderID string
	Email      string
	Name       string
}

// Verifier は認証方式ごとの検証処理。
// 失敗時はErrAuthFailureをラップしたエラーを返す。それ以外のエラーは内部エラーとして扱われる。
type Verifier[In any] interface {
	Verify(ctx context.Context, in In) (VerifiedIdentity, error)
}
