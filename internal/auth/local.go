package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

// SignInBackend はローカル認証を委譲する先のバックエンド。
type SignInBackend interface {
	SignIn(ctx context.Context, creds Credentials) (VerifiedIdentity, error)
}

// LocalVerifier はメールアドレスとパスワードをバックエンド認証APIで検証する。
// 形式のチェックは空でないことのみで、それ以外の検証はすべてバックエンドに委ねる。
type LocalVerifier struct {
	backend SignInBackend
	logger  *slog.Logger
}

var _ Verifier[Credentials] = (*LocalVerifier)(nil)

// NewLocalVerifier は新しいLocalVerifierを生成する。
func NewLocalVerifier(backend SignInBackend, logger *slog.Logger) *LocalVerifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalVerifier{
		backend: backend,
		logger:  logger,
	}
}

// Verify は資格情報を検証する。
// 拒否・通信失敗・不正なレスポンスはすべてErrAuthFailureに集約し、原因はログにのみ出力する。
func (v *LocalVerifier) Verify(ctx context.Context, creds Credentials) (VerifiedIdentity, error) {
	if strings.TrimSpace(creds.Email) == "" || creds.Password == "" {
		return VerifiedIdentity{}, authFailure(errors.New("email and password are required"))
	}

	identity, err := v.backend.SignIn(ctx, creds)
	if err != nil {
		v.logger.WarnContext(ctx, "ローカル認証に失敗", slog.String("error", err.Error()))
		return VerifiedIdentity{}, authFailure(err)
	}
	return identity, nil
}
