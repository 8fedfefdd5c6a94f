package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// DefaultProviderTimeout はOAuth2プロバイダーへの通信1回あたりの既定タイムアウト。
const DefaultProviderTimeout = 10 * time.Second

// FederatedConfig はOAuth2プロバイダーの設定。
type FederatedConfig struct {
	// IssuerURL はOIDCディスカバリーに使うIssuer（例: https://accounts.google.com）。
	IssuerURL    string
	ClientID     string
	ClientSecret string
	// RedirectURL はプロバイダーに登録したコールバックURL。
	RedirectURL string
	// Scopes が空の場合は openid, email, profile を要求する。
	Scopes []string
	// HTTPClient はプロバイダーとの通信に使うクライアント。nilならDefaultProviderTimeoutを設定したものを使う。
	HTTPClient *http.Client
}

// ProfileResolver はプロバイダーのプロフィールからバックエンドのアカウントとトークンを得る。
type ProfileResolver interface {
	SignProvider(ctx context.Context, profile FederatedProfile) (VerifiedIdentity, error)
}

// AuthorizationRequest は認可フローの開始時に発行する値。
// StateとVerifierはリクエスト元のユーザーエージェントに紐付けて保持し、コールバックで照合する。
type AuthorizationRequest struct {
	// URL はユーザーエージェントをリダイレクトさせるプロバイダーの認可エンドポイント。
	URL string
	// State はCSRF対策のstateパラメータ。
	State string
	// Verifier はPKCEのcode_verifier。
	Verifier string
}

// CallbackParams はプロバイダーからのコールバックの内容と、開始時に保持した値。
type CallbackParams struct {
	Code  string
	State string
	// Error はプロバイダーが返したerrorパラメータ（ユーザーの拒否など）。
	Error string
	// ExpectedState は開始時に発行したstate。
	ExpectedState string
	// Verifier は開始時に発行したPKCEのcode_verifier。
	Verifier string
}

// FederatedVerifier はOAuth2認可コードフロー（PKCE付き）でユーザーを検証する。
//
// 状態遷移: 開始 → プロバイダーへリダイレクト → コールバック受信 → プロフィール取得 → アカウント解決。
// どの段階の失敗もErrAuthFailureになる。
type FederatedVerifier struct {
	oauth      *oauth2.Config
	provider   *oidc.Provider
	idTokens   *oidc.IDTokenVerifier
	resolver   ProfileResolver
	httpClient *http.Client
	logger     *slog.Logger
}

var _ Verifier[CallbackParams] = (*FederatedVerifier)(nil)

// NewFederatedVerifier はOIDCディスカバリーでエンドポイントを取得し、FederatedVerifierを生成する。
func NewFederatedVerifier(ctx context.Context, cfg FederatedConfig, resolver ProfileResolver, logger *slog.Logger) (*FederatedVerifier, error) {
	if cfg.IssuerURL == "" || cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RedirectURL == "" {
		return nil, errors.New("OAuth2プロバイダーの設定に必須項目が不足しています")
	}
	if resolver == nil {
		return nil, errors.New("ProfileResolverが指定されていません")
	}
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultProviderTimeout}
	}

	provider, err := oidc.NewProvider(oidc.ClientContext(ctx, httpClient), cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("OIDCプロバイダーの初期化に失敗: %w", err)
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "email", "profile"}
	}

	return &FederatedVerifier{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       scopes,
		},
		provider:   provider,
		idTokens:   provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		resolver:   resolver,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Begin は認可フローを開始し、リダイレクト先とリクエストに紐付けるstate・PKCE verifierを返す。
func (v *FederatedVerifier) Begin() (AuthorizationRequest, error) {
	state, err := generateState()
	if err != nil {
		return AuthorizationRequest{}, err
	}
	verifier := oauth2.GenerateVerifier()

	url := v.oauth.AuthCodeURL(
		state,
		oauth2.AccessTypeOnline,
		oauth2.S256ChallengeOption(verifier),
	)
	return AuthorizationRequest{
		URL:      url,
		State:    state,
		Verifier: verifier,
	}, nil
}

// Verify はコールバックを検証して認可フローを完了する。
// 認可コードを交換してプロフィールを取得し、バックエンドでアカウントとトークンを解決する。
func (v *FederatedVerifier) Verify(ctx context.Context, p CallbackParams) (VerifiedIdentity, error) {
	identity, err := v.complete(ctx, p)
	if err != nil {
		v.logger.WarnContext(ctx, "OAuth2認証に失敗", slog.String("error", err.Error()))
		return VerifiedIdentity{}, authFailure(err)
	}
	return identity, nil
}

func (v *FederatedVerifier) complete(ctx context.Context, p CallbackParams) (VerifiedIdentity, error) {
	if p.Error != "" {
		return VerifiedIdentity{}, fmt.Errorf("provider returned error: %s", p.Error)
	}
	if !statesMatch(p.State, p.ExpectedState) {
		return VerifiedIdentity{}, errors.New("state mismatch, possible CSRF")
	}
	if p.Code == "" {
		return VerifiedIdentity{}, errors.New("authorization code is missing")
	}
	if p.Verifier == "" {
		return VerifiedIdentity{}, errors.New("pkce verifier is missing")
	}

	ctx = oidc.ClientContext(ctx, v.httpClient)

	token, err := v.oauth.Exchange(ctx, p.Code, oauth2.VerifierOption(p.Verifier))
	if err != nil {
		return VerifiedIdentity{}, fmt.Errorf("code exchange: %w", err)
	}

	profile, err := v.fetchProfile(ctx, token)
	if err != nil {
		return VerifiedIdentity{}, err
	}

	identity, err := v.resolver.SignProvider(ctx, profile)
	if err != nil {
		return VerifiedIdentity{}, fmt.Errorf("resolve identity: %w", err)
	}
	return identity, nil
}

// fetchProfile はuserinfoエンドポイントからプロフィールを取得する。
// トークンレスポンスにid_tokenが含まれる場合は署名を検証し、subjectの一致を確認する。
func (v *FederatedVerifier) fetchProfile(ctx context.Context, token *oauth2.Token) (FederatedProfile, error) {
	var idSubject string
	if raw, ok := token.Extra("id_token").(string); ok && raw != "" {
		idToken, err := v.idTokens.Verify(ctx, raw)
		if err != nil {
			return FederatedProfile{}, fmt.Errorf("verify id_token: %w", err)
		}
		idSubject = idToken.Subject
	}

	info, err := v.provider.UserInfo(ctx, oauth2.StaticTokenSource(token))
	if err != nil {
		return FederatedProfile{}, fmt.Errorf("userinfo: %w", err)
	}

	var claims struct {
		Name string `json:"name"`
	}
	if err := info.Claims(&claims); err != nil {
		return FederatedProfile{}, fmt.Errorf("userinfo claims: %w", err)
	}

	if info.Subject == "" || info.Email == "" {
		return FederatedProfile{}, errors.New("userinfo is missing sub or email")
	}
	if idSubject != "" && idSubject != info.Subject {
		return FederatedProfile{}, errors.New("id_token subject does not match userinfo")
	}

	name := claims.Name
	if name == "" {
		name = info.Email
	}
	return FederatedProfile{
		ProviderID: info.Subject,
		Email:      info.Email,
		Name:       name,
	}, nil
}
