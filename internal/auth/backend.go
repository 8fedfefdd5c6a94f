package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/nao1215/authgate/pkg/httpclient"
)

// バックエンド認証APIのパス。
const (
	signInPath   = "/api/auth/sign-in"
	signUpPath   = "/api/auth/sign-up"
	signProvPath = "/api/auth/sign-provider"
)

// ErrMalformedResponse はバックエンドのレスポンスが想定した形式でないことを表す。
var ErrMalformedResponse = errors.New("malformed identity response")

// SignUpRequest はアカウント登録の入力。
type SignUpRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// IdentityAPI はバックエンド認証APIのクライアント。
// トークンの発行はすべてバックエンドに委譲し、ゲートウェイは署名鍵を持たない。
type IdentityAPI struct {
	// client はバックエンドへのHTTPクライアント。
	client *httpclient.Client
	// apiKeyToken はバックエンドが発行するトークンのスコープを決めるAPIキー。
	apiKeyToken string
}

// NewIdentityAPI は新しいIdentityAPIを生成する。
func NewIdentityAPI(client *httpclient.Client, apiKeyToken string) *IdentityAPI {
	return &IdentityAPI{
		client:      client,
		apiKeyToken: apiKeyToken,
	}
}

// identityPayload はサインインAPIのレスポンス。
// フラットな形式 {token,userId,name,email} と、
// ユーザー情報を入れ子にした形式 {token,user:{id,name,email}} の両方を受け付ける。
type identityPayload struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	User   *struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user"`
}

// identity はペイロードをVerifiedIdentityに変換する。トークンが空なら不正とみなす。
func (p identityPayload) identity() (VerifiedIdentity, error) {
	v := VerifiedIdentity{
		UserID: p.UserID,
		Name:   p.Name,
		Email:  p.Email,
		Token:  p.Token,
	}
	if p.User != nil {
		if v.UserID == "" {
			v.UserID = p.User.ID
		}
		if v.Name == "" {
			v.Name = p.User.Name
		}
		if v.Email == "" {
			v.Email = p.User.Email
		}
	}
	if v.Token == "" {
		return VerifiedIdentity{}, fmt.Errorf("%w: token is empty", ErrMalformedResponse)
	}
	return v, nil
}

// SignIn はメールアドレスとパスワードをBasic認証でバックエンドに送り、発行されたトークンを受け取る。
// 200以外のステータスは *httpclient.StatusError として返す。
func (a *IdentityAPI) SignIn(ctx context.Context, creds Credentials) (VerifiedIdentity, error) {
	resp, err := a.client.Do(ctx, httpclient.Request{
		Method:    http.MethodPost,
		Path:      signInPath,
		Body:      map[string]string{"apiKeyToken": a.apiKeyToken},
		BasicAuth: &httpclient.BasicAuth{Username: creds.Email, Password: creds.Password},
	})
	if err != nil {
		return VerifiedIdentity{}, err
	}
	return decodeIdentity(resp)
}

// SignProvider はOAuth2プロバイダーのプロフィールでバックエンドのアカウントを取得または作成する。
// バックエンドの契約に従い、プロバイダーのユーザーIDをpasswordとして送る。
func (a *IdentityAPI) SignProvider(ctx context.Context, profile FederatedProfile) (VerifiedIdentity, error) {
	resp, err := a.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   signProvPath,
		Body: map[string]string{
			"name":        profile.Name,
			"email":       profile.Email,
			"password":    profile.ProviderID,
			"apiKeyToken": a.apiKeyToken,
		},
	})
	if err != nil {
		return VerifiedIdentity{}, err
	}
	return decodeIdentity(resp)
}

// SignUp はバックエンドにアカウントを登録する。
func (a *IdentityAPI) SignUp(ctx context.Context, req SignUpRequest) error {
	return a.client.PostJSON(ctx, signUpPath, req, nil)
}

// decodeIdentity は200のレスポンスのみをVerifiedIdentityとして受け入れる。
func decodeIdentity(resp *httpclient.Response) (VerifiedIdentity, error) {
	if resp.StatusCode != http.StatusOK {
		return VerifiedIdentity{}, &httpclient.StatusError{StatusCode: resp.StatusCode, Body: resp.Body}
	}

	var payload identityPayload
	if err := resp.DecodeJSON(&payload); err != nil {
		return VerifiedIdentity{}, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return payload.identity()
}
