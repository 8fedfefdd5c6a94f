package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/authgate/internal/auth"
	"github.com/nao1215/authgate/internal/session"
)

// maxBodyBytes は受け付けるリクエストボディの上限。
const maxBodyBytes = 1 << 20

// googleAuthFragment はOAuth2ログイン成功後のフロントエンドのルート。
const googleAuthFragment = "/#/google/auth"

// handleSignIn はメールアドレスとパスワードでサインインするハンドラを返す。
// 成功時はトークンをCookieに設定し、トークンを除いたプロフィールを返す。
func (s *Server) handleSignIn() gin.HandlerFunc {
	return func(c *gin.Context) {
		creds, err := readCredentials(c)
		if err != nil {
			abortWithError(c, err)
			return
		}

		identity, err := s.local.Verify(c.Request.Context(), creds)
		s.metrics.RecordSignIn(strategyLocal, err)
		if err != nil {
			abortWithError(c, err)
			return
		}

		s.cookies.SetToken(c.Writer, identity.Token)
		c.JSON(http.StatusOK, identity.Public())
	}
}

// readCredentials はJSONボディから資格情報を読み取る。
// ボディが空の場合はBasic認証ヘッダーを使う。どちらも無ければ空の資格情報を返す。
func readCredentials(c *gin.Context) (auth.Credentials, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		return auth.Credentials{}, fmt.Errorf("%w: %w", errInvalidBody, err)
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		if email, password, ok := c.Request.BasicAuth(); ok {
			return auth.Credentials{Email: email, Password: password}, nil
		}
		return auth.Credentials{}, nil
	}

	var creds auth.Credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return auth.Credentials{}, fmt.Errorf("%w: %w", errInvalidBody, err)
	}
	return creds, nil
}

// handleSignUp はバックエンドにアカウントを登録するハンドラを返す。
func (s *Server) handleSignUp() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req auth.SignUpRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, fmt.Errorf("%w: %w", errInvalidBody, err))
			return
		}

		if err := s.signUp.SignUp(c.Request.Context(), req); err != nil {
			abortWithError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"name":  req.Name,
			"email": req.Email,
		})
	}
}

// handleGoogleLogin はGoogle OAuth2ログインを開始するハンドラを返す。
// stateとPKCE verifierを短命のCookieに保持してプロバイダーへリダイレクトする。
func (s *Server) handleGoogleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.federated == nil {
			abortWithError(c, errProviderDisabled)
			return
		}

		req, err := s.federated.Begin()
		if err != nil {
			abortWithError(c, err)
			return
		}

		s.cookies.SetFlow(c.Writer, req.State, req.Verifier)
		c.Redirect(http.StatusFound, req.URL)
	}
}

// handleGoogleCallback はGoogle OAuth2コールバックを処理するハンドラを返す。
// 成功時はトークンとプロフィールをCookieに設定してフロントエンドへリダイレクトする。
// 失敗時はリダイレクトせず401を返す。
func (s *Server) handleGoogleCallback() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.federated == nil {
			abortWithError(c, errProviderDisabled)
			return
		}

		// stateとverifierは一度しか使わないため結果にかかわらず削除する
		state, verifier := session.ReadFlow(c.Request)
		s.cookies.ClearFlow(c.Writer)

		identity, err := s.federated.Verify(c.Request.Context(), auth.CallbackParams{
			Code:          c.Query("code"),
			State:         c.Query("state"),
			Error:         c.Query("error"),
			ExpectedState: state,
			Verifier:      verifier,
		})
		s.metrics.RecordSignIn(strategyGoogle, err)
		if err != nil {
			abortWithError(c, err)
			return
		}

		s.cookies.SetToken(c.Writer, identity.Token)
		s.cookies.SetProfile(c.Writer, session.Profile{
			ID:    identity.UserID,
			Name:  identity.Name,
			Email: identity.Email,
		})
		c.Redirect(http.StatusFound, s.clientURL+googleAuthFragment)
	}
}

// handleAuthSuccess はCookieのプロフィールを返すハンドラを返す。
// name, email, idのいずれかが無いか空であれば401を返す。トークンは返さない。
func (s *Server) handleAuthSuccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, ok := session.ReadProfile(c.Request)
		if !ok {
			abortWithError(c, fmt.Errorf("%w: profile cookies are missing", auth.ErrAuthFailure))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "User Authenticated",
			"user":    profile,
		})
	}
}

// handleSignOut はセッションのCookieを削除するハンドラを返す。
func (s *Server) handleSignOut() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.cookies.Clear(c.Writer)
		c.Status(http.StatusNoContent)
	}
}
