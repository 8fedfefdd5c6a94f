package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/authgate/internal/auth"
	"github.com/nao1215/authgate/internal/config"
	"github.com/nao1215/authgate/internal/session"
	"github.com/nao1215/authgate/pkg/httpclient"
	"github.com/nao1215/authgate/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// federatedFlow はOAuth2ログインの開始と完了を行う。
type federatedFlow interface {
	Begin() (auth.AuthorizationRequest, error)
	auth.Verifier[auth.CallbackParams]
}

// signUpBackend はアカウント登録の委譲先。
type signUpBackend interface {
	SignUp(ctx context.Context, req auth.SignUpRequest) error
}

// Server は認証ゲートウェイのHTTPサーバー。
// リクエスト間で共有するのは生成後に変更しない値だけである。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// local はメールアドレスとパスワードによる認証。
	local auth.Verifier[auth.Credentials]
	// federated はGoogle OAuth2ログイン。未設定ならnil。
	federated federatedFlow
	// signUp はアカウント登録の委譲先。
	signUp signUpBackend
	// proxy はバックエンドAPIへの転送。
	proxy *Proxy
	// cookies はセッションCookieの属性。
	cookies session.Policy
	// clientURL はOAuth2ログイン後にリダイレクトするフロントエンドのURL。
	clientURL string
	// metrics はゲートウェイのメトリクス。
	metrics *Metrics
	// registry は/metricsで公開するレジストリ。
	registry *prometheus.Registry
}

// NewServer は新しいGatewayサーバーを生成する。
// Googleのクライアント設定があればOIDCディスカバリーを行うため、ctxでその通信を打ち切れる。
func NewServer(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	backend := httpclient.New(cfg.APIURL, httpclient.WithTimeout(cfg.BackendTimeout))
	identity := auth.NewIdentityAPI(backend, cfg.APIKeyToken)

	var federated federatedFlow
	if cfg.GoogleEnabled() {
		v, err := auth.NewFederatedVerifier(ctx, auth.FederatedConfig{
			IssuerURL:    cfg.GoogleIssuerURL,
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			HTTPClient:   &http.Client{Timeout: cfg.ProviderTimeout},
		}, identity, logger)
		if err != nil {
			return nil, fmt.Errorf("Google OAuth2の初期化に失敗: %w", err)
		}
		federated = v
	} else {
		logger.Warn("Google OAuth2が設定されていないため、OAuth2ログインを無効にします")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := NewMetrics(registry)

	s := &Server{
		router:    newRouter(cfg.CORSOrigins, logger),
		local:     auth.NewLocalVerifier(identity, logger),
		federated: federated,
		signUp:    identity,
		proxy:     NewProxy(backend, metrics),
		cookies:   session.NewPolicy(cfg.DevMode()),
		clientURL: cfg.ClientURL,
		metrics:   metrics,
		registry:  registry,
	}
	s.setupRoutes()

	return s, nil
}

// newRouter は共通ミドルウェアを設定したルーターを生成する。
func newRouter(corsOrigins []string, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.SecureHeaders())
	router.Use(middleware.CORS(corsOrigins))
	router.Use(middleware.ErrorHandler(resolveError, logger))
	return router
}

// Handler はhttp.Serverに渡すハンドラーを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	// 認証エンドポイント
	authGroup := s.router.Group("/auth")
	{
		authGroup.POST("/sign-in", s.handleSignIn())
		authGroup.POST("/sign-up", s.handleSignUp())
		authGroup.POST("/sign-out", s.handleSignOut())
		authGroup.GET("/success", s.handleAuthSuccess())
		authGroup.GET("/google-oauth", s.handleGoogleLogin())
		authGroup.GET("/google-oauth/callback", s.handleGoogleCallback())
	}

	// To-Do（バックエンドへ転送）
	s.router.GET("/to-dos/:userId", s.handleListToDos())
	s.router.POST("/user-to-dos", s.handleCreateToDo())
	s.router.PUT("/user-to-dos", s.handleUpdateToDo(todosPath))
	s.router.PUT("/user-to-dos/completed", s.handleUpdateToDo(todosCompletedPath))
	s.router.DELETE("/user-to-dos/:toDoId", s.handleDeleteToDo())

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "gateway"})
	})
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
}
