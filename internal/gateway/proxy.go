package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/nao1215/authgate/pkg/httpclient"
)

// ForwardRequest はバックエンドへ転送するリクエスト。
type ForwardRequest struct {
	Method string
	Path   string
	// Token はCookieから取り出したトークン。空ならAuthorizationヘッダーを付けない。
	Token string
	Body  any
	// ExpectStatus は書き込み系の操作で期待するステータス。0なら検査しない。
	ExpectStatus int
}

// Proxy はセッションのトークンをBearer認証に変換してバックエンドAPIへ転送する。
// トークンの発行・変更は行わず、ゲートウェイ側で事前に拒否もしない。
type Proxy struct {
	client  *httpclient.Client
	metrics *Metrics
}

// NewProxy は新しいProxyを生成する。
func NewProxy(client *httpclient.Client, metrics *Metrics) *Proxy {
	return &Proxy{
		client:  client,
		metrics: metrics,
	}
}

// Forward はリクエストをバックエンドに転送する。
// ExpectStatusが指定されていてステータスが一致しない場合はErrUpstreamContractを返し、レスポンスは返さない。
// 通信エラーは再試行しない。
func (p *Proxy) Forward(ctx context.Context, req ForwardRequest) (*httpclient.Response, error) {
	start := time.Now()
	resp, err := p.client.Do(ctx, httpclient.Request{
		Method:      req.Method,
		Path:        req.Path,
		Body:        req.Body,
		BearerToken: req.Token,
	})
	if err != nil {
		p.metrics.ObserveUpstream(req.Method, 0, start)
		return nil, err
	}
	p.metrics.ObserveUpstream(req.Method, resp.StatusCode, start)

	if req.ExpectStatus != 0 && resp.StatusCode != req.ExpectStatus {
		return nil, fmt.Errorf("%w: %s %s returned %d, want %d",
			ErrUpstreamContract, req.Method, req.Path, resp.StatusCode, req.ExpectStatus)
	}
	return resp, nil
}
