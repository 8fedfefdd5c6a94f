package session

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Cookie名。フロントエンドが参照するため変更しないこと。
const (
	TokenCookie = "token"
	NameCookie  = "name"
	IDCookie    = "id"
	EmailCookie = "email"
)

// OAuth2フローの途中でのみ使うCookie名。
const (
	StateCookie    = "__oauth_state"
	VerifierCookie = "__oauth_pkce"
)

// flowCookieMaxAge はstate・PKCE Cookieの有効期間。
const flowCookieMaxAge = 5 * time.Minute

// DefaultFlowPath はstate・PKCE Cookieを送信するパス。
const DefaultFlowPath = "/auth/google-oauth"

// Profile はCookieに平文で保持するプロフィール。
type Profile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Policy はCookieの属性を決める。
// 開発モードではHTTPでも動作するようにHttpOnlyとSecureを外す。
type Policy struct {
	DevMode bool
	// FlowPath はstate・PKCE Cookieのパス。空ならDefaultFlowPath。
	FlowPath string
}

// NewPolicy は新しいPolicyを生成する。
func NewPolicy(devMode bool) Policy {
	return Policy{DevMode: devMode, FlowPath: DefaultFlowPath}
}

func (p Policy) flowPath() string {
	if p.FlowPath == "" {
		return DefaultFlowPath
	}
	return p.FlowPath
}

// SetToken はバックエンドが発行したトークンをCookieに設定する。
// トークンがexpを持つJWTであれば、その時刻をCookieの有効期限にする。
func (p Policy) SetToken(w http.ResponseWriter, token string) {
	cookie := &http.Cookie{
		Name:     TokenCookie,
		Value:    encodeValue(token),
		Path:     "/",
		HttpOnly: !p.DevMode,
		Secure:   !p.DevMode,
	}
	if exp, ok := TokenExpiry(token); ok {
		cookie.Expires = exp
	}
	http.SetCookie(w, cookie)
}

// SetProfile はプロフィールを平文のCookieに設定する。
// フロントエンドのスクリプトから読めるようHttpOnlyは付けない。
func (p Policy) SetProfile(w http.ResponseWriter, profile Profile) {
	for _, kv := range [][2]string{
		{NameCookie, profile.Name},
		{IDCookie, profile.ID},
		{EmailCookie, profile.Email},
	} {
		http.SetCookie(w, &http.Cookie{
			Name:  kv[0],
			Value: encodeValue(kv[1]),
			Path:  "/",
		})
	}
}

// Clear はトークンとプロフィールのCookieを削除する。
func (p Policy) Clear(w http.ResponseWriter) {
	for _, name := range []string{TokenCookie, NameCookie, IDCookie, EmailCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: name == TokenCookie && !p.DevMode,
			Secure:   name == TokenCookie && !p.DevMode,
		})
	}
}

// SetFlow はOAuth2フローのstateとPKCE verifierを短命のCookieに設定する。
func (p Policy) SetFlow(w http.ResponseWriter, state, verifier string) {
	for _, kv := range [][2]string{
		{StateCookie, state},
		{VerifierCookie, verifier},
	} {
		http.SetCookie(w, &http.Cookie{
			Name:     kv[0],
			Value:    kv[1],
			Path:     p.flowPath(),
			MaxAge:   int(flowCookieMaxAge.Seconds()),
			HttpOnly: true,
			Secure:   !p.DevMode,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// ClearFlow はstateとPKCE verifierのCookieを削除する。
func (p Policy) ClearFlow(w http.ResponseWriter) {
	for _, name := range []string{StateCookie, VerifierCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     p.flowPath(),
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   !p.DevMode,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// Token はリクエストのCookieからトークンを取り出す。
func Token(r *http.Request) (string, bool) {
	v := read(r, TokenCookie)
	return v, v != ""
}

// ReadProfile はリクエストのCookieからプロフィールを取り出す。
// いずれかのCookieが無いか空であればfalseを返す。
func ReadProfile(r *http.Request) (Profile, bool) {
	profile := Profile{
		ID:    read(r, IDCookie),
		Name:  read(r, NameCookie),
		Email: read(r, EmailCookie),
	}
	if profile.ID == "" || profile.Name == "" || profile.Email == "" {
		return Profile{}, false
	}
	return profile, true
}

// ReadFlow はリクエストのCookieからstateとPKCE verifierを取り出す。無ければ空文字を返す。
func ReadFlow(r *http.Request) (state, verifier string) {
	return read(r, StateCookie), read(r, VerifierCookie)
}

func read(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	v, err := url.PathUnescape(c.Value)
	if err != nil {
		return c.Value
	}
	return v
}

// encodeValue はブラウザのencodeURIComponentと同じ形式でCookie値をエスケープする。
func encodeValue(v string) string {
	return strings.ReplaceAll(url.QueryEscape(v), "+", "%20")
}
