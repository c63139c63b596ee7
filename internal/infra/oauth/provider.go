package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"authgate/internal/config"
	"authgate/internal/domain/model"

	"golang.org/x/oauth2"
)

var ErrUnknownProvider = errors.New("unknown oauth provider")

// OAuthプロバイダの共通インターフェース
type Provider interface {
	Name() model.Provider
	AuthCodeURL(state string) string
	// codeを交換してプロフィールを取る
	Authenticate(ctx context.Context, code string) (*model.ExternalProfile, error)
}

// Options はプロバイダ1つ分の設定。EndpointとAPIBaseURLはテストで差し替える。
type Options struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Endpoint     *oauth2.Endpoint
	APIBaseURL   string
}

// 設定済み（client idあり）のプロバイダだけ持つ
type Registry struct {
	providers map[model.Provider]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[model.Provider]Provider, len(providers))}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

// NewRegistryFromConfig はCALLBACK_URL/<provider> をredirectにして組み立てる。
func NewRegistryFromConfig(cfg config.OAuthConfig) *Registry {
	var ps []Provider
	if cfg.GitHubClientID != "" {
		ps = append(ps, NewGitHub(Options{
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			RedirectURL:  cfg.CallbackURL + "/" + string(model.ProviderGitHub),
		}))
	}
	if cfg.GoogleClientID != "" {
		ps = append(ps, NewGoogle(Options{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.CallbackURL + "/" + string(model.ProviderGoogle),
		}))
	}
	return NewRegistry(ps...)
}

func (r *Registry) Get(name model.Provider) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, ErrUnknownProvider
	}
	return p, nil
}

// 有効なプロバイダ名の一覧（github, googleの順）
func (r *Registry) Names() []model.Provider {
	var out []model.Provider
	for _, n := range []model.Provider{model.ProviderGitHub, model.ProviderGoogle} {
		if _, ok := r.providers[n]; ok {
			out = append(out, n)
		}
	}
	return out
}

// NewState はCSRF対策のランダムなstateを作る。
func NewState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func newConfig(o Options, def oauth2.Endpoint, scopes []string) *oauth2.Config {
	ep := def
	if o.Endpoint != nil {
		ep = *o.Endpoint
	}
	return &oauth2.Config{
		ClientID:     o.ClientID,
		ClientSecret: o.ClientSecret,
		RedirectURL:  o.RedirectURL,
		Endpoint:     ep,
		Scopes:       scopes,
	}
}

// GETしてJSONをdstに読む
func getJSON(ctx context.Context, client *http.Client, url string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	res, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", url, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, res.Body)
		return fmt.Errorf("get %s: status %d", url, res.StatusCode)
	}
	if err := json.NewDecoder(res.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}
