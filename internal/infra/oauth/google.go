package oauth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"authgate/internal/domain/model"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const defaultGoogleAPI = "https://www.googleapis.com"

type googleProvider struct {
	conf    *oauth2.Config
	apiBase string
}

func NewGoogle(o Options) Provider {
	base := o.APIBaseURL
	if base == "" {
		base = defaultGoogleAPI
	}
	return &googleProvider{
		conf:    newConfig(o, google.Endpoint, []string{"openid", "email", "profile"}),
		apiBase: strings.TrimRight(base, "/"),
	}
}

func (p *googleProvider) Name() model.Provider { return model.ProviderGoogle }

func (p *googleProvider) AuthCodeURL(state string) string {
	return p.conf.AuthCodeURL(state)
}

type googleUserInfo struct {
	Sub     string `json:"sub"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

func (p *googleProvider) Authenticate(ctx context.Context, code string) (*model.ExternalProfile, error) {
	tok, err := p.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("google exchange: %w", err)
	}

	var info googleUserInfo
	if err := getJSON(ctx, p.conf.Client(ctx, tok), p.apiBase+"/oauth2/v3/userinfo", &info); err != nil {
		return nil, err
	}
	if info.Sub == "" {
		return nil, errors.New("google: empty subject")
	}
	if info.Email == "" {
		return nil, errors.New("google: email not granted")
	}

	name := info.Name
	if name == "" {
		name = info.Email
	}

	return &model.ExternalProfile{
		ExternalID:  info.Sub,
		Provider:    model.ProviderGoogle,
		DisplayName: name,
		Email:       info.Email,
		Avatar:      info.Picture,
	}, nil
}
