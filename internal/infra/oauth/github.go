package oauth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"authgate/internal/domain/model"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const defaultGitHubAPI = "https://api.github.com"

type githubProvider struct {
	conf    *oauth2.Config
	apiBase string
}

func NewGitHub(o Options) Provider {
	base := o.APIBaseURL
	if base == "" {
		base = defaultGitHubAPI
	}
	return &githubProvider{
		conf:    newConfig(o, github.Endpoint, []string{"user:email"}),
		apiBase: strings.TrimRight(base, "/"),
	}
}

func (p *githubProvider) Name() model.Provider { return model.ProviderGitHub }

func (p *githubProvider) AuthCodeURL(state string) string {
	return p.conf.AuthCodeURL(state)
}

type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

func (p *githubProvider) Authenticate(ctx context.Context, code string) (*model.ExternalProfile, error) {
	tok, err := p.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("github exchange: %w", err)
	}
	client := p.conf.Client(ctx, tok)

	var u githubUser
	if err := getJSON(ctx, client, p.apiBase+"/user", &u); err != nil {
		return nil, err
	}
	if u.ID == 0 {
		return nil, errors.New("github: empty user id")
	}

	email := u.Email
	if email == "" {
		// 公開メールがない場合はprimaryかつverifiedを探す
		var emails []githubEmail
		if err := getJSON(ctx, client, p.apiBase+"/user/emails", &emails); err == nil {
			for _, e := range emails {
				if e.Primary && e.Verified {
					email = e.Email
					break
				}
			}
		}
	}
	if email == "" {
		email = u.Login + "@github.com"
	}

	name := u.Name
	if name == "" {
		name = u.Login
	}

	return &model.ExternalProfile{
		ExternalID:  strconv.FormatInt(u.ID, 10),
		Provider:    model.ProviderGitHub,
		DisplayName: name,
		Email:       email,
		Avatar:      u.AvatarURL,
	}, nil
}
