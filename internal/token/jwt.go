package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"authgate/internal/domain/model"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// Authorizationヘッダが無い・形式違い
	ErrMissingCredential = errors.New("missing credential")
	// 署名は正しいが期限切れ
	ErrExpiredCredential = errors.New("expired credential")
	// それ以外すべて
	ErrInvalidCredential = errors.New("invalid credential")
)

// AccessClaims はアクセストークンの中身。秘密情報は入れない。
type AccessClaims struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	Provider string   `json:"provider"`
	Roles    []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// ロール未設定はuser扱い
func (c *AccessClaims) EffectiveRoles() []string {
	if len(c.Roles) == 0 {
		return []string{string(model.RoleUser)}
	}
	return c.Roles
}

// HasRole はrequiredのどれか1つでも持っていればtrue
func (c *AccessClaims) HasRole(required ...string) bool {
	if c == nil {
		return false
	}
	for _, have := range c.EffectiveRoles() {
		for _, want := range required {
			if have == want {
				return true
			}
		}
	}
	return false
}

// HS256でアクセストークンを発行する
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration, now func() time.Time) *Issuer {
	if now == nil {
		now = time.Now
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: now}
}

func (i *Issuer) TTL() time.Duration { return i.ttl }

// Sign はユーザーの今の情報からアクセストークンを作る。
func (i *Issuer) Sign(u *model.User) (string, error) {
	if u == nil || u.ID == "" {
		return "", errors.New("sign access token: empty user")
	}

	//iatは秒単位
	now := i.now().Truncate(time.Second)

	claims := AccessClaims{
		ID:       u.ID,
		Email:    u.Email,
		Provider: string(u.Provider),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	// 既定のuser以外のときだけrolesを載せる
	if u.Role != "" && u.Role != model.RoleUser {
		claims.Roles = u.Roles()
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// DBを見ないステートレスな検証
type Verifier struct {
	secret []byte
	now    func() time.Time
}

func NewVerifier(secret string, now func() time.Time) *Verifier {
	if now == nil {
		now = time.Now
	}
	return &Verifier{secret: []byte(secret), now: now}
}

// Verify は署名と期限を検証してclaimsを返す。
func (v *Verifier) Verify(raw string) (*AccessClaims, error) {
	if raw == "" {
		return nil, ErrMissingCredential
	}

	claims := &AccessClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		// v5は署名検証の後にexpを見るので、期限切れ＝署名は正しい
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredCredential
		}
		return nil, ErrInvalidCredential
	}
	if claims.ID == "" {
		return nil, ErrInvalidCredential
	}
	return claims, nil
}

// ParseBearer は "Bearer <token>" からtokenを取り出す。スキームは大文字小文字を区別しない。
func ParseBearer(header string) (string, error) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrMissingCredential
	}
	raw := strings.TrimSpace(parts[1])
	if raw == "" {
		return "", ErrMissingCredential
	}
	return raw, nil
}
