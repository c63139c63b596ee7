package token

import (
	"testing"
	"time"

	"authgate/internal/domain/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test_secret"

func fixedNow() time.Time {
	return time.Date(2025, 1, 1, 12, 0, 0, 500, time.UTC)
}

func testUser() *model.User {
	return &model.User{ID: "u1", Email: "a@b.com", Provider: model.ProviderGitHub, Role: model.RoleUser}
}

func TestIssuer_Sign_Claims(t *testing.T) {
	iss := NewIssuer(testSecret, 15*time.Minute, fixedNow)
	ver := NewVerifier(testSecret, fixedNow)

	raw, err := iss.Sign(testUser())
	require.NoError(t, err)

	c, err := ver.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "u1", c.ID)
	assert.Equal(t, "a@b.com", c.Email)
	assert.Equal(t, "github", c.Provider)
	assert.Empty(t, c.Roles)
	assert.Equal(t, []string{"user"}, c.EffectiveRoles())
	assert.True(t, fixedNow().Truncate(time.Second).Equal(c.IssuedAt.Time))
	assert.Equal(t, 15*time.Minute, c.ExpiresAt.Sub(c.IssuedAt.Time))
}

func TestIssuer_Sign_SameSecondIsIdentical(t *testing.T) {
	iss := NewIssuer(testSecret, time.Minute, fixedNow)

	a, err := iss.Sign(testUser())
	require.NoError(t, err)
	b, err := iss.Sign(testUser())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestIssuer_Sign_AdminRoles(t *testing.T) {
	u := testUser()
	u.Role = model.RoleAdmin
	raw, err := NewIssuer(testSecret, time.Minute, fixedNow).Sign(u)
	require.NoError(t, err)

	c, err := NewVerifier(testSecret, fixedNow).Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"admin"}, c.Roles)
	assert.True(t, c.HasRole("admin"))
	assert.False(t, c.HasRole("user"))
}

func TestIssuer_Sign_EmptyUser(t *testing.T) {
	_, err := NewIssuer(testSecret, time.Minute, fixedNow).Sign(&model.User{})
	assert.Error(t, err)
}

func TestVerifier_Expired(t *testing.T) {
	raw, err := NewIssuer(testSecret, time.Minute, fixedNow).Sign(testUser())
	require.NoError(t, err)

	//ちょうどexpでも期限切れ
	at := fixedNow().Truncate(time.Second).Add(time.Minute)
	_, err = NewVerifier(testSecret, func() time.Time { return at }).Verify(raw)
	assert.ErrorIs(t, err, ErrExpiredCredential)

	before := at.Add(-time.Second)
	_, err = NewVerifier(testSecret, func() time.Time { return before }).Verify(raw)
	assert.NoError(t, err)
}

func TestVerifier_ExpiredWithWrongSecretIsInvalid(t *testing.T) {
	raw, err := NewIssuer("other", time.Minute, fixedNow).Sign(testUser())
	require.NoError(t, err)

	later := fixedNow().Add(time.Hour)
	_, err = NewVerifier(testSecret, func() time.Time { return later }).Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestVerifier_Tampered(t *testing.T) {
	raw, err := NewIssuer(testSecret, time.Minute, fixedNow).Sign(testUser())
	require.NoError(t, err)

	//署名の1文字を変える
	b := []byte(raw)
	last := len(b) - 2
	if b[last] == 'A' {
		b[last] = 'B'
	} else {
		b[last] = 'A'
	}

	_, err = NewVerifier(testSecret, fixedNow).Verify(string(b))
	assert.ErrorIs(t, err, ErrInvalidCredential)

	_, err = NewVerifier(testSecret, fixedNow).Verify("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidCredential)

	_, err = NewVerifier(testSecret, fixedNow).Verify("")
	assert.ErrorIs(t, err, ErrMissingCredential)
}

func TestVerifier_RejectsOtherAlgorithms(t *testing.T) {
	exp := jwt.NewNumericDate(fixedNow().Add(time.Hour))

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, AccessClaims{
		ID:               "u1",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = NewVerifier(testSecret, fixedNow).Verify(hs512)
	assert.ErrorIs(t, err, ErrInvalidCredential)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, AccessClaims{
		ID:               "u1",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = NewVerifier(testSecret, fixedNow).Verify(none)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestVerifier_MissingIDOrExp(t *testing.T) {
	noID, err := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(fixedNow().Add(time.Hour))},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = NewVerifier(testSecret, fixedNow).Verify(noID)
	assert.ErrorIs(t, err, ErrInvalidCredential)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{ID: "u1"}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = NewVerifier(testSecret, fixedNow).Verify(noExp)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestParseBearer(t *testing.T) {
	cases := []struct {
		header string
		want   string
		err    error
	}{
		{"Bearer abc", "abc", nil},
		{"bearer abc", "abc", nil},
		{"BEARER  abc ", "abc", nil},
		{"", "", ErrMissingCredential},
		{"Bearer", "", ErrMissingCredential},
		{"Bearer ", "", ErrMissingCredential},
		{"Basic abc", "", ErrMissingCredential},
	}
	for _, tc := range cases {
		got, err := ParseBearer(tc.header)
		if tc.err != nil {
			assert.ErrorIs(t, err, tc.err, tc.header)
			continue
		}
		require.NoError(t, err, tc.header)
		assert.Equal(t, tc.want, got)
	}
}

func TestHasRole_NilClaims(t *testing.T) {
	var c *AccessClaims
	assert.False(t, c.HasRole("user"))
}
