package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	refreshTokenBytes = 40
	// 解釈できない設定のときの既定値
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// NewRefreshValue は40バイトの乱数をhexにした値（80文字）を返す。
func NewRefreshValue() (string, error) {
	b := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// DBにはこのハッシュだけ保存する
func HashRefreshValue(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}

// ParseRefreshTTL は "7d" / "12h" を解釈する。それ以外や0以下は7日。
func ParseRefreshTTL(s string) time.Duration {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return DefaultRefreshTTL
	}

	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n <= 0 {
		return DefaultRefreshTTL
	}

	switch s[len(s)-1] {
	case 'd':
		return time.Duration(n) * 24 * time.Hour
	case 'h':
		return time.Duration(n) * time.Hour
	default:
		return DefaultRefreshTTL
	}
}
