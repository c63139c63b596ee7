package usecase

import (
	"time"

	"github.com/google/uuid"
)

// ID発行
type IDGenerator interface {
	NewID() string
}

// 現在の時間
type Clock interface {
	Now() time.Time
}

type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }

// DBにはUTCで入れる
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
