// sweepは期限切れ・失効済みのrefresh tokenを1回だけ掃除する。cronから呼ぶ想定。
package main

import (
	"context"
	"os"
	"time"

	"authgate/internal/config"
	"authgate/internal/infra/db"
	infraRepo "authgate/internal/infra/repository"
	"authgate/internal/usecase"

	"github.com/labstack/gommon/log"
)

func main() {
	log.SetHeader(`{"time":"${time_rfc3339}","level":"${level}"}`)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalj(log.JSON{"msg": "load config", "error": err.Error()})
	}

	gormDB, err := db.Connect(cfg.DB)
	if err != nil {
		log.Fatalj(log.JSON{"msg": "connect db", "error": err.Error()})
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Fatalj(log.JSON{"msg": "migrate db", "error": err.Error()})
	}

	tokenUC := usecase.NewTokenUsecase(
		infraRepo.NewUserGormRepository(gormDB),
		infraRepo.NewRefreshTokenRepository(gormDB),
		infraRepo.NewAuditLogGormRepository(gormDB),
		nil,
		usecase.UUIDGenerator{},
		usecase.SystemClock{},
		usecase.TokenOptions{},
	)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	deleted, err := tokenUC.Sweep(ctx)
	if err != nil {
		log.Errorj(log.JSON{"msg": "sweep failed", "error": err.Error()})
		os.Exit(1)
	}
	log.Infoj(log.JSON{"msg": "sweep done", "deleted": deleted})
}
