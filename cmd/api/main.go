package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"authgate/internal/config"
	"authgate/internal/handler"
	"authgate/internal/infra/db"
	"authgate/internal/infra/oauth"
	infraRepo "authgate/internal/infra/repository"
	"authgate/internal/infra/session"
	"authgate/internal/server"
	"authgate/internal/telemetry"
	"authgate/internal/token"
	"authgate/internal/usecase"
	"authgate/internal/validator"

	"github.com/labstack/gommon/log"
)

func main() {
	log.SetHeader(`{"time":"${time_rfc3339}","level":"${level}"}`)

	//設定
	cfg, err := config.Load()
	if err != nil {
		log.Fatalj(log.JSON{"msg": "load config", "error": err.Error()})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//トレース（OTEL_ENDPOINTが空なら何もしない）
	shutdownTrace, err := telemetry.Setup(ctx, cfg.OTELEndpoint, "authgate")
	if err != nil {
		log.Fatalj(log.JSON{"msg": "setup telemetry", "error": err.Error()})
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTrace(sctx)
	}()

	//DB接続
	gormDB, err := db.Connect(cfg.DB)
	if err != nil {
		log.Fatalj(log.JSON{"msg": "connect db", "error": err.Error()})
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Fatalj(log.JSON{"msg": "migrate db", "error": err.Error()})
	}

	//Redis（セッション・OAuth state）
	rdb, err := session.NewRedisClient(cfg.Redis.URL)
	if err != nil {
		log.Fatalj(log.JSON{"msg": "parse redis url", "error": err.Error()})
	}
	defer rdb.Close()
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		cancel()
		log.Fatalj(log.JSON{"msg": "connect redis", "error": err.Error()})
	}
	cancel()
	sessions := session.NewRedisStore(rdb, cfg.Redis.SessionTTL)

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	rtRepo := infraRepo.NewRefreshTokenRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)

	//usecaseに渡す部品
	idGen := usecase.UUIDGenerator{}
	clock := usecase.SystemClock{}
	issuer := token.NewIssuer(cfg.JWT.Secret, cfg.JWT.AccessTTL, nil)
	verifier := token.NewVerifier(cfg.JWT.Secret, nil)

	//Usecase生成
	tokenUC := usecase.NewTokenUsecase(userRepo, rtRepo, auditRepo, issuer, idGen, clock, usecase.TokenOptions{
		RefreshTTL:  token.ParseRefreshTTL(cfg.JWT.RefreshTTL),
		RotateOnUse: cfg.JWT.RotateOnUse,
		Tx:          infraRepo.NewTxManagerGorm(gormDB),
	})
	identityUC := usecase.NewIdentityUsecase(userRepo, auditRepo, validator.NewProfileValidator(), idGen, clock)
	auditUC := usecase.NewAuditUsecase(auditRepo)

	providers := oauth.NewRegistryFromConfig(cfg.OAuth)
	if len(providers.Names()) == 0 {
		log.Warnj(log.JSON{"msg": "no oauth provider configured"})
	}

	//Handler生成
	handlers := server.Handlers{
		Auth: handler.NewAuthHandler(providers, sessions, identityUC, handler.AuthHandlerOptions{
			CookieSecure: cfg.CookieSecure(),
			SessionTTL:   cfg.Redis.SessionTTL,
			FrontendURL:  cfg.OAuth.FrontendURL,
			CallbackURL:  cfg.OAuth.CallbackURL,
		}),
		Token: handler.NewTokenHandler(tokenUC, sessions, verifier, cfg.CookieSecure()),
		Admin: handler.NewAdminHandler(tokenUC, auditUC, verifier),
		API:   handler.NewAPIHandler(verifier),
	}

	//Server起動
	e := server.New(cfg, handlers)
	if err := server.Run(ctx, e, cfg.Addr()); err != nil {
		log.Errorj(log.JSON{"msg": "server", "error": err.Error()})
		os.Exit(1)
	}
}
