package usecase

import (
	"context"
	"errors"
	"time"

	"authgate/internal/domain/model"
	repo "authgate/internal/repository"
	"authgate/internal/token"

	"go.opentelemetry.io/otel/attribute"
)

// AccessTokenSigner はアクセストークンを作る約束（token.Issuerが実装）
type AccessTokenSigner interface {
	Sign(u *model.User) (string, error)
	TTL() time.Duration
}

type TokenOptions struct {
	RefreshTTL time.Duration
	// trueなら使ったrefresh tokenを失効させて新しいものを返す
	RotateOnUse bool
	// ローテーションの失効と作成を1つのTxにする。nilならTxなし。
	Tx repo.TransactionManager
}

// handlerに返す発行結果
type IssueOutput struct {
	AccessToken      string
	RefreshToken     string
	ExpiresIn        int // 秒
	RefreshExpiresAt time.Time
}

// RefreshTokenはローテーションしたときだけ入る
type RefreshOutput struct {
	AccessToken      string
	ExpiresIn        int
	RefreshToken     string
	RefreshExpiresAt time.Time
}

func (o RefreshOutput) Rotated() bool { return o.RefreshToken != "" }

type TokenUsecase struct {
	users  repo.UserRepository
	tokens repo.RefreshTokenRepository
	signer AccessTokenSigner
	audit  auditRecorder
	idGen  IDGenerator
	clock  Clock
	opts   TokenOptions

	newRefreshValue func() (string, error)
}

// DI
func NewTokenUsecase(
	users repo.UserRepository,
	tokens repo.RefreshTokenRepository,
	auditRepo repo.AuditLogRepository,
	signer AccessTokenSigner,
	idGen IDGenerator,
	clock Clock,
	opts TokenOptions,
) *TokenUsecase {
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = token.DefaultRefreshTTL
	}
	return &TokenUsecase{
		users:           users,
		tokens:          tokens,
		signer:          signer,
		audit:           auditRecorder{repo: auditRepo, clock: clock},
		idGen:           idGen,
		clock:           clock,
		opts:            opts,
		newRefreshValue: token.NewRefreshValue,
	}
}

// IssueForUser はセッションのユーザーIDからトークンを発行する。
func (u *TokenUsecase) IssueForUser(ctx context.Context, userID string, meta model.ClientMeta) (IssueOutput, error) {
	if userID == "" {
		return IssueOutput{}, ErrMissingCredential
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return IssueOutput{}, ErrUserNotFound
		}
		return IssueOutput{}, ErrStoreUnavailable.Wrap(err)
	}
	return u.Issue(ctx, user, meta)
}

// Issue はアクセストークンとrefresh tokenを発行する。
// refreshの保存に失敗したら何も返さない。
func (u *TokenUsecase) Issue(ctx context.Context, user *model.User, meta model.ClientMeta) (out IssueOutput, err error) {
	ctx, span := tracer.Start(ctx, "TokenUsecase.Issue")
	defer func() { endSpan(span, err) }()

	if user == nil || user.ID == "" {
		return IssueOutput{}, ErrValidation
	}
	span.SetAttributes(attribute.String("user.id", user.ID))

	access, err := u.signer.Sign(user)
	if err != nil {
		return IssueOutput{}, ErrInternal.Wrap(err)
	}

	now := u.clock.Now()
	plain, rt, err := u.persistRefresh(ctx, u.tokens, user.ID, meta, now)
	if err != nil {
		return IssueOutput{}, err
	}

	u.audit.record(ctx, user.ID, model.AuditActionTokenIssued, model.AuditResourceRefreshToken, rt.ID, map[string]any{
		"user_agent": meta.UserAgent,
		"ip":         meta.IPAddress,
	})

	return IssueOutput{
		AccessToken:      access,
		RefreshToken:     plain,
		ExpiresIn:        int(u.signer.TTL().Seconds()),
		RefreshExpiresAt: rt.ExpiresAt,
	}, nil
}

// 乱数の衝突（一意制約）は1回だけ作り直す
func (u *TokenUsecase) persistRefresh(ctx context.Context, tokens repo.RefreshTokenRepository, userID string, meta model.ClientMeta, now time.Time) (string, *model.RefreshToken, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		plain, err := u.newRefreshValue()
		if err != nil {
			return "", nil, ErrInternal.Wrap(err)
		}

		rt := &model.RefreshToken{
			ID:        u.idGen.NewID(),
			UserID:    userID,
			TokenHash: token.HashRefreshValue(plain),
			ExpiresAt: now.Add(u.opts.RefreshTTL),
			UserAgent: optional(meta.UserAgent),
			IPAddress: optional(meta.IPAddress),
			CreatedAt: now,
		}

		err = tokens.Create(ctx, rt)
		if err == nil {
			return plain, rt, nil
		}
		lastErr = err
		if !errors.Is(err, repo.ErrDuplicate) {
			break
		}
	}
	return "", nil, ErrStoreUnavailable.Wrap(lastErr)
}

// Refresh はrefresh tokenから新しいアクセストークンを作る。
// 判定順: 存在 → 失効 → 期限 → ユーザー。
func (u *TokenUsecase) Refresh(ctx context.Context, value string, meta model.ClientMeta) (out RefreshOutput, err error) {
	ctx, span := tracer.Start(ctx, "TokenUsecase.Refresh")
	defer func() { endSpan(span, err) }()

	if value == "" {
		return RefreshOutput{}, ErrInvalidRefreshToken
	}
	hash := token.HashRefreshValue(value)

	rt, err := u.tokens.FindByTokenHash(ctx, hash)
	if err != nil {
		if errors.Is(err, repo.ErrRefreshTokenNotFound) {
			return RefreshOutput{}, ErrInvalidRefreshToken
		}
		return RefreshOutput{}, ErrStoreUnavailable.Wrap(err)
	}

	now := u.clock.Now()
	if state := rt.StateAt(now); state != model.RefreshTokenUsable {
		span.SetAttributes(attribute.String("refresh.state", string(state)))
		return RefreshOutput{}, ErrInvalidRefreshToken
	}

	//ユーザーは自動作成しない
	user, err := u.users.FindByID(ctx, rt.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return RefreshOutput{}, ErrUserNotFound
		}
		return RefreshOutput{}, ErrStoreUnavailable.Wrap(err)
	}
	span.SetAttributes(attribute.String("user.id", user.ID))

	access, err := u.signer.Sign(user)
	if err != nil {
		return RefreshOutput{}, ErrInternal.Wrap(err)
	}
	out = RefreshOutput{
		AccessToken: access,
		ExpiresIn:   int(u.signer.TTL().Seconds()),
	}

	if u.opts.RotateOnUse {
		var (
			plain string
			next  *model.RefreshToken
		)
		err := u.withinTx(ctx, func(tokens repo.RefreshTokenRepository) error {
			// 条件付きUPDATEで先に取った方だけが進める
			ok, err := tokens.RevokeByTokenHash(ctx, hash, now)
			if err != nil {
				return ErrStoreUnavailable.Wrap(err)
			}
			if !ok {
				return ErrInvalidRefreshToken
			}
			plain, next, err = u.persistRefresh(ctx, tokens, user.ID, meta, now)
			return err
		})
		if err != nil {
			return RefreshOutput{}, err
		}
		out.RefreshToken = plain
		out.RefreshExpiresAt = next.ExpiresAt

		u.audit.record(ctx, user.ID, model.AuditActionTokenRotated, model.AuditResourceRefreshToken, next.ID, map[string]any{
			"previous_id": rt.ID,
		})
	}

	return out, nil
}

// RevokeOne はrefresh tokenを失効させる。今回の呼び出しで変化したときだけtrue。
func (u *TokenUsecase) RevokeOne(ctx context.Context, value string) (revoked bool, err error) {
	ctx, span := tracer.Start(ctx, "TokenUsecase.RevokeOne")
	defer func() { endSpan(span, err) }()

	if value == "" {
		return false, nil
	}
	hash := token.HashRefreshValue(value)

	revoked, err = u.tokens.RevokeByTokenHash(ctx, hash, u.clock.Now())
	if err != nil {
		return false, ErrStoreUnavailable.Wrap(err)
	}

	if revoked {
		// 監査用に持ち主を引く（失敗しても結果は変えない）
		if rt, ferr := u.tokens.FindByTokenHash(ctx, hash); ferr == nil {
			u.audit.record(ctx, rt.UserID, model.AuditActionTokenRevoked, model.AuditResourceRefreshToken, rt.ID, nil)
		}
	}
	return revoked, nil
}

// RevokeAll はユーザーの未失効トークンを全部失効させて件数を返す。
// 発行済みのアクセストークンは期限まで有効なまま。
func (u *TokenUsecase) RevokeAll(ctx context.Context, userID string) (count int64, err error) {
	ctx, span := tracer.Start(ctx, "TokenUsecase.RevokeAll")
	defer func() { endSpan(span, err) }()

	if userID == "" {
		return 0, ErrValidation
	}
	span.SetAttributes(attribute.String("user.id", userID))

	count, err = u.tokens.RevokeAllByUserID(ctx, userID, u.clock.Now())
	if err != nil {
		return 0, ErrStoreUnavailable.Wrap(err)
	}

	u.audit.record(ctx, userID, model.AuditActionTokensRevokedAll, model.AuditResourceUser, userID, map[string]any{
		"count": count,
	})
	return count, nil
}

// Sweep は期限切れ・失効済みのrefresh tokenを削除する。
func (u *TokenUsecase) Sweep(ctx context.Context) (deleted int64, err error) {
	ctx, span := tracer.Start(ctx, "TokenUsecase.Sweep")
	defer func() { endSpan(span, err) }()

	deleted, err = u.tokens.DeleteExpiredOrRevoked(ctx, u.clock.Now())
	if err != nil {
		return 0, ErrStoreUnavailable.Wrap(err)
	}
	span.SetAttributes(attribute.Int64("refresh.deleted", deleted))

	u.audit.record(ctx, "", model.AuditActionTokensSwept, model.AuditResourceRefreshToken, "", map[string]any{
		"deleted": deleted,
	})
	return deleted, nil
}

// Txがあればその中のrepoで、なければそのままfnを呼ぶ
func (u *TokenUsecase) withinTx(ctx context.Context, fn func(tokens repo.RefreshTokenRepository) error) error {
	if u.opts.Tx == nil {
		return fn(u.tokens)
	}
	return u.opts.Tx.WithinTx(ctx, func(r repo.TxRepos) error {
		return fn(r.RefreshTokens())
	})
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
