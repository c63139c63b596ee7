package usecase

import (
	"context"
	"errors"

	"authgate/internal/domain/model"
	repo "authgate/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// ProfileValidator はプロバイダから来たプロフィールを検証する約束
type ProfileValidator interface {
	ValidateProfile(p model.ExternalProfile) error
}

// OAuthで得たプロフィールとローカルユーザーを結びつける
type IdentityUsecase struct {
	users     repo.UserRepository
	validator ProfileValidator
	audit     auditRecorder
	idGen     IDGenerator
	clock     Clock
}

func NewIdentityUsecase(
	users repo.UserRepository,
	auditRepo repo.AuditLogRepository,
	validator ProfileValidator,
	idGen IDGenerator,
	clock Clock,
) *IdentityUsecase {
	return &IdentityUsecase{
		users:     users,
		validator: validator,
		audit:     auditRecorder{repo: auditRepo, clock: clock},
		idGen:     idGen,
		clock:     clock,
	}
}

// Upsert は(externalId, provider)でユーザーを探し、無ければ作る。
// あればプロフィールの変更だけ反映する。roleは変えない。
func (u *IdentityUsecase) Upsert(ctx context.Context, p model.ExternalProfile) (user *model.User, err error) {
	ctx, span := tracer.Start(ctx, "IdentityUsecase.Upsert")
	defer func() { endSpan(span, err) }()

	if u.validator != nil {
		if verr := u.validator.ValidateProfile(p); verr != nil {
			return nil, ErrValidation.Wrap(verr)
		}
	}
	span.SetAttributes(attribute.String("identity.provider", string(p.Provider)))

	existing, err := u.users.FindByIdentity(ctx, p.ExternalID, p.Provider)
	switch {
	case err == nil:
		return u.syncProfile(ctx, existing, p)
	case errors.Is(err, repo.ErrUserNotFound):
	default:
		return nil, ErrStoreUnavailable.Wrap(err)
	}

	now := u.clock.Now()
	user = &model.User{
		ID:          u.idGen.NewID(),
		ExternalID:  p.ExternalID,
		Provider:    p.Provider,
		DisplayName: p.DisplayName,
		Email:       p.Email,
		Avatar:      optional(p.Avatar),
		Role:        model.RoleUser,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := u.users.Create(ctx, user); err != nil {
		if !errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrStoreUnavailable.Wrap(err)
		}
		// 同時ログインで先に作られた場合はそれを使う
		if again, ferr := u.users.FindByIdentity(ctx, p.ExternalID, p.Provider); ferr == nil {
			return u.syncProfile(ctx, again, p)
		}
		// emailが別アカウントで使われている
		return nil, ErrConflict.Wrap(err)
	}

	u.audit.record(ctx, user.ID, model.AuditActionUserCreated, model.AuditResourceUser, user.ID, map[string]any{
		"provider": p.Provider,
	})
	return user, nil
}

func (u *IdentityUsecase) syncProfile(ctx context.Context, user *model.User, p model.ExternalProfile) (*model.User, error) {
	avatar := optional(p.Avatar)
	if user.DisplayName == p.DisplayName && user.Email == p.Email && sameString(user.Avatar, avatar) {
		return user, nil
	}

	user.DisplayName = p.DisplayName
	user.Email = p.Email
	user.Avatar = avatar
	user.UpdatedAt = u.clock.Now()

	if err := u.users.UpdateProfile(ctx, user); err != nil {
		switch {
		case errors.Is(err, repo.ErrDuplicate):
			return nil, ErrConflict.Wrap(err)
		case errors.Is(err, repo.ErrUserNotFound):
			return nil, ErrUserNotFound
		default:
			return nil, ErrStoreUnavailable.Wrap(err)
		}
	}
	return user, nil
}

// GetUser はセッションのユーザーを返す。
func (u *IdentityUsecase) GetUser(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, ErrUserNotFound
	}
	user, err := u.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, ErrStoreUnavailable.Wrap(err)
	}
	return user, nil
}

func sameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
