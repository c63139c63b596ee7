package usecase

import (
	"context"
	"encoding/json"

	"authgate/internal/domain/model"
	repo "authgate/internal/repository"

	"github.com/labstack/gommon/log"
	"go.opentelemetry.io/otel/trace"
)

// 監査ログの書き込み。失敗しても本処理は止めない。
type auditRecorder struct {
	repo  repo.AuditLogRepository
	clock Clock
}

func (a auditRecorder) record(ctx context.Context, actorID string, action model.AuditAction, rt model.AuditResourceType, resourceID string, detail map[string]any) {
	if a.repo == nil {
		return
	}

	if detail == nil {
		detail = map[string]any{}
	}
	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		detail["trace_id"] = sc.TraceID().String()
	}
	b, _ := json.Marshal(detail)

	entry := model.AuditLog{
		ActorUserID:  actorID,
		Action:       action,
		ResourceType: rt,
		ResourceID:   resourceID,
		DetailJSON:   string(b),
		CreatedAt:    a.clock.Now(),
	}
	if err := a.repo.Create(ctx, entry); err != nil {
		log.Warnj(log.JSON{"msg": "audit log write failed", "action": action, "error": err.Error()})
	}
}

// 管理画面向けの監査ログ一覧
type AuditUsecase struct {
	repo repo.AuditLogRepository
}

func NewAuditUsecase(r repo.AuditLogRepository) *AuditUsecase {
	return &AuditUsecase{repo: r}
}

func (u *AuditUsecase) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, ErrValidation
	}
	if filter.CreatedFrom != nil && filter.CreatedTo != nil && filter.CreatedFrom.After(*filter.CreatedTo) {
		return nil, ErrValidation
	}

	logs, err := u.repo.List(ctx, filter)
	if err != nil {
		return nil, ErrStoreUnavailable.Wrap(err)
	}
	if logs == nil {
		logs = []model.AuditLog{}
	}
	return logs, nil
}
