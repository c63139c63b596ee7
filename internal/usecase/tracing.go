package usecase

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// プロバイダ未設定ならno-op
var tracer = otel.Tracer("authgate/usecase")

// エラーならspanに記録して閉じる
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		if ae, ok := AsAppError(err); ok {
			span.SetStatus(codes.Error, ae.Code)
		} else {
			span.SetStatus(codes.Error, err.Error())
		}
	}
	span.End()
}
