package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 一覧のページ指定。Limitが0以下なら既定値
type Page struct {
	Limit  int
	Offset int
}

// 監査ログの保存・一覧取得の約束。
type AuditLogRepository interface {
	//監査ログを1件保存
	Create(ctx context.Context, log model.AuditLog) error

	//1つのリソースに対する監査ログを新しい順で取得
	ListByResource(ctx context.Context, resource model.AuditResourceType, resourceID int64, page Page) ([]model.AuditLog, error)
}
