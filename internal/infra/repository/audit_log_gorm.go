package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

const (
	defaultAuditPageSize = 50
	maxAuditPageSize     = 200
)

type auditLogGormRepository struct {
	db *gorm.DB
}

func NewAuditLogGormRepository(db *gorm.DB) repo.AuditLogRepository {
	return &auditLogGormRepository{db: db}
}

func (r *auditLogGormRepository) Create(ctx context.Context, log model.AuditLog) error {
	if err := r.db.WithContext(ctx).Create(&log).Error; err != nil {
		return err
	}
	return nil
}

// 注文ごとのステータス履歴はこれで引く（resource_type, resource_id の索引を使う）
func (r *auditLogGormRepository) ListByResource(ctx context.Context, resource model.AuditResourceType, resourceID int64, page repo.Page) ([]model.AuditLog, error) {
	limit, offset := clampPage(page)

	var logs []model.AuditLog
	err := r.db.WithContext(ctx).
		Where("resource_type = ? AND resource_id = ?", resource, resourceID).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

func clampPage(p repo.Page) (int, int) {
	limit := p.Limit
	if limit <= 0 || limit > maxAuditPageSize {
		limit = defaultAuditPageSize
	}
	offset := p.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
