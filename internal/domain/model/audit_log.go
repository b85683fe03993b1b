package model

import "time"

// 注文ステータス更新など。
type AuditAction string

const (
	//注文ステータスを更新した操作。
	AuditActionUpdateOrderStatus AuditAction = "UPDATE_ORDER_STATUS"
)

// 何に対する操作か
type AuditResourceType string

const (
	//注文に対する操作。
	AuditResourceOrder AuditResourceType = "order"
)

// 監査ログ。
// 「何を」「どの対象に」「どう変えたか」を残す。
type AuditLog struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//操作の種類（UPDATE_ORDER_STATUS）。
	Action AuditAction `gorm:"type:varchar(50);not null;index" json:"action"`

	//対象の種類（order）。
	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index:idx_audit_logs_resource,priority:1" json:"resource_type"`

	ResourceID int64 `gorm:"not null;index:idx_audit_logs_resource,priority:2" json:"resource_id"`

	//JSON文字列で保存する。
	BeforeJSON string `gorm:"type:text" json:"before_json"`
	AfterJSON  string `gorm:"type:text" json:"after_json"`

	//どのリクエストで起きたか（X-Request-ID）
	RequestID string `gorm:"type:varchar(64);index" json:"request_id"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
