package model

import (
	"time"

	"github.com/Thinhtran42/mtls-capstone-sub001/internal/wizard"
)

// DraftSession 草稿会话（缓存于 Redis，不落库）
// 每个打开的创建/编辑表单对应一个会话，保存成功或过期后丢弃
type DraftSession struct {
	ID          string               `json:"id"`
	OwnerID     string               `json:"owner_id"`
	Kind        wizard.Kind          `json:"kind"`
	Mode        wizard.Mode          `json:"mode"`
	EntityID    string               `json:"entity_id,omitempty"`
	Scope       wizard.Scope         `json:"scope"`
	Reference   wizard.ReferenceData `json:"reference"`
	LoadWarning string               `json:"load_warning,omitempty"`
	State       wizard.State         `json:"state"`
	Submitting  bool                 `json:"submitting"`
	Version     int                  `json:"version"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
	ExpiresAt   time.Time            `json:"expires_at"`
}
