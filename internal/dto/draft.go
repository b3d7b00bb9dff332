package dto

import "github.com/Thinhtran42/mtls-capstone-sub001/internal/wizard"

// ── 草稿会话 DTO ──

// StartDraftRequest 打开创建/编辑表单
// entity_id 非空表示编辑已有实体，此时父级由实体自身决定
type StartDraftRequest struct {
	Kind     string `json:"kind"      binding:"required,oneof=course module section lesson exercise quiz assignment"`
	CourseID string `json:"course_id" binding:"omitempty,max=64"`
	ModuleID string `json:"module_id" binding:"omitempty,max=64"`
	EntityID string `json:"entity_id" binding:"omitempty,max=64"`
}

// UpdateDraftFieldRequest 写入单个字段；value 为 null 或空串时清空
type UpdateDraftFieldRequest struct {
	Field string `json:"field" binding:"required"`
	Value any    `json:"value"`
}

// DraftStepResponse 步骤信息
type DraftStepResponse struct {
	Index    int            `json:"index"`
	Name     string         `json:"name"`
	Label    string         `json:"label"`
	Required []wizard.Field `json:"required"`
}

// DraftSessionResponse 草稿会话的完整视图
type DraftSessionResponse struct {
	ID          string                  `json:"id"`
	Kind        string                  `json:"kind"`
	Mode        string                  `json:"mode"`
	EntityID    string                  `json:"entity_id,omitempty"`
	CourseID    string                  `json:"course_id,omitempty"`
	ModuleID    string                  `json:"module_id,omitempty"`
	CourseTitle string                  `json:"course_title,omitempty"`
	ModuleTitle string                  `json:"module_title,omitempty"`
	Step        int                     `json:"step"`
	Steps       []DraftStepResponse     `json:"steps"`
	IsFinal     bool                    `json:"is_final"`
	Draft       wizard.Draft            `json:"draft"`
	Errors      map[wizard.Field]string `json:"errors"`
	Sections    []wizard.Section        `json:"sections"`
	Preview     []wizard.PreviewItem    `json:"preview,omitempty"` // 仅终止步
	LoadWarning string                  `json:"load_warning,omitempty"`
	Submitting  bool                    `json:"submitting"`
	Version     int                     `json:"version"`
	ExpiresAt   string                  `json:"expires_at"`
}

// SubmitDraftResponse 保存成功
type SubmitDraftResponse struct {
	Kind     string `json:"kind"`
	Mode     string `json:"mode"`
	EntityID string `json:"entity_id"`
}

// FieldErrorsResponse 校验失败时 data 中的字段错误
// session 为写回字段错误后的会话视图
type FieldErrorsResponse struct {
	Step    int                     `json:"step"`
	Missing []wizard.Field          `json:"missing"`
	Errors  map[wizard.Field]string `json:"errors"`
	Session *DraftSessionResponse   `json:"session,omitempty"`
}
