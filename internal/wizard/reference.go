package wizard

import "context"

// Section 模块下的章节（只读参考数据）
type Section struct {
	ID       string      `json:"id"`
	Title    string      `json:"title"`
	Type     SectionType `json:"type"`
	ModuleID string      `json:"module_id"`
}

// Scope 草稿所属的父级
type Scope struct {
	CourseID string `json:"course_id,omitempty"`
	ModuleID string `json:"module_id,omitempty"`
}

// ReferenceData 页面加载时获取的参考数据
type ReferenceData struct {
	CourseTitle string    `json:"course_title,omitempty"`
	ModuleTitle string    `json:"module_title,omitempty"`
	Sections    []Section `json:"sections"`
}

// Existing 编辑模式下已存在实体的草稿与其父级
type Existing struct {
	Draft Draft
	Scope Scope
}

// Submission 提交给网关的完整数据
type Submission struct {
	Mode     Mode
	EntityID string // 仅编辑模式
	Scope    Scope
	ActorID  string
	Draft    Draft
}

// Loader 参考数据加载器；失败时返回 *LoadError
type Loader interface {
	LoadReferenceData(ctx context.Context, kind Kind, scope Scope) (*ReferenceData, error)
	LoadExisting(ctx context.Context, kind Kind, id string) (*Existing, error)
}

// Submitter 提交网关；失败时返回 *SubmitError，成功返回实体 ID
type Submitter interface {
	SubmitEntity(ctx context.Context, kind Kind, sub Submission) (string, error)
}
