// Package gateway 内容服务网关
//
// 为向导提供参考数据加载（wizard.Loader）与实体保存（wizard.Submitter），
// 并为目录与导出提供只读查询。local 直接访问本服务数据库，remote 调用上游 REST 服务。
package gateway

import (
	"context"
	"errors"

	"github.com/Thinhtran42/mtls-capstone-sub001/internal/wizard"
)

// ErrNotFound 请求的课程/模块/章节/活动不存在
var ErrNotFound = errors.New("内容不存在")

// CourseSummary 课程摘要
type CourseSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ModuleSummary 模块摘要
type ModuleSummary struct {
	ID          string `json:"id"`
	CourseID    string `json:"course_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	OrderIndex  int    `json:"order_index"`
}

// ActivitySummary 章节下的学习活动摘要
type ActivitySummary struct {
	ID        string      `json:"id"`
	SectionID string      `json:"section_id"`
	Kind      wizard.Kind `json:"kind"`
	Title     string      `json:"title"`
	Duration  int         `json:"duration"`
	PassScore *int        `json:"pass_score,omitempty"`
}

// Gateway 内容网关
type Gateway interface {
	wizard.Loader
	wizard.Submitter

	ListCourses(ctx context.Context) ([]CourseSummary, error)
	GetCourse(ctx context.Context, id string) (*CourseSummary, error)
	ListModules(ctx context.Context, courseID string) ([]ModuleSummary, error)
	// ListSections types 为空时返回全部类型
	ListSections(ctx context.Context, moduleID string, types []wizard.SectionType) ([]wizard.Section, error)
	ListActivities(ctx context.Context, sectionID string) ([]ActivitySummary, error)
}

// isActivity 是否为挂载在章节下的活动类型
func isActivity(k wizard.Kind) bool {
	switch k {
	case wizard.KindLesson, wizard.KindExercise, wizard.KindQuiz, wizard.KindAssignment:
		return true
	}
	return false
}

// referenceSource 加载参考数据所需的查询
type referenceSource interface {
	GetCourse(ctx context.Context, id string) (*CourseSummary, error)
	ListSections(ctx context.Context, moduleID string, types []wizard.SectionType) ([]wizard.Section, error)
	moduleTitles(ctx context.Context, moduleID string) (module, course string, err error)
}

// loadReference 按实体类型加载父级标题与章节列表
// 失败时返回已加载的部分数据与 *wizard.LoadError，调用方可据此降级
func loadReference(ctx context.Context, src referenceSource, kind wizard.Kind, scope wizard.Scope) (*wizard.ReferenceData, error) {
	ref := &wizard.ReferenceData{Sections: []wizard.Section{}}

	switch kind {
	case wizard.KindCourse:
		return ref, nil
	case wizard.KindModule:
		c, err := src.GetCourse(ctx, scope.CourseID)
		if err != nil {
			return ref, &wizard.LoadError{Err: err}
		}
		ref.CourseTitle = c.Title
		return ref, nil
	}

	mt, ct, err := src.moduleTitles(ctx, scope.ModuleID)
	if err != nil {
		return ref, &wizard.LoadError{Err: err}
	}
	ref.ModuleTitle = mt
	ref.CourseTitle = ct

	if isActivity(kind) {
		sections, err := src.ListSections(ctx, scope.ModuleID, nil)
		if err != nil {
			return ref, &wizard.LoadError{Err: err}
		}
		ref.Sections = sections
	}
	return ref, nil
}
