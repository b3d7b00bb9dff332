package gateway

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Thinhtran42/mtls-capstone-sub001/internal/model"
	"github.com/Thinhtran42/mtls-capstone-sub001/internal/repository"
	"github.com/Thinhtran42/mtls-capstone-sub001/internal/wizard"
	pkgerrors "github.com/Thinhtran42/mtls-capstone-sub001/pkg/errors"
)

// Local 基于本服务数据库的内容网关
type Local struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewLocal 创建本地网关
func NewLocal(repo *repository.Repository, logger *zap.Logger) *Local {
	return &Local{repo: repo, logger: logger}
}

// notFound 将 gorm 的记录不存在转换为 ErrNotFound
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// ── 目录查询 ──

func (g *Local) ListCourses(ctx context.Context) ([]CourseSummary, error) {
	courses, err := g.repo.Course.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]CourseSummary, 0, len(courses))
	for _, c := range courses {
		out = append(out, CourseSummary{ID: c.CourseID, Title: c.Title, Description: c.Description})
	}
	return out, nil
}

func (g *Local) GetCourse(ctx context.Context, id string) (*CourseSummary, error) {
	c, err := g.repo.Course.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return &CourseSummary{ID: c.CourseID, Title: c.Title, Description: c.Description}, nil
}

func (g *Local) ListModules(ctx context.Context, courseID string) ([]ModuleSummary, error) {
	modules, err := g.repo.Module.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	out := make([]ModuleSummary, 0, len(modules))
	for _, m := range modules {
		out = append(out, ModuleSummary{
			ID:          m.ModuleID,
			CourseID:    m.CourseID,
			Title:       m.Title,
			Description: m.Description,
			OrderIndex:  m.OrderIndex,
		})
	}
	return out, nil
}

func (g *Local) ListSections(ctx context.Context, moduleID string, types []wizard.SectionType) ([]wizard.Section, error) {
	filter := make([]string, 0, len(types))
	for _, t := range types {
		filter = append(filter, string(t))
	}
	sections, err := g.repo.Section.ListByModule(ctx, moduleID, filter)
	if err != nil {
		return nil, err
	}
	out := make([]wizard.Section, 0, len(sections))
	for _, s := range sections {
		out = append(out, wizard.Section{
			ID:       s.SectionID,
			Title:    s.Title,
			Type:     wizard.SectionType(s.Type),
			ModuleID: s.ModuleID,
		})
	}
	return out, nil
}

func (g *Local) ListActivities(ctx context.Context, sectionID string) ([]ActivitySummary, error) {
	activities, err := g.repo.Activity.ListBySection(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	out := make([]ActivitySummary, 0, len(activities))
	for _, a := range activities {
		out = append(out, ActivitySummary{
			ID:        a.ActivityID,
			SectionID: a.SectionID,
			Kind:      wizard.Kind(a.Kind),
			Title:     a.Title,
			Duration:  a.Duration,
			PassScore: a.PassScore,
		})
	}
	return out, nil
}

func (g *Local) moduleTitles(ctx context.Context, moduleID string) (string, string, error) {
	m, err := g.repo.Module.GetByID(ctx, moduleID)
	if err != nil {
		return "", "", notFound(err)
	}
	course := ""
	if m.Course != nil {
		course = m.Course.Title
	}
	return m.Title, course, nil
}

// ── wizard.Loader ──

// LoadReferenceData 加载父级标题与模块下的章节
func (g *Local) LoadReferenceData(ctx context.Context, kind wizard.Kind, scope wizard.Scope) (*wizard.ReferenceData, error) {
	ref, err := loadReference(ctx, g, kind, scope)
	if err != nil {
		g.logger.Warn("加载参考数据失败",
			zap.String("kind", string(kind)),
			zap.String("module_id", scope.ModuleID),
			zap.Error(err),
		)
	}
	return ref, err
}

// LoadExisting 读取已存在实体用于编辑
func (g *Local) LoadExisting(ctx context.Context, kind wizard.Kind, id string) (*wizard.Existing, error) {
	switch kind {
	case wizard.KindCourse:
		c, err := g.repo.Course.GetByID(ctx, id)
		if err != nil {
			return nil, &wizard.LoadError{Err: notFound(err)}
		}
		return &wizard.Existing{Draft: wizard.Draft{Title: c.Title, Description: c.Description}}, nil

	case wizard.KindModule:
		m, err := g.repo.Module.GetByID(ctx, id)
		if err != nil {
			return nil, &wizard.LoadError{Err: notFound(err)}
		}
		return &wizard.Existing{
			Draft: wizard.Draft{Title: m.Title, Description: m.Description},
			Scope: wizard.Scope{CourseID: m.CourseID},
		}, nil

	case wizard.KindSection:
		s, err := g.repo.Section.GetByID(ctx, id)
		if err != nil {
			return nil, &wizard.LoadError{Err: notFound(err)}
		}
		scope := wizard.Scope{ModuleID: s.ModuleID}
		if s.Module != nil {
			scope.CourseID = s.Module.CourseID
		}
		return &wizard.Existing{
			Draft: wizard.Draft{Title: s.Title, Description: s.Description, SectionType: wizard.SectionType(s.Type)},
			Scope: scope,
		}, nil
	}

	if !isActivity(kind) {
		return nil, wizard.ErrUnknownKind
	}
	a, err := g.repo.Activity.GetByID(ctx, id)
	if err != nil {
		return nil, &wizard.LoadError{Err: notFound(err)}
	}
	if a.Kind != string(kind) {
		return nil, &wizard.LoadError{Err: ErrNotFound}
	}
	scope := wizard.Scope{}
	if a.Section != nil {
		scope.ModuleID = a.Section.ModuleID
		if m, err := g.repo.Module.GetByID(ctx, a.Section.ModuleID); err == nil {
			scope.CourseID = m.CourseID
		}
	}
	return &wizard.Existing{Draft: activityDraft(a), Scope: scope}, nil
}

func activityDraft(a *model.Activity) wizard.Draft {
	return wizard.Draft{
		Title:        a.Title,
		Description:  a.Description,
		Duration:     a.Duration,
		SectionID:    a.SectionID,
		QuestionText: a.QuestionText,
		Instructions: a.Instructions,
		Content:      a.Content,
		PassScore:    a.PassScore,
	}
}

// ── wizard.Submitter ──

// SubmitEntity 创建或更新实体，失败统一返回 *wizard.SubmitError
func (g *Local) SubmitEntity(ctx context.Context, kind wizard.Kind, sub wizard.Submission) (string, error) {
	var (
		id  string
		err error
	)
	switch {
	case kind == wizard.KindCourse:
		id, err = g.saveCourse(ctx, sub)
	case kind == wizard.KindModule:
		id, err = g.saveModule(ctx, sub)
	case kind == wizard.KindSection:
		id, err = g.saveSection(ctx, sub)
	case isActivity(kind):
		id, err = g.saveActivity(ctx, kind, sub)
	default:
		return "", &wizard.SubmitError{Err: wizard.ErrUnknownKind}
	}
	if err != nil {
		g.logger.Error("保存内容失败",
			zap.String("kind", string(kind)),
			zap.String("mode", string(sub.Mode)),
			zap.String("entity_id", sub.EntityID),
			zap.Error(err),
		)
		return "", toSubmitError(err)
	}
	return id, nil
}

// toSubmitError 将存储层错误转换为可展示的保存错误
func toSubmitError(err error) *wizard.SubmitError {
	var serr *wizard.SubmitError
	if errors.As(err, &serr) {
		return serr
	}
	switch {
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		return &wizard.SubmitError{Message: pkgerrors.ErrOptimisticLock.Error(), Err: err}
	case errors.Is(err, ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return &wizard.SubmitError{Message: "要保存的内容或其上级已不存在", Err: err}
	}
	return &wizard.SubmitError{Err: err}
}

func (g *Local) saveCourse(ctx context.Context, sub wizard.Submission) (string, error) {
	d := sub.Draft
	if sub.Mode == wizard.ModeEdit {
		c, err := g.repo.Course.GetByID(ctx, sub.EntityID)
		if err != nil {
			return "", notFound(err)
		}
		c.Title, c.Description = d.Title, d.Description
		c.UpdatedBy = actor(sub)
		return c.CourseID, g.repo.Course.Update(ctx, c)
	}

	c := &model.Course{Title: d.Title, Description: d.Description}
	c.CreatedBy = actor(sub)
	if err := g.repo.Course.Create(ctx, c); err != nil {
		return "", err
	}
	return c.CourseID, nil
}

func (g *Local) saveModule(ctx context.Context, sub wizard.Submission) (string, error) {
	d := sub.Draft
	if sub.Mode == wizard.ModeEdit {
		m, err := g.repo.Module.GetByID(ctx, sub.EntityID)
		if err != nil {
			return "", notFound(err)
		}
		m.Title, m.Description = d.Title, d.Description
		m.UpdatedBy = actor(sub)
		return m.ModuleID, g.repo.Module.Update(ctx, m)
	}

	var id string
	err := g.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if _, err := tx.Course.GetByID(ctx, sub.Scope.CourseID); err != nil {
			return notFound(err)
		}
		n, err := tx.Module.CountByCourse(ctx, sub.Scope.CourseID)
		if err != nil {
			return err
		}
		m := &model.Module{
			CourseID:    sub.Scope.CourseID,
			Title:       d.Title,
			Description: d.Description,
			OrderIndex:  int(n) + 1,
		}
		m.CreatedBy = actor(sub)
		if err := tx.Module.Create(ctx, m); err != nil {
			return err
		}
		id = m.ModuleID
		return nil
	})
	return id, err
}

func (g *Local) saveSection(ctx context.Context, sub wizard.Submission) (string, error) {
	d := sub.Draft
	if sub.Mode == wizard.ModeEdit {
		s, err := g.repo.Section.GetByID(ctx, sub.EntityID)
		if err != nil {
			return "", notFound(err)
		}
		s.Title, s.Description, s.Type = d.Title, d.Description, string(d.SectionType)
		s.UpdatedBy = actor(sub)
		return s.SectionID, g.repo.Section.Update(ctx, s)
	}

	var id string
	err := g.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if _, err := tx.Module.GetByID(ctx, sub.Scope.ModuleID); err != nil {
			return notFound(err)
		}
		n, err := tx.Section.CountByModule(ctx, sub.Scope.ModuleID)
		if err != nil {
			return err
		}
		s := &model.Section{
			ModuleID:    sub.Scope.ModuleID,
			Title:       d.Title,
			Description: d.Description,
			Type:        string(d.SectionType),
			OrderIndex:  int(n) + 1,
		}
		s.CreatedBy = actor(sub)
		if err := tx.Section.Create(ctx, s); err != nil {
			return err
		}
		id = s.SectionID
		return nil
	})
	return id, err
}

func (g *Local) saveActivity(ctx context.Context, kind wizard.Kind, sub wizard.Submission) (string, error) {
	d := sub.Draft
	section, err := g.repo.Section.GetByID(ctx, d.SectionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", &wizard.SubmitError{Message: "所选章节不存在或类型不匹配", Field: wizard.FieldSectionID, Err: err}
		}
		return "", err
	}
	flow, _ := wizard.FlowFor(kind)
	if section.ModuleID != sub.Scope.ModuleID || !flow.AcceptsSection(wizard.SectionType(section.Type)) {
		return "", &wizard.SubmitError{
			Message: "所选章节不存在或类型不匹配",
			Field:   wizard.FieldSectionID,
			Err:     fmt.Errorf("章节 %s 类型 %s 不可挂载 %s", section.SectionID, section.Type, kind),
		}
	}

	if sub.Mode == wizard.ModeEdit {
		a, err := g.repo.Activity.GetByID(ctx, sub.EntityID)
		if err != nil {
			return "", notFound(err)
		}
		if a.Kind != string(kind) {
			return "", ErrNotFound
		}
		applyDraft(a, d)
		a.UpdatedBy = actor(sub)
		if err := g.repo.Activity.Update(ctx, a); err != nil {
			return "", err
		}
		return a.ActivityID, nil
	}

	a := &model.Activity{Kind: string(kind)}
	applyDraft(a, d)
	a.CreatedBy = actor(sub)
	if err := g.repo.Activity.Create(ctx, a); err != nil {
		return "", err
	}
	return a.ActivityID, nil
}

func applyDraft(a *model.Activity, d wizard.Draft) {
	a.SectionID = d.SectionID
	a.Title = d.Title
	a.Description = d.Description
	a.Duration = d.Duration
	a.QuestionText = d.QuestionText
	a.Instructions = d.Instructions
	a.Content = d.Content
	a.PassScore = d.PassScore
}

func actor(sub wizard.Submission) *string {
	if sub.ActorID == "" {
		return nil
	}
	id := sub.ActorID
	return &id
}
