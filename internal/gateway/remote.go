package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/Thinhtran42/mtls-capstone-sub001/config"
	"github.com/Thinhtran42/mtls-capstone-sub001/internal/wizard"
)

// UpstreamError 上游返回非 2xx
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("上游返回 %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("上游返回 %d", e.Status)
}

// remoteEntity 上游实体的并集字段
type remoteEntity struct {
	ID           string `json:"id"`
	AltID        string `json:"_id"`
	Kind         string `json:"kind"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Duration     int    `json:"duration"`
	CourseID     string `json:"course_id"`
	ModuleID     string `json:"module_id"`
	SectionID    string `json:"section_id"`
	Type         string `json:"type"`
	QuestionText string `json:"question_text"`
	Instructions string `json:"instructions"`
	Content      string `json:"content"`
	PassScore    *int   `json:"pass_score"`
	OrderIndex   int    `json:"order_index"`
}

func (e remoteEntity) id() string {
	if e.ID != "" {
		return e.ID
	}
	return e.AltID
}

// Remote 通过 REST 调用上游内容服务的网关
type Remote struct {
	client *resty.Client
	logger *zap.Logger
}

// NewRemote 创建远程网关，超时由 gateway.timeout 控制
func NewRemote(cfg *config.GatewayConfig, logger *zap.Logger) *Remote {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	if cfg.APIToken != "" {
		client.SetAuthToken(cfg.APIToken)
	}
	return &Remote{client: client, logger: logger}
}

// get 发起 GET 并按 key 归一化响应
func (g *Remote) get(ctx context.Context, path string, params map[string]string, key string, out any) error {
	resp, err := g.client.R().
		SetContext(ctx).
		SetPathParams(params).
		Get(path)
	if err != nil {
		return fmt.Errorf("请求上游失败 GET %s: %w", path, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.IsError() {
		return &UpstreamError{Status: resp.StatusCode(), Message: errorMessage(resp.Body())}
	}
	return decode(resp.Body(), key, out)
}

// ── 目录查询 ──

func (g *Remote) ListCourses(ctx context.Context) ([]CourseSummary, error) {
	var items []remoteEntity
	if err := g.get(ctx, "/courses", nil, "courses", &items); err != nil {
		return nil, err
	}
	out := make([]CourseSummary, 0, len(items))
	for _, e := range items {
		out = append(out, CourseSummary{ID: e.id(), Title: e.Title, Description: e.Description})
	}
	return out, nil
}

func (g *Remote) GetCourse(ctx context.Context, id string) (*CourseSummary, error) {
	var e remoteEntity
	if err := g.get(ctx, "/courses/{id}", map[string]string{"id": id}, "course", &e); err != nil {
		return nil, err
	}
	return &CourseSummary{ID: e.id(), Title: e.Title, Description: e.Description}, nil
}

func (g *Remote) ListModules(ctx context.Context, courseID string) ([]ModuleSummary, error) {
	var items []remoteEntity
	if err := g.get(ctx, "/courses/{id}/modules", map[string]string{"id": courseID}, "modules", &items); err != nil {
		return nil, err
	}
	out := make([]ModuleSummary, 0, len(items))
	for _, e := range items {
		cid := e.CourseID
		if cid == "" {
			cid = courseID
		}
		out = append(out, ModuleSummary{
			ID:          e.id(),
			CourseID:    cid,
			Title:       e.Title,
			Description: e.Description,
			OrderIndex:  e.OrderIndex,
		})
	}
	return out, nil
}

// ListSections 上游不支持按类型过滤，在此过滤
func (g *Remote) ListSections(ctx context.Context, moduleID string, types []wizard.SectionType) ([]wizard.Section, error) {
	var items []remoteEntity
	if err := g.get(ctx, "/modules/{id}/sections", map[string]string{"id": moduleID}, "sections", &items); err != nil {
		return nil, err
	}
	out := make([]wizard.Section, 0, len(items))
	for _, e := range items {
		t := wizard.SectionType(e.Type)
		if len(types) > 0 && !containsType(types, t) {
			continue
		}
		mid := e.ModuleID
		if mid == "" {
			mid = moduleID
		}
		out = append(out, wizard.Section{ID: e.id(), Title: e.Title, Type: t, ModuleID: mid})
	}
	return out, nil
}

func (g *Remote) ListActivities(ctx context.Context, sectionID string) ([]ActivitySummary, error) {
	var items []remoteEntity
	if err := g.get(ctx, "/sections/{id}/activities", map[string]string{"id": sectionID}, "activities", &items); err != nil {
		return nil, err
	}
	out := make([]ActivitySummary, 0, len(items))
	for _, e := range items {
		out = append(out, ActivitySummary{
			ID:        e.id(),
			SectionID: sectionID,
			Kind:      wizard.Kind(e.Kind),
			Title:     e.Title,
			Duration:  e.Duration,
			PassScore: e.PassScore,
		})
	}
	return out, nil
}

func containsType(types []wizard.SectionType, t wizard.SectionType) bool {
	for _, x := range types {
		if x == t {
			return true
		}
	}
	return false
}

func (g *Remote) getModule(ctx context.Context, id string) (*remoteEntity, error) {
	var e remoteEntity
	if err := g.get(ctx, "/modules/{id}", map[string]string{"id": id}, "module", &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (g *Remote) moduleTitles(ctx context.Context, moduleID string) (string, string, error) {
	m, err := g.getModule(ctx, moduleID)
	if err != nil {
		return "", "", err
	}
	if m.CourseID == "" {
		return m.Title, "", nil
	}
	c, err := g.GetCourse(ctx, m.CourseID)
	if err != nil {
		return "", "", err
	}
	return m.Title, c.Title, nil
}

// ── wizard.Loader ──

// LoadReferenceData 加载父级标题与模块下的章节
func (g *Remote) LoadReferenceData(ctx context.Context, kind wizard.Kind, scope wizard.Scope) (*wizard.ReferenceData, error) {
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
func (g *Remote) LoadExisting(ctx context.Context, kind wizard.Kind, id string) (*wizard.Existing, error) {
	if _, ok := wizard.FlowFor(kind); !ok {
		return nil, wizard.ErrUnknownKind
	}
	var e remoteEntity
	if err := g.get(ctx, "/"+kind.Plural()+"/{id}", map[string]string{"id": id}, string(kind), &e); err != nil {
		return nil, &wizard.LoadError{Err: err}
	}

	ex := &wizard.Existing{
		Draft: wizard.Draft{
			Title:        e.Title,
			Description:  e.Description,
			Duration:     e.Duration,
			SectionID:    e.SectionID,
			QuestionText: e.QuestionText,
			Instructions: e.Instructions,
			Content:      e.Content,
			PassScore:    e.PassScore,
		},
		Scope: wizard.Scope{CourseID: e.CourseID, ModuleID: e.ModuleID},
	}
	if kind == wizard.KindSection {
		ex.Draft.SectionType = wizard.SectionType(e.Type)
	}

	// 活动只携带 section_id 时向上补全模块与课程
	if isActivity(kind) && ex.Scope.ModuleID == "" && e.SectionID != "" {
		var s remoteEntity
		if err := g.get(ctx, "/sections/{id}", map[string]string{"id": e.SectionID}, "section", &s); err != nil {
			return nil, &wizard.LoadError{Err: err}
		}
		ex.Scope.ModuleID = s.ModuleID
	}
	if ex.Scope.CourseID == "" && ex.Scope.ModuleID != "" && kind != wizard.KindModule {
		m, err := g.getModule(ctx, ex.Scope.ModuleID)
		if err != nil {
			return nil, &wizard.LoadError{Err: err}
		}
		ex.Scope.CourseID = m.CourseID
	}
	return ex, nil
}

// ── wizard.Submitter ──

// SubmitEntity 创建（POST /{kind}s）或更新（PUT /{kind}s/{id}）实体
func (g *Remote) SubmitEntity(ctx context.Context, kind wizard.Kind, sub wizard.Submission) (string, error) {
	if _, ok := wizard.FlowFor(kind); !ok {
		return "", &wizard.SubmitError{Err: wizard.ErrUnknownKind}
	}

	req := g.client.R().
		SetContext(ctx).
		SetBody(payload(kind, sub))
	if sub.ActorID != "" {
		req.SetHeader("X-Actor-ID", sub.ActorID)
	}

	var (
		resp *resty.Response
		err  error
	)
	if sub.Mode == wizard.ModeEdit {
		resp, err = req.SetPathParam("id", sub.EntityID).Put("/" + kind.Plural() + "/{id}")
	} else {
		resp, err = req.Post("/" + kind.Plural())
	}
	if err != nil {
		g.logger.Error("保存内容失败：请求上游出错", zap.String("kind", string(kind)), zap.Error(err))
		return "", &wizard.SubmitError{Err: err}
	}
	if resp.IsError() {
		msg := errorMessage(resp.Body())
		g.logger.Warn("保存内容失败：上游拒绝",
			zap.String("kind", string(kind)),
			zap.Int("status", resp.StatusCode()),
			zap.String("message", msg),
		)
		return "", &wizard.SubmitError{
			Message: msg,
			Err:     &UpstreamError{Status: resp.StatusCode(), Message: msg},
		}
	}

	// 更新接口可能以 204 或空响应体表示成功
	if sub.Mode == wizard.ModeEdit &&
		(resp.StatusCode() == http.StatusNoContent || len(bytes.TrimSpace(resp.Body())) == 0) {
		return sub.EntityID, nil
	}

	var e remoteEntity
	if err := decode(resp.Body(), string(kind), &e); err != nil {
		return "", &wizard.SubmitError{Err: err}
	}
	id := e.id()
	if id == "" && sub.Mode == wizard.ModeEdit {
		id = sub.EntityID
	}
	if id == "" {
		return "", &wizard.SubmitError{Err: errors.Join(ErrMalformedResponse, errors.New("响应缺少实体 ID"))}
	}
	return id, nil
}

// payload 上游请求体，只包含该实体类型使用的字段
func payload(kind wizard.Kind, sub wizard.Submission) map[string]any {
	d := sub.Draft
	body := map[string]any{
		"title":       d.Title,
		"description": d.Description,
	}
	switch kind {
	case wizard.KindModule:
		body["course_id"] = sub.Scope.CourseID
	case wizard.KindSection:
		body["module_id"] = sub.Scope.ModuleID
		body["type"] = string(d.SectionType)
	case wizard.KindCourse:
	default:
		body["module_id"] = sub.Scope.ModuleID
		body["section_id"] = d.SectionID
		body["duration"] = d.Duration
	}
	switch kind {
	case wizard.KindAssignment:
		body["question_text"] = d.QuestionText
	case wizard.KindExercise:
		body["instructions"] = d.Instructions
	case wizard.KindLesson:
		body["content"] = d.Content
	case wizard.KindQuiz:
		if d.PassScore != nil {
			body["pass_score"] = *d.PassScore
		}
	}
	return body
}
