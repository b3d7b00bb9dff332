package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Thinhtran42/mtls-capstone-sub001/internal/dto"
	"github.com/Thinhtran42/mtls-capstone-sub001/internal/gateway"
	"github.com/Thinhtran42/mtls-capstone-sub001/internal/model"
	"github.com/Thinhtran42/mtls-capstone-sub001/internal/repository"
	"github.com/Thinhtran42/mtls-capstone-sub001/internal/wizard"
	pkgerrors "github.com/Thinhtran42/mtls-capstone-sub001/pkg/errors"
)

// ── 草稿会话业务错误 ──

var (
	ErrDraftNotFound  = errors.New("草稿不存在或已过期")
	ErrDraftForbidden = errors.New("无权访问该草稿")
	ErrEntityNotFound = errors.New("要编辑的内容不存在")
)

// AuthoringService 创建/编辑向导会话
//
// 每次请求：读取会话 → 重建控制器 → 执行一次操作 → 按版本写回。
// 校验失败时字段错误会随会话一起写回，再返回 *wizard.ValidationError。
type AuthoringService interface {
	Start(ctx context.Context, actorID string, req *dto.StartDraftRequest) (*dto.DraftSessionResponse, error)
	Get(ctx context.Context, actorID, id string) (*dto.DraftSessionResponse, error)
	UpdateField(ctx context.Context, actorID, id string, req *dto.UpdateDraftFieldRequest) (*dto.DraftSessionResponse, error)
	Advance(ctx context.Context, actorID, id string) (*dto.DraftSessionResponse, error)
	Retreat(ctx context.Context, actorID, id string) (*dto.DraftSessionResponse, error)
	Submit(ctx context.Context, actorID, id string) (*dto.SubmitDraftResponse, error)
	Discard(ctx context.Context, actorID, id string) error
}

type authoringService struct {
	gw     gateway.Gateway
	drafts repository.DraftStore
	// submitStale 超过该时长仍处于保存中的会话视为上次保存已中断
	submitStale time.Duration
	logger      *zap.Logger
}

// NewAuthoringService 创建 AuthoringService 实例
func NewAuthoringService(gw gateway.Gateway, drafts repository.DraftStore, submitTimeout time.Duration, logger *zap.Logger) AuthoringService {
	return &authoringService{
		gw:          gw,
		drafts:      drafts,
		submitStale: 2*submitTimeout + 5*time.Second,
		logger:      logger,
	}
}

// ═══════════════════════════════════════════════════════════
// Start — 打开表单
// ═══════════════════════════════════════════════════════════

func (s *authoringService) Start(ctx context.Context, actorID string, req *dto.StartDraftRequest) (*dto.DraftSessionResponse, error) {
	kind, ok := wizard.ParseKind(req.Kind)
	if !ok {
		return nil, wizard.ErrUnknownKind
	}

	cfg := wizard.Config{
		Kind:    kind,
		Mode:    wizard.ModeCreate,
		Scope:   wizard.Scope{CourseID: req.CourseID, ModuleID: req.ModuleID},
		ActorID: actorID,
	}

	// 1. 编辑模式：读取已有实体，父级以实体为准
	var existing *wizard.Existing
	if req.EntityID != "" {
		ex, err := s.gw.LoadExisting(ctx, kind, req.EntityID)
		if err != nil {
			if errors.Is(err, gateway.ErrNotFound) {
				return nil, ErrEntityNotFound
			}
			s.logger.Error("读取待编辑内容失败",
				zap.String("kind", string(kind)),
				zap.String("entity_id", req.EntityID),
				zap.Error(err),
			)
			return nil, err
		}
		existing = ex
		cfg.Mode = wizard.ModeEdit
		cfg.EntityID = req.EntityID
		cfg.Scope = ex.Scope
	}

	// 2. 参考数据：失败不阻断，降级为空章节 + 提示
	ref, warning := s.loadReference(ctx, kind, cfg.Scope)

	// 3. 构造控制器
	ctrl, err := wizard.NewController(cfg, ref, s.gw)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		st := ctrl.State()
		st.Draft = existing.Draft
		if err := ctrl.Resume(st); err != nil {
			return nil, err
		}
	}

	// 4. 保存会话
	session := &model.DraftSession{
		ID:          uuid.NewString(),
		OwnerID:     actorID,
		Kind:        kind,
		Mode:        cfg.Mode,
		EntityID:    cfg.EntityID,
		Scope:       cfg.Scope,
		Reference:   *ref,
		LoadWarning: warning,
		State:       ctrl.State(),
	}
	if err := s.drafts.Create(ctx, session); err != nil {
		s.logger.Error("创建草稿会话失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("打开草稿会话",
		zap.String("draft_id", session.ID),
		zap.String("kind", string(kind)),
		zap.String("mode", string(cfg.Mode)),
		zap.String("user_id", actorID),
	)
	return s.view(session, ctrl), nil
}

func (s *authoringService) loadReference(ctx context.Context, kind wizard.Kind, scope wizard.Scope) (*wizard.ReferenceData, string) {
	ref, err := s.gw.LoadReferenceData(ctx, kind, scope)
	if ref == nil {
		ref = &wizard.ReferenceData{}
	}
	if ref.Sections == nil {
		ref.Sections = []wizard.Section{}
	}
	if err == nil {
		return ref, ""
	}

	var lerr *wizard.LoadError
	if !errors.As(err, &lerr) {
		lerr = &wizard.LoadError{Err: err}
	}
	s.logger.Warn("参考数据加载失败，降级为空章节列表",
		zap.String("kind", string(kind)),
		zap.String("module_id", scope.ModuleID),
		zap.Error(err),
	)
	return ref, lerr.UserMessage()
}

// ═══════════════════════════════════════════════════════════
// 读取与单步操作
// ═══════════════════════════════════════════════════════════

func (s *authoringService) Get(ctx context.Context, actorID, id string) (*dto.DraftSessionResponse, error) {
	session, ctrl, err := s.load(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	return s.view(session, ctrl), nil
}

func (s *authoringService) UpdateField(ctx context.Context, actorID, id string, req *dto.UpdateDraftFieldRequest) (*dto.DraftSessionResponse, error) {
	return s.mutate(ctx, actorID, id, func(ctrl *wizard.Controller) error {
		return ctrl.UpdateField(wizard.Field(req.Field), req.Value)
	})
}

func (s *authoringService) Advance(ctx context.Context, actorID, id string) (*dto.DraftSessionResponse, error) {
	return s.mutate(ctx, actorID, id, func(ctrl *wizard.Controller) error {
		return ctrl.Advance()
	})
}

func (s *authoringService) Retreat(ctx context.Context, actorID, id string) (*dto.DraftSessionResponse, error) {
	return s.mutate(ctx, actorID, id, func(ctrl *wizard.Controller) error {
		ctrl.Retreat()
		return nil
	})
}

// mutate 执行一次状态转移并写回
// *wizard.ValidationError 也会写回（记录字段错误），同时返回会话视图与该错误
func (s *authoringService) mutate(ctx context.Context, actorID, id string, op func(ctrl *wizard.Controller) error) (*dto.DraftSessionResponse, error) {
	session, ctrl, err := s.load(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if s.submitting(session) {
		return nil, wizard.ErrSubmitInProgress
	}

	opErr := op(ctrl)
	var verr *wizard.ValidationError
	if opErr != nil && !errors.As(opErr, &verr) {
		return nil, opErr
	}

	session.State = ctrl.State()
	if err := s.drafts.Update(ctx, session); err != nil {
		return nil, s.storeError(err)
	}
	return s.view(session, ctrl), opErr
}

// ═══════════════════════════════════════════════════════════
// Submit — 保存
// ═══════════════════════════════════════════════════════════

func (s *authoringService) Submit(ctx context.Context, actorID, id string) (*dto.SubmitDraftResponse, error) {
	session, ctrl, err := s.load(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if !ctrl.State().IsFinal(ctrl.Flow()) {
		return nil, wizard.ErrNotAtFinalStep
	}
	if s.submitting(session) {
		return nil, wizard.ErrSubmitInProgress
	}

	// 1. 标记保存中；并发保存只有一个能通过版本比较
	session.Submitting = true
	if err := s.drafts.Update(ctx, session); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			if cur, gerr := s.drafts.Get(ctx, id); gerr == nil && s.submitting(cur) {
				return nil, wizard.ErrSubmitInProgress
			}
		}
		return nil, s.storeError(err)
	}

	// 2. 调用网关
	entityID, submitErr := ctrl.Submit(ctx)
	if submitErr != nil {
		session.Submitting = false
		session.State = ctrl.State()
		if err := s.drafts.Update(ctx, session); err != nil {
			s.logger.Error("保存失败后回写草稿会话失败",
				zap.String("draft_id", id),
				zap.Error(err),
			)
		}
		var serr *wizard.SubmitError
		if errors.As(submitErr, &serr) {
			s.logger.Warn("保存内容失败",
				zap.String("draft_id", id),
				zap.String("kind", string(session.Kind)),
				zap.String("field", string(serr.Field)),
				zap.Error(serr),
			)
		}
		return nil, submitErr
	}

	// 3. 成功后丢弃草稿
	if err := s.drafts.Delete(ctx, id); err != nil {
		s.logger.Warn("删除已保存的草稿会话失败", zap.String("draft_id", id), zap.Error(err))
	}
	s.logger.Info("保存内容成功",
		zap.String("draft_id", id),
		zap.String("kind", string(session.Kind)),
		zap.String("mode", string(session.Mode)),
		zap.String("entity_id", entityID),
		zap.String("user_id", actorID),
	)
	return &dto.SubmitDraftResponse{
		Kind:     string(session.Kind),
		Mode:     string(session.Mode),
		EntityID: entityID,
	}, nil
}

// Discard 放弃草稿
func (s *authoringService) Discard(ctx context.Context, actorID, id string) error {
	if _, _, err := s.load(ctx, actorID, id); err != nil {
		return err
	}
	return s.drafts.Delete(ctx, id)
}

// ── 辅助函数 ──

// load 读取会话、校验归属并重建控制器
func (s *authoringService) load(ctx context.Context, actorID, id string) (*model.DraftSession, *wizard.Controller, error) {
	session, err := s.drafts.Get(ctx, id)
	if err != nil {
		return nil, nil, s.storeError(err)
	}
	if session.OwnerID != actorID {
		return nil, nil, ErrDraftForbidden
	}

	ctrl, err := wizard.NewController(wizard.Config{
		Kind:     session.Kind,
		Mode:     session.Mode,
		EntityID: session.EntityID,
		Scope:    session.Scope,
		ActorID:  actorID,
	}, &session.Reference, s.gw)
	if err != nil {
		return nil, nil, err
	}
	if err := ctrl.Resume(session.State); err != nil {
		s.logger.Error("草稿会话状态损坏", zap.String("draft_id", id), zap.Error(err))
		return nil, nil, err
	}
	return session, ctrl, nil
}

// submitting 会话是否处于有效的保存中状态
func (s *authoringService) submitting(session *model.DraftSession) bool {
	return session.Submitting && time.Since(session.UpdatedAt) < s.submitStale
}

func (s *authoringService) storeError(err error) error {
	if errors.Is(err, repository.ErrDraftNotFound) {
		return ErrDraftNotFound
	}
	return err
}

// view 会话视图：合法章节、终止步预览
func (s *authoringService) view(session *model.DraftSession, ctrl *wizard.Controller) *dto.DraftSessionResponse {
	st := ctrl.State()
	flow := ctrl.Flow()

	steps := make([]dto.DraftStepResponse, 0, len(flow.Steps))
	for i, step := range flow.Steps {
		required := step.Required
		if required == nil {
			required = []wizard.Field{}
		}
		steps = append(steps, dto.DraftStepResponse{
			Index:    i,
			Name:     step.Name,
			Label:    step.Label,
			Required: required,
		})
	}

	sections := ctrl.ValidSections()
	if sections == nil {
		sections = []wizard.Section{}
	}
	errs := st.Errors
	if errs == nil {
		errs = map[wizard.Field]string{}
	}

	resp := &dto.DraftSessionResponse{
		ID:          session.ID,
		Kind:        string(session.Kind),
		Mode:        string(session.Mode),
		EntityID:    session.EntityID,
		CourseID:    session.Scope.CourseID,
		ModuleID:    session.Scope.ModuleID,
		CourseTitle: session.Reference.CourseTitle,
		ModuleTitle: session.Reference.ModuleTitle,
		Step:        st.Step,
		Steps:       steps,
		IsFinal:     st.IsFinal(flow),
		Draft:       st.Draft,
		Errors:      errs,
		Sections:    sections,
		LoadWarning: session.LoadWarning,
		Submitting:  s.submitting(session),
		Version:     session.Version,
		ExpiresAt:   session.ExpiresAt.Format(time.RFC3339),
	}
	if resp.IsFinal {
		resp.Preview = ctrl.Preview()
	}
	return resp
}
