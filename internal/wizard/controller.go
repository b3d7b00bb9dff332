package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
)

// Config 构造控制器所需的显式上下文（不依赖路由等全局状态）
type Config struct {
	Kind     Kind
	Mode     Mode
	EntityID string
	Scope    Scope
	ActorID  string
}

// Controller 向导控制器
//
// 持有步骤下标、草稿与字段错误；前进时按步骤校验，后退不校验，
// 只有在终止步显式调用 Submit 才会访问提交网关。
type Controller struct {
	cfg       Config
	flow      *Flow
	ref       ReferenceData
	submitter Submitter
	state     State
	busy      atomic.Bool
}

// NewController 创建控制器，初始处于第 0 步
func NewController(cfg Config, ref *ReferenceData, submitter Submitter) (*Controller, error) {
	flow, ok := FlowFor(cfg.Kind)
	if !ok {
		return nil, ErrUnknownKind
	}
	if flow.NeedsCourse && cfg.Scope.CourseID == "" {
		return nil, ErrMissingScope
	}
	if flow.NeedsModule && cfg.Scope.ModuleID == "" {
		return nil, ErrMissingScope
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeCreate
	}

	c := &Controller{
		cfg:       cfg,
		flow:      flow,
		submitter: submitter,
		state:     State{Kind: cfg.Kind},
	}
	if ref != nil {
		c.ref = *ref
	}
	return c, nil
}

// Resume 用已保存的状态替换当前状态（会话恢复）
func (c *Controller) Resume(st State) error {
	if st.Kind != c.cfg.Kind {
		return fmt.Errorf("状态类型 %s 与控制器类型 %s 不一致", st.Kind, c.cfg.Kind)
	}
	if st.Step < 0 || st.Step > c.flow.Last() {
		return fmt.Errorf("步骤下标 %d 越界", st.Step)
	}
	c.state = st
	return nil
}

// State 当前状态值
func (c *Controller) State() State { return c.state }

// Flow 当前流程定义
func (c *Controller) Flow() *Flow { return c.flow }

// Advance 校验当前步骤并前进；失败返回 *ValidationError，步骤不变
func (c *Controller) Advance() error {
	next, verr := c.state.Advance(c.flow)
	c.state = next
	if verr != nil {
		return verr
	}
	return nil
}

// Retreat 后退一步，不做校验
func (c *Controller) Retreat() {
	c.state = c.state.Retreat()
}

// UpdateField 写入单个字段并清除该字段的错误
func (c *Controller) UpdateField(name Field, value any) error {
	next, err := c.state.WithField(c.flow, name, value)
	if err != nil {
		return err
	}
	c.state = next
	return nil
}

// Submit 在终止步保存草稿
//
// 章节在调用网关前再次核对：章节数据是异步加载的，加载失败时列表为空。
func (c *Controller) Submit(ctx context.Context) (string, error) {
	if !c.state.IsFinal(c.flow) {
		return "", ErrNotAtFinalStep
	}
	if !c.busy.CompareAndSwap(false, true) {
		return "", ErrSubmitInProgress
	}
	defer c.busy.Store(false)

	if c.flow.UsesSections() {
		if err := c.checkSection(); err != nil {
			return "", err
		}
	}
	if verr := c.state.ValidateAll(c.flow); verr != nil {
		c.state = c.state.withErrors(verr)
		return "", verr
	}

	id, err := c.submitter.SubmitEntity(ctx, c.cfg.Kind, Submission{
		Mode:     c.cfg.Mode,
		EntityID: c.cfg.EntityID,
		Scope:    c.cfg.Scope,
		ActorID:  c.cfg.ActorID,
		Draft:    c.state.Draft,
	})
	if err != nil {
		var serr *SubmitError
		if errors.As(err, &serr) {
			return "", serr
		}
		return "", &SubmitError{Err: err}
	}
	return id, nil
}

// ValidSections 当前模块下类型匹配的章节
func (c *Controller) ValidSections() []Section {
	if !c.flow.UsesSections() {
		return nil
	}
	out := make([]Section, 0, len(c.ref.Sections))
	for _, s := range c.ref.Sections {
		if s.ModuleID == c.cfg.Scope.ModuleID && c.flow.AcceptsSection(s.Type) {
			out = append(out, s)
		}
	}
	return out
}

func (c *Controller) checkSection() error {
	id := c.state.Draft.SectionID
	if id == "" {
		return &SubmitError{Message: "请选择所属章节", Field: FieldSectionID}
	}
	for _, s := range c.ValidSections() {
		if s.ID == id {
			return nil
		}
	}
	return &SubmitError{Message: "所选章节不存在或类型不匹配", Field: FieldSectionID}
}
