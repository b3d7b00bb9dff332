package wizard

import (
	"context"
	"errors"
	"testing"
)

// ── 测试辅助 ──

type fakeSubmitter struct {
	calls   int
	last    Submission
	id      string
	err     error
	onEnter func()
}

func (f *fakeSubmitter) SubmitEntity(_ context.Context, _ Kind, sub Submission) (string, error) {
	f.calls++
	f.last = sub
	if f.onEnter != nil {
		f.onEnter()
	}
	return f.id, f.err
}

func assignmentRef() *ReferenceData {
	return &ReferenceData{
		CourseTitle: "Go 入门",
		ModuleTitle: "并发",
		Sections: []Section{
			{ID: "s1", Title: "作业区", Type: SectionAssignment, ModuleID: "m1"},
			{ID: "s2", Title: "阅读", Type: SectionReading, ModuleID: "m1"},
			{ID: "s3", Title: "别的模块作业", Type: SectionAssignment, ModuleID: "m2"},
		},
	}
}

func newAssignmentController(t *testing.T, ref *ReferenceData, sub Submitter) *Controller {
	t.Helper()
	c, err := NewController(Config{
		Kind:    KindAssignment,
		Scope:   Scope{CourseID: "c1", ModuleID: "m1"},
		ActorID: "teacher-1",
	}, ref, sub)
	if err != nil {
		t.Fatalf("NewController 失败: %v", err)
	}
	return c
}

func mustSet(t *testing.T, c *Controller, f Field, v any) {
	t.Helper()
	if err := c.UpdateField(f, v); err != nil {
		t.Fatalf("UpdateField(%s) 失败: %v", f, err)
	}
}

func fillGeneral(t *testing.T, c *Controller) {
	t.Helper()
	mustSet(t, c, FieldTitle, "T")
	mustSet(t, c, FieldDescription, "D")
	mustSet(t, c, FieldDuration, float64(60))
	mustSet(t, c, FieldSectionID, "s1")
}

// ── 构造 ──

func TestNewController_UnknownKind(t *testing.T) {
	_, err := NewController(Config{Kind: "poll"}, nil, &fakeSubmitter{})
	if !errors.Is(err, ErrUnknownKind) {
		t.Errorf("期望 ErrUnknownKind，实际: %v", err)
	}
}

func TestNewController_MissingModule(t *testing.T) {
	_, err := NewController(Config{Kind: KindAssignment}, nil, &fakeSubmitter{})
	if !errors.Is(err, ErrMissingScope) {
		t.Errorf("期望 ErrMissingScope，实际: %v", err)
	}
}

// ── Advance ──

func TestAdvance_MissingGeneralFieldsKeepsStep(t *testing.T) {
	cases := []struct {
		name string
		skip Field
	}{
		{"title", FieldTitle},
		{"description", FieldDescription},
		{"duration", FieldDuration},
		{"section", FieldSectionID},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newAssignmentController(t, assignmentRef(), &fakeSubmitter{})
			values := map[Field]any{
				FieldTitle:       "T",
				FieldDescription: "D",
				FieldDuration:    60,
				FieldSectionID:   "s1",
			}
			for f, v := range values {
				if f != tc.skip {
					mustSet(t, c, f, v)
				}
			}

			err := c.Advance()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("期望 *ValidationError，实际: %v", err)
			}
			if len(verr.Missing) != 1 || verr.Missing[0] != tc.skip {
				t.Errorf("期望缺失 [%s]，实际 %v", tc.skip, verr.Missing)
			}
			if c.State().Step != 0 {
				t.Errorf("校验失败后步骤应保持 0，实际 %d", c.State().Step)
			}
		})
	}
}

func TestAdvance_EmptyDraftReportsAllGeneralFields(t *testing.T) {
	c := newAssignmentController(t, assignmentRef(), &fakeSubmitter{})

	err := c.Advance()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("期望 *ValidationError，实际: %v", err)
	}
	for _, f := range []Field{FieldTitle, FieldDescription, FieldDuration, FieldSectionID} {
		if !verr.Has(f) {
			t.Errorf("缺失集合应包含 %s", f)
		}
		if _, ok := c.State().Errors[f]; !ok {
			t.Errorf("应记录字段错误 %s", f)
		}
	}
}

func TestAdvance_WhitespaceTitleIsMissing(t *testing.T) {
	c := newAssignmentController(t, assignmentRef(), &fakeSubmitter{})
	fillGeneral(t, c)
	mustSet(t, c, FieldTitle, "   ")

	var verr *ValidationError
	if !errors.As(c.Advance(), &verr) || !verr.Has(FieldTitle) {
		t.Errorf("空白标题应视为缺失")
	}
}

func TestAdvance_GeneralCompleteMovesOnce(t *testing.T) {
	c := newAssignmentController(t, assignmentRef(), &fakeSubmitter{})
	fillGeneral(t, c)

	if err := c.Advance(); err != nil {
		t.Fatalf("Advance 应成功: %v", err)
	}
	if c.State().Step != 1 {
		t.Errorf("期望 step=1，实际 %d", c.State().Step)
	}
}

func TestAdvance_ScenarioQuestionMissing(t *testing.T) {
	c := newAssignmentController(t, assignmentRef(), &fakeSubmitter{})
	fillGeneral(t, c)
	mustSet(t, c, FieldQuestionText, "")

	if err := c.Advance(); err != nil {
		t.Fatalf("0→1 应成功: %v", err)
	}

	err := c.Advance()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("1→2 期望 *ValidationError，实际: %v", err)
	}
	if verr.Step != 1 || len(verr.Missing) != 1 || verr.Missing[0] != FieldQuestionText {
		t.Errorf("期望 step=1 缺失 {question_text}，实际 step=%d %v", verr.Step, verr.Missing)
	}
	if c.State().Step != 1 {
		t.Errorf("期望停留在 step=1，实际 %d", c.State().Step)
	}
}

func TestAdvance_NeverPassesLastStep(t *testing.T) {
	c := newAssignmentController(t, assignmentRef(), &fakeSubmitter{})
	fillGeneral(t, c)
	mustSet(t, c, FieldQuestionText, "解释 channel 的关闭语义")

	for i := 0; i < 5; i++ {
		if err := c.Advance(); err != nil {
			t.Fatalf("第 %d 次 Advance 失败: %v", i+1, err)
		}
	}
	if got := c.State().Step; got != 2 {
		t.Errorf("期望停在终止步 2，实际 %d", got)
	}
	if !c.State().IsFinal(c.Flow()) {
		t.Error("期望处于终止步")
	}
}

// ── Retreat ──

func TestRetreat_FromZeroIsNoop(t *testing.T) {
	c := newAssignmentController(t, assignmentRef(), &fakeSubmitter{})
	c.Retreat()
	if c.State().Step != 0 {
		t.Errorf("期望 step=0，实际 %d", c.State().Step)
	}
}

func TestRetreat_DecrementsWithoutValidation(t *testing.T) {
	c := newAssignmentController(t, assignmentRef(), &fakeSubmitter{})
	fillGeneral(t, c)
	mustSet(t, c, FieldQuestionText, "Q")
	_ = c.Advance()
	_ = c.Advance()

	// 清空必填项后仍允许后退
	mustSet(t, c, FieldQuestionText, "")
	c.Retreat()
	if c.State().Step != 1 {
		t.Errorf("期望 step=1，实际 %d", c.State().Step)
	}
	c.Retreat()
	if c.State().Step != 0 {
		t.Errorf("期望 step=0，实际 %d", c.State().Step)
	}
}

// ── UpdateField ──

func TestUpdateField_ClearsOnlyNamedError(t *testing.T) {
	c := newAssignmentController(t, assignmentRef(), &fakeSubmitter{})
	_ = c.Advance()

	mustSet(t, c, FieldTitle, "T")

	errs := c.State().Errors
	if _, ok := errs[FieldTitle]; ok {
		t.Error("title 错误应被清除")
	}
	for _, f := range []Field{FieldDescription, FieldDuration, FieldSectionID} {
		if _, ok := errs[f]; !ok {
			t.Errorf("%s 错误不应被清除", f)
		}
	}
}

func TestUpdateField_DoesNotMutatePreviousState(t *testing.T) {
	c := newAssignmentController(t, assignmentRef(), &fakeSubmitter{})
	_ = c.Advance()
	before := c.State()

	mustSet(t, c, FieldDescription, "D")

	if _, ok := before.Errors[FieldDescription]; !ok {
		t.Error("旧状态值的错误集合不应被修改")
	}
	if before.Draft.Description != "" {
		t.Error("旧状态值的草稿不应被修改")
	}
}

func TestUpdateField_UnknownFieldRejected(t *testing.T) {
	c := newAssignmentController(t, assignmentRef(), &fakeSubmitter{})
	if err := c.UpdateField(FieldInstructions, "x"); !errors.Is(err, ErrUnknownField) {
		t.Errorf("期望 ErrUnknownField，实际: %v", err)
	}
}

func TestUpdateField_DurationCoercion(t *testing.T) {
	c := newAssignmentController(t, assignmentRef(), &fakeSubmitter{})

	mustSet(t, c, FieldDuration, "45")
	if c.State().Draft.Duration != 45 {
		t.Errorf("期望 duration=45，实际 %d", c.State().Draft.Duration)
	}

	var ferr *FieldValueError
	if err := c.UpdateField(FieldDuration, -3); !errors.As(err, &ferr) {
		t.Errorf("负数时长期望 *FieldValueError，实际: %v", err)
	}
	if err := c.UpdateField(FieldDuration, 1.5); !errors.As(err, &ferr) {
		t.Errorf("小数时长期望 *FieldValueError，实际: %v", err)
	}
	if c.State().Draft.Duration != 45 {
		t.Error("非法取值不应修改草稿")
	}

	mustSet(t, c, FieldDuration, "")
	if c.State().Draft.Duration != 0 {
		t.Error("空串应清空时长")
	}
}

// ── Submit ──

func TestSubmit_NotInvokedByNavigation(t *testing.T) {
	sub := &fakeSubmitter{id: "a-1"}
	c := newAssignmentController(t, assignmentRef(), sub)
	fillGeneral(t, c)
	mustSet(t, c, FieldQuestionText, "Q")

	for i := 0; i < 4; i++ {
		_ = c.Advance()
	}
	c.Retreat()
	_ = c.Advance()

	if sub.calls != 0 {
		t.Errorf("Advance/Retreat 不应调用网关，实际调用 %d 次", sub.calls)
	}
}

func TestSubmit_RejectedBeforeFinalStep(t *testing.T) {
	sub := &fakeSubmitter{id: "a-1"}
	c := newAssignmentController(t, assignmentRef(), sub)
	fillGeneral(t, c)

	if _, err := c.Submit(context.Background()); !errors.Is(err, ErrNotAtFinalStep) {
		t.Errorf("期望 ErrNotAtFinalStep，实际: %v", err)
	}
	if sub.calls != 0 {
		t.Error("不应调用网关")
	}
}

func TestSubmit_EmptySectionsRejectedWithoutGatewayCall(t *testing.T) {
	sub := &fakeSubmitter{id: "a-1"}
	c := newAssignmentController(t, &ReferenceData{Sections: []Section{}}, sub)
	fillGeneral(t, c)
	mustSet(t, c, FieldQuestionText, "Q")
	_ = c.Advance()
	_ = c.Advance()

	_, err := c.Submit(context.Background())
	var serr *SubmitError
	if !errors.As(err, &serr) {
		t.Fatalf("期望 *SubmitError，实际: %v", err)
	}
	if serr.Field != FieldSectionID {
		t.Errorf("期望错误指向 section_id，实际 %q", serr.Field)
	}
	if sub.calls != 0 {
		t.Errorf("章节校验失败时不应调用网关，实际 %d 次", sub.calls)
	}
}

func TestSubmit_SectionFromOtherModuleOrTypeRejected(t *testing.T) {
	for _, sectionID := range []string{"s2", "s3", "missing"} {
		sub := &fakeSubmitter{id: "a-1"}
		c := newAssignmentController(t, assignmentRef(), sub)
		fillGeneral(t, c)
		mustSet(t, c, FieldSectionID, sectionID)
		mustSet(t, c, FieldQuestionText, "Q")
		_ = c.Advance()
		_ = c.Advance()

		var serr *SubmitError
		if _, err := c.Submit(context.Background()); !errors.As(err, &serr) {
			t.Errorf("section=%s 期望 *SubmitError，实际: %v", sectionID, err)
		}
		if sub.calls != 0 {
			t.Errorf("section=%s 不应调用网关", sectionID)
		}
	}
}

func TestSubmit_Success(t *testing.T) {
	sub := &fakeSubmitter{id: "a-1"}
	c := newAssignmentController(t, assignmentRef(), sub)
	fillGeneral(t, c)
	mustSet(t, c, FieldQuestionText, "Q")
	_ = c.Advance()
	_ = c.Advance()

	id, err := c.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit 应成功: %v", err)
	}
	if id != "a-1" {
		t.Errorf("期望 id=a-1，实际 %s", id)
	}
	if sub.calls != 1 {
		t.Errorf("期望调用网关 1 次，实际 %d", sub.calls)
	}
	if sub.last.Mode != ModeCreate || sub.last.Scope.ModuleID != "m1" || sub.last.ActorID != "teacher-1" {
		t.Errorf("提交内容不符: %+v", sub.last)
	}
	if sub.last.Draft.QuestionText != "Q" {
		t.Errorf("期望 question_text=Q，实际 %q", sub.last.Draft.QuestionText)
	}
}

func TestSubmit_GatewayMessageSurfacedAndDraftKept(t *testing.T) {
	sub := &fakeSubmitter{err: &SubmitError{Message: "标题已存在"}}
	c := newAssignmentController(t, assignmentRef(), sub)
	fillGeneral(t, c)
	mustSet(t, c, FieldQuestionText, "Q")
	_ = c.Advance()
	_ = c.Advance()

	_, err := c.Submit(context.Background())
	var serr *SubmitError
	if !errors.As(err, &serr) {
		t.Fatalf("期望 *SubmitError，实际: %v", err)
	}
	if serr.UserMessage() != "标题已存在" {
		t.Errorf("期望透出网关消息，实际 %q", serr.UserMessage())
	}
	if c.State().Step != 2 || c.State().Draft.Title != "T" {
		t.Error("失败后应保留步骤与草稿")
	}
}

func TestSubmit_PlainGatewayErrorUsesFallback(t *testing.T) {
	sub := &fakeSubmitter{err: errors.New("connection refused")}
	c := newAssignmentController(t, assignmentRef(), sub)
	fillGeneral(t, c)
	mustSet(t, c, FieldQuestionText, "Q")
	_ = c.Advance()
	_ = c.Advance()

	_, err := c.Submit(context.Background())
	var serr *SubmitError
	if !errors.As(err, &serr) {
		t.Fatalf("期望 *SubmitError，实际: %v", err)
	}
	if serr.UserMessage() != submitFallbackMessage {
		t.Errorf("期望默认提示，实际 %q", serr.UserMessage())
	}
}

func TestSubmit_BusyFlagBlocksReentry(t *testing.T) {
	sub := &fakeSubmitter{id: "a-1"}
	c := newAssignmentController(t, assignmentRef(), sub)
	fillGeneral(t, c)
	mustSet(t, c, FieldQuestionText, "Q")
	_ = c.Advance()
	_ = c.Advance()

	var nested error
	sub.onEnter = func() {
		_, nested = c.Submit(context.Background())
	}
	if _, err := c.Submit(context.Background()); err != nil {
		t.Fatalf("Submit 应成功: %v", err)
	}
	if !errors.Is(nested, ErrSubmitInProgress) {
		t.Errorf("期望 ErrSubmitInProgress，实际: %v", nested)
	}
	if sub.calls != 1 {
		t.Errorf("期望调用网关 1 次，实际 %d", sub.calls)
	}
}

// ── 单步表单 ──

func TestSingleStepForm_SubmitValidatesWholeForm(t *testing.T) {
	sub := &fakeSubmitter{id: "e-1"}
	c, err := NewController(Config{
		Kind:  KindExercise,
		Scope: Scope{ModuleID: "m1"},
	}, &ReferenceData{Sections: []Section{{ID: "ex", Type: SectionExercise, ModuleID: "m1"}}}, sub)
	if err != nil {
		t.Fatalf("NewController 失败: %v", err)
	}
	mustSet(t, c, FieldSectionID, "ex")
	mustSet(t, c, FieldTitle, "练习一")

	_, err = c.Submit(context.Background())
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("期望 *ValidationError，实际: %v", err)
	}
	if !verr.Has(FieldInstructions) || !verr.Has(FieldDuration) {
		t.Errorf("缺失集合不完整: %v", verr.Missing)
	}
	if sub.calls != 0 {
		t.Error("校验失败不应调用网关")
	}

	mustSet(t, c, FieldDescription, "D")
	mustSet(t, c, FieldDuration, 30)
	mustSet(t, c, FieldInstructions, "实现一个 worker pool")
	if _, err := c.Submit(context.Background()); err != nil {
		t.Fatalf("补全后 Submit 应成功: %v", err)
	}
}

func TestCourseForm_NoSectionCheck(t *testing.T) {
	sub := &fakeSubmitter{id: "c-1"}
	c, err := NewController(Config{Kind: KindCourse}, nil, sub)
	if err != nil {
		t.Fatalf("NewController 失败: %v", err)
	}
	mustSet(t, c, FieldTitle, "Go 进阶")
	mustSet(t, c, FieldDescription, "D")

	id, err := c.Submit(context.Background())
	if err != nil || id != "c-1" {
		t.Fatalf("期望成功返回 c-1，实际 id=%s err=%v", id, err)
	}
}

func TestLesson_AcceptsReadingAndVideoSections(t *testing.T) {
	ref := &ReferenceData{Sections: []Section{
		{ID: "r", Type: SectionReading, ModuleID: "m1"},
		{ID: "v", Type: SectionVideo, ModuleID: "m1"},
		{ID: "q", Type: SectionQuiz, ModuleID: "m1"},
	}}
	c, err := NewController(Config{Kind: KindLesson, Scope: Scope{ModuleID: "m1"}}, ref, &fakeSubmitter{})
	if err != nil {
		t.Fatalf("NewController 失败: %v", err)
	}
	got := c.ValidSections()
	if len(got) != 2 || got[0].ID != "r" || got[1].ID != "v" {
		t.Errorf("期望 [r v]，实际 %+v", got)
	}
}

// ── Resume / Preview ──

func TestResume_RejectsOutOfRangeStep(t *testing.T) {
	c := newAssignmentController(t, assignmentRef(), &fakeSubmitter{})
	if err := c.Resume(State{Kind: KindAssignment, Step: 3}); err == nil {
		t.Error("越界步骤应返回错误")
	}
	if err := c.Resume(State{Kind: KindQuiz}); err == nil {
		t.Error("类型不一致应返回错误")
	}
	if err := c.Resume(State{Kind: KindAssignment, Step: 2}); err != nil {
		t.Errorf("合法状态应恢复成功: %v", err)
	}
}

func TestPreview_ShowsSectionTitle(t *testing.T) {
	c := newAssignmentController(t, assignmentRef(), &fakeSubmitter{})
	fillGeneral(t, c)

	for _, item := range c.Preview() {
		if item.Field == FieldSectionID && item.Value != "作业区" {
			t.Errorf("期望章节显示为标题，实际 %q", item.Value)
		}
		if item.Field == FieldDuration && item.Value != "60" {
			t.Errorf("期望时长 60，实际 %q", item.Value)
		}
	}
}
