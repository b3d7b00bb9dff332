package wizard

import "testing"

func TestFlows_RequiredFieldsAreEditable(t *testing.T) {
	for _, k := range Kinds {
		f, ok := FlowFor(k)
		if !ok {
			t.Fatalf("缺少 %s 的流程定义", k)
		}
		if len(f.Steps) == 0 {
			t.Errorf("%s 流程至少需要一步", k)
		}
		for _, step := range f.Steps {
			for _, field := range step.Required {
				if !f.Allows(field) {
					t.Errorf("%s/%s 的必填项 %s 不在可编辑字段中", k, step.Name, field)
				}
			}
		}
		if f.UsesSections() && !f.Allows(FieldSectionID) {
			t.Errorf("%s 挂载章节但不可编辑 section_id", k)
		}
	}
}

func TestFlows_AssignmentHasThreeSteps(t *testing.T) {
	f, _ := FlowFor(KindAssignment)
	if len(f.Steps) != 3 {
		t.Fatalf("期望 3 步，实际 %d", len(f.Steps))
	}
	if len(f.Steps[2].Required) != 0 {
		t.Error("预览步不应有必填项")
	}
}

func TestKind_Plural(t *testing.T) {
	cases := map[Kind]string{
		KindQuiz:       "quizzes",
		KindAssignment: "assignments",
		KindCourse:     "courses",
	}
	for k, want := range cases {
		if got := k.Plural(); got != want {
			t.Errorf("%s.Plural() 期望 %s，实际 %s", k, want, got)
		}
	}
}

func TestParseSectionType(t *testing.T) {
	if _, ok := ParseSectionType("Quiz"); !ok {
		t.Error("Quiz 应为合法章节类型")
	}
	if _, ok := ParseSectionType("quiz"); ok {
		t.Error("章节类型大小写敏感")
	}
}
