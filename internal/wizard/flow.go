package wizard

// Step 向导中的一步
type Step struct {
	Name     string  `json:"name"`
	Label    string  `json:"label"`
	Required []Field `json:"required"`
}

// Flow 某类实体的固定步骤序列
type Flow struct {
	Kind  Kind
	Steps []Step
	// Fields 本流程允许编辑的字段（必填 + 选填）
	Fields []Field
	// SectionTypes 草稿可挂载的章节类型；为空表示该实体不挂在章节下
	SectionTypes []SectionType
	NeedsCourse  bool
	NeedsModule  bool
}

// Last 终止步下标
func (f *Flow) Last() int { return len(f.Steps) - 1 }

// Allows 字段是否属于本流程
func (f *Flow) Allows(field Field) bool {
	for _, x := range f.Fields {
		if x == field {
			return true
		}
	}
	return false
}

// AcceptsSection 章节类型是否可挂载本实体
func (f *Flow) AcceptsSection(t SectionType) bool {
	for _, x := range f.SectionTypes {
		if x == t {
			return true
		}
	}
	return false
}

// UsesSections 是否需要选择章节
func (f *Flow) UsesSections() bool { return len(f.SectionTypes) > 0 }

var flows = map[Kind]*Flow{
	KindAssignment: {
		Kind: KindAssignment,
		Steps: []Step{
			{Name: "general", Label: "基本信息", Required: []Field{FieldTitle, FieldDescription, FieldDuration, FieldSectionID}},
			{Name: "question", Label: "题目", Required: []Field{FieldQuestionText}},
			{Name: "preview", Label: "预览"},
		},
		Fields:       []Field{FieldTitle, FieldDescription, FieldDuration, FieldSectionID, FieldQuestionText},
		SectionTypes: []SectionType{SectionAssignment},
		NeedsModule:  true,
	},
	KindExercise: {
		Kind: KindExercise,
		Steps: []Step{
			{Name: "form", Label: "练习", Required: []Field{FieldTitle, FieldDescription, FieldDuration, FieldSectionID, FieldInstructions}},
		},
		Fields:       []Field{FieldTitle, FieldDescription, FieldDuration, FieldSectionID, FieldInstructions},
		SectionTypes: []SectionType{SectionExercise},
		NeedsModule:  true,
	},
	KindQuiz: {
		Kind: KindQuiz,
		Steps: []Step{
			{Name: "form", Label: "测验", Required: []Field{FieldTitle, FieldDescription, FieldDuration, FieldSectionID}},
		},
		Fields:       []Field{FieldTitle, FieldDescription, FieldDuration, FieldSectionID, FieldPassScore},
		SectionTypes: []SectionType{SectionQuiz},
		NeedsModule:  true,
	},
	KindLesson: {
		Kind: KindLesson,
		Steps: []Step{
			{Name: "form", Label: "课时", Required: []Field{FieldTitle, FieldDuration, FieldSectionID, FieldContent}},
		},
		Fields:       []Field{FieldTitle, FieldDescription, FieldDuration, FieldSectionID, FieldContent},
		SectionTypes: []SectionType{SectionReading, SectionVideo},
		NeedsModule:  true,
	},
	KindSection: {
		Kind: KindSection,
		Steps: []Step{
			{Name: "form", Label: "章节", Required: []Field{FieldTitle, FieldSectionType}},
		},
		Fields:      []Field{FieldTitle, FieldDescription, FieldSectionType},
		NeedsModule: true,
	},
	KindModule: {
		Kind: KindModule,
		Steps: []Step{
			{Name: "form", Label: "模块", Required: []Field{FieldTitle, FieldDescription}},
		},
		Fields:      []Field{FieldTitle, FieldDescription},
		NeedsCourse: true,
	},
	KindCourse: {
		Kind: KindCourse,
		Steps: []Step{
			{Name: "form", Label: "课程", Required: []Field{FieldTitle, FieldDescription}},
		},
		Fields: []Field{FieldTitle, FieldDescription},
	},
}

// FlowFor 获取实体类型对应的流程
func FlowFor(k Kind) (*Flow, bool) {
	f, ok := flows[k]
	return f, ok
}
