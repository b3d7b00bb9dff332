package wizard

// Kind 可创建/编辑的内容实体类型
type Kind string

const (
	KindCourse     Kind = "course"
	KindModule     Kind = "module"
	KindSection    Kind = "section"
	KindLesson     Kind = "lesson"
	KindExercise   Kind = "exercise"
	KindQuiz       Kind = "quiz"
	KindAssignment Kind = "assignment"
)

// Kinds 全部合法实体类型
var Kinds = []Kind{
	KindCourse,
	KindModule,
	KindSection,
	KindLesson,
	KindExercise,
	KindQuiz,
	KindAssignment,
}

// ParseKind 解析实体类型字符串
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Plural REST 资源路径名（assignment → assignments）
func (k Kind) Plural() string {
	if k == KindQuiz {
		return "quizzes"
	}
	return string(k) + "s"
}

// SectionType 章节类型，决定章节下可挂载的内容
type SectionType string

const (
	SectionReading    SectionType = "Reading"
	SectionVideo      SectionType = "Video"
	SectionExercise   SectionType = "Exercise"
	SectionQuiz       SectionType = "Quiz"
	SectionAssignment SectionType = "Assignment"
)

// SectionTypes 全部章节类型
var SectionTypes = []SectionType{
	SectionReading,
	SectionVideo,
	SectionExercise,
	SectionQuiz,
	SectionAssignment,
}

// ParseSectionType 解析章节类型（大小写敏感，与前端枚举一致）
func ParseSectionType(s string) (SectionType, bool) {
	for _, t := range SectionTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Mode 表单模式
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)
