package wizard

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Field 草稿字段标识（与前端表单 name 一致）
type Field string

const (
	FieldTitle        Field = "title"
	FieldDescription  Field = "description"
	FieldDuration     Field = "duration"
	FieldSectionID    Field = "section_id"
	FieldSectionType  Field = "section_type"
	FieldQuestionText Field = "question_text"
	FieldInstructions Field = "instructions"
	FieldContent      Field = "content"
	FieldPassScore    Field = "pass_score"
)

// Draft 未保存的实体数据
//
// 公共字段对所有实体有效；question_text / instructions / content / pass_score /
// section_type 仅在对应实体的流程中可编辑。
type Draft struct {
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	Duration     int         `json:"duration"` // 分钟
	SectionID    string      `json:"section_id"`
	SectionType  SectionType `json:"section_type,omitempty"`
	QuestionText string      `json:"question_text,omitempty"`
	Instructions string      `json:"instructions,omitempty"`
	Content      string      `json:"content,omitempty"`
	PassScore    *int        `json:"pass_score,omitempty"`
}

// FieldValueError 字段值无法写入草稿
type FieldValueError struct {
	Field  Field
	Reason string
}

func (e *FieldValueError) Error() string {
	return fmt.Sprintf("字段 %s 取值无效: %s", e.Field, e.Reason)
}

// present 判断字段是否已填写（必填校验口径）
func (d Draft) present(f Field) bool {
	switch f {
	case FieldTitle:
		return strings.TrimSpace(d.Title) != ""
	case FieldDescription:
		return strings.TrimSpace(d.Description) != ""
	case FieldDuration:
		return d.Duration > 0
	case FieldSectionID:
		return strings.TrimSpace(d.SectionID) != ""
	case FieldSectionType:
		return d.SectionType != ""
	case FieldQuestionText:
		return strings.TrimSpace(d.QuestionText) != ""
	case FieldInstructions:
		return strings.TrimSpace(d.Instructions) != ""
	case FieldContent:
		return strings.TrimSpace(d.Content) != ""
	case FieldPassScore:
		return d.PassScore != nil
	}
	return false
}

// with 返回写入单个字段后的草稿副本，原值不变
func (d Draft) with(f Field, value any) (Draft, error) {
	switch f {
	case FieldTitle, FieldDescription, FieldSectionID, FieldQuestionText, FieldInstructions, FieldContent:
		s, err := coerceString(f, value)
		if err != nil {
			return d, err
		}
		switch f {
		case FieldTitle:
			d.Title = s
		case FieldDescription:
			d.Description = s
		case FieldSectionID:
			d.SectionID = strings.TrimSpace(s)
		case FieldQuestionText:
			d.QuestionText = s
		case FieldInstructions:
			d.Instructions = s
		case FieldContent:
			d.Content = s
		}
	case FieldDuration:
		if blank(value) {
			d.Duration = 0
			return d, nil
		}
		n, err := coerceInt(f, value)
		if err != nil {
			return d, err
		}
		if n <= 0 {
			return d, &FieldValueError{Field: f, Reason: "必须为正整数"}
		}
		d.Duration = n
	case FieldPassScore:
		if blank(value) {
			d.PassScore = nil
			return d, nil
		}
		n, err := coerceInt(f, value)
		if err != nil {
			return d, err
		}
		if n < 0 || n > 100 {
			return d, &FieldValueError{Field: f, Reason: "必须在 0-100 之间"}
		}
		d.PassScore = &n
	case FieldSectionType:
		s, err := coerceString(f, value)
		if err != nil {
			return d, err
		}
		if s == "" {
			d.SectionType = ""
			return d, nil
		}
		t, ok := ParseSectionType(s)
		if !ok {
			return d, &FieldValueError{Field: f, Reason: "未知的章节类型"}
		}
		d.SectionType = t
	default:
		return d, ErrUnknownField
	}
	return d, nil
}

// display 预览用的字段文本
func (d Draft) display(f Field) string {
	switch f {
	case FieldTitle:
		return d.Title
	case FieldDescription:
		return d.Description
	case FieldDuration:
		if d.Duration == 0 {
			return ""
		}
		return strconv.Itoa(d.Duration)
	case FieldSectionID:
		return d.SectionID
	case FieldSectionType:
		return string(d.SectionType)
	case FieldQuestionText:
		return d.QuestionText
	case FieldInstructions:
		return d.Instructions
	case FieldContent:
		return d.Content
	case FieldPassScore:
		if d.PassScore == nil {
			return ""
		}
		return strconv.Itoa(*d.PassScore)
	}
	return ""
}

// blank 数值字段被清空（null 或空串）
func blank(value any) bool {
	if value == nil {
		return true
	}
	s, ok := value.(string)
	return ok && strings.TrimSpace(s) == ""
}

func coerceString(f Field, value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	}
	return "", &FieldValueError{Field: f, Reason: "必须为文本"}
}

func coerceInt(f Field, value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, &FieldValueError{Field: f, Reason: "必须为整数"}
		}
		return int(v), nil
	case json.Number:
		n, err := strconv.Atoi(v.String())
		if err != nil {
			return 0, &FieldValueError{Field: f, Reason: "必须为整数"}
		}
		return n, nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, &FieldValueError{Field: f, Reason: "必须为整数"}
		}
		return n, nil
	}
	return 0, &FieldValueError{Field: f, Reason: "必须为整数"}
}
