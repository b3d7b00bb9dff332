package wizard

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownKind      = errors.New("未知的实体类型")
	ErrUnknownField     = errors.New("该表单不包含此字段")
	ErrNotAtFinalStep   = errors.New("尚未到达最后一步，无法保存")
	ErrSubmitInProgress = errors.New("正在保存，请勿重复提交")
	ErrMissingScope     = errors.New("缺少所属课程或模块")
)

// 提交失败时的默认提示（网关未给出消息时使用）
const submitFallbackMessage = "保存失败，请稍后重试"

// 参考数据加载失败时给用户的提示
const loadWarningMessage = "参考数据加载失败，请刷新页面重试"

// ValidationError 当前步骤必填项缺失
type ValidationError struct {
	Step    int
	Missing []Field
}

func (e *ValidationError) Error() string {
	names := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		names[i] = string(f)
	}
	return fmt.Sprintf("第 %d 步缺少必填项: %s", e.Step+1, strings.Join(names, ", "))
}

// Has 缺失集合是否包含字段
func (e *ValidationError) Has(f Field) bool {
	for _, m := range e.Missing {
		if m == f {
			return true
		}
	}
	return false
}

// Messages 缺失字段对应的错误提示
func (e *ValidationError) Messages() map[Field]string {
	out := make(map[Field]string, len(e.Missing))
	for _, m := range e.Missing {
		out[m] = requiredMessage
	}
	return out
}

// LoadError 参考数据（父级标题、章节列表）加载失败
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string { return "加载参考数据失败: " + e.Err.Error() }
func (e *LoadError) Unwrap() error { return e.Err }

// UserMessage 可直接展示的提示
func (e *LoadError) UserMessage() string { return loadWarningMessage }

// SubmitError 保存失败；Message 为网关返回的可读消息（可能为空）
type SubmitError struct {
	Message string
	Field   Field
	Err     error
}

func (e *SubmitError) Error() string {
	msg := e.UserMessage()
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *SubmitError) Unwrap() error { return e.Err }

// UserMessage 网关消息原样透出，否则使用默认提示
func (e *SubmitError) UserMessage() string {
	if strings.TrimSpace(e.Message) != "" {
		return e.Message
	}
	return submitFallbackMessage
}
