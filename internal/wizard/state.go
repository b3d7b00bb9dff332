package wizard

// 字段错误提示
const requiredMessage = "此项为必填项"

// State 向导状态值
//
// 每次转移都返回新值，调用方只替换引用；Errors 在复制后才修改。
type State struct {
	Kind   Kind             `json:"kind"`
	Step   int              `json:"step"`
	Draft  Draft            `json:"draft"`
	Errors map[Field]string `json:"errors,omitempty"`
}

// NewState 初始状态：第 0 步、空草稿
func NewState(k Kind) (State, error) {
	if _, ok := FlowFor(k); !ok {
		return State{}, ErrUnknownKind
	}
	return State{Kind: k}, nil
}

// Validate 校验指定步骤的必填项，全部满足时返回 nil
func (s State) Validate(f *Flow, step int) *ValidationError {
	if step < 0 || step >= len(f.Steps) {
		return nil
	}
	var missing []Field
	for _, field := range f.Steps[step].Required {
		if !s.Draft.present(field) {
			missing = append(missing, field)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &ValidationError{Step: step, Missing: missing}
}

// ValidateAll 依次校验所有步骤，返回第一个失败步骤
func (s State) ValidateAll(f *Flow) *ValidationError {
	for i := range f.Steps {
		if verr := s.Validate(f, i); verr != nil {
			return verr
		}
	}
	return nil
}

// Advance 校验当前步骤后前进一步；失败时步骤不变并记录字段错误
func (s State) Advance(f *Flow) (State, *ValidationError) {
	if s.Step >= f.Last() {
		return s, nil
	}
	if verr := s.Validate(f, s.Step); verr != nil {
		return s.withErrors(verr), verr
	}
	next := s
	next.Step++
	return next, nil
}

// Retreat 后退一步，第 0 步时不变
func (s State) Retreat() State {
	if s.Step == 0 {
		return s
	}
	prev := s
	prev.Step--
	return prev
}

// WithField 写入单个字段，并只清除该字段已记录的错误
func (s State) WithField(f *Flow, name Field, value any) (State, error) {
	if !f.Allows(name) {
		return s, ErrUnknownField
	}
	d, err := s.Draft.with(name, value)
	if err != nil {
		return s, err
	}
	next := s
	next.Draft = d
	if _, ok := s.Errors[name]; ok {
		next.Errors = make(map[Field]string, len(s.Errors)-1)
		for k, v := range s.Errors {
			if k != name {
				next.Errors[k] = v
			}
		}
	}
	return next, nil
}

// IsFinal 是否处于终止步
func (s State) IsFinal(f *Flow) bool { return s.Step >= f.Last() }

// withErrors 记录校验失败的字段
func (s State) withErrors(verr *ValidationError) State {
	next := s
	next.Errors = make(map[Field]string, len(s.Errors)+len(verr.Missing))
	for k, v := range s.Errors {
		next.Errors[k] = v
	}
	for _, m := range verr.Missing {
		next.Errors[m] = requiredMessage
	}
	return next
}
