package wizard

// PreviewItem 预览中的一行
type PreviewItem struct {
	Field Field  `json:"field"`
	Label string `json:"label"`
	Value string `json:"value"`
}

var fieldLabels = map[Field]string{
	FieldTitle:        "标题",
	FieldDescription:  "描述",
	FieldDuration:     "时长（分钟）",
	FieldSectionID:    "所属章节",
	FieldSectionType:  "章节类型",
	FieldQuestionText: "题目内容",
	FieldInstructions: "练习说明",
	FieldContent:      "正文",
	FieldPassScore:    "及格分",
}

// Label 字段的展示名
func Label(f Field) string {
	if l, ok := fieldLabels[f]; ok {
		return l
	}
	return string(f)
}

// Preview 草稿的只读预览，章节显示为标题
func (c *Controller) Preview() []PreviewItem {
	items := make([]PreviewItem, 0, len(c.flow.Fields))
	for _, f := range c.flow.Fields {
		v := c.state.Draft.display(f)
		if f == FieldSectionID && v != "" {
			for _, s := range c.ref.Sections {
				if s.ID == v {
					v = s.Title
					break
				}
			}
		}
		items = append(items, PreviewItem{Field: f, Label: Label(f), Value: v})
	}
	return items
}
