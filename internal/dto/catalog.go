package dto

// SectionListQuery 章节列表查询参数，type 可重复
type SectionListQuery struct {
	Types []string `form:"type"`
}
