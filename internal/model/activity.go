package model

// Activity 章节下的学习活动表 — 对应 activities
// 课时、练习、测验、作业共用一张表，按 Kind 区分；专属字段仅对应类型使用
type Activity struct {
	ActivityID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"activity_id"`
	SectionID    string `gorm:"type:uuid;not null;index"                       json:"section_id"`
	Kind         string `gorm:"type:varchar(20);not null;index"                json:"kind"`
	Title        string `gorm:"type:varchar(200);not null"                     json:"title"`
	Description  string `gorm:"type:text;not null;default:''"                  json:"description"`
	Duration     int    `gorm:"not null"                                       json:"duration"` // 分钟
	QuestionText string `gorm:"type:text"                                      json:"question_text,omitempty"`
	Instructions string `gorm:"type:text"                                      json:"instructions,omitempty"`
	Content      string `gorm:"type:text"                                      json:"content,omitempty"`
	PassScore    *int   `gorm:""                                               json:"pass_score,omitempty"`
	VersionedModel

	// 关联
	Section *Section `gorm:"foreignKey:SectionID;references:SectionID" json:"section,omitempty"`
}

// TableName 指定表名
func (Activity) TableName() string { return "activities" }
