package model

// Course 课程表 — 对应 courses
type Course struct {
	CourseID    string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"course_id"`
	Title       string `gorm:"type:varchar(200);not null"                     json:"title"`
	Description string `gorm:"type:text;not null;default:''"                  json:"description"`
	SoftDeleteModel
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }

// Module 模块表 — 对应 modules
type Module struct {
	ModuleID    string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"module_id"`
	CourseID    string `gorm:"type:uuid;not null;index"                       json:"course_id"`
	Title       string `gorm:"type:varchar(200);not null"                     json:"title"`
	Description string `gorm:"type:text;not null;default:''"                  json:"description"`
	OrderIndex  int    `gorm:"not null;default:0"                             json:"order_index"`
	SoftDeleteModel

	// 关联
	Course *Course `gorm:"foreignKey:CourseID;references:CourseID" json:"course,omitempty"`
}

// TableName 指定表名
func (Module) TableName() string { return "modules" }

// Section 章节表 — 对应 sections，Type 取值见 wizard.SectionTypes
type Section struct {
	SectionID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"section_id"`
	ModuleID    string `gorm:"type:uuid;not null;index"                       json:"module_id"`
	Title       string `gorm:"type:varchar(200);not null"                     json:"title"`
	Description string `gorm:"type:text;not null;default:''"                  json:"description"`
	Type        string `gorm:"type:varchar(20);not null"                      json:"type"`
	OrderIndex  int    `gorm:"not null;default:0"                             json:"order_index"`
	SoftDeleteModel

	// 关联
	Module *Module `gorm:"foreignKey:ModuleID;references:ModuleID" json:"module,omitempty"`
}

// TableName 指定表名
func (Section) TableName() string { return "sections" }
