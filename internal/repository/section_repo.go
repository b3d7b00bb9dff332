package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Thinhtran42/mtls-capstone-sub001/internal/model"
)

// SectionRepository 章节数据访问接口
type SectionRepository interface {
	Create(ctx context.Context, section *model.Section) error
	GetByID(ctx context.Context, id string) (*model.Section, error)
	// ListByModule types 为空时返回全部类型
	ListByModule(ctx context.Context, moduleID string, types []string) ([]model.Section, error)
	CountByModule(ctx context.Context, moduleID string) (int64, error)
	Update(ctx context.Context, section *model.Section) error
}

type sectionRepo struct {
	db *gorm.DB
}

// NewSectionRepo 创建 SectionRepository 实例
func NewSectionRepo(db *gorm.DB) SectionRepository {
	return &sectionRepo{db: db}
}

func (r *sectionRepo) Create(ctx context.Context, section *model.Section) error {
	return r.db.WithContext(ctx).Create(section).Error
}

// GetByID 查询章节并预加载模块与课程
func (r *sectionRepo) GetByID(ctx context.Context, id string) (*model.Section, error) {
	if !validID(id) {
		return nil, gorm.ErrRecordNotFound
	}
	var section model.Section
	err := r.db.WithContext(ctx).
		Preload("Module").
		Preload("Module.Course").
		Where("section_id = ?", id).
		First(&section).Error
	if err != nil {
		return nil, err
	}
	return &section, nil
}

func (r *sectionRepo) ListByModule(ctx context.Context, moduleID string, types []string) ([]model.Section, error) {
	if !validID(moduleID) {
		return nil, nil
	}
	var sections []model.Section
	db := r.db.WithContext(ctx).Where("module_id = ?", moduleID)
	if len(types) > 0 {
		db = db.Where("type IN ?", types)
	}
	err := db.Order("order_index ASC, created_at ASC").Find(&sections).Error
	return sections, err
}

func (r *sectionRepo) CountByModule(ctx context.Context, moduleID string) (int64, error) {
	if !validID(moduleID) {
		return 0, nil
	}
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Section{}).
		Where("module_id = ?", moduleID).
		Count(&n).Error
	return n, err
}

func (r *sectionRepo) Update(ctx context.Context, section *model.Section) error {
	return r.db.WithContext(ctx).
		Model(section).
		Where("section_id = ?", section.SectionID).
		Updates(map[string]interface{}{
			"title":       section.Title,
			"description": section.Description,
			"type":        section.Type,
			"updated_by":  section.UpdatedBy,
			"updated_at":  gorm.Expr("NOW()"),
		}).Error
}
