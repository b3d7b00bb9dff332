package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Thinhtran42/mtls-capstone-sub001/internal/model"
)

// ModuleRepository 模块数据访问接口
type ModuleRepository interface {
	Create(ctx context.Context, module *model.Module) error
	GetByID(ctx context.Context, id string) (*model.Module, error)
	ListByCourse(ctx context.Context, courseID string) ([]model.Module, error)
	CountByCourse(ctx context.Context, courseID string) (int64, error)
	Update(ctx context.Context, module *model.Module) error
}

type moduleRepo struct {
	db *gorm.DB
}

// NewModuleRepo 创建 ModuleRepository 实例
func NewModuleRepo(db *gorm.DB) ModuleRepository {
	return &moduleRepo{db: db}
}

func (r *moduleRepo) Create(ctx context.Context, module *model.Module) error {
	return r.db.WithContext(ctx).Create(module).Error
}

// GetByID 查询模块并预加载所属课程（用于父级标题）
func (r *moduleRepo) GetByID(ctx context.Context, id string) (*model.Module, error) {
	if !validID(id) {
		return nil, gorm.ErrRecordNotFound
	}
	var module model.Module
	err := r.db.WithContext(ctx).
		Preload("Course").
		Where("module_id = ?", id).
		First(&module).Error
	if err != nil {
		return nil, err
	}
	return &module, nil
}

func (r *moduleRepo) ListByCourse(ctx context.Context, courseID string) ([]model.Module, error) {
	if !validID(courseID) {
		return nil, nil
	}
	var modules []model.Module
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("order_index ASC, created_at ASC").
		Find(&modules).Error
	return modules, err
}

func (r *moduleRepo) CountByCourse(ctx context.Context, courseID string) (int64, error) {
	if !validID(courseID) {
		return 0, nil
	}
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Module{}).
		Where("course_id = ?", courseID).
		Count(&n).Error
	return n, err
}

func (r *moduleRepo) Update(ctx context.Context, module *model.Module) error {
	return r.db.WithContext(ctx).
		Model(module).
		Where("module_id = ?", module.ModuleID).
		Updates(map[string]interface{}{
			"title":       module.Title,
			"description": module.Description,
			"updated_by":  module.UpdatedBy,
			"updated_at":  gorm.Expr("NOW()"),
		}).Error
}
