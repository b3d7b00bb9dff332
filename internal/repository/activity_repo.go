package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Thinhtran42/mtls-capstone-sub001/internal/model"
	pkgerrors "github.com/Thinhtran42/mtls-capstone-sub001/pkg/errors"
)

// ActivityRepository 学习活动（课时/练习/测验/作业）数据访问接口
type ActivityRepository interface {
	Create(ctx context.Context, activity *model.Activity) error
	GetByID(ctx context.Context, id string) (*model.Activity, error)
	ListBySection(ctx context.Context, sectionID string) ([]model.Activity, error)
	// Update 基于 version 的乐观锁更新，冲突时返回 ErrOptimisticLock
	Update(ctx context.Context, activity *model.Activity) error
}

type activityRepo struct {
	db *gorm.DB
}

// NewActivityRepo 创建 ActivityRepository 实例
func NewActivityRepo(db *gorm.DB) ActivityRepository {
	return &activityRepo{db: db}
}

func (r *activityRepo) Create(ctx context.Context, activity *model.Activity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

// GetByID 查询活动并预加载所属章节（编辑时需要模块范围）
func (r *activityRepo) GetByID(ctx context.Context, id string) (*model.Activity, error) {
	if !validID(id) {
		return nil, gorm.ErrRecordNotFound
	}
	var activity model.Activity
	err := r.db.WithContext(ctx).
		Preload("Section").
		Where("activity_id = ?", id).
		First(&activity).Error
	if err != nil {
		return nil, err
	}
	return &activity, nil
}

func (r *activityRepo) ListBySection(ctx context.Context, sectionID string) ([]model.Activity, error) {
	if !validID(sectionID) {
		return nil, nil
	}
	var activities []model.Activity
	err := r.db.WithContext(ctx).
		Where("section_id = ?", sectionID).
		Order("created_at ASC").
		Find(&activities).Error
	return activities, err
}

func (r *activityRepo) Update(ctx context.Context, activity *model.Activity) error {
	oldVersion := activity.Version
	result := r.db.WithContext(ctx).
		Model(&model.Activity{}).
		Where("activity_id = ? AND version = ?", activity.ActivityID, oldVersion).
		Updates(map[string]interface{}{
			"section_id":    activity.SectionID,
			"title":         activity.Title,
			"description":   activity.Description,
			"duration":      activity.Duration,
			"question_text": activity.QuestionText,
			"instructions":  activity.Instructions,
			"content":       activity.Content,
			"pass_score":    activity.PassScore,
			"updated_by":    activity.UpdatedBy,
			"updated_at":    gorm.Expr("NOW()"),
			"version":       oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	activity.Version = oldVersion + 1
	return nil
}
