package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/Thinhtran42/mtls-capstone-sub001/internal/gateway"
	"github.com/Thinhtran42/mtls-capstone-sub001/internal/wizard"
)

var (
	ErrCourseNotFound     = errors.New("课程不存在")
	ErrInvalidSectionType = errors.New("未知的章节类型")
)

// CatalogService 表单选择器所需的目录查询
type CatalogService interface {
	ListCourses(ctx context.Context) ([]gateway.CourseSummary, error)
	ListModules(ctx context.Context, courseID string) ([]gateway.ModuleSummary, error)
	ListSections(ctx context.Context, moduleID string, types []string) ([]wizard.Section, error)
}

type catalogService struct {
	gw     gateway.Gateway
	logger *zap.Logger
}

// NewCatalogService 创建 CatalogService 实例
func NewCatalogService(gw gateway.Gateway, logger *zap.Logger) CatalogService {
	return &catalogService{gw: gw, logger: logger}
}

func (s *catalogService) ListCourses(ctx context.Context) ([]gateway.CourseSummary, error) {
	courses, err := s.gw.ListCourses(ctx)
	if err != nil {
		s.logger.Error("查询课程列表失败", zap.Error(err))
		return nil, err
	}
	return courses, nil
}

func (s *catalogService) ListModules(ctx context.Context, courseID string) ([]gateway.ModuleSummary, error) {
	if _, err := s.gw.GetCourse(ctx, courseID); err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}
	modules, err := s.gw.ListModules(ctx, courseID)
	if err != nil {
		s.logger.Error("查询模块列表失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}
	return modules, nil
}

func (s *catalogService) ListSections(ctx context.Context, moduleID string, types []string) ([]wizard.Section, error) {
	filter := make([]wizard.SectionType, 0, len(types))
	for _, t := range types {
		st, ok := wizard.ParseSectionType(t)
		if !ok {
			return nil, ErrInvalidSectionType
		}
		filter = append(filter, st)
	}
	sections, err := s.gw.ListSections(ctx, moduleID, filter)
	if err != nil {
		s.logger.Error("查询章节列表失败", zap.String("module_id", moduleID), zap.Error(err))
		return nil, err
	}
	return sections, nil
}
