package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/Thinhtran42/mtls-capstone-sub001/internal/gateway"
	"github.com/Thinhtran42/mtls-capstone-sub001/internal/wizard"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoModules    = errors.New("该课程暂无模块")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response。
type ExportService interface {
	// ExportCourseOutline 导出课程大纲（模块 → 章节 → 活动）
	ExportCourseOutline(ctx context.Context, courseID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	gw     gateway.Gateway
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(gw gateway.Gateway, logger *zap.Logger) ExportService {
	return &exportService{gw: gw, logger: logger}
}

var kindNames = map[wizard.Kind]string{
	wizard.KindLesson:     "课时",
	wizard.KindExercise:   "练习",
	wizard.KindQuiz:       "测验",
	wizard.KindAssignment: "作业",
}

// outlineRow 大纲中的一行
type outlineRow struct {
	module      string
	section     string
	sectionType string
	kind        string
	title       string
	duration    int
	passScore   *int
}

// ═══════════════════════════════════════════════════════════
// ExportCourseOutline — 导出课程大纲为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet "课程大纲"，第 1 行为课程标题
//   - 列：模块 | 章节 | 章节类型 | 内容类型 | 标题 | 时长（分钟） | 及格分
//   - 无活动的章节占一行，内容列留空
//   - 末行为总时长

func (s *exportService) ExportCourseOutline(ctx context.Context, courseID string) (*bytes.Buffer, string, error) {
	// 1. 课程与模块
	course, err := s.gw.GetCourse(ctx, courseID)
	if err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			return nil, "", ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.Error(err))
		return nil, "", err
	}
	modules, err := s.gw.ListModules(ctx, courseID)
	if err != nil {
		s.logger.Error("查询模块失败", zap.Error(err))
		return nil, "", err
	}
	if len(modules) == 0 {
		return nil, "", ErrExportNoModules
	}

	// 2. 逐模块展开章节与活动
	var rows []outlineRow
	total := 0
	for _, m := range modules {
		sections, err := s.gw.ListSections(ctx, m.ID, nil)
		if err != nil {
			s.logger.Error("查询章节失败", zap.String("module_id", m.ID), zap.Error(err))
			return nil, "", err
		}
		if len(sections) == 0 {
			rows = append(rows, outlineRow{module: m.Title})
			continue
		}
		for _, sec := range sections {
			activities, err := s.gw.ListActivities(ctx, sec.ID)
			if err != nil {
				s.logger.Error("查询活动失败", zap.String("section_id", sec.ID), zap.Error(err))
				return nil, "", err
			}
			if len(activities) == 0 {
				rows = append(rows, outlineRow{module: m.Title, section: sec.Title, sectionType: string(sec.Type)})
				continue
			}
			for _, a := range activities {
				kind := kindNames[a.Kind]
				if kind == "" {
					kind = string(a.Kind)
				}
				rows = append(rows, outlineRow{
					module:      m.Title,
					section:     sec.Title,
					sectionType: string(sec.Type),
					kind:        kind,
					title:       a.Title,
					duration:    a.Duration,
					passScore:   a.PassScore,
				})
				total += a.Duration
			}
		}
	}

	// 3. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "课程大纲"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headers := []string{"模块", "章节", "章节类型", "内容类型", "标题", "时长（分钟）", "及格分"}
	widths := []float64{20, 20, 12, 10, 30, 14, 10}
	for i, w := range widths {
		col := colName(i)
		f.SetColWidth(sheetName, col, col, w)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s 课程大纲", course.Title))
	f.MergeCell(sheetName, "A1", cell(colName(len(headers)-1), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), 2), h)
	}
	f.SetCellStyle(sheetName, "A2", cell(colName(len(headers)-1), 2), headerStyle)

	// 数据行
	row := 3
	for _, r := range rows {
		f.SetCellValue(sheetName, cell("A", row), r.module)
		f.SetCellValue(sheetName, cell("B", row), r.section)
		f.SetCellValue(sheetName, cell("C", row), r.sectionType)
		f.SetCellValue(sheetName, cell("D", row), r.kind)
		f.SetCellValue(sheetName, cell("E", row), r.title)
		if r.duration > 0 {
			f.SetCellValue(sheetName, cell("F", row), r.duration)
		}
		if r.passScore != nil {
			f.SetCellValue(sheetName, cell("G", row), *r.passScore)
		}
		row++
	}
	f.SetCellValue(sheetName, cell("E", row), "总时长")
	f.SetCellValue(sheetName, cell("F", row), total)

	// 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("课程大纲_%s.xlsx", course.Title)
	return buf, filename, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
