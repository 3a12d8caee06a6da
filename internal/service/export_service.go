package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/Avstn1/shearworkWEB-sub002/internal/dto"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoData       = errors.New("该周暂无可预约时段数据")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

const (
	sheetDailySummary = "Daily Summary"
	sheetHourly       = "Hourly"
	sheetCapacity     = "Capacity"
)

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportAvailability 导出指定周的可预约时段报表
	ExportAvailability(ctx context.Context, userID string, weekOffset int) (*bytes.Buffer, string, error)
}

type exportService struct {
	availability AvailabilityService
	logger       *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(availability AvailabilityService, logger *zap.Logger) ExportService {
	return &exportService{availability: availability, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportAvailability: 导出可预约时段报表为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet "Daily Summary"：平台 × 日期的可服务数与预估收入，末行合计
//   - Sheet "Hourly"：平台 × 日期 × 小时的原始时段数
//   - Sheet "Capacity"：容量平台的半小时资源数（有数据时才生成）
//
// 走正常拉取流程，新鲜缓存直接复用

func (s *exportService) ExportAvailability(ctx context.Context, userID string, weekOffset int) (*bytes.Buffer, string, error) {
	report, err := s.availability.PullAvailability(ctx, userID, &dto.PullAvailabilityRequest{WeekOffset: weekOffset})
	if err != nil {
		return nil, "", err
	}
	if len(report.Summaries) == 0 && len(report.HourlyBuckets) == 0 {
		return nil, "", ErrExportNoData
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 1. 每日汇总
	idx, _ := f.NewSheet(sheetDailySummary)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")
	f.SetColWidth(sheetDailySummary, "A", "B", 14)
	f.SetColWidth(sheetDailySummary, "C", "E", 18)

	f.SetCellValue(sheetDailySummary, "A1", fmt.Sprintf("Availability %s ~ %s", report.Range.StartDate, report.Range.EndDate))
	f.MergeCell(sheetDailySummary, "A1", "E1")
	f.SetCellStyle(sheetDailySummary, "A1", "A1", headerStyle)
	writeHeader(f, sheetDailySummary, 2, headerStyle, "Source", "Date", "Slot Count", "Slot Units", "Estimated Revenue")

	row := 3
	for _, sum := range report.Summaries {
		f.SetCellValue(sheetDailySummary, cell("A", row), sum.Source)
		f.SetCellValue(sheetDailySummary, cell("B", row), sum.SlotDate)
		f.SetCellValue(sheetDailySummary, cell("C", row), sum.SlotCount)
		f.SetCellValue(sheetDailySummary, cell("D", row), sum.SlotUnits)
		f.SetCellValue(sheetDailySummary, cell("E", row), sum.EstimatedRevenue)
		row++
	}
	f.SetCellValue(sheetDailySummary, cell("A", row), "Total")
	f.SetCellValue(sheetDailySummary, cell("E", row), report.TotalEstimatedRevenue)

	// 2. 小时分布
	f.NewSheet(sheetHourly)
	f.SetColWidth(sheetHourly, "A", "D", 14)
	writeHeader(f, sheetHourly, 1, headerStyle, "Source", "Date", "Hour", "Slots")
	row = 2
	for _, b := range report.HourlyBuckets {
		f.SetCellValue(sheetHourly, cell("A", row), b.Source)
		f.SetCellValue(sheetHourly, cell("B", row), b.SlotDate)
		f.SetCellValue(sheetHourly, cell("C", row), fmt.Sprintf("%02d:00", b.Hour))
		f.SetCellValue(sheetHourly, cell("D", row), b.SlotCount)
		row++
	}

	// 3. 容量
	if len(report.CapacityBuckets) > 0 {
		f.NewSheet(sheetCapacity)
		f.SetColWidth(sheetCapacity, "A", "D", 14)
		writeHeader(f, sheetCapacity, 1, headerStyle, "Source", "Date", "Block", "Capacity")
		row = 2
		for _, b := range report.CapacityBuckets {
			f.SetCellValue(sheetCapacity, cell("A", row), b.Source)
			f.SetCellValue(sheetCapacity, cell("B", row), b.SlotDate)
			f.SetCellValue(sheetCapacity, cell("C", row), b.Block)
			f.SetCellValue(sheetCapacity, cell("D", row), b.Capacity)
			row++
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.String("user_id", userID), zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("availability_%s.xlsx", report.Range.StartDate)
	return buf, filename, nil
}

// ── 辅助函数 ──

func writeHeader(f *excelize.File, sheet string, row int, style int, titles ...string) {
	for i, title := range titles {
		f.SetCellValue(sheet, cell(colName(i), row), title)
	}
	f.SetCellStyle(sheet, cell("A", row), cell(colName(len(titles)-1), row), style)
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
