package report

import (
	"fmt"

	"portgrab/internal/core/logger"
	"portgrab/internal/core/types"

	"github.com/xuri/excelize/v2"
)

// GeneratePortscanExcel 生成端口扫描 Excel 报告
// 输出列：Port, Status, Banner
func GeneratePortscanExcel(results []types.PortResult, outputPath string) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "PortScan"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return "", fmt.Errorf("设置工作表失败: %w", err)
	}

	headers := []string{"Port", "Status", "Banner"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for idx, r := range results {
		row := idx + 2
		portCell, _ := excelize.CoordinatesToCellName(1, row)
		statusCell, _ := excelize.CoordinatesToCellName(2, row)
		bannerCell, _ := excelize.CoordinatesToCellName(3, row)
		f.SetCellValue(sheet, portCell, int(r.Port))
		f.SetCellValue(sheet, statusCell, string(r.Status))
		f.SetCellValue(sheet, bannerCell, r.Banner)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return "", fmt.Errorf("生成 Excel 失败: %w", err)
	}
	if err := writeFileAtomic(outputPath, buf.Bytes()); err != nil {
		return "", err
	}
	logger.Debugf("Excel报告已生成: %s", outputPath)
	return outputPath, nil
}
