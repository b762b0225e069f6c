package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"portgrab/internal/core/logger"
	"portgrab/internal/core/types"
)

var csvHeader = []string{"port", "status", "banner"}

// GeneratePortscanCSV 生成端口扫描CSV报告
// 输出列：port, status, banner（按传入顺序，换行符为CRLF）
func GeneratePortscanCSV(results []types.PortResult, outputPath string) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.UseCRLF = true

	if err := w.Write(csvHeader); err != nil {
		return "", fmt.Errorf("写入CSV表头失败: %w", err)
	}
	for _, r := range results {
		record := []string{strconv.Itoa(int(r.Port)), string(r.Status), r.Banner}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("写入CSV记录失败: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("CSV序列化失败: %w", err)
	}

	if err := writeFileAtomic(outputPath, buf.Bytes()); err != nil {
		return "", err
	}
	logger.Debugf("CSV报告已生成: %s (%d 条)", outputPath, len(results))
	return outputPath, nil
}

// LoadPortscanCSV 读取 GeneratePortscanCSV 写出的报告
func LoadPortscanCSV(path string) ([]types.PortResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开CSV失败: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("解析CSV失败: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("CSV缺少表头: %s", path)
	}

	results := make([]types.PortResult, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) != len(csvHeader) {
			return nil, fmt.Errorf("第 %d 行字段数错误: %d", i+2, len(rec))
		}
		port, err := strconv.ParseUint(rec[0], 10, 16)
		if err != nil {
			return nil, fmt.Errorf("第 %d 行端口无效: %w", i+2, err)
		}
		results = append(results, types.PortResult{
			Port:   uint16(port),
			Status: types.PortStatus(rec[1]),
			Banner: rec[2],
		})
	}
	return results, nil
}
