package report

import (
	"fmt"
	"strings"

	"portgrab/internal/core/types"
)

// SaveResults 按输出格式写出报告文件
// 参数：
//   - format: csv / json / both / xlsx / all
//   - prefix: 文件名前缀，扩展名自动追加
//   - results: 按端口升序的扫描结果
//
// 返回：已写出的文件路径；任一文件写入失败立即返回错误
func SaveResults(format, prefix string, results []types.PortResult) ([]string, error) {
	var writers []func() (string, error)

	csvWriter := func() (string, error) { return GeneratePortscanCSV(results, prefix+".csv") }
	jsonWriter := func() (string, error) { return GeneratePortscanJSON(results, prefix+".json") }
	xlsxWriter := func() (string, error) { return GeneratePortscanExcel(results, prefix+".xlsx") }

	switch strings.ToLower(format) {
	case "csv":
		writers = append(writers, csvWriter)
	case "json":
		writers = append(writers, jsonWriter)
	case "both":
		writers = append(writers, csvWriter, jsonWriter)
	case "xlsx":
		writers = append(writers, xlsxWriter)
	case "all":
		writers = append(writers, csvWriter, jsonWriter, xlsxWriter)
	default:
		return nil, fmt.Errorf("不支持的输出格式: %s", format)
	}

	paths := make([]string, 0, len(writers))
	for _, write := range writers {
		path, err := write()
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
