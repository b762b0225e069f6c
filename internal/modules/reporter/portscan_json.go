package report

import (
	"bytes"
	"encoding/json"
	"fmt"

	"portgrab/internal/core/logger"
	"portgrab/internal/core/types"
)

// GeneratePortscanJSON 生成端口扫描JSON报告
// 参数：
//   - results: 端口扫描结果
//   - outputPath: 输出文件路径
//
// 返回：输出文件路径
func GeneratePortscanJSON(results []types.PortResult, outputPath string) (string, error) {
	b, err := MarshalPortscanJSON(results)
	if err != nil {
		return "", err
	}
	if err := writeFileAtomic(outputPath, b); err != nil {
		return "", err
	}
	logger.Debugf("JSON报告已生成: %s (%d 条)", outputPath, len(results))
	return outputPath, nil
}

// MarshalPortscanJSON 序列化为两空格缩进的JSON数组，空结果输出 []
func MarshalPortscanJSON(results []types.PortResult) ([]byte, error) {
	if results == nil {
		results = []types.PortResult{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return nil, fmt.Errorf("JSON序列化失败: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
