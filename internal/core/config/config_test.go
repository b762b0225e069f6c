package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("写入配置失败: %v", err)
	}
	return path
}

func TestLoadConfigKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "scan:\n  threads: 50\n  timeout: 0.5\noutput:\n  format: both\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}
	if cfg.Scan.Threads != 50 {
		t.Errorf("期望threads=50，实际 %d", cfg.Scan.Threads)
	}
	if cfg.Scan.Timeout != 0.5 {
		t.Errorf("期望timeout=0.5，实际 %v", cfg.Scan.Timeout)
	}
	if cfg.Output.Format != "both" {
		t.Errorf("期望format=both，实际 %s", cfg.Output.Format)
	}
	// 文件中未出现的字段保持默认值
	if cfg.Scan.StartPort != 1 || cfg.Scan.EndPort != 1024 {
		t.Errorf("端口范围默认值被覆盖: %d-%d", cfg.Scan.StartPort, cfg.Scan.EndPort)
	}
	if cfg.Output.Prefix != "scan_results" {
		t.Errorf("期望默认前缀 scan_results，实际 %s", cfg.Output.Prefix)
	}
	if GetConfig() != cfg {
		t.Error("LoadConfig 应设置全局配置")
	}
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "并发数为0", content: "scan:\n  threads: 0\n"},
		{name: "超时为负", content: "scan:\n  timeout: -1\n"},
		{name: "未知格式", content: "output:\n  format: xml\n"},
		{name: "空前缀", content: "output:\n  prefix: \"  \"\n"},
		{name: "代理地址无效", content: "proxy:\n  upstream_proxy: \"::bad\"\n"},
		{name: "YAML语法错误", content: "scan: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, tt.content)); err == nil {
				t.Errorf("期望返回错误")
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("配置文件不存在时应返回错误")
	}
}

func TestIsValidFormat(t *testing.T) {
	for _, f := range []string{"csv", "json", "both", "xlsx", "all", "CSV"} {
		if !IsValidFormat(f) {
			t.Errorf("%s 应为合法格式", f)
		}
	}
	if IsValidFormat("yaml") {
		t.Error("yaml 不应为合法格式")
	}
}
