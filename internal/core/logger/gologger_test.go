package logger

import (
	"bytes"
	"strings"
	"testing"
)

func newTestLogger(level string) (*ScanLogger, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	l := newScanLogger(&LogConfig{Level: level, ColorOutput: false})
	l.stdout = &stdout
	l.stderr = &stderr
	return l, &stdout, &stderr
}

func TestLevelFiltering(t *testing.T) {
	l, stdout, stderr := newTestLogger("info")

	l.Debugf("hidden %d", 1)
	l.Infof("visible %d", 2)
	l.Warnf("warn %d", 3)
	l.Errorf("boom %d", 4)

	out := stdout.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info级别不应输出调试日志: %q", out)
	}
	if !strings.Contains(out, "[INF] visible 2") || !strings.Contains(out, "[WRN] warn 3") {
		t.Errorf("标准输出缺少信息/警告日志: %q", out)
	}
	if stderr.String() != "[ERR] boom 4\n" {
		t.Errorf("错误日志应写入标准错误: %q", stderr.String())
	}
}

func TestDebugLevel(t *testing.T) {
	l, stdout, _ := newTestLogger("debug")
	l.Debugf("detail")
	if !strings.Contains(stdout.String(), "[DBG] detail") {
		t.Errorf("debug级别应输出调试日志: %q", stdout.String())
	}
}

func TestErrorLevelHidesInfo(t *testing.T) {
	l, stdout, stderr := newTestLogger("error")
	l.Infof("quiet")
	l.Warnf("quiet")
	l.Errorf("loud")
	if stdout.Len() != 0 {
		t.Errorf("error级别不应输出信息日志: %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "loud") {
		t.Error("缺少错误日志")
	}
}

func TestParseLogLevelFallback(t *testing.T) {
	if parseLogLevel("nonsense") != parseLogLevel("info") {
		t.Error("未知级别应回退到 info")
	}
	if parseLogLevel(" WARNING ") != parseLogLevel("warn") {
		t.Error("级别解析应忽略大小写与空白")
	}
}
