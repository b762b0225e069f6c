package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/gologger/levels"
)

// ===========================================
// portgrab日志系统 - gologger兼容层
// ===========================================

// LogConfig 日志配置结构
type LogConfig struct {
	Level       string `yaml:"level"`        // 日志级别
	ColorOutput bool   `yaml:"color_output"` // 彩色输出
}

// ScanLogger 日志封装器
// 提供与logrus兼容的API，底层使用gologger的级别体系
type ScanLogger struct {
	config       *LogConfig
	currentLevel levels.Level
	mu           sync.Mutex
	stdout       io.Writer
	stderr       io.Writer
}

// 全局日志实例
var globalLogger *ScanLogger

// ===========================================
// 初始化和配置
// ===========================================

// InitializeLogger 初始化日志系统
func InitializeLogger(config *LogConfig) error {
	if config == nil {
		config = getDefaultLogConfig()
	}

	level := parseLogLevel(config.Level)
	gologger.DefaultLogger.SetMaxLevel(level)

	if !config.ColorOutput || !shouldUseColors() {
		os.Setenv("NO_COLOR", "1")
	}

	globalLogger = newScanLogger(config)
	return nil
}

func newScanLogger(config *LogConfig) *ScanLogger {
	return &ScanLogger{
		config:       config,
		currentLevel: parseLogLevel(config.Level),
		stdout:       os.Stdout,
		stderr:       os.Stderr,
	}
}

// parseLogLevel 解析日志级别
func parseLogLevel(levelStr string) levels.Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return levels.LevelDebug
	case "info":
		return levels.LevelInfo
	case "warn", "warning":
		return levels.LevelWarning
	case "error":
		return levels.LevelError
	case "fatal", "panic":
		return levels.LevelFatal
	default:
		return levels.LevelInfo
	}
}

// shouldUseColors 标准输出为终端时才输出ANSI颜色
func shouldUseColors() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// getDefaultLogConfig 获取默认日志配置
func getDefaultLogConfig() *LogConfig {
	return &LogConfig{
		Level:       "info",
		ColorOutput: true,
	}
}

// ===========================================
// logrus兼容API
// ===========================================

// Infof 格式化信息级别日志
func (l *ScanLogger) Infof(format string, args ...interface{}) {
	l.printWithFormat(levels.LevelInfo, fmt.Sprintf(format, args...))
}

// Debugf 格式化调试级别日志
func (l *ScanLogger) Debugf(format string, args ...interface{}) {
	l.printWithFormat(levels.LevelDebug, fmt.Sprintf(format, args...))
}

// Warnf 格式化警告级别日志
func (l *ScanLogger) Warnf(format string, args ...interface{}) {
	l.printWithFormat(levels.LevelWarning, fmt.Sprintf(format, args...))
}

// Errorf 格式化错误级别日志
func (l *ScanLogger) Errorf(format string, args ...interface{}) {
	l.printWithFormat(levels.LevelError, fmt.Sprintf(format, args...))
}

// printWithFormat 使用 [LEVEL] message 格式打印日志
func (l *ScanLogger) printWithFormat(level levels.Level, message string) {
	// gologger 的级别顺序中 Warning 排在 Info 之后，按 Info 处理以免被 info 级别过滤
	effective := level
	if level == levels.LevelWarning {
		effective = levels.LevelInfo
	}
	if effective > l.currentLevel {
		return
	}

	var levelColor, resetColor string
	enableColors := l.config.ColorOutput && shouldUseColors()
	if enableColors {
		switch level {
		case levels.LevelDebug:
			levelColor = "\033[36m" // 青色
		case levels.LevelInfo:
			levelColor = "\033[34m" // 蓝色
		case levels.LevelWarning:
			levelColor = "\033[33m" // 黄色
		case levels.LevelError:
			levelColor = "\033[31m" // 红色
		case levels.LevelFatal:
			levelColor = "\033[35m" // 紫色
		}
		resetColor = "\033[0m"
	}

	var levelText string
	switch level {
	case levels.LevelDebug:
		levelText = "DBG"
	case levels.LevelWarning:
		levelText = "WRN"
	case levels.LevelError:
		levelText = "ERR"
	case levels.LevelFatal:
		levelText = "FTL"
	default:
		levelText = "INF"
	}

	var output string
	if enableColors {
		output = fmt.Sprintf("%s[%s]%s %s", levelColor, levelText, resetColor, message)
	} else {
		output = fmt.Sprintf("[%s] %s", levelText, message)
	}

	// 扫描worker会并发写日志，这里串行化输出避免行交错
	l.mu.Lock()
	defer l.mu.Unlock()
	if level <= levels.LevelError {
		fmt.Fprintln(l.stderr, output)
	} else {
		fmt.Fprintln(l.stdout, output)
	}
}

// ===========================================
// 全局日志函数
// ===========================================

func current() *ScanLogger {
	if globalLogger != nil {
		return globalLogger
	}
	return newScanLogger(getDefaultLogConfig())
}

// Infof 全局格式化信息日志
func Infof(format string, args ...interface{}) {
	current().Infof(format, args...)
}

// Debugf 全局格式化调试日志
func Debugf(format string, args ...interface{}) {
	current().Debugf(format, args...)
}

// Warnf 全局格式化警告日志
func Warnf(format string, args ...interface{}) {
	current().Warnf(format, args...)
}

// Errorf 全局格式化错误日志
func Errorf(format string, args ...interface{}) {
	current().Errorf(format, args...)
}

// SetLogLevel 设置日志级别
func SetLogLevel(levelStr string) {
	level := parseLogLevel(levelStr)
	gologger.DefaultLogger.SetMaxLevel(level)
	if globalLogger != nil {
		globalLogger.currentLevel = level
	}
}

// SetOutput 重定向日志输出，主要供测试使用
func SetOutput(stdout, stderr io.Writer) {
	l := current()
	l.mu.Lock()
	l.stdout = stdout
	l.stderr = stderr
	l.mu.Unlock()
	globalLogger = l
}

// IsDebugEnabled 检查是否启用调试日志
func IsDebugEnabled() bool {
	return current().currentLevel >= levels.LevelDebug
}
