package formatter

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/mattn/go-isatty"
)

// ANSI颜色代码常量
const (
	ColorReset  = "\033[0m"  // 重置
	ColorGreen  = "\033[32m" // 绿色
	ColorRed    = "\033[31m" // 红色
	ColorYellow = "\033[33m" // 黄色
	ColorBold   = "\033[1m"  // 加粗
	ColorGray   = "\033[90m" // 灰色
)

var globalColorEnabled int32 = 1

// SetColorEnabled 控制全局颜色输出
func SetColorEnabled(enabled bool) {
	if enabled {
		atomic.StoreInt32(&globalColorEnabled, 1)
	} else {
		atomic.StoreInt32(&globalColorEnabled, 0)
	}
}

// ColorsEnabled 返回当前颜色输出状态
func ColorsEnabled() bool {
	return atomic.LoadInt32(&globalColorEnabled) == 1
}

// shouldUseColors 配置允许且标准输出为终端时使用颜色
func shouldUseColors() bool {
	if !ColorsEnabled() {
		return false
	}
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func colorize(color, s string) string {
	if !shouldUseColors() {
		return s
	}
	return color + s + ColorReset
}

// FormatBold 加粗显示
func FormatBold(s string) string {
	return colorize(ColorBold, s)
}

// FormatOpen 开放端口状态（加粗绿色）
func FormatOpen(s string) string {
	return colorize(ColorBold+ColorGreen, s)
}

// FormatClosed 关闭端口状态（灰色）
func FormatClosed(s string) string {
	return colorize(ColorGray, s)
}

// FormatWarning 警告信息（黄色）
func FormatWarning(s string) string {
	return colorize(ColorYellow, s)
}

// FormatPercentage 格式化百分比
func FormatPercentage(percentage float64) string {
	return fmt.Sprintf("%.1f%%", percentage)
}

// FormatProgressBar 生成固定长度的文本进度条
func FormatProgressBar(percentage float64) string {
	const barLength = 20
	filled := int(percentage / 100 * barLength)

	bar := make([]byte, 0, barLength+2)
	bar = append(bar, '[')
	for i := 0; i < barLength; i++ {
		switch {
		case i < filled:
			bar = append(bar, '=')
		case i == filled:
			bar = append(bar, '>')
		default:
			bar = append(bar, ' ')
		}
	}
	bar = append(bar, ']')
	return string(bar)
}
