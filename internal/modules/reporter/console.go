package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"portgrab/internal/core/types"
	"portgrab/internal/modules/portscan"
	"portgrab/internal/utils/formatter"
)

// ===========================================
// 控制台输出
// ===========================================

// Console 扫描过程的控制台输出，PrintResult 会被多个 worker 并发调用
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsole 创建控制台输出器，w 为空时写标准输出
func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = os.Stdout
	}
	return &Console{w: w}
}

func (c *Console) println(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.w, line)
}

// PrintHeader 输出扫描参数
func (c *Console) PrintHeader(target portscan.Target, opts portscan.Options) {
	timeout := strconv.FormatFloat(opts.Timeout.Seconds(), 'f', -1, 64)
	c.println(fmt.Sprintf("%s : %s\n%s : %d-%d (%d ports)\n%s : %d\n%s : %ss\n",
		formatter.FormatBold("Target    "), target.Host,
		formatter.FormatBold("Port range"), target.StartPort, target.EndPort, target.Total(),
		formatter.FormatBold("Threads   "), opts.Concurrency,
		formatter.FormatBold("Timeout   "), timeout))
}

// PrintResult 输出单个端口结果
func (c *Console) PrintResult(r types.PortResult) {
	if r.IsOpen() {
		c.println(fmt.Sprintf("[+] Port %-5d %s   --> %s", r.Port, formatter.FormatOpen("OPEN"), r.Banner))
		return
	}
	c.println(fmt.Sprintf("[-] Port %-5d %s", r.Port, formatter.FormatClosed("CLOSED")))
}

// PrintStats 输出实时进度
func (c *Console) PrintStats(scanned, total, open int64) {
	var percentage float64
	if total > 0 {
		percentage = float64(scanned) / float64(total) * 100
	}
	c.println(fmt.Sprintf("[*] %s %s %d/%d open=%d",
		formatter.FormatProgressBar(percentage), formatter.FormatPercentage(percentage), scanned, total, open))
}

// PrintSummary 输出扫描耗时与开放端口统计
func (c *Console) PrintSummary(res *portscan.ScanResult) {
	c.println(fmt.Sprintf("\nDone in %.2fs. Open ports: %d/%d.", res.Elapsed.Seconds(), res.OpenCount, res.Total))
}

// PrintInterrupted 输出中断提示
func (c *Console) PrintInterrupted() {
	c.println(formatter.FormatWarning("\nScan interrupted by user."))
}

// PrintSaved 输出已保存的报告路径
func (c *Console) PrintSaved(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	c.println(fmt.Sprintf("Saved %-5s: %s", strings.TrimPrefix(filepath.Ext(path), "."), abs))
}
