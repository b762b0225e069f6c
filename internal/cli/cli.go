package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"portgrab/internal/core/config"
	"portgrab/internal/core/logger"
	"portgrab/internal/modules/portscan"
	"portgrab/internal/modules/portscan/connect"
	report "portgrab/internal/modules/reporter"
	"portgrab/internal/utils/formatter"
)

// 退出码
const (
	ExitOK         = 0
	ExitFailure    = 1 // 参数校验失败或报告写入失败
	ExitUsageError = 2 // 命令行语法错误
)

// statsInterval 实时统计刷新间隔
const statsInterval = 2 * time.Second

// CLIArgs CLI参数结构体
type CLIArgs struct {
	Host string // 目标主机（位置参数）

	StartPort int     // 起始端口 (--start)
	EndPort   int     // 结束端口 (--end)
	Threads   int     // 并发探测数量 (-t, --threads)
	Timeout   float64 // 单端口超时，秒 (--timeout)

	Format     string // 输出格式 (-f, --format)
	Output     string // 输出文件前缀 (-o, --output)
	ShowClosed bool   // 结果包含关闭端口 (--show-closed)

	ConfigPath string // 配置文件路径 (--config)
	Debug      bool   // 调试模式 (--debug)
	NoColor    bool   // 禁用彩色输出 (-nc)
	Stats      bool   // 实时统计 (--stats)
	Proxy      string // 上游socks5代理 (--proxy)

	Listen bool // API服务模式 (--listen)
	Port   int  // API监听端口 (-lp)
}

// Execute 执行CLI命令并以对应退出码结束进程
func Execute() {
	os.Exit(Run(os.Args[1:], os.Stdout, os.Stderr))
}

// Run 解析参数并执行一次扫描（或启动API服务）
// 参数：
//   - argv: 不含程序名的命令行参数
//   - stdout/stderr: 控制台输出与错误输出
//
// 返回：进程退出码
func Run(argv []string, stdout, stderr io.Writer) int {
	if err := config.InitConfig(findConfigPath(argv)); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitFailure
	}
	cfg := config.GetConfig()

	args, err := ParseCLIArgs(argv, cfg, stderr)
	if errors.Is(err, flag.ErrHelp) {
		showCustomHelp(stdout)
		return ExitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitUsageError
	}

	applyArgsToConfig(args, cfg)
	logger.InitializeLogger(&logger.LogConfig{Level: cfg.Log.Level, ColorOutput: cfg.Log.ColorOutput})
	formatter.SetColorEnabled(cfg.Log.ColorOutput)
	logger.Debugf("日志系统初始化完成，级别: %s", cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if args.Listen {
		if err := runAPIServer(ctx, cfg); err != nil {
			logger.Errorf("API服务异常退出: %v", err)
			return ExitFailure
		}
		return ExitOK
	}

	if err := validateArgs(args); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitFailure
	}
	return runPortScan(ctx, args, cfg, stdout, stderr)
}

// findConfigPath 在完整解析之前取出 --config 参数，用于确定默认值来源
func findConfigPath(argv []string) string {
	for i, a := range argv {
		name := strings.TrimLeft(a, "-")
		if a == name {
			continue
		}
		if name == "config" && i+1 < len(argv) {
			return argv[i+1]
		}
		if strings.HasPrefix(name, "config=") {
			return strings.TrimPrefix(name, "config=")
		}
	}
	return ""
}

// ParseCLIArgs 解析命令行参数，未指定的参数使用配置文件中的值
// 位置参数（目标主机）可以出现在任意选项之前或之后
func ParseCLIArgs(argv []string, cfg *config.Config, errOut io.Writer) (*CLIArgs, error) {
	args := &CLIArgs{}

	fs := flag.NewFlagSet("portgrab", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.Usage = func() {}

	fs.IntVar(&args.StartPort, "start", cfg.Scan.StartPort, "起始端口")
	fs.IntVar(&args.EndPort, "end", cfg.Scan.EndPort, "结束端口")
	fs.IntVar(&args.Threads, "t", cfg.Scan.Threads, "并发探测数量")
	fs.IntVar(&args.Threads, "threads", cfg.Scan.Threads, "并发探测数量")
	fs.Float64Var(&args.Timeout, "timeout", cfg.Scan.Timeout, "单端口超时（秒）")
	fs.StringVar(&args.Format, "f", cfg.Output.Format, "输出格式")
	fs.StringVar(&args.Format, "format", cfg.Output.Format, "输出格式")
	fs.StringVar(&args.Output, "o", cfg.Output.Prefix, "输出文件前缀")
	fs.StringVar(&args.Output, "output", cfg.Output.Prefix, "输出文件前缀")
	fs.BoolVar(&args.ShowClosed, "show-closed", cfg.Scan.ShowClosed, "结果包含关闭端口")

	fs.StringVar(&args.ConfigPath, "config", "", "配置文件路径")
	fs.BoolVar(&args.Debug, "debug", false, "输出调试日志")
	fs.BoolVar(&args.NoColor, "nc", false, "禁用彩色输出")
	fs.BoolVar(&args.Stats, "stats", cfg.Scan.Stats, "显示实时统计信息")
	fs.StringVar(&args.Proxy, "proxy", cfg.Proxy.UpstreamProxy, "上游socks5代理")
	fs.BoolVar(&args.Listen, "listen", false, "启动HTTP API服务")
	fs.IntVar(&args.Port, "lp", 0, "API监听端口")

	var help bool
	fs.BoolVar(&help, "h", false, "显示帮助信息")
	fs.BoolVar(&help, "help", false, "显示帮助信息")

	var positionals []string
	rest := argv
	for {
		if err := fs.Parse(rest); err != nil {
			return nil, err
		}
		rest = fs.Args()
		if len(rest) == 0 {
			break
		}
		positionals = append(positionals, rest[0])
		rest = rest[1:]
	}

	if help {
		return nil, flag.ErrHelp
	}
	if len(positionals) > 1 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(positionals[1:], " "))
	}
	if len(positionals) == 1 {
		args.Host = strings.TrimSpace(positionals[0])
	}
	return args, nil
}

// validateArgs 扫描前校验参数，返回 *portscan.ConfigError
func validateArgs(args *CLIArgs) error {
	if !config.IsValidFormat(args.Format) {
		return &portscan.ConfigError{Field: "format", Reason: fmt.Sprintf("%q, must be one of csv, json, both, xlsx, all", args.Format)}
	}
	if strings.TrimSpace(args.Output) == "" {
		return &portscan.ConfigError{Field: "output", Reason: "output prefix must not be empty"}
	}
	target, opts := buildScanParams(args)
	return portscan.Validate(target, opts)
}

// applyArgsToConfig 将CLI参数写回全局配置，供API服务与日志系统使用
func applyArgsToConfig(args *CLIArgs, cfg *config.Config) {
	cfg.Scan.StartPort = args.StartPort
	cfg.Scan.EndPort = args.EndPort
	cfg.Scan.Threads = args.Threads
	cfg.Scan.Timeout = args.Timeout
	cfg.Scan.ShowClosed = args.ShowClosed
	cfg.Scan.Stats = args.Stats
	cfg.Output.Format = strings.ToLower(args.Format)
	cfg.Output.Prefix = args.Output
	cfg.Proxy.UpstreamProxy = args.Proxy

	if args.Debug {
		cfg.Log.Level = "debug"
	}
	if args.NoColor {
		cfg.Log.ColorOutput = false
	}
	if args.Port > 0 {
		cfg.API.Listen = fmt.Sprintf(":%d", args.Port)
	}
}

func buildScanParams(args *CLIArgs) (portscan.Target, portscan.Options) {
	target := portscan.Target{
		Host:      args.Host,
		StartPort: args.StartPort,
		EndPort:   args.EndPort,
	}
	opts := portscan.Options{
		Concurrency:   args.Threads,
		Timeout:       portscan.TimeoutFromSeconds(args.Timeout),
		IncludeClosed: args.ShowClosed,
		Proxy:         args.Proxy,
	}
	return target, opts
}

// runPortScan 执行扫描、输出汇总并写出报告
func runPortScan(ctx context.Context, args *CLIArgs, cfg *config.Config, stdout, stderr io.Writer) int {
	target, opts := buildScanParams(args)
	console := report.NewConsole(stdout)
	console.PrintHeader(target, opts)

	stats := &connect.Stats{}
	runner := &connect.Runner{
		OnResult: console.PrintResult,
		Stats:    stats,
	}

	var stopStats func()
	if args.Stats {
		stopStats = startStatsReporter(console, stats, statsInterval)
	}
	res, err := runner.Run(ctx, target, opts)
	if stopStats != nil {
		stopStats()
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitFailure
	}

	if res.Interrupted {
		console.PrintInterrupted()
	}
	console.PrintSummary(res)

	paths, err := report.SaveResults(cfg.Output.Format, cfg.Output.Prefix, res.Results)
	for _, p := range paths {
		console.PrintSaved(p)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: 保存报告失败: %v\n", err)
		return ExitFailure
	}
	return ExitOK
}

// startStatsReporter 周期输出扫描进度，返回的函数停止输出并等待协程退出
func startStatsReporter(console *report.Console, stats *connect.Stats, interval time.Duration) func() {
	done := make(chan struct{})
	exited := make(chan struct{})

	go func() {
		defer close(exited)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				console.PrintStats(stats.Scanned.Load(), stats.Total.Load(), stats.Open.Load())
			}
		}
	}()

	return func() {
		close(done)
		<-exited
	}
}

// showCustomHelp 显示自定义帮助信息
func showCustomHelp(w io.Writer) {
	prog := filepath.Base(os.Args[0])
	fmt.Fprintf(w, `
portgrab - 多线程TCP端口扫描与横幅抓取工具

用法:
  %[1]s <host> [options]            # 扫描目标主机
  %[1]s --listen [-lp port]         # HTTP API 服务模式

扫描范围:
  --start int          起始端口（默认 1）
  --end int            结束端口（默认 1024）
  --show-closed        结果中包含关闭端口

性能调优:
  -t, --threads int    并发探测数量（默认 200）
  --timeout float      单端口超时（秒，默认 1.0），连接与横幅读取共用
  --proxy string       通过 socks5 代理探测，例如 socks5://127.0.0.1:1080

输出:
  -f, --format string  输出格式 csv / json / both / xlsx / all（默认 csv）
  -o, --output string  输出文件前缀（默认 scan_results）
  --stats              显示实时统计信息
  -nc                  禁用彩色输出
  --debug              输出调试日志

配置与服务:
  --config string      配置文件路径（默认查找 config.yaml、configs/config.yaml）
  --listen             启动 HTTP API 服务
  -lp int              API 监听端口（默认使用配置文件 api.listen）

帮助:
  -h, --help           显示本帮助信息

示例:
  %[1]s 192.168.1.10 --start 1 --end 1024
  %[1]s scanme.example.com -t 500 --timeout 0.5 -f both -o results
  %[1]s --listen -lp 9090

请仅扫描已获得授权的目标。

`, prog)
}
