package scan

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"portgrab/internal/core/logger"
	"portgrab/internal/modules/portscan"
	"portgrab/internal/modules/portscan/connect"
	"portgrab/pkg/types"
)

// Config 定义一次端口扫描的可配置参数。
type Config struct {
	Host          string
	StartPort     int
	EndPort       int
	Concurrency   int
	Timeout       time.Duration
	IncludeClosed bool
	Proxy         string // socks5://host:port，为空表示直连
	LogLevel      string

	// OnResult 每发现一个结果回调一次，会被并发调用
	OnResult func(types.PortResult)
}

// ErrInvalidConfig 参数校验失败时返回的错误均包装此错误。
var ErrInvalidConfig = errors.New("invalid scan config")

// DefaultConfig 返回默认扫描配置。
func DefaultConfig() *Config {
	return &Config{
		StartPort:   1,
		EndPort:     1024,
		Concurrency: portscan.DefaultConcurrency,
		Timeout:     portscan.DefaultTimeout,
	}
}

// Result 表示一次扫描的结构化结果。
type Result struct {
	Summary Summary            `json:"summary"`
	Results []types.PortResult `json:"results"`
}

// Summary 扫描统计信息。
type Summary struct {
	ID          string `json:"id"`
	Host        string `json:"host"`
	StartPort   int    `json:"start_port"`
	EndPort     int    `json:"end_port"`
	Total       int    `json:"total"`
	OpenCount   int    `json:"open_count"`
	DurationMs  int64  `json:"duration_ms"`
	Interrupted bool   `json:"interrupted"`
}

// Run 执行扫描并返回结构化结果。ctx 取消时返回已收集的部分结果。
func Run(ctx context.Context, cfg *Config) (*Result, error) {
	normalized := normalizeConfig(cfg)
	if normalized.LogLevel != "" {
		logger.SetLogLevel(normalized.LogLevel)
	}

	runner := &connect.Runner{}
	if normalized.OnResult != nil {
		runner.OnResult = normalized.OnResult
	}

	target := portscan.Target{
		Host:      normalized.Host,
		StartPort: normalized.StartPort,
		EndPort:   normalized.EndPort,
	}
	opts := portscan.Options{
		Concurrency:   normalized.Concurrency,
		Timeout:       normalized.Timeout,
		IncludeClosed: normalized.IncludeClosed,
		Proxy:         normalized.Proxy,
	}

	res, err := runner.Run(ctx, target, opts)
	if err != nil {
		var cfgErr *portscan.ConfigError
		if errors.As(err, &cfgErr) {
			return nil, errors.Join(ErrInvalidConfig, err)
		}
		return nil, err
	}

	results := res.Results
	if results == nil {
		results = []types.PortResult{}
	}
	return &Result{
		Summary: Summary{
			ID:          res.ID,
			Host:        res.Target.Host,
			StartPort:   res.Target.StartPort,
			EndPort:     res.Target.EndPort,
			Total:       res.Total,
			OpenCount:   res.OpenCount,
			DurationMs:  res.Elapsed.Milliseconds(),
			Interrupted: res.Interrupted,
		},
		Results: results,
	}, nil
}

// RunJSON 执行扫描并返回格式化后的 JSON。
func RunJSON(ctx context.Context, cfg *Config) ([]byte, error) {
	result, err := Run(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return result.PrettyJSON()
}

// JSON 返回紧凑 JSON。
func (r *Result) JSON() ([]byte, error) {
	return json.Marshal(r)
}

// PrettyJSON 返回缩进后的 JSON。
func (r *Result) PrettyJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// OpenPorts 返回开放端口列表。
func (r *Result) OpenPorts() []uint16 {
	var ports []uint16
	for _, p := range r.Results {
		if p.IsOpen() {
			ports = append(ports, p.Port)
		}
	}
	return ports
}

// ----------------------------------------------------------------------
// 内部实现
// ----------------------------------------------------------------------

// normalizeConfig 复制配置，零值字段使用默认值；非法值保留以便统一校验
func normalizeConfig(cfg *Config) *Config {
	base := DefaultConfig()
	if cfg == nil {
		return base
	}

	normalized := *cfg
	normalized.Host = strings.TrimSpace(cfg.Host)
	if normalized.StartPort == 0 && normalized.EndPort == 0 {
		normalized.StartPort = base.StartPort
		normalized.EndPort = base.EndPort
	}
	if normalized.Concurrency == 0 {
		normalized.Concurrency = base.Concurrency
	}
	if normalized.Timeout == 0 {
		normalized.Timeout = base.Timeout
	}
	return &normalized
}
