package portscan

import (
	"fmt"
	"time"

	"portgrab/internal/core/types"
)

const (
	MinPort = 1
	MaxPort = 65535

	// DefaultConcurrency 默认同时在途的探测数量
	DefaultConcurrency = 200
	// DefaultTimeout 默认单端口超时
	DefaultTimeout = time.Second
)

// Target 扫描目标
// 参数说明：
//   - Host: 目标主机（IP 或域名）
//   - StartPort/EndPort: 闭区间端口范围，需满足 1 <= start <= end <= 65535
type Target struct {
	Host      string `json:"host"`
	StartPort int    `json:"start"`
	EndPort   int    `json:"end"`
}

// Total 目标端口总数
func (t Target) Total() int {
	return t.EndPort - t.StartPort + 1
}

// Ports 按升序展开端口列表
func (t Target) Ports() []uint16 {
	if t.StartPort > t.EndPort {
		return nil
	}
	ports := make([]uint16, 0, t.Total())
	for p := t.StartPort; p <= t.EndPort; p++ {
		ports = append(ports, uint16(p))
	}
	return ports
}

// Options 端口扫描选项
// 参数说明：
//   - Concurrency: 同时在途的探测数量上限
//   - Timeout: 连接超时，同时用于每一次横幅读取
//   - IncludeClosed: 是否记录关闭端口
//   - Proxy: 可选的 socks5 上游代理
type Options struct {
	Concurrency   int
	Timeout       time.Duration
	IncludeClosed bool
	Proxy         string
}

// TimeoutFromSeconds 将秒数转换为超时时长，不足1ns的正数按1ns处理
func TimeoutFromSeconds(seconds float64) time.Duration {
	d := time.Duration(seconds * float64(time.Second))
	if d <= 0 && seconds > 0 {
		return time.Nanosecond
	}
	return d
}

// ScanResult 一次扫描的最终结果
type ScanResult struct {
	ID          string             `json:"id"`
	Target      Target             `json:"target"`
	Results     []types.PortResult `json:"results"`
	OpenCount   int                `json:"open_count"`
	Total       int                `json:"total"`
	Elapsed     time.Duration      `json:"-"`
	Interrupted bool               `json:"interrupted"`
}

// ConfigError 扫描前的参数校验错误，属于致命错误
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validate 校验目标与选项，任何网络活动之前调用
func Validate(target Target, opts Options) error {
	if target.Host == "" {
		return &ConfigError{Field: "host", Reason: "target host is required"}
	}
	if target.StartPort < MinPort || target.EndPort > MaxPort || target.StartPort > target.EndPort {
		return &ConfigError{
			Field:  "port range",
			Reason: fmt.Sprintf("%d-%d, must be between %d-%d with start <= end", target.StartPort, target.EndPort, MinPort, MaxPort),
		}
	}
	if opts.Concurrency < 1 {
		return &ConfigError{Field: "threads", Reason: fmt.Sprintf("%d, must be a positive integer", opts.Concurrency)}
	}
	if opts.Timeout <= 0 {
		return &ConfigError{Field: "timeout", Reason: fmt.Sprintf("%v, must be positive", opts.Timeout)}
	}
	return nil
}
