package connect

import (
	"context"
	"net"
	"sync"
	"time"

	"portgrab/internal/core/logger"
	"portgrab/internal/core/types"
	"portgrab/internal/modules/portscan"

	uuid "github.com/satori/go.uuid"
	"go.uber.org/atomic"
)

// PortProber 单端口探测接口，实现必须能被并发调用
type PortProber interface {
	Probe(ctx context.Context, host string, port uint16) types.PortResult
}

// ProgressFunc 每转发一条结果回调一次，会被多个 worker 并发调用
type ProgressFunc func(types.PortResult)

// Stats 扫描过程中的实时计数，Scanned 只统计得出结论的端口
type Stats struct {
	Total   atomic.Int64
	Scanned atomic.Int64
	Open    atomic.Int64
}

func (s *Stats) reset(total int) {
	s.Total.Store(int64(total))
	s.Scanned.Store(0)
	s.Open.Store(0)
}

// Runner 端口扫描调度器
// 参数说明：
//   - Prober: 自定义探测器，为空时按 Options 创建 TCP connect 探测器
//   - OnResult: 结果转发回调（控制台进度输出）
//   - Stats: 可选的外部计数器，用于实时统计展示
type Runner struct {
	Prober   PortProber
	OnResult ProgressFunc
	Stats    *Stats
}

// Run 扫描 target 的整个端口范围，所有端口处理完毕（或被取消）后才返回
// 参数：
//   - ctx: 取消信号，取消后停止派发并放弃在途探测，已收集的结果照常返回
//   - target: 扫描目标
//   - opts: 扫描选项
//
// 返回：
//   - *portscan.ScanResult: 按端口升序的结果快照
//   - error: 仅在参数校验失败时返回 *portscan.ConfigError
func (r *Runner) Run(ctx context.Context, target portscan.Target, opts portscan.Options) (*portscan.ScanResult, error) {
	if err := portscan.Validate(target, opts); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	host := target.Host
	prober := r.Prober
	if prober == nil {
		p, err := NewProber(opts.Timeout, opts.Proxy)
		if err != nil {
			return nil, &portscan.ConfigError{Field: "proxy", Reason: err.Error()}
		}
		prober = p
		// 走代理时由代理端解析域名
		if opts.Proxy == "" {
			host = resolveHost(ctx, target.Host)
		}
	}

	stats := r.Stats
	if stats == nil {
		stats = &Stats{}
	}
	total := target.Total()
	stats.reset(total)

	scanID := uuid.NewV4().String()
	logger.Debugf("扫描任务 %s 开始: %s(%s) 端口 %d-%d，并发 %d，超时 %v",
		scanID, target.Host, host, target.StartPort, target.EndPort, opts.Concurrency, opts.Timeout)

	agg := NewAggregator()
	startTime := time.Now()

	workers := opts.Concurrency
	if workers > total {
		workers = total
	}

	jobs := make(chan uint16)
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for port := range jobs {
			res := prober.Probe(ctx, host, port)

			// 取消导致的连接失败不代表端口关闭，直接丢弃且不计入已扫描
			if !res.IsOpen() && ctx.Err() != nil {
				continue
			}
			stats.Scanned.Inc()
			if res.IsOpen() {
				stats.Open.Inc()
			} else if !opts.IncludeClosed {
				continue
			}

			agg.Append(res)
			if r.OnResult != nil {
				r.OnResult(res)
			}
		}
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go worker()
	}

enqueueLoop:
	for _, port := range target.Ports() {
		select {
		case <-ctx.Done():
			break enqueueLoop
		case jobs <- port:
		}
	}
	close(jobs)
	wg.Wait()

	snapshot := agg.Snapshot()
	scanned := int(stats.Scanned.Load())
	result := &portscan.ScanResult{
		ID:          scanID,
		Target:      target,
		Results:     snapshot,
		OpenCount:   types.CountOpen(snapshot),
		Total:       total,
		Elapsed:     time.Since(startTime),
		Interrupted: ctx.Err() != nil && scanned < total,
	}
	if ctx.Err() != nil {
		logger.Debugf("扫描任务 %s 被取消，已处理 %d/%d 个端口", scanID, scanned, total)
	}
	logger.Debugf("扫描任务 %s 完成，开放端口: %d，耗时: %v", scanID, result.OpenCount, result.Elapsed)
	return result, nil
}

// resolveHost 扫描前解析一次域名，优先使用IPv4；解析失败时原样返回
func resolveHost(ctx context.Context, host string) string {
	if ip := net.ParseIP(host); ip != nil {
		return host
	}
	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil || len(addrs) == 0 {
		logger.Warnf("目标解析失败: %s (%v)", host, err)
		return host
	}
	for _, addr := range addrs {
		if addr.IP.To4() != nil {
			return addr.IP.String()
		}
	}
	return addrs[0].IP.String()
}
