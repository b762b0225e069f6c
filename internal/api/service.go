package api

import (
	"context"

	"portgrab/internal/core/config"
	"portgrab/internal/core/types"
	"portgrab/internal/modules/portscan"
	"portgrab/internal/modules/portscan/connect"
)

// buildScanParams 合并请求参数与默认扫描配置
func buildScanParams(req *PortscanRequest, defaults config.ScanConfig, proxyURL string) (portscan.Target, portscan.Options) {
	target := portscan.Target{
		Host:      req.Host,
		StartPort: defaults.StartPort,
		EndPort:   defaults.EndPort,
	}
	if req.Start != nil {
		target.StartPort = *req.Start
	}
	if req.End != nil {
		target.EndPort = *req.End
	}

	opts := portscan.Options{
		Concurrency:   defaults.Threads,
		Timeout:       portscan.TimeoutFromSeconds(defaults.Timeout),
		IncludeClosed: defaults.ShowClosed,
		Proxy:         proxyURL,
	}
	if req.Threads != nil {
		opts.Concurrency = *req.Threads
	}
	if req.Timeout != nil {
		opts.Timeout = portscan.TimeoutFromSeconds(*req.Timeout)
	}
	if req.ShowClosed != nil {
		opts.IncludeClosed = *req.ShowClosed
	}
	return target, opts
}

// RunPortscanService 执行一次端口扫描并转换为响应结构
func RunPortscanService(ctx context.Context, runner *connect.Runner, target portscan.Target, opts portscan.Options) (*PortscanResponse, error) {
	res, err := runner.Run(ctx, target, opts)
	if err != nil {
		return nil, err
	}

	results := res.Results
	if results == nil {
		results = []types.PortResult{}
	}
	return &PortscanResponse{
		ID:          res.ID,
		Host:        res.Target.Host,
		Start:       res.Target.StartPort,
		End:         res.Target.EndPort,
		Total:       res.Total,
		OpenCount:   res.OpenCount,
		ElapsedMs:   res.Elapsed.Milliseconds(),
		Interrupted: res.Interrupted,
		Results:     results,
	}, nil
}
