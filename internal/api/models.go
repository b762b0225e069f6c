package api

import "portgrab/internal/core/types"

// APIResponse 标准响应结构
type APIResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// PortscanRequest 端口扫描请求，未提供的字段使用配置文件中的默认值
type PortscanRequest struct {
	Host       string   `json:"host"`
	Start      *int     `json:"start,omitempty"`
	End        *int     `json:"end,omitempty"`
	Threads    *int     `json:"threads,omitempty"`
	Timeout    *float64 `json:"timeout,omitempty"` // 秒
	ShowClosed *bool    `json:"show_closed,omitempty"`
}

// PortscanResponse 端口扫描结果
type PortscanResponse struct {
	ID          string             `json:"id"`
	Host        string             `json:"host"`
	Start       int                `json:"start"`
	End         int                `json:"end"`
	Total       int                `json:"total"`
	OpenCount   int                `json:"open_count"`
	ElapsedMs   int64              `json:"elapsed_ms"`
	Interrupted bool               `json:"interrupted"`
	Results     []types.PortResult `json:"results"`
}

// HealthResponse 健康检查结果
type HealthResponse struct {
	Status        string `json:"status"`
	RunningScans  int64  `json:"running_scans"`
	MaxConcurrent int64  `json:"max_concurrent"`
}
