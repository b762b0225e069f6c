package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"portgrab/internal/core/config"
	"portgrab/internal/core/logger"
	"portgrab/internal/modules/portscan"
	"portgrab/internal/modules/portscan/connect"

	"github.com/gin-gonic/gin"
	"go.uber.org/atomic"
	"golang.org/x/sync/semaphore"
)

// ServerOptions API服务参数
// 参数说明：
//   - Scan: 请求未指定字段时使用的默认扫描配置
//   - Proxy: 探测使用的上游代理，为空表示直连
//   - MaxConcurrentScans: 同时执行的扫描任务上限
//   - Prober: 自定义探测器，为空时按请求参数创建
type ServerOptions struct {
	Scan               config.ScanConfig
	Proxy              string
	MaxConcurrentScans int
	Prober             connect.PortProber
}

type server struct {
	opts    ServerOptions
	sem     *semaphore.Weighted
	limit   int64
	running atomic.Int64
}

// SetupRouter 初始化Gin路由
func SetupRouter(opts ServerOptions) *gin.Engine {
	if opts.MaxConcurrentScans <= 0 {
		opts.MaxConcurrentScans = 1
	}
	s := &server{
		opts:  opts,
		sem:   semaphore.NewWeighted(int64(opts.MaxConcurrentScans)),
		limit: int64(opts.MaxConcurrentScans),
	}

	r := gin.New()
	r.Use(gin.Recovery(), gin.Logger(), corsMiddleware)

	v1 := r.Group("/api/v1")
	{
		v1.OPTIONS("/*path", func(c *gin.Context) {
			c.AbortWithStatus(http.StatusNoContent)
		})
		v1.GET("/health", s.healthHandler)
		v1.POST("/portscan", s.portscanHandler)
	}

	return r
}

func (s *server) healthHandler(c *gin.Context) {
	sendSuccess(c, HealthResponse{
		Status:        "ok",
		RunningScans:  s.running.Load(),
		MaxConcurrent: s.limit,
	})
}

func (s *server) portscanHandler(c *gin.Context) {
	var req PortscanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, err)
		return
	}
	req.Host = strings.TrimSpace(req.Host)

	target, opts := buildScanParams(&req, s.opts.Scan, s.opts.Proxy)
	if err := portscan.Validate(target, opts); err != nil {
		sendError(c, http.StatusBadRequest, err)
		return
	}

	if !s.sem.TryAcquire(1) {
		sendError(c, http.StatusTooManyRequests, fmt.Errorf("too many concurrent scans (max %d)", s.limit))
		return
	}
	s.running.Inc()
	defer func() {
		s.running.Dec()
		s.sem.Release(1)
	}()

	// 客户端断开时请求上下文被取消，扫描随之停止
	runner := &connect.Runner{Prober: s.opts.Prober}
	result, err := RunPortscanService(c.Request.Context(), runner, target, opts)
	if err != nil {
		var cfgErr *portscan.ConfigError
		if errors.As(err, &cfgErr) {
			sendError(c, http.StatusBadRequest, err)
			return
		}
		sendError(c, http.StatusInternalServerError, err)
		return
	}
	logger.Debugf("API扫描完成: %s 开放端口 %d/%d", target.Host, result.OpenCount, result.Total)
	sendSuccess(c, result)
}

func sendSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Code:    0,
		Message: "ok",
		Data:    data,
	})
}

func sendError(c *gin.Context, status int, err error) {
	c.JSON(status, APIResponse{
		Code:    status,
		Message: err.Error(),
	})
}

func corsMiddleware(c *gin.Context) {
	origin := c.GetHeader("Origin")
	if origin == "" {
		origin = "*"
	}

	c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
	c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
	c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	c.Writer.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With")

	if c.Request.Method == http.MethodOptions {
		c.AbortWithStatus(http.StatusNoContent)
		return
	}
	c.Next()
}
