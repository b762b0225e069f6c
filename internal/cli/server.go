package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"portgrab/internal/api"
	"portgrab/internal/core/config"
	"portgrab/internal/core/logger"

	"github.com/gin-gonic/gin"
)

// shutdownTimeout 收到中断信号后等待在途请求的最长时间
const shutdownTimeout = 5 * time.Second

// runAPIServer 启动HTTP API服务，ctx 取消后优雅退出
func runAPIServer(ctx context.Context, cfg *config.Config) error {
	if !logger.IsDebugEnabled() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := api.SetupRouter(api.ServerOptions{
		Scan:               cfg.Scan,
		Proxy:              cfg.Proxy.UpstreamProxy,
		MaxConcurrentScans: cfg.API.MaxConcurrentScans,
	})
	srv := &http.Server{
		Addr:              cfg.API.Listen,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("API服务已启动: %s (最大并发扫描数: %d)", cfg.API.Listen, cfg.API.MaxConcurrentScans)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Infof("正在关闭API服务...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
