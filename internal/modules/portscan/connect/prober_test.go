package connect

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"portgrab/internal/core/types"
)

// startServer 启动本地TCP服务，每个连接交给 handler 处理，返回监听端口
func startServer(t *testing.T, handler func(net.Conn)) uint16 {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })

	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				handler(conn)
			}()
		}
	}()
	return uint16(l.Addr().(*net.TCPAddr).Port)
}

// closedPort 返回一个刚被释放、当前无人监听的端口
func closedPort(t *testing.T) uint16 {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := uint16(l.Addr().(*net.TCPAddr).Port)
	_ = l.Close()
	time.Sleep(50 * time.Millisecond)
	return port
}

func newTestProber(t *testing.T, timeout time.Duration) *Prober {
	t.Helper()
	p, err := NewProber(timeout, "")
	if err != nil {
		t.Fatalf("创建探测器失败: %v", err)
	}
	return p
}

func TestProbeBanner(t *testing.T) {
	tests := []struct {
		name    string
		handler func(net.Conn)
		want    string
	}{
		{
			name: "服务端主动发送横幅",
			handler: func(c net.Conn) {
				_, _ = c.Write([]byte("SSH-2.0-OpenSSH\r\n"))
				_, _ = io.Copy(io.Discard, c)
			},
			want: "SSH-2.0-OpenSSH",
		},
		{
			name: "收到CRLF后才响应",
			handler: func(c net.Conn) {
				buf := make([]byte, 16)
				n, _ := c.Read(buf)
				if string(buf[:n]) == "\r\n" {
					_, _ = c.Write([]byte("HTTP/1.1 400 Bad Request\r\n\r\n"))
				}
				_, _ = io.Copy(io.Discard, c)
			},
			want: "HTTP/1.1 400 Bad Request",
		},
		{
			name: "始终不响应",
			handler: func(c net.Conn) {
				_, _ = io.Copy(io.Discard, c)
			},
			want: types.NoBanner,
		},
		{
			name:    "连接后立即关闭",
			handler: func(c net.Conn) {},
			want:    types.NoBanner,
		},
		{
			name: "非法字节被丢弃",
			handler: func(c net.Conn) {
				_, _ = c.Write([]byte("220 \xffready\r\n"))
				_, _ = io.Copy(io.Discard, c)
			},
			want: "220 ready",
		},
	}

	p := newTestProber(t, 200*time.Millisecond)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			port := startServer(t, tt.handler)
			res := p.Probe(context.Background(), "127.0.0.1", port)
			if res.Status != types.StatusOpen {
				t.Fatalf("期望 OPEN，实际 %s", res.Status)
			}
			if res.Port != port {
				t.Errorf("端口不一致: %d != %d", res.Port, port)
			}
			if res.Banner != tt.want {
				t.Errorf("期望横幅 %q，实际 %q", tt.want, res.Banner)
			}
		})
	}
}

func TestProbeBannerLimitedToBuffer(t *testing.T) {
	long := make([]byte, 3000)
	for i := range long {
		long[i] = 'a'
	}
	port := startServer(t, func(c net.Conn) {
		_, _ = c.Write(long)
		_, _ = io.Copy(io.Discard, c)
	})

	res := newTestProber(t, 200*time.Millisecond).Probe(context.Background(), "127.0.0.1", port)
	if len(res.Banner) == 0 || len(res.Banner) > bannerBufferSize {
		t.Fatalf("横幅长度应在 1-%d 之间，实际 %d", bannerBufferSize, len(res.Banner))
	}
}

func TestProbeClosedPort(t *testing.T) {
	port := closedPort(t)
	res := newTestProber(t, 500*time.Millisecond).Probe(context.Background(), "127.0.0.1", port)
	if res.Status != types.StatusClosed {
		t.Fatalf("期望 CLOSED，实际 %s", res.Status)
	}
	if res.Banner != "" {
		t.Errorf("CLOSED 端口横幅应为空，实际 %q", res.Banner)
	}
}

func TestProbeCancelledContext(t *testing.T) {
	port := startServer(t, func(c net.Conn) {
		_, _ = io.Copy(io.Discard, c)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := newTestProber(t, time.Second).Probe(ctx, "127.0.0.1", port)
	if res.Status != types.StatusClosed {
		t.Fatalf("已取消的上下文不应建立连接，实际 %s", res.Status)
	}
}

func TestProbeCancelDuringBannerRead(t *testing.T) {
	port := startServer(t, func(c net.Conn) {
		_, _ = io.Copy(io.Discard, c)
	})
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	start := time.Now()
	res := newTestProber(t, 10*time.Second).Probe(ctx, "127.0.0.1", port)
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("取消后探测应尽快返回，实际耗时 %v", elapsed)
	}
	if res.Status != types.StatusOpen {
		t.Errorf("连接已建立，状态应保持 OPEN，实际 %s", res.Status)
	}
}

func TestNewProberProxy(t *testing.T) {
	if _, err := NewProber(time.Second, "socks5://127.0.0.1:1080"); err != nil {
		t.Fatalf("socks5 代理应可创建: %v", err)
	}
	if _, err := NewProber(time.Second, "ftp://127.0.0.1:21"); err == nil {
		t.Error("不支持的代理协议应返回错误")
	}
}
