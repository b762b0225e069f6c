package connect

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"portgrab/internal/core/types"
	"portgrab/internal/modules/portscan/banner"

	"golang.org/x/net/proxy"
)

// bannerBufferSize 单次横幅读取的最大字节数
const bannerBufferSize = 1024

// crlfProbe 服务端不主动发送横幅时写入的探测数据
var crlfProbe = []byte("\r\n")

// Dialer 建立连接的最小接口，net.Dialer 与 socks5 代理拨号器都满足
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Prober TCP connect 端口探测器
// 每次 Probe 独占自己的连接和缓冲区，可被任意数量的 goroutine 并发调用
type Prober struct {
	timeout time.Duration
	dialer  Dialer
}

// NewProber 创建探测器
// 参数：
//   - timeout: 连接超时，同时作为每一次横幅读写的超时
//   - proxyURL: 可选的 socks5 上游代理，为空表示直连
//
// 返回：
//   - *Prober: 探测器
//   - error: 代理地址无法解析时返回错误
func NewProber(timeout time.Duration, proxyURL string) (*Prober, error) {
	direct := &net.Dialer{Timeout: timeout, KeepAlive: -1}
	if proxyURL == "" {
		return &Prober{timeout: timeout, dialer: direct}, nil
	}

	u, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("解析代理地址失败: %w", err)
	}
	d, err := proxy.FromURL(u, direct)
	if err != nil {
		return nil, fmt.Errorf("创建代理拨号器失败: %w", err)
	}
	if cd, ok := d.(proxy.ContextDialer); ok {
		return &Prober{timeout: timeout, dialer: cd}, nil
	}
	return &Prober{timeout: timeout, dialer: contextDialer{d}}, nil
}

// contextDialer 为不支持 DialContext 的代理拨号器补齐接口
type contextDialer struct {
	proxy.Dialer
}

func (c contextDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	type dialResult struct {
		conn net.Conn
		err  error
	}
	ch := make(chan dialResult, 1)
	go func() {
		conn, err := c.Dial(network, address)
		ch <- dialResult{conn, err}
	}()
	select {
	case <-ctx.Done():
		go func() {
			if r := <-ch; r.conn != nil {
				r.conn.Close()
			}
		}()
		return nil, ctx.Err()
	case r := <-ch:
		return r.conn, r.err
	}
}

// Probe 探测单个端口
// 连接建立失败（拒绝、超时、不可达）一律视为 CLOSED；连接成功即为 OPEN，
// 横幅读取过程中的任何错误都不会改变 OPEN 状态
func (p *Prober) Probe(ctx context.Context, host string, port uint16) types.PortResult {
	result := types.PortResult{Port: port, Status: types.StatusClosed}
	address := net.JoinHostPort(host, strconv.Itoa(int(port)))

	dialCtx, cancel := context.WithTimeout(ctx, p.timeout)
	conn, err := p.dialer.DialContext(dialCtx, "tcp", address)
	cancel()
	if err != nil {
		return result
	}
	defer conn.Close()

	// 外部取消时立即关闭连接，让阻塞中的读写尽快返回
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	result.Status = types.StatusOpen
	result.Banner = p.grabBanner(conn)
	return result
}

// grabBanner 先被动读取，读不到再发送CRLF后读取一次
func (p *Prober) grabBanner(conn net.Conn) string {
	buf := make([]byte, bannerBufferSize)

	if n := p.read(conn, buf); n > 0 {
		return banner.Decode(buf[:n])
	}

	if err := conn.SetWriteDeadline(time.Now().Add(p.timeout)); err != nil {
		return types.NoBanner
	}
	if _, err := conn.Write(crlfProbe); err != nil {
		return types.NoBanner
	}
	if n := p.read(conn, buf); n > 0 {
		return banner.Decode(buf[:n])
	}
	return types.NoBanner
}

// read 带超时的单次读取，出错时返回已读到的字节数
func (p *Prober) read(conn net.Conn, buf []byte) int {
	if err := conn.SetReadDeadline(time.Now().Add(p.timeout)); err != nil {
		return 0
	}
	n, _ := conn.Read(buf)
	return n
}
