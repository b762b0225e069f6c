package types

// PortStatus 端口探测状态
type PortStatus string

const (
	StatusOpen   PortStatus = "OPEN"
	StatusClosed PortStatus = "CLOSED"
)

// NoBanner 端口开放但未读取到任何横幅时使用的占位文本
const NoBanner = "No banner"

// PortResult 单个端口的探测结果
// 参数说明：
//   - Port: 端口号
//   - Status: OPEN / CLOSED
//   - Banner: 首次读取到的横幅文本，CLOSED 时为空
type PortResult struct {
	Port   uint16     `json:"port"`
	Status PortStatus `json:"status"`
	Banner string     `json:"banner"`
}

// IsOpen 判断端口是否开放
func (r PortResult) IsOpen() bool {
	return r.Status == StatusOpen
}

// CountOpen 统计结果中 OPEN 的数量
func CountOpen(results []PortResult) int {
	n := 0
	for _, r := range results {
		if r.IsOpen() {
			n++
		}
	}
	return n
}
