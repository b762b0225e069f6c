package connect

import (
	"sort"
	"sync"

	"portgrab/internal/core/types"
)

// Aggregator 单次扫描的结果集合，按端口去重
// Append 可并发调用；Snapshot 只应在所有 worker 结束后调用
type Aggregator struct {
	mu      sync.Mutex
	results map[uint16]types.PortResult
}

// NewAggregator 创建空的结果集合
func NewAggregator() *Aggregator {
	return &Aggregator{results: make(map[uint16]types.PortResult)}
}

// Append 记录一条结果，同一端口重复写入时后写覆盖先写
func (a *Aggregator) Append(r types.PortResult) {
	a.mu.Lock()
	a.results[r.Port] = r
	a.mu.Unlock()
}

// Snapshot 返回按端口升序排列的结果副本
func (a *Aggregator) Snapshot() []types.PortResult {
	a.mu.Lock()
	out := make([]types.PortResult, 0, len(a.results))
	for _, r := range a.results {
		out = append(out, r)
	}
	a.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Port < out[j].Port
	})
	return out
}
