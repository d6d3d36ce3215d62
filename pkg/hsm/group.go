package hsm

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Group 按名称管理多个状态机。
//
// 同一个状态机同一时刻只会被一个协程调用；若状态机还会在组外被并发使用，
// 应先用 Locked 包装后再加入。
type Group[E any] struct {
	mu       sync.RWMutex
	machines map[string]Dispatcher[E]
}

// NewGroup 创建状态机组
func NewGroup[E any]() *Group[E] {
	return &Group[E]{
		machines: make(map[string]Dispatcher[E]),
	}
}

// Add 添加状态机，同名时覆盖
func (g *Group[E]) Add(name string, d Dispatcher[E]) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.machines[name] = d
}

// Remove 移除状态机
func (g *Group[E]) Remove(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.machines, name)
}

// Get 获取状态机
func (g *Group[E]) Get(name string) (Dispatcher[E], bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	d, ok := g.machines[name]
	return d, ok
}

// Names 返回排序后的状态机名称
func (g *Group[E]) Names() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	names := make([]string, 0, len(g.machines))
	for name := range g.machines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Handle 将事件发送给指定状态机
func (g *Group[E]) Handle(name string, e E) error {
	d, ok := g.Get(name)
	if !ok {
		return ErrMachineNotFound
	}
	return d.Handle(e)
}

// Broadcast 并发地将同一事件发送给所有状态机，返回每个状态机的处理结果。
// ctx 结束后尚未开始处理的状态机记录 ctx.Err()。
func (g *Group[E]) Broadcast(ctx context.Context, e E) map[string]error {
	g.mu.RLock()
	machines := make(map[string]Dispatcher[E], len(g.machines))
	for name, d := range g.machines {
		machines[name] = d
	}
	g.mu.RUnlock()

	results := make(map[string]error, len(machines))
	var mu sync.Mutex
	var eg errgroup.Group

	for name, d := range machines {
		name, d := name, d
		eg.Go(func() error {
			var err error
			if err = ctx.Err(); err == nil {
				err = d.Handle(e)
			}
			mu.Lock()
			results[name] = err
			mu.Unlock()
			return nil
		})
	}

	_ = eg.Wait()
	return results
}

// Count 返回状态机数量
func (g *Group[E]) Count() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.machines)
}
