package hsm

import "sync"

// Dispatcher 可以接收事件的对象，Machine、Locked 以及前端封装均满足该接口
type Dispatcher[E any] interface {
	Handle(e E) error
}

// DispatcherFunc 函数形式的 Dispatcher
type DispatcherFunc[E any] func(e E) error

// Handle 调用 f(e)
func (f DispatcherFunc[E]) Handle(e E) error {
	return f(e)
}

// Locked 用互斥锁包装整个状态机，使其可以被多个协程共享
type Locked[S State[S, U, M, E], U Superstate[S, U, M, E], M any, E any] struct {
	mu      sync.RWMutex
	machine *Machine[S, U, M, E]
}

// NewLocked 创建加锁包装
func NewLocked[S State[S, U, M, E], U Superstate[S, U, M, E], M any, E any](m *Machine[S, U, M, E]) *Locked[S, U, M, E] {
	return &Locked[S, U, M, E]{machine: m}
}

// Handle 在锁内处理事件
func (l *Locked[S, U, M, E]) Handle(e E) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.machine.Handle(e)
}

// State 返回当前状态
func (l *Locked[S, U, M, E]) State() S {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.machine.State()
}

// Reset 在锁内重置状态机
func (l *Locked[S, U, M, E]) Reset() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.machine.Reset()
}

// Do 在锁内执行 fn，可用于读取共享存储
func (l *Locked[S, U, M, E]) Do(fn func(m *Machine[S, U, M, E])) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(l.machine)
}
