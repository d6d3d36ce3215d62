package lifecycle

import "context"

// HookFunc 钩子函数
type HookFunc func(ctx context.Context) error

// WorkerHookFunc 协程钩子函数，启动时 err 为 nil
type WorkerHookFunc func(name string, err error)

type hooks struct {
	onStartup     []HookFunc
	onWorkerStart []WorkerHookFunc
	onWorkerExit  []WorkerHookFunc
	onShutdown    []HookFunc
	onTimeout     []HookFunc
}

// runHooks 依次执行，遇到第一个错误即返回
func runHooks(ctx context.Context, fns []HookFunc) error {
	for _, fn := range fns {
		if err := fn(ctx); err != nil {
			return err
		}
	}
	return nil
}

func runWorkerHooks(fns []WorkerHookFunc, name string, err error) {
	for _, fn := range fns {
		fn(name, err)
	}
}

// OnStartup 注册启动钩子，在任何协程启动之前执行
func (m *Manager) OnStartup(fn HookFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks.onStartup = append(m.hooks.onStartup, fn)
}

// OnWorkerStart 注册协程启动钩子
func (m *Manager) OnWorkerStart(fn WorkerHookFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks.onWorkerStart = append(m.hooks.onWorkerStart, fn)
}

// OnWorkerExit 注册协程退出钩子
func (m *Manager) OnWorkerExit(fn WorkerHookFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks.onWorkerExit = append(m.hooks.onWorkerExit, fn)
}

// OnShutdown 注册退出钩子，在所有协程退出后执行
func (m *Manager) OnShutdown(fn HookFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks.onShutdown = append(m.hooks.onShutdown, fn)
}

// OnTimeout 注册超时钩子
func (m *Manager) OnTimeout(fn HookFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks.onTimeout = append(m.hooks.onTimeout, fn)
}

func (m *Manager) snapshotHooks() hooks {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hooks
}
