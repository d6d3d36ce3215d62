// Package lifecycle 管理长期运行的协程（异步状态机、配置监听等）的启动与优雅退出。
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/junbin-yang/go-hsm/pkg/logger"
)

// Manager 生命周期管理器。
//
// Run 在收到信号、调用 Shutdown、根上下文结束、任一协程返回错误，
// 或全部协程退出后开始退出流程：取消所有协程的 ctx，按注册的逆序调用停止函数，
// 在超时时间内等待协程退出，最后执行退出钩子。
type Manager struct {
	mu              sync.RWMutex
	workers         []*Worker
	hooks           hooks
	signals         []os.Signal
	shutdownTimeout time.Duration
	rootCtx         context.Context
	log             *logger.Logger

	running  bool
	cancel   context.CancelFunc
	group    *errgroup.Group
	groupCtx context.Context
	done     chan struct{}
	result   error
}

// NewManager 创建生命周期管理器
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		signals:         []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		shutdownTimeout: 30 * time.Second,
		rootCtx:         context.Background(),
		log:             logger.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddWorker 添加协程，管理器运行中时立即启动
func (m *Manager) AddWorker(name string, runFunc RunFunc, opts ...WorkerOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.find(name) >= 0 {
		return ErrWorkerExists
	}

	w := NewWorker(name, runFunc, opts...)
	m.workers = append(m.workers, w)
	if m.running {
		m.launch(w)
	}
	return nil
}

// StopWorker 取消指定协程的 ctx 并调用其停止函数，等待协程退出
func (m *Manager) StopWorker(name string) error {
	m.mu.RLock()
	i := m.find(name)
	var w *Worker
	var stop context.CancelFunc
	if i >= 0 {
		w, stop = m.workers[i], m.workers[i].cancel
	}
	m.mu.RUnlock()

	if w == nil {
		return ErrWorkerNotFound
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.shutdownTimeout)
	defer cancel()

	if stop == nil {
		// 尚未启动
		return w.Stop(ctx)
	}
	stop()
	if err := w.Stop(ctx); err != nil {
		return err
	}
	select {
	case <-w.Done():
		return nil
	case <-ctx.Done():
		return ErrShutdownTimeout
	}
}

// Workers 返回仍在管理中的协程名称
func (m *Manager) Workers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.workers))
	for _, w := range m.workers {
		names = append(names, w.name)
	}
	return names
}

// Run 启动所有协程并阻塞到退出流程结束。
// 返回退出流程的错误；退出正常时返回第一个失败协程的错误。
func (m *Manager) Run() error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(m.rootCtx)
	m.running = true
	m.cancel = cancel
	m.group, m.groupCtx = errgroup.WithContext(ctx)
	m.done = make(chan struct{})
	startup := m.hooks.onStartup
	m.mu.Unlock()

	defer cancel()

	if err := runHooks(ctx, startup); err != nil {
		m.finish(err)
		return err
	}

	m.mu.Lock()
	for _, w := range m.workers {
		m.launch(w)
	}
	m.mu.Unlock()

	var sigCh chan os.Signal
	if len(m.signals) > 0 {
		sigCh = make(chan os.Signal, 1)
		signal.Notify(sigCh, m.signals...)
		defer signal.Stop(sigCh)
	}

	waitDone := make(chan struct{})
	var workerErr error
	go func() {
		workerErr = m.group.Wait()
		close(waitDone)
	}()

	select {
	case sig := <-sigCh:
		m.log.Info("收到退出信号", logger.String("signal", sig.String()))
	case <-m.groupCtx.Done():
	case <-waitDone:
	}

	err := m.shutdown(waitDone)
	if err == nil {
		err = workerErr
	}
	m.finish(err)
	return err
}

// Shutdown 触发退出流程并等待 Run 返回，管理器未运行时直接返回
func (m *Manager) Shutdown() error {
	m.mu.RLock()
	running, cancel, done := m.running, m.cancel, m.done
	m.mu.RUnlock()

	if !running {
		return nil
	}
	cancel()
	<-done

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.result
}

func (m *Manager) finish(err error) {
	m.mu.Lock()
	m.running = false
	m.result = err
	close(m.done)
	m.mu.Unlock()
}

func (m *Manager) shutdown(waitDone <-chan struct{}) error {
	ctx, cancel := context.WithTimeout(context.Background(), m.shutdownTimeout)
	defer cancel()

	m.mu.RLock()
	workers := append([]*Worker(nil), m.workers...)
	m.mu.RUnlock()

	m.cancel()

	// 逆序调用停止函数
	for i := len(workers) - 1; i >= 0; i-- {
		if err := workers[i].Stop(ctx); err != nil {
			m.log.Warn("停止协程失败", logger.String("worker", workers[i].name), logger.Err(err))
		}
	}

	hooks := m.snapshotHooks()
	select {
	case <-waitDone:
	case <-ctx.Done():
		_ = runHooks(ctx, hooks.onTimeout)
		m.log.Error("等待协程退出超时", logger.Duration("timeout", m.shutdownTimeout))
		return ErrShutdownTimeout
	}

	return runHooks(ctx, hooks.onShutdown)
}

// launch 调用方需持有写锁
func (m *Manager) launch(w *Worker) {
	ctx, cancel := context.WithCancel(m.groupCtx)
	w.cancel = cancel
	hooks := m.hooks

	m.group.Go(func() error {
		defer cancel()
		defer m.remove(w)

		runWorkerHooks(hooks.onWorkerStart, w.name, nil)
		m.log.Debug("协程已启动", logger.String("worker", w.name))

		err := w.Run(ctx)
		runWorkerHooks(hooks.onWorkerExit, w.name, err)

		if err != nil && !errors.Is(err, context.Canceled) {
			m.log.Error("协程异常退出", logger.String("worker", w.name), logger.Err(err))
			return fmt.Errorf("worker %s: %w", w.name, err)
		}
		m.log.Debug("协程已退出", logger.String("worker", w.name))
		return nil
	})
}

func (m *Manager) remove(w *Worker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, x := range m.workers {
		if x == w {
			m.workers = append(m.workers[:i], m.workers[i+1:]...)
			return
		}
	}
}

func (m *Manager) find(name string) int {
	for i, w := range m.workers {
		if w.name == name {
			return i
		}
	}
	return -1
}
