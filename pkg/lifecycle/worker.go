package lifecycle

import (
	"context"
	"sync"
)

// RunFunc 协程运行函数，ctx 结束时应尽快返回
type RunFunc func(ctx context.Context) error

// StopFunc 协程停止函数，用于停止不感知 ctx 的阻塞调用（如 http.Server、异步状态机队列）
type StopFunc func(ctx context.Context) error

// Worker 受管理的协程。停止函数最多执行一次，StopWorker 与退出流程可以安全地重复调用 Stop。
type Worker struct {
	name     string
	runFunc  RunFunc
	stopFunc StopFunc
	cancel   context.CancelFunc

	stopOnce sync.Once
	stopErr  error

	mu   sync.Mutex
	err  error
	done chan struct{}
}

// WorkerOption 协程配置选项
type WorkerOption func(*Worker)

// NewWorker 创建新的协程
func NewWorker(name string, runFunc RunFunc, opts ...WorkerOption) *Worker {
	w := &Worker{
		name:    name,
		runFunc: runFunc,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WithStopFunc 设置停止函数
func WithStopFunc(stopFunc StopFunc) WorkerOption {
	return func(w *Worker) {
		w.stopFunc = stopFunc
	}
}

func (w *Worker) Name() string {
	return w.name
}

// Run 运行协程，只能调用一次
func (w *Worker) Run(ctx context.Context) error {
	err := w.runFunc(ctx)

	w.mu.Lock()
	w.err = err
	w.mu.Unlock()
	close(w.done)
	return err
}

// Stop 调用停止函数，重复调用返回第一次的结果
func (w *Worker) Stop(ctx context.Context) error {
	w.stopOnce.Do(func() {
		if w.stopFunc != nil {
			w.stopErr = w.stopFunc(ctx)
		}
	})
	return w.stopErr
}

// Done Run 返回后关闭
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// Err 返回 Run 的结果，Run 返回前为 nil
func (w *Worker) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}
