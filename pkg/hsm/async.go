package hsm

import (
	"context"
	"sync"

	"github.com/junbin-yang/go-hsm/pkg/logger"
)

// AsyncOption 异步状态机选项
type AsyncOption func(*asyncOptions)

type asyncOptions struct {
	queueSize int
	onError   func(err error)
	log       *logger.Logger
}

// WithQueueSize 设置事件队列长度
func WithQueueSize(size int) AsyncOption {
	return func(o *asyncOptions) {
		if size >= 0 {
			o.queueSize = size
		}
	}
}

// WithErrorHandler 设置事件处理失败时的回调
func WithErrorHandler(fn func(err error)) AsyncOption {
	return func(o *asyncOptions) {
		o.onError = fn
	}
}

// WithAsyncLogger 设置日志器
func WithAsyncLogger(l *logger.Logger) AsyncOption {
	return func(o *asyncOptions) {
		o.log = l
	}
}

// Async 在独立协程中按顺序处理事件队列的状态机包装。
// 被包装的 Dispatcher 只会在该协程中被调用（未启动即停止时由 Stop 的调用方处理剩余事件）。
type Async[E any] struct {
	target  Dispatcher[E]
	opts    asyncOptions
	queue   chan E
	stopCh  chan struct{}
	wg      sync.WaitGroup
	posting sync.WaitGroup // 正在投递中的 Post
	mu      sync.RWMutex
	started bool
	stopped bool
}

// NewAsync 创建异步状态机
func NewAsync[E any](target Dispatcher[E], opts ...AsyncOption) *Async[E] {
	o := asyncOptions{queueSize: 64}
	for _, opt := range opts {
		opt(&o)
	}
	return &Async[E]{
		target: target,
		opts:   o,
		queue:  make(chan E, o.queueSize),
		stopCh: make(chan struct{}),
	}
}

// Start 启动事件处理协程，重复调用或停止后调用无效果
func (a *Async[E]) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started || a.stopped {
		return
	}
	a.started = true
	a.wg.Add(1)
	go a.processEvents()
}

// Stop 停止接收事件，处理完队列中剩余的事件后返回。
// 阻塞在满队列上的 Post 返回 ErrStopped。从未启动时剩余事件在调用方协程中处理。
func (a *Async[E]) Stop() {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	a.stopped = true
	started := a.started
	close(a.stopCh)
	a.mu.Unlock()

	if started {
		a.wg.Wait()
		return
	}
	a.posting.Wait()
	a.drain()
}

// Post 将事件放入队列。队列已满时阻塞，直到有空位、ctx 结束或状态机停止。
// 返回 nil 的事件保证会被处理。
func (a *Async[E]) Post(ctx context.Context, e E) error {
	a.mu.RLock()
	if a.stopped {
		a.mu.RUnlock()
		return ErrStopped
	}
	a.posting.Add(1)
	a.mu.RUnlock()
	defer a.posting.Done()

	select {
	case a.queue <- e:
		return nil
	default:
	}

	select {
	case a.queue <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-a.stopCh:
		return ErrStopped
	}
}

// Len 返回队列中等待处理的事件数
func (a *Async[E]) Len() int {
	return len(a.queue)
}

// processEvents 处理事件队列
func (a *Async[E]) processEvents() {
	defer a.wg.Done()

	for {
		select {
		case <-a.stopCh:
			// 等待进行中的 Post 结束，之后队列不会再增长
			a.posting.Wait()
			a.drain()
			return
		case e := <-a.queue:
			a.dispatch(e)
		}
	}
}

// drain 处理停止前已入队的事件
func (a *Async[E]) drain() {
	for {
		select {
		case e := <-a.queue:
			a.dispatch(e)
		default:
			return
		}
	}
}

func (a *Async[E]) dispatch(e E) {
	if err := a.target.Handle(e); err != nil {
		if a.opts.log != nil {
			a.opts.log.Warn("异步事件处理失败", logger.Err(err))
		}
		if a.opts.onError != nil {
			a.opts.onError(err)
		}
	}
}
