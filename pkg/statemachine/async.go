package statemachine

import (
	"context"

	"github.com/junbin-yang/go-hsm/pkg/hsm"
)

// AsyncEvent 异步事件
type AsyncEvent struct {
	Event   Event
	Context context.Context
}

// AsyncHSM 支持异步事件处理的层次状态机
type AsyncHSM struct {
	*HSM
	queue *hsm.Async[AsyncEvent]
}

// NewAsyncHSM 创建异步状态机，处理失败的事件记录到 WithLogger 指定的日志器
func NewAsyncHSM(initial State, queueSize int, opts ...Option) *AsyncHSM {
	h := NewHSM(initial, opts...)
	target := hsm.DispatcherFunc[AsyncEvent](func(e AsyncEvent) error {
		return h.Trigger(e.Context, e.Event)
	})

	return &AsyncHSM{
		HSM: h,
		queue: hsm.NewAsync[AsyncEvent](target,
			hsm.WithQueueSize(queueSize),
			hsm.WithAsyncLogger(h.opts.log),
		),
	}
}

// Start 启动状态机与异步事件处理
func (a *AsyncHSM) Start(ctx context.Context) error {
	if err := a.HSM.Start(ctx); err != nil {
		return err
	}
	a.queue.Start()
	return nil
}

// Stop 处理完队列中的剩余事件后停止
func (a *AsyncHSM) Stop() {
	a.queue.Stop()
}

// TriggerAsync 异步触发事件
func (a *AsyncHSM) TriggerAsync(ctx context.Context, event Event) error {
	return a.queue.Post(ctx, AsyncEvent{Event: event, Context: ctx})
}

// QueueLength 返回队列长度
func (a *AsyncHSM) QueueLength() int {
	return a.queue.Len()
}
