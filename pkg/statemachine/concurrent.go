package statemachine

import (
	"context"

	"github.com/junbin-yang/go-hsm/pkg/hsm"
)

// ErrMachineNotFound 指定名称的状态机不存在
var ErrMachineNotFound = hsm.ErrMachineNotFound

// member 将 StateMachine 适配为分发目标
type member struct {
	StateMachine
}

func (m member) Handle(e AsyncEvent) error {
	return m.Trigger(e.Context, e.Event)
}

// Concurrent 并发状态机管理器
type Concurrent struct {
	group *hsm.Group[AsyncEvent]
}

// NewConcurrent 创建并发状态机管理器
func NewConcurrent() *Concurrent {
	return &Concurrent{group: hsm.NewGroup[AsyncEvent]()}
}

// AddMachine 添加状态机
func (c *Concurrent) AddMachine(name string, machine StateMachine) {
	c.group.Add(name, member{machine})
}

// RemoveMachine 移除状态机
func (c *Concurrent) RemoveMachine(name string) {
	c.group.Remove(name)
}

// GetMachine 获取状态机
func (c *Concurrent) GetMachine(name string) (StateMachine, bool) {
	d, ok := c.group.Get(name)
	if !ok {
		return nil, false
	}
	return d.(member).StateMachine, true
}

// Trigger 触发指定状态机的事件
func (c *Concurrent) Trigger(ctx context.Context, name string, event Event) error {
	return c.group.Handle(name, AsyncEvent{Event: event, Context: ctx})
}

// TriggerAll 并发触发所有状态机的相同事件
func (c *Concurrent) TriggerAll(ctx context.Context, event Event) map[string]error {
	return c.group.Broadcast(ctx, AsyncEvent{Event: event, Context: ctx})
}

// GetStates 获取所有状态机的当前状态
func (c *Concurrent) GetStates() map[string]State {
	names := c.group.Names()
	states := make(map[string]State, len(names))
	for _, name := range names {
		if m, ok := c.GetMachine(name); ok {
			states[name] = m.Current()
		}
	}
	return states
}

// ResetAll 重置所有状态机
func (c *Concurrent) ResetAll() map[string]error {
	names := c.group.Names()
	results := make(map[string]error, len(names))
	for _, name := range names {
		if m, ok := c.GetMachine(name); ok {
			results[name] = m.Reset()
		}
	}
	return results
}

// Count 返回状态机数量
func (c *Concurrent) Count() int {
	return c.group.Count()
}
