package statemachine

import "context"

// FSM 有限状态机实现，即没有超状态的 HSM。
// 首次 Trigger 时自动启动。
type FSM struct {
	h *HSM
}

// NewFSM 创建新的有限状态机
func NewFSM(initial State, opts ...Option) *FSM {
	return &FSM{h: NewHSM(initial, opts...)}
}

// Current 返回当前状态
func (f *FSM) Current() State {
	return f.h.Current()
}

// AddTransition 添加状态转换规则
func (f *FSM) AddTransition(from, to State, event Event) error {
	return f.h.AddTransition(from, to, event)
}

// AddTransitionWithGuard 添加带守卫的状态转换规则
func (f *FSM) AddTransitionWithGuard(from, to State, event Event, guard GuardFunc) error {
	return f.h.AddTransitionWithGuard(from, to, event, guard)
}

// SetOnEnter 设置状态进入时的回调
func (f *FSM) SetOnEnter(state State, action ActionFunc) error {
	return f.h.SetOnEnter(state, action)
}

// SetOnExit 设置状态退出时的回调
func (f *FSM) SetOnExit(state State, action ActionFunc) error {
	return f.h.SetOnExit(state, action)
}

// SetOnTransition 设置转换时的回调
func (f *FSM) SetOnTransition(from State, event Event, fn TransitionFunc) error {
	return f.h.SetOnTransition(from, event, fn)
}

// Start 执行初始状态的进入动作
func (f *FSM) Start(ctx context.Context) error {
	return f.h.Start(ctx)
}

// Can 检查是否可以触发事件
func (f *FSM) Can(event Event) bool {
	return f.h.Can(event)
}

// Trigger 触发事件进行状态转换
func (f *FSM) Trigger(ctx context.Context, event Event) error {
	if !f.h.Started() {
		if err := f.h.Start(ctx); err != nil {
			return err
		}
	}
	return f.h.Trigger(ctx, event)
}

// Reset 重置到初始状态
func (f *FSM) Reset() error {
	return f.h.Reset()
}

// History 获取状态转换历史
func (f *FSM) History() []History {
	return f.h.History()
}
