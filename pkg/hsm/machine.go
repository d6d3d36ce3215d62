package hsm

import (
	"github.com/junbin-yang/go-hsm/pkg/logger"
)

// DispatchFunc 分发钩子，在冒泡链中每次调用处理函数之前执行，不得改变控制流
type DispatchFunc[S, U, M, E any] func(m *M, node StateOrSuperstate[S, U], e E)

// TransitionFunc 转换钩子，在转换完成后执行，参数为转换前后的状态
type TransitionFunc[S, M any] func(m *M, from, to S)

// Uninitialized 尚未初始化的状态机。
//
// 必须调用 Init 执行到初始状态的全部进入动作后才能处理事件。
type Uninitialized[S State[S, U, M, E], U Superstate[S, U, M, E], M any, E any] struct {
	storage      M
	initial      S
	opts         options
	onDispatch   DispatchFunc[S, U, M, E]
	onTransition TransitionFunc[S, M]
	consumed     bool
}

// New 用共享存储和初始状态创建未初始化的状态机
func New[S State[S, U, M, E], U Superstate[S, U, M, E], M any, E any](storage M, initial S, opts ...Option) *Uninitialized[S, U, M, E] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Uninitialized[S, U, M, E]{
		storage: storage,
		initial: initial,
		opts:    o,
	}
}

// OnDispatch 设置分发钩子，优先于共享存储实现的 DispatchObserver
func (u *Uninitialized[S, U, M, E]) OnDispatch(fn DispatchFunc[S, U, M, E]) *Uninitialized[S, U, M, E] {
	u.onDispatch = fn
	return u
}

// OnTransition 设置转换钩子，优先于共享存储实现的 TransitionObserver
func (u *Uninitialized[S, U, M, E]) OnTransition(fn TransitionFunc[S, M]) *Uninitialized[S, U, M, E] {
	u.onTransition = fn
	return u
}

// Init 执行从根到初始状态的全部进入动作，返回已初始化的状态机。
// 同一个 Uninitialized 只能初始化一次。
func (u *Uninitialized[S, U, M, E]) Init() (*Machine[S, U, M, E], error) {
	if u.consumed {
		return nil, ErrAlreadyInitialized
	}

	m := &Machine[S, U, M, E]{
		storage:      u.storage,
		state:        u.initial,
		initial:      u.initial,
		opts:         u.opts,
		onDispatch:   u.onDispatch,
		onTransition: u.onTransition,
	}
	m.bindObservers()

	levels, err := m.depth(m.state)
	if err != nil {
		return nil, err
	}

	u.consumed = true
	var zero M
	u.storage = zero

	m.enter(m.state, levels+1)
	m.initialized = true

	if m.opts.log != nil {
		m.opts.log.Debug("状态机初始化完成",
			logger.String("machine", m.opts.name),
			logger.Any("state", m.state),
		)
	}
	return m, nil
}

// Machine 已初始化的状态机。
//
// 零值未初始化，对其调用 Handle 返回 ErrNotInitialized；请通过 New(...).Init() 创建。
type Machine[S State[S, U, M, E], U Superstate[S, U, M, E], M any, E any] struct {
	storage      M
	state        S
	initial      S
	opts         options
	onDispatch   DispatchFunc[S, U, M, E]
	onTransition TransitionFunc[S, M]
	initialized  bool
}

// bindObservers 共享存储实现了观察接口且未显式设置钩子时，绑定到其方法
func (m *Machine[S, U, M, E]) bindObservers() {
	if m.onDispatch == nil {
		if obs, ok := any(&m.storage).(DispatchObserver[S, U, E]); ok {
			m.onDispatch = func(_ *M, node StateOrSuperstate[S, U], e E) {
				obs.OnDispatch(node, e)
			}
		}
	}
	if m.onTransition == nil {
		if obs, ok := any(&m.storage).(TransitionObserver[S]); ok {
			m.onTransition = func(_ *M, from, to S) {
				obs.OnTransition(from, to)
			}
		}
	}
}

// State 返回当前状态
func (m *Machine[S, U, M, E]) State() S {
	return m.state
}

// StateMut 返回当前状态的可变引用。
//
// 通过它修改状态会绕过退出/进入动作，可能破坏状态机的内部不变量，
// 调用方需自行保证一致性。
func (m *Machine[S, U, M, E]) StateMut() *S {
	return &m.state
}

// Storage 返回共享存储
func (m *Machine[S, U, M, E]) Storage() *M {
	return &m.storage
}

// Initialized 是否已初始化
func (m *Machine[S, U, M, E]) Initialized() bool {
	return m.initialized
}

// Handle 处理事件：从当前状态开始调用处理函数，返回 Super 时沿超状态链向上冒泡，
// 直到事件被处理、请求转换，或越过根状态后被丢弃。
func (m *Machine[S, U, M, E]) Handle(e E) error {
	if !m.initialized {
		return ErrNotInitialized
	}

	if m.onDispatch != nil {
		m.onDispatch(&m.storage, stateNode[S, U](m.state), e)
	}
	resp := m.state.Handle(&m.storage, e)

	source := 0
	next, ok := m.state.Superstate()
	for resp.kind == KindSuper && ok {
		source++
		if source > m.opts.maxDepth {
			return ErrMaxDepthExceeded
		}
		super := next
		if m.onDispatch != nil {
			m.onDispatch(&m.storage, superstateNode[S](super), e)
		}
		resp = super.Handle(&m.storage, e)
		next, ok = super.Superstate()
	}

	switch resp.kind {
	case KindTransition:
		return m.transition(source, resp.target)
	case KindSuper:
		if m.opts.log != nil {
			m.opts.log.Debug("事件未被处理，已丢弃",
				logger.String("machine", m.opts.name),
				logger.Any("state", m.state),
			)
		}
	}
	return nil
}

// transition 执行从当前状态到 target 的转换，source 为产生转换的节点所在层数
func (m *Machine[S, U, M, E]) transition(source int, target S) error {
	exitLevels, enterLevels, err := m.transitionPath(source, target)
	if err != nil {
		return err
	}

	m.exit(exitLevels)
	m.enter(target, enterLevels)

	prev := m.state
	m.state = target

	m.afterTransition(prev, exitLevels, enterLevels)
	return nil
}

// Reset 退出全部活动节点并重新进入初始配置
func (m *Machine[S, U, M, E]) Reset() error {
	if !m.initialized {
		return ErrNotInitialized
	}

	leafDepth, err := m.depth(m.state)
	if err != nil {
		return err
	}
	initialDepth, err := m.depth(m.initial)
	if err != nil {
		return err
	}

	m.exit(leafDepth + 1)
	m.enter(m.initial, initialDepth+1)

	prev := m.state
	m.state = m.initial

	m.afterTransition(prev, leafDepth+1, initialDepth+1)
	return nil
}

func (m *Machine[S, U, M, E]) afterTransition(prev S, exitLevels, enterLevels int) {
	if m.opts.log != nil {
		m.opts.log.Debug("状态转换",
			logger.String("machine", m.opts.name),
			logger.Any("from", prev),
			logger.Any("to", m.state),
			logger.Int("exit_levels", exitLevels),
			logger.Int("enter_levels", enterLevels),
		)
	}
	if m.onTransition != nil {
		m.onTransition(&m.storage, prev, m.state)
	}
}
