package statemachine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/junbin-yang/go-hsm/pkg/hsm"
	"github.com/junbin-yang/go-hsm/pkg/logger"
	"github.com/junbin-yang/go-hsm/pkg/metrics"
)

// runtime 引擎的共享存储，保存一次 Trigger 的上下文与结果
type runtime struct {
	ctx     context.Context
	event   Event
	handled bool
	reset   bool // 由 Reset 触发，不计入转换指标
	err     error
}

// fail 记录第一个错误，后续动作继续执行
func (rt *runtime) fail(err error) {
	if rt.err == nil {
		rt.err = err
	}
}

// leafState 引擎中的叶子状态描述
type leafState struct {
	name State
	h    *HSM
}

func (s leafState) String() string { return string(s.name) }

func (s leafState) Handle(rt *runtime, e Event) hsm.Response[leafState] {
	return s.h.handle(rt, s.name, e)
}

func (s leafState) Superstate() (superState, bool) { return s.h.superstateOf(s.name) }
func (s leafState) Entry(rt *runtime)              { s.h.runAction(rt, s.h.onEnter, s.name, "entry") }
func (s leafState) Exit(rt *runtime)               { s.h.runAction(rt, s.h.onExit, s.name, "exit") }

// superState 引擎中的超状态描述
type superState struct {
	name State
	h    *HSM
}

func (s superState) String() string { return string(s.name) }

func (s superState) Handle(rt *runtime, e Event) hsm.Response[leafState] {
	return s.h.handle(rt, s.name, e)
}

func (s superState) Superstate() (superState, bool) { return s.h.superstateOf(s.name) }
func (s superState) Entry(rt *runtime)              { s.h.runAction(rt, s.h.onEnter, s.name, "entry") }
func (s superState) Exit(rt *runtime)               { s.h.runAction(rt, s.h.onExit, s.name, "exit") }
func (s superState) Same(other superState) bool     { return s.name == other.name }

type engine = hsm.Machine[leafState, superState, runtime, Event]

// HSM 层次状态机实现。
//
// 通过 AddState 声明层次结构（被声明为父状态的状态即为超状态，只能作为转换的来源），
// Start 之后定义被封存，事件沿当前状态的超状态链向上查找转换规则。
// 回调在状态机的锁内执行，不要在回调中调用同一状态机的方法。
type HSM struct {
	mu          sync.RWMutex
	opts        options
	initial     State
	transitions map[transitionKey]*Transition
	order       []transitionKey
	onEnter     map[State]ActionFunc
	onExit      map[State]ActionFunc
	parent      map[State]State   // 状态的父状态
	children    map[State][]State // 状态的子状态
	declared    []State
	known       map[State]bool
	machine     *engine
	history     history
}

// NewHSM 创建新的层次状态机
func NewHSM(initial State, opts ...Option) *HSM {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	h := &HSM{
		opts:        o,
		initial:     initial,
		transitions: make(map[transitionKey]*Transition),
		onEnter:     make(map[State]ActionFunc),
		onExit:      make(map[State]ActionFunc),
		parent:      make(map[State]State),
		children:    make(map[State][]State),
		known:       make(map[State]bool),
		history:     history{limit: o.historyLimit},
	}
	h.declare(initial)
	return h
}

func (h *HSM) declare(s State) {
	if !h.known[s] {
		h.known[s] = true
		h.declared = append(h.declared, s)
	}
}

func (h *HSM) sealed() bool {
	return h.machine != nil
}

// AddState 声明状态及其父状态，parent 为空表示顶层状态
func (h *HSM) AddState(child, parent State) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sealed() {
		return ErrSealed
	}
	if child == "" {
		return fmt.Errorf("%w: empty state name", ErrStateNotFound)
	}
	if child == parent {
		return fmt.Errorf("%w: %s", ErrHierarchyCycle, child)
	}
	if p, ok := h.parent[child]; ok && p != parent {
		return fmt.Errorf("%w: %s already under %s", ErrDuplicateState, child, p)
	}

	h.declare(child)
	if parent == "" {
		return nil
	}
	h.declare(parent)
	if _, ok := h.parent[child]; !ok {
		h.parent[child] = parent
		h.children[parent] = append(h.children[parent], child)
	}
	return nil
}

// AddTransition 添加状态转换规则
func (h *HSM) AddTransition(from, to State, event Event) error {
	return h.addTransition(&Transition{From: from, To: to, Event: event})
}

// AddTransitionWithGuard 添加带守卫的状态转换规则
func (h *HSM) AddTransitionWithGuard(from, to State, event Event, guard GuardFunc) error {
	return h.addTransition(&Transition{From: from, To: to, Event: event, Guard: guard})
}

func (h *HSM) addTransition(t *Transition) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sealed() {
		return ErrSealed
	}

	key := transitionKey{from: t.From, event: t.Event}
	if _, exists := h.transitions[key]; exists {
		return ErrDuplicateTransition
	}

	h.declare(t.From)
	h.declare(t.To)
	h.transitions[key] = t
	h.order = append(h.order, key)
	return nil
}

// SetOnEnter 设置状态进入时的回调
func (h *HSM) SetOnEnter(state State, action ActionFunc) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sealed() {
		return ErrSealed
	}
	h.declare(state)
	h.onEnter[state] = action
	return nil
}

// SetOnExit 设置状态退出时的回调
func (h *HSM) SetOnExit(state State, action ActionFunc) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sealed() {
		return ErrSealed
	}
	h.declare(state)
	h.onExit[state] = action
	return nil
}

// SetOnTransition 设置转换时的回调，在退出动作之前执行
func (h *HSM) SetOnTransition(from State, event Event, fn TransitionFunc) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sealed() {
		return ErrSealed
	}

	trans, exists := h.transitions[transitionKey{from: from, event: event}]
	if !exists {
		return ErrEventNotFound
	}
	trans.OnTransition = fn
	return nil
}

// Validate 校验层次结构与转换规则
func (h *HSM) Validate() error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.validate()
}

func (h *HSM) validate() error {
	if h.initial == "" {
		return fmt.Errorf("%w: empty initial state", ErrStateNotFound)
	}
	if h.isSuperstate(h.initial) {
		return fmt.Errorf("%w: initial state %s", ErrSuperstateTarget, h.initial)
	}

	for _, s := range h.declared {
		visited := map[State]bool{s: true}
		depth := 0
		for p, ok := h.parent[s]; ok; p, ok = h.parent[p] {
			if visited[p] {
				return fmt.Errorf("%w: %s", ErrHierarchyCycle, s)
			}
			visited[p] = true
			if depth++; depth > h.opts.maxDepth {
				return fmt.Errorf("%w: %s", hsm.ErrMaxDepthExceeded, s)
			}
		}
	}

	for _, key := range h.order {
		t := h.transitions[key]
		if h.isSuperstate(t.To) {
			return fmt.Errorf("%w: %s --%s--> %s", ErrSuperstateTarget, t.From, t.Event, t.To)
		}
	}
	return nil
}

func (h *HSM) isSuperstate(s State) bool {
	return len(h.children[s]) > 0
}

// Start 校验定义并执行到初始状态的全部进入动作。
// 进入动作返回的第一个错误会被返回，但状态机仍处于已启动状态。
func (h *HSM) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sealed() {
		return nil
	}
	if err := h.validate(); err != nil {
		return err
	}

	u := hsm.New[leafState, superState, runtime, Event](
		runtime{ctx: ctx},
		leafState{name: h.initial, h: h},
		hsm.WithName(h.opts.name),
		hsm.WithMaxDepth(h.opts.maxDepth),
	)
	u.OnTransition(h.afterTransition)
	if h.opts.metrics != nil {
		u.OnDispatch(metrics.DispatchHook[leafState, superState, runtime, Event](h.opts.metrics))
	}

	m, err := u.Init()
	if err != nil {
		return err
	}
	h.machine = m

	rt := m.Storage()
	err = rt.err
	*rt = runtime{}

	if h.opts.log != nil {
		h.opts.log.Info("状态机已启动",
			logger.String("machine", h.opts.name),
			logger.String("state", string(h.initial)),
		)
	}
	return err
}

// Started 是否已启动
func (h *HSM) Started() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sealed()
}

// Current 返回当前状态，启动前返回初始状态
func (h *HSM) Current() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.machine == nil {
		return h.initial
	}
	return h.machine.State().name
}

// Path 返回从根到当前状态的路径
func (h *HSM) Path() []State {
	h.mu.RLock()
	defer h.mu.RUnlock()

	current := h.initial
	if h.machine != nil {
		current = h.machine.State().name
	}

	path := []State{current}
	for p, ok := h.parent[current]; ok && len(path) <= h.opts.maxDepth; p, ok = h.parent[p] {
		path = append(path, p)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Can 检查当前状态及其所有父状态是否定义了该事件
func (h *HSM) Can(event Event) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	state := h.initial
	if h.machine != nil {
		state = h.machine.State().name
	}
	for depth := 0; depth <= h.opts.maxDepth; depth++ {
		if _, exists := h.transitions[transitionKey{from: state, event: event}]; exists {
			return true
		}
		parent, hasParent := h.parent[state]
		if !hasParent {
			break
		}
		state = parent
	}
	return false
}

// Trigger 触发事件。没有任何层级定义该事件时返回 ErrInvalidTransition；
// 动作回调返回的第一个错误在整个退出/进入序列执行完之后返回。
func (h *HSM) Trigger(ctx context.Context, event Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.machine == nil {
		return ErrNotStarted
	}

	rt := h.machine.Storage()
	*rt = runtime{ctx: ctx, event: event}
	defer func() { rt.ctx = nil }()

	if err := h.machine.Handle(event); err != nil {
		return err
	}
	if !rt.handled {
		return ErrInvalidTransition
	}
	return rt.err
}

// Reset 退出当前配置并重新进入初始状态
func (h *HSM) Reset() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.machine == nil {
		return nil
	}

	rt := h.machine.Storage()
	*rt = runtime{ctx: context.Background(), event: ResetEvent, reset: true}
	defer func() { rt.ctx = nil }()

	if err := h.machine.Reset(); err != nil {
		return err
	}
	return rt.err
}

// handle 查找 name 上定义的转换规则
func (h *HSM) handle(rt *runtime, name State, event Event) hsm.Response[leafState] {
	trans, ok := h.transitions[transitionKey{from: name, event: event}]
	if !ok {
		return hsm.Super[leafState]()
	}
	rt.handled = true

	from := h.machine.State().name
	if trans.Guard != nil && !trans.Guard(rt.ctx, from, trans.To) {
		rt.fail(ErrTransitionDenied)
		return hsm.Handled[leafState]()
	}
	if trans.OnTransition != nil {
		if err := trans.OnTransition(rt.ctx, from, trans.To); err != nil {
			rt.fail(err)
			return hsm.Handled[leafState]()
		}
	}
	return hsm.Transition(leafState{name: trans.To, h: h})
}

func (h *HSM) superstateOf(name State) (superState, bool) {
	p, ok := h.parent[name]
	if !ok {
		return superState{}, false
	}
	return superState{name: p, h: h}, true
}

func (h *HSM) runAction(rt *runtime, actions map[State]ActionFunc, name State, kind string) {
	fn, ok := actions[name]
	if !ok {
		return
	}
	ctx := rt.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if err := fn(ctx, name); err != nil {
		rt.fail(err)
		if h.opts.log != nil {
			h.opts.log.Warn("状态动作执行失败",
				logger.String("machine", h.opts.name),
				logger.String("state", string(name)),
				logger.String("action", kind),
				logger.Err(err),
			)
		}
	}
}

func (h *HSM) afterTransition(rt *runtime, from, to leafState) {
	h.history.add(History{
		From:      from.name,
		To:        to.name,
		Event:     rt.event,
		Timestamp: time.Now(),
	})
	if rt.reset {
		if h.opts.log != nil {
			h.opts.log.Debug("状态机已重置",
				logger.String("machine", h.opts.name),
				logger.String("from", string(from.name)),
				logger.String("to", string(to.name)),
			)
		}
		return
	}
	if h.opts.metrics != nil {
		h.opts.metrics.ObserveTransition(string(from.name), string(to.name))
	}
	if h.opts.log != nil {
		h.opts.log.Debug("状态转换",
			logger.String("machine", h.opts.name),
			logger.String("event", string(rt.event)),
			logger.String("from", string(from.name)),
			logger.String("to", string(to.name)),
		)
	}
}
