package hsm

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/junbin-yang/go-hsm/pkg/logger"
)

func newTestMachine(t *testing.T, initial leaf, opts ...Option) *testMachine {
	t.Helper()
	m, err := New[leaf, group, recorder, string](newRecorder(), initial, opts...).Init()
	if err != nil {
		t.Fatalf("初始化失败: %v", err)
	}
	m.Storage().trace = nil
	return m
}

func assertTrace(t *testing.T, m *testMachine, want []string) {
	t.Helper()
	if diff := cmp.Diff(want, m.Storage().trace); diff != "" {
		t.Errorf("动作顺序错误 (-want +got):\n%s", diff)
	}
}

func TestInit_EntersAncestorsRootToLeaf(t *testing.T) {
	m, err := New[leaf, group, recorder, string](newRecorder(), work).Init()
	if err != nil {
		t.Fatalf("初始化失败: %v", err)
	}

	assertTrace(t, m, []string{"active.entry", "busy.entry", "work.entry"})
	if m.State() != work {
		t.Errorf("状态错误: got %v, want work", m.State())
	}
	if !m.Initialized() {
		t.Error("Init 之后应为已初始化")
	}
}

func TestInit_RootState(t *testing.T) {
	m, err := New[leaf, group, recorder, string](newRecorder(), loose).Init()
	if err != nil {
		t.Fatalf("初始化失败: %v", err)
	}
	assertTrace(t, m, []string{"loose.entry"})
}

func TestInit_Twice(t *testing.T) {
	u := New[leaf, group, recorder, string](newRecorder(), off)
	if _, err := u.Init(); err != nil {
		t.Fatalf("初始化失败: %v", err)
	}
	if _, err := u.Init(); !errors.Is(err, ErrAlreadyInitialized) {
		t.Errorf("期望 ErrAlreadyInitialized, got %v", err)
	}
}

func TestHandle_ZeroValueMachine(t *testing.T) {
	var m testMachine

	if err := m.Handle("tick"); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("期望 ErrNotInitialized, got %v", err)
	}
	if err := m.Reset(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("期望 ErrNotInitialized, got %v", err)
	}
	if m.Storage().trace != nil {
		t.Error("未初始化的状态机不应执行任何动作")
	}
}

func TestScenario_LeafTransition(t *testing.T) {
	m := newTestMachine(t, off)
	m.Storage().replies["off"] = Transition(on)

	if err := m.Handle("toggle"); err != nil {
		t.Fatalf("处理事件失败: %v", err)
	}

	assertTrace(t, m, []string{"off.exit", "on.entry"})
	if m.State() != on {
		t.Errorf("状态错误: got %v, want on", m.State())
	}
}

func TestScenario_SuperstateTransition(t *testing.T) {
	m := newTestMachine(t, off)
	m.Storage().replies["off"] = Super[leaf]()
	m.Storage().replies["standby"] = Transition(on)

	if err := m.Handle("toggle"); err != nil {
		t.Fatalf("处理事件失败: %v", err)
	}

	assertTrace(t, m, []string{"off.exit", "standby.exit", "standby.entry", "on.entry"})
	if m.State() != on {
		t.Errorf("状态错误: got %v, want on", m.State())
	}
}

func TestBubbling_FollowsHandlerChain(t *testing.T) {
	m := newTestMachine(t, work)
	m.Storage().replies["active"] = Handled[leaf]()

	if err := m.Handle("ping"); err != nil {
		t.Fatalf("处理事件失败: %v", err)
	}

	want := []string{"State(work):ping", "Superstate(busy):ping", "Superstate(active):ping"}
	if diff := cmp.Diff(want, m.Storage().dispatched); diff != "" {
		t.Errorf("冒泡顺序错误 (-want +got):\n%s", diff)
	}
	assertTrace(t, m, nil)
	if m.State() != work {
		t.Errorf("状态不应改变: got %v", m.State())
	}
}

func TestBubbling_StopsAtFirstHandler(t *testing.T) {
	m := newTestMachine(t, work)
	m.Storage().replies["busy"] = Handled[leaf]()
	m.Storage().replies["active"] = Transition(off)

	if err := m.Handle("ping"); err != nil {
		t.Fatalf("处理事件失败: %v", err)
	}

	if len(m.Storage().dispatched) != 2 {
		t.Errorf("active 不应收到事件: %v", m.Storage().dispatched)
	}
	if m.State() != work {
		t.Errorf("状态不应改变: got %v", m.State())
	}
}

func TestBubbling_DiscardedAtRoot(t *testing.T) {
	m := newTestMachine(t, work)

	if err := m.Handle("unknown"); err != nil {
		t.Fatalf("丢弃事件不应返回错误: %v", err)
	}

	if len(m.Storage().dispatched) != 3 {
		t.Errorf("应依次分发给 work、busy、active: %v", m.Storage().dispatched)
	}
	assertTrace(t, m, nil)
	if m.State() != work {
		t.Errorf("状态不应改变: got %v", m.State())
	}
}

func TestBubbling_NoSuperstate(t *testing.T) {
	m := newTestMachine(t, loose)

	if err := m.Handle("unknown"); err != nil {
		t.Fatalf("丢弃事件不应返回错误: %v", err)
	}
	if diff := cmp.Diff([]string{"State(loose):unknown"}, m.Storage().dispatched); diff != "" {
		t.Errorf("分发记录错误 (-want +got):\n%s", diff)
	}
}

func TestTransition_Minimality(t *testing.T) {
	tests := []struct {
		name    string
		initial leaf
		replies map[string]Response[leaf]
		want    []string
	}{
		{
			name:    "跨子树",
			initial: work,
			replies: map[string]Response[leaf]{"work": Transition(off)},
			want:    []string{"work.exit", "busy.exit", "active.exit", "standby.entry", "off.entry"},
		},
		{
			name:    "跨子树反向",
			initial: off,
			replies: map[string]Response[leaf]{"off": Transition(work)},
			want:    []string{"off.exit", "standby.exit", "active.entry", "busy.entry", "work.entry"},
		},
		{
			name:    "从无超状态的状态进入深层状态",
			initial: loose,
			replies: map[string]Response[leaf]{"loose": Transition(work)},
			want:    []string{"loose.exit", "active.entry", "busy.entry", "work.entry"},
		},
		{
			name:    "从深层状态到无超状态的状态",
			initial: work,
			replies: map[string]Response[leaf]{"work": Transition(loose)},
			want:    []string{"work.exit", "busy.exit", "active.exit", "loose.entry"},
		},
		{
			name:    "由中间超状态发起的自转换",
			initial: work,
			replies: map[string]Response[leaf]{"busy": Transition(work)},
			want:    []string{"work.exit", "busy.exit", "busy.entry", "work.entry"},
		},
		{
			name:    "由根超状态发起的跨子树转换",
			initial: work,
			replies: map[string]Response[leaf]{"active": Transition(on)},
			want:    []string{"work.exit", "busy.exit", "active.exit", "standby.entry", "on.entry"},
		},
		{
			name:    "兄弟状态",
			initial: on,
			replies: map[string]Response[leaf]{"on": Transition(off)},
			want:    []string{"on.exit", "off.entry"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine(t, tt.initial)
			for k, v := range tt.replies {
				m.Storage().replies[k] = v
			}

			if err := m.Handle("go"); err != nil {
				t.Fatalf("处理事件失败: %v", err)
			}
			assertTrace(t, m, tt.want)
		})
	}
}

func TestTransition_SelfReentry(t *testing.T) {
	for _, s := range []leaf{off, work, loose} {
		m := newTestMachine(t, s)
		m.Storage().replies[s.String()] = Transition(s)

		if err := m.Handle("again"); err != nil {
			t.Fatalf("处理事件失败: %v", err)
		}
		assertTrace(t, m, []string{s.String() + ".exit", s.String() + ".entry"})
	}
}

func TestHandled_Idempotent(t *testing.T) {
	m := newTestMachine(t, work)
	m.Storage().replies["work"] = Handled[leaf]()

	for i := 0; i < 5; i++ {
		if err := m.Handle("noop"); err != nil {
			t.Fatalf("处理事件失败: %v", err)
		}
	}

	assertTrace(t, m, nil)
	if len(m.Storage().transitions) != 0 {
		t.Errorf("不应发生转换: %v", m.Storage().transitions)
	}
	if m.State() != work {
		t.Errorf("状态不应改变: got %v", m.State())
	}
}

func TestTransitionObserver(t *testing.T) {
	m := newTestMachine(t, off)
	m.Storage().replies["off"] = Transition(on)
	m.Storage().replies["on"] = Transition(off)

	_ = m.Handle("toggle")
	_ = m.Handle("toggle")

	want := [][2]leaf{{off, on}, {on, off}}
	if diff := cmp.Diff(want, m.Storage().transitions); diff != "" {
		t.Errorf("转换记录错误 (-want +got):\n%s", diff)
	}
}

func TestOnTransitionHook_RunsAfterCommit(t *testing.T) {
	var (
		calls      int
		traceAtRun []string
	)
	u := New[leaf, group, recorder, string](newRecorder(), off)
	u.OnTransition(func(r *recorder, from, to leaf) {
		calls++
		traceAtRun = append([]string(nil), r.trace...)
		if from != off || to != on {
			t.Errorf("钩子参数错误: %v -> %v", from, to)
		}
	})
	m, err := u.Init()
	if err != nil {
		t.Fatalf("初始化失败: %v", err)
	}
	m.Storage().trace = nil
	m.Storage().replies["off"] = Transition(on)

	_ = m.Handle("toggle")

	if calls != 1 {
		t.Fatalf("钩子应调用一次, got %d", calls)
	}
	if diff := cmp.Diff([]string{"off.exit", "on.entry"}, traceAtRun); diff != "" {
		t.Errorf("钩子应在全部动作之后执行 (-want +got):\n%s", diff)
	}
	if len(m.Storage().transitions) != 0 {
		t.Error("显式钩子应覆盖共享存储的观察接口")
	}
}

func TestOnDispatchHook(t *testing.T) {
	var nodes []string
	u := New[leaf, group, recorder, string](newRecorder(), work)
	u.OnDispatch(func(_ *recorder, node StateOrSuperstate[leaf, group], e string) {
		if s, ok := node.State(); ok {
			nodes = append(nodes, "S:"+s.String())
		}
		if g, ok := node.Superstate(); ok {
			nodes = append(nodes, "U:"+g.String())
		}
	})
	m, err := u.Init()
	if err != nil {
		t.Fatalf("初始化失败: %v", err)
	}
	m.Storage().replies["busy"] = Handled[leaf]()

	_ = m.Handle("ping")

	if diff := cmp.Diff([]string{"S:work", "U:busy"}, nodes); diff != "" {
		t.Errorf("分发钩子记录错误 (-want +got):\n%s", diff)
	}
}

func TestMaxDepth_Cycle(t *testing.T) {
	_, err := New[leaf, group, recorder, string](newRecorder(), trapped).Init()
	if !errors.Is(err, ErrMaxDepthExceeded) {
		t.Errorf("期望 ErrMaxDepthExceeded, got %v", err)
	}
}

func TestMaxDepth_Configured(t *testing.T) {
	_, err := New[leaf, group, recorder, string](newRecorder(), work, WithMaxDepth(1)).Init()
	if !errors.Is(err, ErrMaxDepthExceeded) {
		t.Errorf("期望 ErrMaxDepthExceeded, got %v", err)
	}

	if _, err := New[leaf, group, recorder, string](newRecorder(), work, WithMaxDepth(2)).Init(); err != nil {
		t.Errorf("深度 2 应被允许: %v", err)
	}
}

func TestMaxDepth_TransitionHasNoSideEffects(t *testing.T) {
	m := newTestMachine(t, off)
	m.Storage().replies["off"] = Transition(trapped)

	if err := m.Handle("go"); !errors.Is(err, ErrMaxDepthExceeded) {
		t.Fatalf("期望 ErrMaxDepthExceeded, got %v", err)
	}
	assertTrace(t, m, nil)
	if m.State() != off {
		t.Errorf("状态不应改变: got %v", m.State())
	}
}

func TestReset(t *testing.T) {
	m := newTestMachine(t, off)
	m.Storage().replies["off"] = Transition(work)
	_ = m.Handle("go")
	m.Storage().trace = nil

	if err := m.Reset(); err != nil {
		t.Fatalf("重置失败: %v", err)
	}

	assertTrace(t, m, []string{"work.exit", "busy.exit", "active.exit", "standby.entry", "off.entry"})
	if m.State() != off {
		t.Errorf("重置后状态错误: got %v, want off", m.State())
	}
	last := m.Storage().transitions[len(m.Storage().transitions)-1]
	if last != [2]leaf{work, off} {
		t.Errorf("重置应触发转换钩子: %v", last)
	}
}

func TestReset_FromInitialReentersEverything(t *testing.T) {
	m := newTestMachine(t, off)

	if err := m.Reset(); err != nil {
		t.Fatalf("重置失败: %v", err)
	}
	assertTrace(t, m, []string{"off.exit", "standby.exit", "standby.entry", "off.entry"})
}

func TestStateMut(t *testing.T) {
	m := newTestMachine(t, off)

	*m.StateMut() = on

	if m.State() != on {
		t.Errorf("状态错误: got %v, want on", m.State())
	}
	assertTrace(t, m, nil)
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	m := newTestMachine(t, off, WithName("lamp"), WithLogger(logger.New(&buf, logger.DebugLevel)))
	m.Storage().replies["off"] = Transition(on)
	m.Storage().replies["on"] = Super[leaf]()
	m.Storage().replies["standby"] = Super[leaf]()

	_ = m.Handle("toggle")
	_ = m.Handle("ignored")

	out := buf.String()
	if !strings.Contains(out, "状态转换") || !strings.Contains(out, `"machine": "lamp"`) {
		t.Errorf("缺少转换日志: %q", out)
	}
	if !strings.Contains(out, "事件未被处理") {
		t.Errorf("缺少丢弃日志: %q", out)
	}
}
