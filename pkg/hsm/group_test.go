package hsm

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestGroup_AddRemove(t *testing.T) {
	g := NewGroup[string]()
	g.Add("lamp", newTestMachine(t, off))
	g.Add("worker", newTestMachine(t, work))

	if g.Count() != 2 {
		t.Errorf("状态机数量错误: got %d, want 2", g.Count())
	}
	if names := g.Names(); len(names) != 2 || names[0] != "lamp" {
		t.Errorf("名称错误: %v", names)
	}

	g.Remove("lamp")
	if g.Count() != 1 {
		t.Errorf("状态机数量错误: got %d, want 1", g.Count())
	}
	if _, ok := g.Get("lamp"); ok {
		t.Error("lamp 应已被移除")
	}
}

func TestGroup_Handle(t *testing.T) {
	g := NewGroup[string]()
	m := newTestMachine(t, off)
	m.Storage().replies["off"] = Transition(on)
	g.Add("lamp", m)

	if err := g.Handle("lamp", "toggle"); err != nil {
		t.Fatalf("处理事件失败: %v", err)
	}
	if m.State() != on {
		t.Errorf("状态错误: got %v, want on", m.State())
	}

	if err := g.Handle("missing", "toggle"); !errors.Is(err, ErrMachineNotFound) {
		t.Errorf("期望 ErrMachineNotFound, got %v", err)
	}
}

func TestGroup_Broadcast(t *testing.T) {
	g := NewGroup[string]()
	machines := make([]*testMachine, 0, 4)
	for _, name := range []string{"a", "b", "c", "d"} {
		m := newTestMachine(t, off)
		m.Storage().replies["off"] = Transition(on)
		machines = append(machines, m)
		g.Add(name, m)
	}
	var zero testMachine
	g.Add("broken", &zero)

	results := g.Broadcast(context.Background(), "toggle")

	if len(results) != 5 {
		t.Fatalf("结果数量错误: %d", len(results))
	}
	for _, name := range []string{"a", "b", "c", "d"} {
		if results[name] != nil {
			t.Errorf("%s 处理失败: %v", name, results[name])
		}
	}
	if !errors.Is(results["broken"], ErrNotInitialized) {
		t.Errorf("broken 应返回 ErrNotInitialized, got %v", results["broken"])
	}
	for _, m := range machines {
		if m.State() != on {
			t.Errorf("状态错误: got %v, want on", m.State())
		}
	}
}

func TestGroup_BroadcastCancelled(t *testing.T) {
	g := NewGroup[string]()
	g.Add("lamp", newTestMachine(t, off))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := g.Broadcast(ctx, "toggle")
	if !errors.Is(results["lamp"], context.Canceled) {
		t.Errorf("期望 context.Canceled, got %v", results["lamp"])
	}
}

func TestLocked_ConcurrentHandle(t *testing.T) {
	m := newTestMachine(t, off)
	m.Storage().replies["off"] = Transition(on)
	m.Storage().replies["on"] = Transition(off)
	l := NewLocked(m)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Handle("toggle")
			_ = l.State()
		}()
	}
	wg.Wait()

	var transitions int
	l.Do(func(m *testMachine) {
		transitions = len(m.Storage().transitions)
	})
	if transitions != 50 {
		t.Errorf("期望 50 次转换, got %d", transitions)
	}
	if l.State() != off {
		t.Errorf("偶数次切换后应回到 off, got %v", l.State())
	}

	if err := l.Reset(); err != nil {
		t.Errorf("重置失败: %v", err)
	}
}
