package statemachine

import (
	"context"
	"errors"
	"testing"
)

func newTurnstile() *FSM {
	fsm := NewFSM("locked")
	_ = fsm.AddTransition("locked", "unlocked", "coin")
	_ = fsm.AddTransition("unlocked", "locked", "push")
	_ = fsm.AddTransition("unlocked", "unlocked", "coin")
	return fsm
}

func TestFSM_BasicTransition(t *testing.T) {
	fsm := newTurnstile()

	if fsm.Current() != "locked" {
		t.Errorf("初始状态错误: got %v, want locked", fsm.Current())
	}

	ctx := context.Background()
	if err := fsm.Trigger(ctx, "coin"); err != nil {
		t.Fatalf("触发事件失败: %v", err)
	}
	if fsm.Current() != "unlocked" {
		t.Errorf("状态转换失败: got %v, want unlocked", fsm.Current())
	}

	if err := fsm.Trigger(ctx, "push"); err != nil {
		t.Fatalf("触发事件失败: %v", err)
	}
	if fsm.Current() != "locked" {
		t.Errorf("状态转换失败: got %v, want locked", fsm.Current())
	}
}

func TestFSM_InvalidTransition(t *testing.T) {
	fsm := newTurnstile()

	err := fsm.Trigger(context.Background(), "push")
	if err != ErrInvalidTransition {
		t.Errorf("期望 ErrInvalidTransition, got %v", err)
	}
	if fsm.Current() != "locked" {
		t.Errorf("无效事件不应改变状态: got %v", fsm.Current())
	}
}

func TestFSM_Guard(t *testing.T) {
	fsm := NewFSM("idle")

	guard := func(ctx context.Context, from, to State) bool {
		return false
	}
	if err := fsm.AddTransitionWithGuard("idle", "running", "start", guard); err != nil {
		t.Fatalf("添加转换失败: %v", err)
	}

	err := fsm.Trigger(context.Background(), "start")
	if err != ErrTransitionDenied {
		t.Errorf("期望 ErrTransitionDenied, got %v", err)
	}
}

func TestFSM_Callbacks(t *testing.T) {
	fsm := newTurnstile()

	var order []string
	_ = fsm.SetOnEnter("locked", func(ctx context.Context, state State) error {
		order = append(order, "enter "+string(state))
		return nil
	})
	_ = fsm.SetOnExit("locked", func(ctx context.Context, state State) error {
		order = append(order, "exit "+string(state))
		return nil
	})
	_ = fsm.SetOnEnter("unlocked", func(ctx context.Context, state State) error {
		order = append(order, "enter "+string(state))
		return nil
	})
	_ = fsm.SetOnTransition("locked", "coin", func(ctx context.Context, from, to State) error {
		order = append(order, "transition "+string(from)+"->"+string(to))
		return nil
	})

	// 首次 Trigger 自动启动，先执行初始状态的进入动作
	_ = fsm.Trigger(context.Background(), "coin")

	want := []string{"enter locked", "transition locked->unlocked", "exit locked", "enter unlocked"}
	if len(order) != len(want) {
		t.Fatalf("回调顺序错误: got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("回调顺序错误: got %v, want %v", order, want)
			break
		}
	}
}

func TestFSM_SelfTransition(t *testing.T) {
	fsm := newTurnstile()

	entered := 0
	_ = fsm.SetOnEnter("unlocked", func(ctx context.Context, state State) error {
		entered++
		return nil
	})

	ctx := context.Background()
	_ = fsm.Trigger(ctx, "coin")
	_ = fsm.Trigger(ctx, "coin")

	if entered != 2 {
		t.Errorf("自转换应重新进入状态: entered %d, want 2", entered)
	}
}

func TestFSM_CallbackError(t *testing.T) {
	fsm := newTurnstile()
	boom := errors.New("boom")
	_ = fsm.SetOnEnter("unlocked", func(ctx context.Context, state State) error {
		return boom
	})

	err := fsm.Trigger(context.Background(), "coin")
	if !errors.Is(err, boom) {
		t.Errorf("期望回调错误, got %v", err)
	}
	if fsm.Current() != "unlocked" {
		t.Errorf("进入动作失败不应回滚状态: got %v", fsm.Current())
	}
}

func TestFSM_Reset(t *testing.T) {
	fsm := newTurnstile()
	_ = fsm.Trigger(context.Background(), "coin")

	if err := fsm.Reset(); err != nil {
		t.Fatalf("重置失败: %v", err)
	}
	if fsm.Current() != "locked" {
		t.Errorf("重置后状态错误: got %v, want locked", fsm.Current())
	}
}

func TestFSM_Can(t *testing.T) {
	fsm := newTurnstile()

	if !fsm.Can("coin") {
		t.Error("应该可以触发 coin 事件")
	}
	if fsm.Can("push") {
		t.Error("不应该可以触发 push 事件")
	}
}

func TestFSM_History(t *testing.T) {
	fsm := NewFSM("locked", WithHistory(10))
	_ = fsm.AddTransition("locked", "unlocked", "coin")
	if err := fsm.Start(context.Background()); err != nil {
		t.Fatalf("启动失败: %v", err)
	}
	_ = fsm.Trigger(context.Background(), "coin")

	history := fsm.History()
	if len(history) != 1 || history[0].Event != "coin" {
		t.Errorf("历史记录错误: %+v", history)
	}
}
