package hsm

import "testing"

func TestTransitionPath(t *testing.T) {
	tests := []struct {
		current leaf
		source  int
		target  leaf
		exit    int
		enter   int
	}{
		{off, 0, on, 1, 1},
		{off, 1, on, 2, 2},
		{off, 0, off, 1, 1},
		{work, 0, off, 3, 2},
		{work, 1, work, 2, 2},
		{work, 2, work, 3, 3},
		{loose, 0, work, 1, 3},
		{work, 0, loose, 3, 1},
	}

	for _, tt := range tests {
		m := newTestMachine(t, tt.current)
		exit, enter, err := m.transitionPath(tt.source, tt.target)
		if err != nil {
			t.Fatalf("%v -> %v: %v", tt.current, tt.target, err)
		}
		if exit != tt.exit || enter != tt.enter {
			t.Errorf("%v(source %d) -> %v: got (%d, %d), want (%d, %d)",
				tt.current, tt.source, tt.target, exit, enter, tt.exit, tt.enter)
		}
	}
}

func TestDepth(t *testing.T) {
	m := newTestMachine(t, off)
	cases := map[leaf]int{off: 1, on: 1, work: 2, loose: 0}
	for s, want := range cases {
		got, err := m.depth(s)
		if err != nil {
			t.Fatalf("depth(%v): %v", s, err)
		}
		if got != want {
			t.Errorf("depth(%v) = %d, want %d", s, got, want)
		}
	}

	if d, _ := m.chainDepth(group(0), false); d != -1 {
		t.Errorf("不存在的超状态深度应为 -1, got %d", d)
	}
}

func TestResponse(t *testing.T) {
	var zero Response[leaf]
	if zero.Kind() != KindHandled {
		t.Errorf("零值应为 Handled, got %v", zero.Kind())
	}

	if _, ok := Super[leaf]().Target(); ok {
		t.Error("Super 不应有目标")
	}

	target, ok := Transition(work).Target()
	if !ok || target != work {
		t.Errorf("Transition 目标错误: %v %v", target, ok)
	}
	if Transition(work).String() != "transition" {
		t.Errorf("String 错误: %s", Transition(work).String())
	}
}
