package hsm

import "fmt"

// chainDepth 返回超状态 u 的深度：根为 0，每向下一层加一，不存在时为 -1
func (m *Machine[S, U, M, E]) chainDepth(u U, ok bool) (int, error) {
	depth := -1
	for ok {
		depth++
		if depth >= m.opts.maxDepth {
			return 0, fmt.Errorf("%w: limit %d", ErrMaxDepthExceeded, m.opts.maxDepth)
		}
		u, ok = u.Superstate()
	}
	return depth, nil
}

// depth 返回叶子状态的深度（祖先数量）
func (m *Machine[S, U, M, E]) depth(s S) (int, error) {
	d, err := m.chainDepth(s.Superstate())
	if err != nil {
		return 0, err
	}
	return d + 1, nil
}

// ancestor 返回当前状态向上第 n 层的超状态（n >= 1）
func (m *Machine[S, U, M, E]) ancestor(n int) (U, bool) {
	u, ok := m.state.Superstate()
	for i := 1; i < n && ok; i++ {
		u, ok = u.Superstate()
	}
	return u, ok
}

// transitionPath 计算从当前状态转换到 target 需要退出与进入的层数。
//
// source 为产生转换的节点距当前叶子状态的层数（0 表示叶子自身）。
// 公共祖先取 source 的真祖先链与 target 的祖先链中最深的交点，
// 因此 source 自身总会被退出并重新进入。
func (m *Machine[S, U, M, E]) transitionPath(source int, target S) (exitLevels, enterLevels int, err error) {
	leafDepth, err := m.depth(m.state)
	if err != nil {
		return 0, 0, err
	}

	src, srcOK := m.ancestor(source + 1)
	srcDepth := leafDepth - source - 1
	if !srcOK {
		srcDepth = -1
	}

	dst, dstOK := target.Superstate()
	dstDepth, err := m.chainDepth(dst, dstOK)
	if err != nil {
		return 0, 0, err
	}

	exitLevels = source + 1
	enterLevels = 1

	for srcDepth > dstDepth {
		src, srcOK = src.Superstate()
		srcDepth--
		exitLevels++
	}
	for dstDepth > srcDepth {
		dst, dstOK = dst.Superstate()
		dstDepth--
		enterLevels++
	}
	for srcOK && dstOK && !src.Same(dst) {
		src, srcOK = src.Superstate()
		dst, dstOK = dst.Superstate()
		exitLevels++
		enterLevels++
	}

	return exitLevels, enterLevels, nil
}

// exit 从当前状态开始向上执行 levels 个退出动作
func (m *Machine[S, U, M, E]) exit(levels int) {
	if levels <= 0 {
		return
	}
	m.state.Exit(&m.storage)

	u, ok := m.state.Superstate()
	for i := 1; i < levels && ok; i++ {
		u.Exit(&m.storage)
		u, ok = u.Superstate()
	}
}

// enter 按从根到叶的顺序执行 target 链上最低 levels 个节点的进入动作
func (m *Machine[S, U, M, E]) enter(target S, levels int) {
	if levels <= 0 {
		return
	}
	u, ok := target.Superstate()
	m.enterSuperstate(u, ok, levels-1)
	target.Entry(&m.storage)
}

func (m *Machine[S, U, M, E]) enterSuperstate(u U, ok bool, levels int) {
	if levels <= 0 || !ok {
		return
	}
	parent, hasParent := u.Superstate()
	m.enterSuperstate(parent, hasParent, levels-1)
	u.Entry(&m.storage)
}
