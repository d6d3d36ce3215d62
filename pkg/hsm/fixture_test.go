package hsm

// 测试用层次结构：
//
//	standby (root)        active (root)          loopA <-> loopB
//	 ├── off               └── busy                └── trapped
//	 └── on                     └── work
//	loose (无超状态)
type leaf int

const (
	off leaf = iota
	on
	work
	loose
	trapped
)

func (s leaf) String() string {
	return [...]string{"off", "on", "work", "loose", "trapped"}[s]
}

type group int

const (
	standby group = iota
	active
	busy
	loopA
	loopB
)

func (g group) String() string {
	return [...]string{"standby", "active", "busy", "loopA", "loopB"}[g]
}

// recorder 共享存储：记录动作顺序，并按节点名返回预设的处理结果
type recorder struct {
	trace       []string
	replies     map[string]Response[leaf]
	dispatched  []string
	transitions [][2]leaf
}

func newRecorder() recorder {
	return recorder{replies: make(map[string]Response[leaf])}
}

func (r *recorder) reply(node string) Response[leaf] {
	if resp, ok := r.replies[node]; ok {
		return resp
	}
	return Super[leaf]()
}

func (r *recorder) OnDispatch(node StateOrSuperstate[leaf, group], e string) {
	r.dispatched = append(r.dispatched, node.String()+":"+e)
}

func (r *recorder) OnTransition(from, to leaf) {
	r.transitions = append(r.transitions, [2]leaf{from, to})
}

func (s leaf) Handle(r *recorder, e string) Response[leaf] {
	return r.reply(s.String())
}

func (s leaf) Superstate() (group, bool) {
	switch s {
	case off, on:
		return standby, true
	case work:
		return busy, true
	case trapped:
		return loopA, true
	default:
		return 0, false
	}
}

func (s leaf) Entry(r *recorder) { r.trace = append(r.trace, s.String()+".entry") }
func (s leaf) Exit(r *recorder)  { r.trace = append(r.trace, s.String()+".exit") }

func (g group) Handle(r *recorder, e string) Response[leaf] {
	return r.reply(g.String())
}

func (g group) Superstate() (group, bool) {
	switch g {
	case busy:
		return active, true
	case loopA:
		return loopB, true
	case loopB:
		return loopA, true
	default:
		return 0, false
	}
}

func (g group) Entry(r *recorder) { r.trace = append(r.trace, g.String()+".entry") }
func (g group) Exit(r *recorder)  { r.trace = append(r.trace, g.String()+".exit") }
func (g group) Same(other group) bool {
	return g == other
}

type testMachine = Machine[leaf, group, recorder, string]
