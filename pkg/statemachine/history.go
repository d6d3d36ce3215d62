package statemachine

import "time"

// History 状态转换记录
type History struct {
	From      State     `json:"from" yaml:"from"`
	To        State     `json:"to" yaml:"to"`
	Event     Event     `json:"event,omitempty" yaml:"event,omitempty"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// history 保留最近 limit 条记录
type history struct {
	limit   int
	entries []History
}

func (h *history) add(e History) {
	if h.limit <= 0 {
		return
	}
	if len(h.entries) >= h.limit {
		copy(h.entries, h.entries[1:])
		h.entries = h.entries[:len(h.entries)-1]
	}
	h.entries = append(h.entries, e)
}

// History 获取状态转换历史，需要通过 WithHistory 启用
func (h *HSM) History() []History {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]History{}, h.history.entries...)
}

// ClearHistory 清空历史记录
func (h *HSM) ClearHistory() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.history.entries = nil
}
