package statemachine

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Render 以 PlantUML 状态图格式输出状态机结构
func (h *HSM) Render(w io.Writer) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "@startuml %s\n", plantumlID(State(h.opts.name)))
	for _, s := range h.declared {
		if _, ok := h.parent[s]; !ok {
			h.renderState(bw, s, 0)
		}
	}
	fmt.Fprintf(bw, "[*] --> %s\n", plantumlID(h.initial))
	for _, key := range h.order {
		t := h.transitions[key]
		fmt.Fprintf(bw, "%s --> %s : %s\n", plantumlID(t.From), plantumlID(t.To), t.Event)
	}
	fmt.Fprintln(bw, "@enduml")
	return bw.Flush()
}

func (h *HSM) renderState(w io.Writer, s State, depth int) {
	indent := strings.Repeat("  ", depth)
	id := plantumlID(s)

	if id == string(s) {
		fmt.Fprintf(w, "%sstate %s", indent, id)
	} else {
		fmt.Fprintf(w, "%sstate %q as %s", indent, s, id)
	}

	children := h.children[s]
	if len(children) == 0 {
		fmt.Fprintln(w)
	} else {
		fmt.Fprintln(w, " {")
		for _, c := range children {
			h.renderState(w, c, depth+1)
		}
		fmt.Fprintf(w, "%s}\n", indent)
	}

	if _, ok := h.onEnter[s]; ok {
		fmt.Fprintf(w, "%s%s : entry\n", indent, id)
	}
	if _, ok := h.onExit[s]; ok {
		fmt.Fprintf(w, "%s%s : exit\n", indent, id)
	}
}

// plantumlID 将状态名转换为合法的 PlantUML 标识符
func plantumlID(s State) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '_', r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			return r
		default:
			return '_'
		}
	}, string(s))
}
