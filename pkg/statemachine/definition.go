package statemachine

import (
	"fmt"

	"github.com/junbin-yang/go-hsm/pkg/config"
	"github.com/junbin-yang/go-hsm/pkg/logger"
)

// Definition 可序列化的状态机定义
type Definition struct {
	Name        string          `yaml:"name" json:"name"`
	Initial     State           `yaml:"initial" json:"initial"`
	States      []StateDef      `yaml:"states" json:"states"`
	Transitions []TransitionDef `yaml:"transitions" json:"transitions"`
}

// StateDef 状态声明，Parent 为空表示顶层状态
type StateDef struct {
	Name   State `yaml:"name" json:"name"`
	Parent State `yaml:"parent,omitempty" json:"parent,omitempty"`
}

// TransitionDef 转换声明
type TransitionDef struct {
	From  State `yaml:"from" json:"from"`
	To    State `yaml:"to" json:"to"`
	Event Event `yaml:"event" json:"event"`
}

// LoadDefinition 从 YAML 或 JSON 文件加载状态机定义，格式按文件后缀识别
func LoadDefinition(path string, log *logger.Logger) (*Definition, error) {
	def := &Definition{}
	cm := config.NewConfigManager(def,
		config.WithConfigFormats(&config.YAMLSerializer{}, &config.JSONSerializer{}),
		config.WithLogger(log),
	)
	if err := cm.LoadConfig(path); err != nil {
		return nil, err
	}
	if def.Initial == "" {
		return nil, fmt.Errorf("%w: %s: initial state missing", ErrStateNotFound, path)
	}
	return def, nil
}

// Build 按定义创建并校验层次状态机，定义中的名称作为默认状态机名称
func (d *Definition) Build(opts ...Option) (*HSM, error) {
	h := NewHSM(d.Initial, d.options(opts)...)
	if err := d.populate(h); err != nil {
		return nil, err
	}
	return h, nil
}

// BuildAsync 按定义创建异步状态机
func (d *Definition) BuildAsync(queueSize int, opts ...Option) (*AsyncHSM, error) {
	a := NewAsyncHSM(d.Initial, queueSize, d.options(opts)...)
	if err := d.populate(a.HSM); err != nil {
		return nil, err
	}
	return a, nil
}

func (d *Definition) options(opts []Option) []Option {
	if d.Name == "" {
		return opts
	}
	return append([]Option{WithName(d.Name)}, opts...)
}

// populate 将定义写入 h。定义文件中的初始状态与转换两端都必须在 states 中声明
// （作为状态名或父状态），拼写错误的名称不会被当作新的顶层状态。
func (d *Definition) populate(h *HSM) error {
	declared := make(map[State]bool, len(d.States)*2)
	for _, s := range d.States {
		declared[s.Name] = true
		if s.Parent != "" {
			declared[s.Parent] = true
		}
	}
	if !declared[d.Initial] {
		return fmt.Errorf("%w: initial state %s is not declared", ErrStateNotFound, d.Initial)
	}
	for _, t := range d.Transitions {
		for _, s := range []State{t.From, t.To} {
			if !declared[s] {
				return fmt.Errorf("%w: %s --%s--> %s references undeclared state %s",
					ErrStateNotFound, t.From, t.Event, t.To, s)
			}
		}
	}

	for _, s := range d.States {
		if err := h.AddState(s.Name, s.Parent); err != nil {
			return err
		}
	}
	for _, t := range d.Transitions {
		if err := h.AddTransition(t.From, t.To, t.Event); err != nil {
			return fmt.Errorf("%w: %s --%s-->", err, t.From, t.Event)
		}
	}
	return h.Validate()
}

// Definition 导出当前状态机的定义，回调与守卫不会被导出
func (h *HSM) Definition() *Definition {
	h.mu.RLock()
	defer h.mu.RUnlock()

	def := &Definition{Name: h.opts.name, Initial: h.initial}
	for _, s := range h.declared {
		def.States = append(def.States, StateDef{Name: s, Parent: h.parent[s]})
	}
	for _, key := range h.order {
		t := h.transitions[key]
		def.Transitions = append(def.Transitions, TransitionDef{From: t.From, To: t.To, Event: t.Event})
	}
	return def
}
