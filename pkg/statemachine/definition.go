package statemachine

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v2"
)

// Definition YAML 形式的状态图定义
//
//	initial: {target: init, action: reset}
//	states:
//	  configured:
//	    - {source: init, action: configure}
//	  init:
//	    - {target: running, action: boot, cost: 10}
type Definition struct {
	Initial DeclarationSpec              `yaml:"initial"`
	States  map[string][]DeclarationSpec `yaml:"states"`
}

// DeclarationSpec 单条转换声明，action 引用注册的转换实现
type DeclarationSpec struct {
	Target string  `yaml:"target,omitempty"`
	Source string  `yaml:"source,omitempty"`
	Action string  `yaml:"action"`
	Cost   float64 `yaml:"cost,omitempty"`
}

// ParseDefinition 解析 YAML 定义
func ParseDefinition(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.UnmarshalStrict(data, &def); err != nil {
		return nil, fmt.Errorf("parse definition failed: %w", err)
	}
	return &def, nil
}

// LoadDefinition 解析 YAML 定义并构建状态图和初始转换
func LoadDefinition(data []byte, actions map[string]Transition) (*Graph, Declaration, error) {
	def, err := ParseDefinition(data)
	if err != nil {
		return nil, Declaration{}, err
	}
	return def.Build(actions)
}

// LoadDefinitionFile 从文件加载定义
func LoadDefinitionFile(path string, actions map[string]Transition) (*Graph, Declaration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Declaration{}, fmt.Errorf("read definition failed: %w", err)
	}
	return LoadDefinition(data, actions)
}

// Build 按声明规则构建状态图，状态按名称顺序处理
func (d *Definition) Build(actions map[string]Transition) (*Graph, Declaration, error) {
	initial, err := d.Initial.declaration(actions)
	if err != nil {
		return nil, Declaration{}, err
	}

	names := make([]string, 0, len(d.States))
	for name := range d.States {
		names = append(names, name)
	}
	sort.Strings(names)

	g := NewGraph()
	for _, name := range names {
		specs := d.States[name]
		decls := make([]Declaration, 0, len(specs))
		for _, spec := range specs {
			decl, err := spec.declaration(actions)
			if err != nil {
				return nil, Declaration{}, err
			}
			decls = append(decls, decl)
		}
		if err := g.Declare(State(name), decls...); err != nil {
			return nil, Declaration{}, err
		}
	}
	return g, initial, nil
}

func (s DeclarationSpec) declaration(actions map[string]Transition) (Declaration, error) {
	t, ok := actions[s.Action]
	if !ok || t == nil {
		return Declaration{}, newError("load definition", State(s.Target), ErrUnknownAction,
			"action %q is not registered", s.Action)
	}
	return Link(t, State(s.Target), State(s.Source)).WithCost(s.Cost), nil
}

// MarshalDefinition 将定义序列化为 YAML
func MarshalDefinition(d *Definition) ([]byte, error) {
	return yaml.Marshal(d)
}
