package statemachine

import (
	"fmt"
	"sort"
	"sync"
)

// Graph 状态与转换的声明构建器
//
// 声明阶段结束后 Graph 可被多个爬行器共享，爬行器只读取并复制其中的边。
type Graph struct {
	mu     sync.RWMutex
	states map[State]struct{}
	edges  map[State]map[State]*Edge
}

// NewGraph 创建空的状态图构建器
func NewGraph() *Graph {
	return &Graph{
		states: make(map[State]struct{}),
		edges:  make(map[State]map[State]*Edge),
	}
}

// AddState 注册没有转换的状态
func (g *Graph) AddState(states ...State) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, s := range states {
		if s != "" {
			g.states[s] = struct{}{}
		}
	}
}

// AddTransition 显式注册 from -> to
func (g *Graph) AddTransition(from, to State, t Transition, opts ...EdgeOption) error {
	e := &Edge{From: from, To: to, Cost: DefaultCost, Transition: t}
	for _, opt := range opts {
		opt(e)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	return g.addEdge(e)
}

// Declare 按声明规则为 owner 注册转换
//
//   - TargetState 已设置: owner -> TargetState（同时设置 SourceState 时忽略后者）
//   - 只设置 SourceState: 派生 SourceState -> owner，派生边只携带正向
//   - 两者都未设置: ErrMalformedTransition
//
// 遇到第一个错误即返回，之前的声明保留。
func (g *Graph) Declare(owner State, decls ...Declaration) error {
	if owner == "" {
		return newError("declare", owner, ErrMalformedTransition, "declaring state is empty")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.states[owner] = struct{}{}
	for i, d := range decls {
		var e *Edge
		switch {
		case d.TargetState != "":
			e = &Edge{From: owner, To: d.TargetState, Cost: d.cost(), Transition: d.Transition}
		case d.SourceState != "":
			e = &Edge{From: d.SourceState, To: owner, Cost: d.cost(), Transition: d.Transition}
		default:
			return newError("declare", owner, ErrMalformedTransition,
				"transition #%d of state %q has neither target nor source state", i, owner)
		}
		if err := g.addEdge(e); err != nil {
			return err
		}
	}
	return nil
}

// addEdge 调用方需持有写锁
func (g *Graph) addEdge(e *Edge) error {
	if e.From == "" || e.To == "" {
		return newError("add transition", "", ErrMalformedTransition,
			"transition %q -> %q needs both states", e.From, e.To)
	}
	if e.Transition == nil {
		return newError("add transition", e.From, ErrMalformedTransition,
			"transition %q -> %q has no implementation", e.From, e.To)
	}
	if e.Cost <= 0 {
		return newError("add transition", e.From, ErrInvalidCost,
			"transition %q -> %q has cost %v", e.From, e.To, e.Cost)
	}

	targets, ok := g.edges[e.From]
	if !ok {
		targets = make(map[State]*Edge)
		g.edges[e.From] = targets
	}
	if _, exists := targets[e.To]; exists {
		return newError("add transition", e.From, ErrDuplicateTransition,
			"transition %q -> %q already declared", e.From, e.To)
	}
	targets[e.To] = e
	g.states[e.From] = struct{}{}
	g.states[e.To] = struct{}{}
	return nil
}

// Transitions 返回 s 的转换表副本
func (g *Graph) Transitions(s State) map[State]*Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make(map[State]*Edge, len(g.edges[s]))
	for to, e := range g.edges[s] {
		cp := *e
		out[to] = &cp
	}
	return out
}

// States 返回所有已注册状态（排序）
func (g *Graph) States() []State {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]State, 0, len(g.states))
	for s := range g.states {
		out = append(out, s)
	}
	sortStates(out)
	return out
}

// HasState 判断状态是否已注册
func (g *Graph) HasState(s State) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.states[s]
	return ok
}

// closure 从 root 出发深度优先收集所有可达状态及其出边
func (g *Graph) closure(root State) StateGraph {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make(StateGraph)
	var visit func(s State)
	visit = func(s State) {
		if _, seen := out[s]; seen {
			return
		}
		targets := make(map[State]*Edge, len(g.edges[s]))
		out[s] = targets
		for to, e := range g.edges[s] {
			cp := *e
			targets[to] = &cp
		}
		for _, to := range sortedKeys(g.edges[s]) {
			visit(to)
		}
	}
	visit(root)
	return out
}

// String 便于调试
func (g *Graph) String() string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n := 0
	for _, targets := range g.edges {
		n += len(targets)
	}
	return fmt.Sprintf("Graph{states: %d, transitions: %d}", len(g.states), n)
}

func sortStates(states []State) {
	sort.Slice(states, func(i, j int) bool { return states[i] < states[j] })
}

func sortedKeys(m map[State]*Edge) []State {
	keys := make([]State, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sortStates(keys)
	return keys
}
