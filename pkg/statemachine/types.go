package statemachine

import "context"

// State 表示状态机中的状态，以字符串值作为标识，空字符串表示未设置
type State string

// Transition 状态转换的执行逻辑
//
// 实现是无状态的模板：每次执行时爬行器传入被测系统，
// 转换负责把系统驱动到目标状态，返回错误表示失败。
type Transition interface {
	Move(ctx context.Context, system interface{}) error
}

// TransitionFunc 函数适配器
type TransitionFunc func(ctx context.Context, system interface{}) error

// Move 实现 Transition
func (f TransitionFunc) Move(ctx context.Context, system interface{}) error {
	return f(ctx, system)
}

// ActionFunc 在状态进入时执行
type ActionFunc func(ctx context.Context, state State) error

// StateGraph 爬行器使用的邻接表：源状态 -> 目标状态 -> 边
type StateGraph map[State]map[State]*Edge

// Neighbors 返回 s 的所有直接后继
func (g StateGraph) Neighbors(s State) []State {
	next := make([]State, 0, len(g[s]))
	for to := range g[s] {
		next = append(next, to)
	}
	return next
}

// Edge 返回 from -> to 的边
func (g StateGraph) Edge(from, to State) (*Edge, bool) {
	e, ok := g[from][to]
	return e, ok
}

// Navigator 定义状态导航的核心接口
type Navigator interface {
	// State 返回当前状态
	State() State

	// Start 执行初始转换
	Start(ctx context.Context) error

	// Move 移动到目标状态
	Move(ctx context.Context, state State) error
}
