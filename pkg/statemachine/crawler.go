package statemachine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/junbin-yang/go-crawler/pkg/logger"
)

// Crawler 根据状态图把被测系统驱动到指定状态
//
// Crawler 不是并发安全的：Start 和 Move 必须由同一个调用方串行调用，
// 需要并发访问时使用 Concurrent 或 AsyncCrawler。
type Crawler struct {
	system  interface{}
	initial Declaration
	current State
	graph   StateGraph
	finder  PathFinder
	log     logger.Logger
	onEnter ActionFunc
	session string

	recordHistory bool
	historyLimit  int
	history       []History
}

var _ Navigator = (*Crawler)(nil)

// NewCrawler 创建爬行器并立即构建状态图
//
// initial 的 TargetState 是图的根，也是从任意状态都可以直接返回的状态。
func NewCrawler(system interface{}, g *Graph, initial Declaration, opts ...Option) (*Crawler, error) {
	if initial.TargetState == "" {
		return nil, newError("new crawler", "", ErrNoInitialState,
			"initial transition has no target state, nothing to build a graph from")
	}
	if initial.Transition == nil {
		return nil, newError("new crawler", initial.TargetState, ErrMalformedTransition,
			"initial transition to %q has no implementation", initial.TargetState)
	}
	if initial.cost() <= 0 {
		return nil, newError("new crawler", initial.TargetState, ErrInvalidCost,
			"initial transition has cost %v", initial.Cost)
	}
	if g == nil {
		g = NewGraph()
	}

	c := &Crawler{
		system:  system,
		initial: initial,
		finder:  DFSPathFinder{},
		log:     logger.NewNop(),
		session: uuid.NewString(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.graph = g.closure(initial.TargetState)
	c.injectInitialEdges()
	return c, nil
}

// injectInitialEdges 除初始状态外，每个状态都可以直接回到初始状态
func (c *Crawler) injectInitialEdges() {
	root := c.initial.TargetState
	for s, targets := range c.graph {
		if s == root {
			continue
		}
		targets[root] = &Edge{
			From:       s,
			To:         root,
			Cost:       c.initial.cost(),
			Transition: c.initial.Transition,
			Fallback:   true,
		}
	}
}

// State 返回当前状态，Start 之前为空
func (c *Crawler) State() State {
	return c.current
}

// Initial 返回初始状态
func (c *Crawler) Initial() State {
	return c.initial.TargetState
}

// Session 返回会话标识
func (c *Crawler) Session() string {
	return c.session
}

// Graph 返回状态图副本
func (c *Crawler) Graph() StateGraph {
	out := make(StateGraph, len(c.graph))
	for s, targets := range c.graph {
		cp := make(map[State]*Edge, len(targets))
		for to, e := range targets {
			edge := *e
			cp[to] = &edge
		}
		out[s] = cp
	}
	return out
}

// Start 执行初始转换，成功后当前状态为初始状态
func (c *Crawler) Start(ctx context.Context) error {
	from, to := c.current, c.initial.TargetState

	begin := time.Now()
	err := c.initial.Transition.Move(ctx, c.system)
	c.record(from, to, c.initial.cost(), err)
	if err != nil {
		c.log.Warn("initial transition failed",
			logger.String("session", c.session),
			logger.String("to", string(to)),
			logger.Err(err))
		return newError("start", to, fmt.Errorf("%w: %w", ErrTransitionFailed, err),
			"initial transition to %q failed: %v", to, err)
	}

	c.current = to
	c.log.Debug("crawler started",
		logger.String("session", c.session),
		logger.String("state", string(to)),
		logger.Duration("elapsed", time.Since(begin)))
	return c.enter(ctx, to)
}

// Move 沿代价最低的路径移动到 state
//
// 任一步失败时停在最后一个成功到达的状态，不回滚也不重试。
func (c *Crawler) Move(ctx context.Context, state State) error {
	path, err := c.Path(state)
	if err != nil {
		return err
	}
	if len(path) < 2 {
		return nil
	}
	if state == c.initial.TargetState {
		return c.Start(ctx)
	}

	c.log.Debug("moving",
		logger.String("session", c.session),
		logger.Any("path", path),
		logger.Float64("cost", PathCost(c.graph, path)))

	for _, next := range path[1:] {
		if err := ctx.Err(); err != nil {
			return newError("move", state, err,
				"move to %q interrupted at %q: %v", state, c.current, err)
		}
		if err := c.step(ctx, next); err != nil {
			return err
		}
	}
	return nil
}

// Path 返回 Move(state) 将要经过的状态（含当前状态），不执行任何转换
func (c *Crawler) Path(state State) ([]State, error) {
	if c.current == "" {
		return nil, newError("move", state, ErrNotStarted, "crawler is not started, call Start first")
	}
	if state == c.current {
		return []State{c.current}, nil
	}
	if state == c.initial.TargetState {
		return []State{c.current, state}, nil
	}

	path := c.finder.ShortestPath(c.graph, c.current, state)
	if !c.validPath(path, state) {
		return nil, newError("move", state, ErrUnreachable, "there is no way to achieve state %q", state)
	}
	return path, nil
}

// validPath 路径必须从当前状态出发、到达 target，且每一跳都有对应的边
func (c *Crawler) validPath(path []State, target State) bool {
	if len(path) < 2 || path[0] != c.current || path[len(path)-1] != target {
		return false
	}
	for i := 0; i+1 < len(path); i++ {
		if _, ok := c.graph.Edge(path[i], path[i+1]); !ok {
			return false
		}
	}
	return true
}

// step 执行一跳转换
func (c *Crawler) step(ctx context.Context, next State) error {
	from := c.current
	edge := c.graph[from][next]

	begin := time.Now()
	err := edge.Transition.Move(ctx, c.system)
	c.record(from, next, edge.Cost, err)
	if err != nil {
		c.log.Warn("transition failed",
			logger.String("session", c.session),
			logger.String("from", string(from)),
			logger.String("to", string(next)),
			logger.Err(err))
		return newError("move", next, fmt.Errorf("%w: %w", ErrTransitionFailed, err),
			"transition %q -> %q failed: %v", from, next, err)
	}

	c.current = next
	c.log.Debug("transition done",
		logger.String("session", c.session),
		logger.String("from", string(from)),
		logger.String("to", string(next)),
		logger.Duration("elapsed", time.Since(begin)))
	return c.enter(ctx, next)
}

func (c *Crawler) enter(ctx context.Context, state State) error {
	if c.onEnter == nil {
		return nil
	}
	if err := c.onEnter(ctx, state); err != nil {
		return newError("enter", state, err, "enter callback of %q failed: %v", state, err)
	}
	return nil
}
