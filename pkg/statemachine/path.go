package statemachine

import (
	"container/heap"
	"fmt"
	"math"
	"strings"
)

// PathFinder 在状态图中寻找总代价最低的路径
//
// 返回的路径包含起点和终点；不可达时返回 nil。
type PathFinder interface {
	ShortestPath(g StateGraph, start, end State) []State
}

// DFSPathFinder 枚举所有简单路径并选择代价最低的一条
//
// 最坏情况下复杂度是指数级，只适合小规模的状态图。
// 邻居按名称顺序访问，代价相同时取先找到的路径。
type DFSPathFinder struct{}

func (DFSPathFinder) ShortestPath(g StateGraph, start, end State) []State {
	return findShortestPath(g, start, end, nil)
}

// findShortestPath 每层递归使用独立的路径副本
func findShortestPath(g StateGraph, start, end State, path []State) []State {
	path = append(append(make([]State, 0, len(path)+1), path...), start)
	if start == end {
		return path
	}
	if len(g[start]) == 0 {
		return nil
	}

	var shortest []State
	best := math.Inf(1)
	for _, next := range sortedKeys(g[start]) {
		if containsState(path, next) {
			continue
		}
		candidate := findShortestPath(g, next, end, path)
		if candidate == nil {
			continue
		}
		if cost := PathCost(g, candidate); cost < best {
			shortest, best = candidate, cost
		}
	}
	return shortest
}

// DijkstraPathFinder 与 DFSPathFinder 契约一致，适合较大的状态图
type DijkstraPathFinder struct{}

func (DijkstraPathFinder) ShortestPath(g StateGraph, start, end State) []State {
	if start == end {
		return []State{start}
	}
	if _, ok := g[start]; !ok {
		return nil
	}

	dist := map[State]float64{start: 0}
	prev := make(map[State]State)
	done := make(map[State]bool)
	pq := &stateQueue{{state: start}}

	for pq.Len() > 0 {
		item := heap.Pop(pq).(queueItem)
		if done[item.state] {
			continue
		}
		done[item.state] = true
		if item.state == end {
			break
		}
		for _, next := range sortedKeys(g[item.state]) {
			if done[next] {
				continue
			}
			d := item.dist + g[item.state][next].Cost
			if old, seen := dist[next]; !seen || d < old {
				dist[next] = d
				prev[next] = item.state
				heap.Push(pq, queueItem{state: next, dist: d})
			}
		}
	}

	if !done[end] {
		return nil
	}
	var path []State
	for s := end; ; s = prev[s] {
		path = append(path, s)
		if s == start {
			break
		}
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// PathCost 计算路径上相邻状态之间转换代价之和
func PathCost(g StateGraph, path []State) float64 {
	var total float64
	for i := 0; i+1 < len(path); i++ {
		total += g[path[i]][path[i+1]].Cost
	}
	return total
}

// ParsePathFinder 根据名称选择寻路算法：dfs（默认）或 dijkstra
func ParsePathFinder(name string) (PathFinder, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "dfs":
		return DFSPathFinder{}, nil
	case "dijkstra":
		return DijkstraPathFinder{}, nil
	}
	return nil, fmt.Errorf("unknown path finder: %q", name)
}

func containsState(path []State, s State) bool {
	for _, p := range path {
		if p == s {
			return true
		}
	}
	return false
}

type queueItem struct {
	state State
	dist  float64
}

// stateQueue 按距离排序的最小堆，距离相同时按名称
type stateQueue []queueItem

func (q stateQueue) Len() int { return len(q) }
func (q stateQueue) Less(i, j int) bool {
	if q[i].dist != q[j].dist {
		return q[i].dist < q[j].dist
	}
	return q[i].state < q[j].state
}
func (q stateQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *stateQueue) Push(x interface{}) { *q = append(*q, x.(queueItem)) }
func (q *stateQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
