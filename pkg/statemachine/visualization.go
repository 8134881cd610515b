package statemachine

import (
	"bytes"
	"strconv"
)

// VisualOptions 图形输出选项
type VisualOptions struct {
	ShowCost      bool // 在边上标注代价
	ShowFallbacks bool // 输出返回初始状态的注入边
}

// ToMermaid 输出 Mermaid stateDiagram-v2
func ToMermaid(g StateGraph, initial State, opts VisualOptions) string {
	var buf bytes.Buffer
	buf.WriteString("stateDiagram-v2\n")
	if initial != "" {
		buf.WriteString("\t[*] --> ")
		buf.WriteString(string(initial))
		buf.WriteByte('\n')
	}

	for _, s := range graphStates(g) {
		if len(g[s]) == 0 {
			buf.WriteString("\tstate ")
			buf.WriteString(string(s))
			buf.WriteByte('\n')
		}
	}

	for _, e := range graphEdges(g, opts) {
		buf.WriteByte('\t')
		buf.WriteString(string(e.From))
		buf.WriteString(" --> ")
		buf.WriteString(string(e.To))
		if opts.ShowCost {
			buf.WriteString(" : ")
			buf.WriteString(formatCost(e.Cost))
		}
		buf.WriteByte('\n')
	}
	return buf.String()
}

// ToDOT 输出 Graphviz digraph
func ToDOT(g StateGraph, initial State, opts VisualOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph crawler {\n\trankdir=LR;\n")
	if initial != "" {
		buf.WriteString("\t\"__start\" [shape=point];\n")
		buf.WriteString("\t\"__start\" -> " + strconv.Quote(string(initial)) + ";\n")
	}

	for _, s := range graphStates(g) {
		buf.WriteString("\t" + strconv.Quote(string(s)) + ";\n")
	}

	for _, e := range graphEdges(g, opts) {
		buf.WriteString("\t" + strconv.Quote(string(e.From)) + " -> " + strconv.Quote(string(e.To)))
		var attrs []string
		if opts.ShowCost {
			attrs = append(attrs, "label="+strconv.Quote(formatCost(e.Cost)))
		}
		if e.Fallback {
			attrs = append(attrs, "style=dashed")
		}
		if len(attrs) > 0 {
			buf.WriteString(" [")
			for i, a := range attrs {
				if i > 0 {
					buf.WriteString(", ")
				}
				buf.WriteString(a)
			}
			buf.WriteString("]")
		}
		buf.WriteString(";\n")
	}
	buf.WriteString("}\n")
	return buf.String()
}

// graphStates 所有出现过的状态（排序）
func graphStates(g StateGraph) []State {
	seen := make(map[State]struct{}, len(g))
	for s, targets := range g {
		seen[s] = struct{}{}
		for to := range targets {
			seen[to] = struct{}{}
		}
	}
	out := make([]State, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sortStates(out)
	return out
}

func graphEdges(g StateGraph, opts VisualOptions) []*Edge {
	var edges []*Edge
	for _, from := range graphStates(g) {
		for _, to := range sortedKeys(g[from]) {
			e := g[from][to]
			if e.Fallback && !opts.ShowFallbacks {
				continue
			}
			edges = append(edges, e)
		}
	}
	return edges
}

func formatCost(c float64) string {
	return strconv.FormatFloat(c, 'g', -1, 64)
}
