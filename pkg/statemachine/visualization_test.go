package statemachine

import (
	"strings"
	"testing"
)

func TestToMermaid(t *testing.T) {
	c := startedCrawler(t, newDevice())

	got := ToMermaid(c.Graph(), c.Initial(), VisualOptions{ShowCost: true})
	want := "stateDiagram-v2\n" +
		"\t[*] --> init\n" +
		"\tconfigured --> running : 1\n" +
		"\tinit --> configured : 1\n" +
		"\tinit --> running : 10\n"
	if got != want {
		t.Errorf("Mermaid 输出错误:\ngot:\n%s\nwant:\n%s", got, want)
	}

	withFallbacks := ToMermaid(c.Graph(), c.Initial(), VisualOptions{ShowFallbacks: true})
	if !strings.Contains(withFallbacks, "\trunning --> init\n") {
		t.Errorf("应包含返回初始状态的边:\n%s", withFallbacks)
	}
}

func TestToMermaid_IsolatedState(t *testing.T) {
	g := NewGraph()
	c, _ := NewCrawler(nil, g, To("alone", step("reset")))

	got := ToMermaid(c.Graph(), c.Initial(), VisualOptions{})
	if !strings.Contains(got, "\tstate alone\n") {
		t.Errorf("孤立状态应被声明:\n%s", got)
	}
}

func TestToDOT(t *testing.T) {
	c := startedCrawler(t, newDevice())

	got := ToDOT(c.Graph(), c.Initial(), VisualOptions{ShowCost: true, ShowFallbacks: true})
	for _, want := range []string{
		"digraph crawler {",
		"\"__start\" -> \"init\";",
		"\"init\" -> \"running\" [label=\"10\"];",
		"\"running\" -> \"init\" [label=\"1\", style=dashed];",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("DOT 输出缺少 %q:\n%s", want, got)
		}
	}
	if !strings.HasSuffix(got, "}\n") {
		t.Errorf("DOT 输出未闭合:\n%s", got)
	}
}
