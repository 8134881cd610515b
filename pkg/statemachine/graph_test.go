package statemachine

import (
	"errors"
	"reflect"
	"testing"
)

func TestGraph_DeclareTarget(t *testing.T) {
	g := NewGraph()
	if err := g.Declare("idle", To("running", step("start")).WithCost(3)); err != nil {
		t.Fatalf("声明失败: %v", err)
	}

	e, ok := g.Transitions("idle")["running"]
	if !ok {
		t.Fatal("缺少 idle -> running")
	}
	if e.From != "idle" || e.To != "running" || e.Cost != 3 {
		t.Errorf("边错误: %+v", e)
	}
}

func TestGraph_DeclareSourceDerivesForwardEdge(t *testing.T) {
	g := NewGraph()
	if err := g.Declare("running", From("idle", step("start"))); err != nil {
		t.Fatalf("声明失败: %v", err)
	}

	e, ok := g.Transitions("idle")["running"]
	if !ok {
		t.Fatal("缺少派生的 idle -> running")
	}
	if e.Cost != DefaultCost {
		t.Errorf("默认代价错误: got %v, want %v", e.Cost, DefaultCost)
	}
	if len(g.Transitions("running")) != 0 {
		t.Errorf("派生转换不应出现在声明状态上: %v", g.Transitions("running"))
	}
}

func TestGraph_DeclareBothPrefersTarget(t *testing.T) {
	g := NewGraph()
	if err := g.Declare("a", Link(step("x"), "b", "c")); err != nil {
		t.Fatalf("声明失败: %v", err)
	}
	if _, ok := g.Transitions("a")["b"]; !ok {
		t.Error("缺少 a -> b")
	}
	if _, ok := g.Transitions("c")["a"]; ok {
		t.Error("同时设置目标和源时不应注册 c -> a")
	}
}

func TestGraph_DeclareMalformed(t *testing.T) {
	g := NewGraph()
	err := g.Declare("idle", To("running", step("start")), Declaration{Transition: step("bad")})
	if !errors.Is(err, ErrMalformedTransition) {
		t.Fatalf("期望 ErrMalformedTransition, got %v", err)
	}
	if _, ok := g.Transitions("idle")["running"]; !ok {
		t.Error("错误之前的声明应保留")
	}

	if err := g.Declare("", To("x", step("x"))); !errors.Is(err, ErrMalformedTransition) {
		t.Errorf("空状态声明期望 ErrMalformedTransition, got %v", err)
	}
}

func TestGraph_AddTransitionErrors(t *testing.T) {
	g := NewGraph()
	if err := g.AddTransition("a", "b", step("ab")); err != nil {
		t.Fatalf("添加转换失败: %v", err)
	}

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"empty from", g.AddTransition("", "b", step("x")), ErrMalformedTransition},
		{"empty to", g.AddTransition("a", "", step("x")), ErrMalformedTransition},
		{"nil transition", g.AddTransition("a", "c", nil), ErrMalformedTransition},
		{"zero cost", g.AddTransition("a", "c", step("x"), WithEdgeCost(0)), ErrInvalidCost},
		{"negative cost", g.AddTransition("a", "c", step("x"), WithEdgeCost(-1)), ErrInvalidCost},
		{"duplicate", g.AddTransition("a", "b", step("again")), ErrDuplicateTransition},
	}
	for _, tt := range tests {
		if !errors.Is(tt.err, tt.want) {
			t.Errorf("%s: got %v, want %v", tt.name, tt.err, tt.want)
		}
	}
}

func TestGraph_States(t *testing.T) {
	g := NewGraph()
	g.AddState("zeta", "")
	_ = g.AddTransition("beta", "alpha", step("ba"))

	want := []State{"alpha", "beta", "zeta"}
	if got := g.States(); !reflect.DeepEqual(got, want) {
		t.Errorf("States() = %v, want %v", got, want)
	}
	if !g.HasState("zeta") || g.HasState("") {
		t.Error("HasState 结果错误")
	}
	if g.String() != "Graph{states: 3, transitions: 1}" {
		t.Errorf("String() = %s", g.String())
	}
}

func TestGraph_TransitionsIsCopy(t *testing.T) {
	g := NewGraph()
	_ = g.AddTransition("a", "b", step("ab"))

	m := g.Transitions("a")
	m["b"].Cost = 100
	delete(m, "b")

	e, ok := g.Transitions("a")["b"]
	if !ok || e.Cost != DefaultCost {
		t.Errorf("修改副本不应影响 Graph: %+v", e)
	}
}
