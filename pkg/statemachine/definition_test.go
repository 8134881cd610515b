package statemachine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

const scenarioYAML = `
initial:
  target: init
  action: reset
states:
  configured:
    - source: init
      action: configure
  running:
    - source: configured
      action: run
  init:
    - target: running
      action: boot
      cost: 10
`

func scenarioActions() map[string]Transition {
	return map[string]Transition{
		"reset":     step("reset"),
		"configure": step("configure"),
		"run":       step("run"),
		"boot":      step("boot"),
	}
}

func TestLoadDefinition(t *testing.T) {
	g, initial, err := LoadDefinition([]byte(scenarioYAML), scenarioActions())
	if err != nil {
		t.Fatalf("加载定义失败: %v", err)
	}
	if initial.TargetState != "init" {
		t.Errorf("初始状态错误: %v", initial.TargetState)
	}
	if e := g.Transitions("init")["running"]; e == nil || e.Cost != 10 {
		t.Errorf("init -> running 错误: %+v", e)
	}

	d := newDevice()
	c, err := NewCrawler(d, g, initial)
	if err != nil {
		t.Fatalf("创建爬行器失败: %v", err)
	}
	ctx := context.Background()
	_ = c.Start(ctx)
	if err := c.Move(ctx, "running"); err != nil {
		t.Fatalf("移动失败: %v", err)
	}
	want := []string{"reset", "configure", "run"}
	if !reflect.DeepEqual(d.calls, want) {
		t.Errorf("转换顺序错误: got %v, want %v", d.calls, want)
	}
}

func TestLoadDefinition_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want error
	}{
		{
			name: "unknown action",
			yaml: "initial: {target: init, action: reset}\nstates:\n  a:\n    - {target: b, action: fly}\n",
			want: ErrUnknownAction,
		},
		{
			name: "unknown initial action",
			yaml: "initial: {target: init, action: nope}\n",
			want: ErrUnknownAction,
		},
		{
			name: "malformed",
			yaml: "initial: {target: init, action: reset}\nstates:\n  a:\n    - {action: run}\n",
			want: ErrMalformedTransition,
		},
		{
			name: "negative cost",
			yaml: "initial: {target: init, action: reset}\nstates:\n  a:\n    - {target: b, action: run, cost: -2}\n",
			want: ErrInvalidCost,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := LoadDefinition([]byte(tt.yaml), scenarioActions())
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}

	if _, _, err := LoadDefinition([]byte("initial: [oops"), scenarioActions()); err == nil {
		t.Error("非法 YAML 应返回错误")
	}
	if _, _, err := LoadDefinition([]byte("unknown_key: 1\n"), scenarioActions()); err == nil {
		t.Error("未知字段应返回错误")
	}
}

func TestLoadDefinitionFile(t *testing.T) {
	path := filepath.Join("..", "..", "internal", "testdata", "device.yml")
	g, initial, err := LoadDefinitionFile(path, scenarioActions())
	if err != nil {
		t.Fatalf("加载定义文件失败: %v", err)
	}
	if initial.TargetState != "init" || !g.HasState("running") {
		t.Errorf("定义内容错误: %v %v", initial.TargetState, g.States())
	}

	if _, _, err := LoadDefinitionFile(filepath.Join(t.TempDir(), "none.yml"), nil); err == nil {
		t.Error("文件不存在应返回错误")
	}
}

func TestMarshalDefinition(t *testing.T) {
	def, err := ParseDefinition([]byte(scenarioYAML))
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	data, err := MarshalDefinition(def)
	if err != nil {
		t.Fatalf("序列化失败: %v", err)
	}

	file := filepath.Join(t.TempDir(), "def.yml")
	_ = os.WriteFile(file, data, 0644)
	if _, _, err := LoadDefinitionFile(file, scenarioActions()); err != nil {
		t.Errorf("重新加载失败: %v", err)
	}
}
