package statemachine

import (
	"context"
	"errors"
)

// device 模拟被测系统，记录执行过的转换
type device struct {
	calls []string
	fail  map[string]error
}

func newDevice() *device {
	return &device{fail: make(map[string]error)}
}

func step(name string) Transition {
	return TransitionFunc(func(ctx context.Context, system interface{}) error {
		d := system.(*device)
		if err := d.fail[name]; err != nil {
			return err
		}
		d.calls = append(d.calls, name)
		return nil
	})
}

var errBoom = errors.New("boom")

// scenarioGraph Init -> Configured -> Running (各代价 1)，Init -> Running (代价 10)
func scenarioGraph() (*Graph, Declaration) {
	g := NewGraph()
	_ = g.Declare("configured", From("init", step("configure")))
	_ = g.Declare("running", From("configured", step("run")))
	_ = g.Declare("init", To("running", step("boot")).WithCost(10))
	return g, To("init", step("reset"))
}

func startedCrawler(t interface {
	Fatalf(format string, args ...interface{})
}, d *device, opts ...Option) *Crawler {
	g, initial := scenarioGraph()
	c, err := NewCrawler(d, g, initial, opts...)
	if err != nil {
		t.Fatalf("创建爬行器失败: %v", err)
	}
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("启动失败: %v", err)
	}
	return c
}
