package statemachine

// DefaultCost 未指定代价时使用的转换代价
const DefaultCost = 1.0

// Edge 一条有向、带代价的转换
type Edge struct {
	From       State      // 源状态
	To         State      // 目标状态
	Cost       float64    // 路径代价，必须为正数
	Transition Transition // 执行逻辑
	Fallback   bool       // 爬行器注入的返回初始状态的边
}

// EdgeOption 边的构造选项
type EdgeOption func(*Edge)

// WithEdgeCost 设置边的代价
func WithEdgeCost(cost float64) EdgeOption {
	return func(e *Edge) {
		e.Cost = cost
	}
}

// Declaration 从某个状态视角声明的转换
//
// 声明在状态 S 上：设置 TargetState=X 表示 S -> X；
// 只设置 SourceState=Y 表示 Y -> S。两者都为空是非法声明。
type Declaration struct {
	TargetState State
	SourceState State
	Cost        float64
	Transition  Transition
}

// Link 复用同一个转换实现，绑定目标或源状态
func Link(t Transition, target, source State) Declaration {
	return Declaration{
		TargetState: target,
		SourceState: source,
		Transition:  t,
	}
}

// To 以 target 为目标声明转换
func To(target State, t Transition) Declaration {
	return Link(t, target, "")
}

// From 以 source 为源声明转换
func From(source State, t Transition) Declaration {
	return Link(t, "", source)
}

// WithCost 返回设置了代价的声明副本
func (d Declaration) WithCost(cost float64) Declaration {
	d.Cost = cost
	return d
}

func (d Declaration) cost() float64 {
	if d.Cost == 0 {
		return DefaultCost
	}
	return d.Cost
}
