package statemachine

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedTransition 当转换既没有目标状态也没有源状态时返回
	ErrMalformedTransition = fmt.Errorf("malformed transition")

	// ErrInvalidCost 当转换代价不为正数时返回
	ErrInvalidCost = fmt.Errorf("transition cost must be positive")

	// ErrDuplicateTransition 当转换规则已存在时返回
	ErrDuplicateTransition = fmt.Errorf("duplicate transition")

	// ErrNoInitialState 当初始转换没有目标状态时返回
	ErrNoInitialState = fmt.Errorf("initial transition has no target state")

	// ErrNotStarted 在 Start 之前调用 Move 时返回
	ErrNotStarted = fmt.Errorf("crawler is not started")

	// ErrUnreachable 当目标状态不可达时返回
	ErrUnreachable = fmt.Errorf("state is unreachable")

	// ErrTransitionFailed 当转换执行失败时返回
	ErrTransitionFailed = fmt.Errorf("transition failed")

	// ErrStateNotFound 当状态不在状态图中时返回
	ErrStateNotFound = fmt.Errorf("state not found")

	// ErrUnknownAction 当定义文件引用未注册的动作时返回
	ErrUnknownAction = fmt.Errorf("unknown action")

	// ErrSnapshotNotFound 当快照不存在时返回
	ErrSnapshotNotFound = fmt.Errorf("snapshot not found")

	// ErrCrawlerNotFound 当命名爬行器不存在时返回
	ErrCrawlerNotFound = fmt.Errorf("crawler not found")

	// ErrCrawlerExists 当命名爬行器已存在时返回
	ErrCrawlerExists = fmt.Errorf("crawler already exists")
)

// Error 爬行器返回的唯一错误类型，通过 errors.Is 区分具体原因
type Error struct {
	Op    string // 操作名称
	State State  // 相关状态
	Err   error  // 底层错误
	msg   string
}

func newError(op string, state State, err error, format string, args ...interface{}) *Error {
	return &Error{Op: op, State: state, Err: err, msg: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e.msg != "" {
		return e.msg
	}
	if e.State != "" {
		return fmt.Sprintf("%s %q: %v", e.Op, e.State, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsCrawlerError 判断 err 是否由爬行器产生
func IsCrawlerError(err error) bool {
	var ce *Error
	return errors.As(err, &ce)
}
