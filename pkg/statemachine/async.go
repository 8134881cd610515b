package statemachine

import (
	"context"
	"sync"
)

// moveRequest 异步移动请求，state 为空表示 Start
type moveRequest struct {
	ctx    context.Context
	state  State
	result chan error
}

// AsyncCrawler 由单个协程按顺序处理移动请求的爬行器
type AsyncCrawler struct {
	mu       sync.Mutex
	crawler  *Crawler
	requests chan moveRequest
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	// queueMu 保护 stopped；入队期间持有读锁，Stop 置位时持有写锁
	queueMu sync.RWMutex
	stopped bool
}

// NewAsyncCrawler 创建异步爬行器
func NewAsyncCrawler(crawler *Crawler, queueSize int) *AsyncCrawler {
	return &AsyncCrawler{
		crawler:  crawler,
		requests: make(chan moveRequest, queueSize),
		stopCh:   make(chan struct{}),
	}
}

// Start 启动请求处理协程
func (a *AsyncCrawler) Start() {
	a.wg.Add(1)
	go a.process()
}

// Stop 停止处理，队列中未处理的请求收到 context.Canceled
//
// 未调用 Start 时同样适用；Stop 之后的入队请求直接返回 context.Canceled。
func (a *AsyncCrawler) Stop() {
	a.stopOnce.Do(func() {
		close(a.stopCh)
	})

	// 等待正在入队的请求完成，之后不再接受新请求
	a.queueMu.Lock()
	a.stopped = true
	a.queueMu.Unlock()

	a.wg.Wait()
	a.drain()
}

// StartAsync 异步执行初始转换
func (a *AsyncCrawler) StartAsync(ctx context.Context) (<-chan error, error) {
	return a.enqueue(ctx, "")
}

// MoveAsync 异步移动到 state，结果通过返回的通道送达
func (a *AsyncCrawler) MoveAsync(ctx context.Context, state State) (<-chan error, error) {
	if state == "" {
		return nil, newError("move", state, ErrStateNotFound, "target state is empty")
	}
	return a.enqueue(ctx, state)
}

func (a *AsyncCrawler) enqueue(ctx context.Context, state State) (<-chan error, error) {
	a.queueMu.RLock()
	defer a.queueMu.RUnlock()
	if a.stopped {
		return nil, context.Canceled
	}

	req := moveRequest{ctx: ctx, state: state, result: make(chan error, 1)}
	select {
	case a.requests <- req:
		return req.result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-a.stopCh:
		return nil, context.Canceled
	}
}

// process 处理请求队列
func (a *AsyncCrawler) process() {
	defer a.wg.Done()

	for {
		select {
		case <-a.stopCh:
			a.drain()
			return
		case req := <-a.requests:
			req.result <- a.handle(req)
		}
	}
}

func (a *AsyncCrawler) handle(req moveRequest) error {
	if err := req.ctx.Err(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if req.state == "" {
		return a.crawler.Start(req.ctx)
	}
	return a.crawler.Move(req.ctx, req.state)
}

func (a *AsyncCrawler) drain() {
	for {
		select {
		case req := <-a.requests:
			req.result <- context.Canceled
		default:
			return
		}
	}
}

// State 返回当前状态，处理中的请求完成后才返回
func (a *AsyncCrawler) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.crawler.State()
}

// QueueLength 返回队列长度
func (a *AsyncCrawler) QueueLength() int {
	return len(a.requests)
}
