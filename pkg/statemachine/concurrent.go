package statemachine

import (
	"context"
	"fmt"
	"sync"
)

// guardedCrawler 为单个爬行器串行化访问
type guardedCrawler struct {
	mu      sync.Mutex
	crawler *Crawler
}

// Concurrent 并发爬行器管理器
//
// 每个爬行器有独立的互斥锁，同一个爬行器上的 Start/Move 串行执行，
// 不同爬行器之间互不阻塞。
type Concurrent struct {
	mu       sync.RWMutex
	crawlers map[string]*guardedCrawler
}

// NewConcurrent 创建并发爬行器管理器
func NewConcurrent() *Concurrent {
	return &Concurrent{
		crawlers: make(map[string]*guardedCrawler),
	}
}

// AddCrawler 添加爬行器，同一个爬行器只能以一个名称注册
func (c *Concurrent) AddCrawler(name string, crawler *Crawler) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.crawlers[name]; exists {
		return ErrCrawlerExists
	}
	for other, g := range c.crawlers {
		if g.crawler == crawler {
			return fmt.Errorf("%w: registered as %q", ErrCrawlerExists, other)
		}
	}
	c.crawlers[name] = &guardedCrawler{crawler: crawler}
	return nil
}

// RemoveCrawler 移除爬行器
func (c *Concurrent) RemoveCrawler(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.crawlers, name)
}

// GetCrawler 获取爬行器
//
// 返回的爬行器绕过了管理器的锁，只应在没有并发访问时使用。
func (c *Concurrent) GetCrawler(name string) (*Crawler, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	g, exists := c.crawlers[name]
	if !exists {
		return nil, false
	}
	return g.crawler, true
}

func (c *Concurrent) get(name string) (*guardedCrawler, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	g, exists := c.crawlers[name]
	if !exists {
		return nil, ErrCrawlerNotFound
	}
	return g, nil
}

// Start 启动指定爬行器
func (c *Concurrent) Start(ctx context.Context, name string) error {
	g, err := c.get(name)
	if err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.crawler.Start(ctx)
}

// Move 移动指定爬行器
func (c *Concurrent) Move(ctx context.Context, name string, state State) error {
	g, err := c.get(name)
	if err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.crawler.Move(ctx, state)
}

// StartAll 并行启动所有爬行器
func (c *Concurrent) StartAll(ctx context.Context) map[string]error {
	return c.each(func(g *guardedCrawler) error {
		return g.crawler.Start(ctx)
	})
}

// MoveAll 把所有爬行器并行移动到同一个状态
func (c *Concurrent) MoveAll(ctx context.Context, state State) map[string]error {
	return c.each(func(g *guardedCrawler) error {
		return g.crawler.Move(ctx, state)
	})
}

// snapshot 复制注册表，等待单个爬行器时不持有注册表锁
func (c *Concurrent) snapshot() map[string]*guardedCrawler {
	c.mu.RLock()
	defer c.mu.RUnlock()
	crawlers := make(map[string]*guardedCrawler, len(c.crawlers))
	for name, g := range c.crawlers {
		crawlers[name] = g
	}
	return crawlers
}

func (c *Concurrent) each(fn func(g *guardedCrawler) error) map[string]error {
	crawlers := c.snapshot()

	results := make(map[string]error, len(crawlers))
	var wg sync.WaitGroup
	var mu sync.Mutex

	for name, g := range crawlers {
		wg.Add(1)
		go func(n string, g *guardedCrawler) {
			defer wg.Done()
			g.mu.Lock()
			err := fn(g)
			g.mu.Unlock()

			mu.Lock()
			results[n] = err
			mu.Unlock()
		}(name, g)
	}

	wg.Wait()
	return results
}

// GetStates 获取所有爬行器的当前状态
func (c *Concurrent) GetStates() map[string]State {
	states := make(map[string]State)
	for name, g := range c.snapshot() {
		g.mu.Lock()
		states[name] = g.crawler.State()
		g.mu.Unlock()
	}
	return states
}

// Count 返回爬行器数量
func (c *Concurrent) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.crawlers)
}
