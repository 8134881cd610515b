package statemachine

import "github.com/junbin-yang/go-crawler/pkg/logger"

// Option 爬行器配置选项
type Option func(*Crawler)

// WithPathFinder 设置寻路算法，默认 DFSPathFinder
func WithPathFinder(pf PathFinder) Option {
	return func(c *Crawler) {
		if pf != nil {
			c.finder = pf
		}
	}
}

// WithLogger 设置日志，默认不输出
func WithLogger(l logger.Logger) Option {
	return func(c *Crawler) {
		if l != nil {
			c.log = l
		}
	}
}

// WithHistory 记录每一次转换，limit<=0 表示不限制条数
func WithHistory(limit int) Option {
	return func(c *Crawler) {
		c.recordHistory = true
		c.historyLimit = limit
	}
}

// WithOnEnter 设置进入状态后的回调
func WithOnEnter(fn ActionFunc) Option {
	return func(c *Crawler) {
		c.onEnter = fn
	}
}

// WithSession 指定会话标识，默认随机生成
func WithSession(id string) Option {
	return func(c *Crawler) {
		if id != "" {
			c.session = id
		}
	}
}
