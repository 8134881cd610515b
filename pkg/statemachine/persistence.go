package statemachine

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Snapshot 状态快照
type Snapshot struct {
	Session   string                 `json:"session"`
	State     State                  `json:"state"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// History 转换历史记录
type History struct {
	From      State     `json:"from,omitempty"`
	To        State     `json:"to"`
	Cost      float64   `json:"cost"`
	Timestamp time.Time `json:"timestamp"`
	Error     string    `json:"error,omitempty"`
}

// Succeeded 判断该次转换是否成功
func (h History) Succeeded() bool {
	return h.Error == ""
}

// record 记录一次转换尝试
func (c *Crawler) record(from, to State, cost float64, err error) {
	if !c.recordHistory {
		return
	}
	h := History{From: from, To: to, Cost: cost, Timestamp: time.Now()}
	if err != nil {
		h.Error = err.Error()
	}
	c.history = append(c.history, h)
	if c.historyLimit > 0 && len(c.history) > c.historyLimit {
		c.history = append([]History{}, c.history[len(c.history)-c.historyLimit:]...)
	}
}

// History 获取转换历史
func (c *Crawler) History() []History {
	return append([]History{}, c.history...)
}

// ClearHistory 清空历史记录
func (c *Crawler) ClearHistory() {
	c.history = nil
}

// CreateSnapshot 创建状态快照
func (c *Crawler) CreateSnapshot(metadata map[string]interface{}) *Snapshot {
	return &Snapshot{
		Session:   c.session,
		State:     c.current,
		Timestamp: time.Now(),
		Metadata:  metadata,
	}
}

// RestoreSnapshot 恢复状态快照，不执行任何转换
//
// 调用方需保证被测系统确实处于快照中的状态。
func (c *Crawler) RestoreSnapshot(snapshot *Snapshot) error {
	if snapshot == nil {
		return newError("restore", "", ErrSnapshotNotFound, "snapshot is nil")
	}
	if snapshot.State != "" {
		if _, ok := c.graph[snapshot.State]; !ok {
			return newError("restore", snapshot.State, ErrStateNotFound,
				"state %q is not in the crawler graph", snapshot.State)
		}
	}
	c.current = snapshot.State
	if snapshot.Session != "" {
		c.session = snapshot.Session
	}
	return nil
}

// MarshalJSON 序列化爬行器状态
func (c *Crawler) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Session string    `json:"session"`
		Initial State     `json:"initial"`
		Current State     `json:"current"`
		History []History `json:"history"`
	}{
		Session: c.session,
		Initial: c.initial.TargetState,
		Current: c.current,
		History: c.History(),
	})
}

// SnapshotStore 快照存储
type SnapshotStore interface {
	Save(ctx context.Context, key string, snapshot *Snapshot) error
	Load(ctx context.Context, key string) (*Snapshot, error)
	Delete(ctx context.Context, key string) error
}

// MemoryStore 进程内快照存储
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]Snapshot
}

var _ SnapshotStore = (*MemoryStore)(nil)

// NewMemoryStore 创建进程内快照存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: make(map[string]Snapshot)}
}

func (m *MemoryStore) Save(ctx context.Context, key string, snapshot *Snapshot) error {
	if snapshot == nil {
		return ErrSnapshotNotFound
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[key] = *snapshot
	return nil
}

func (m *MemoryStore) Load(ctx context.Context, key string) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.snapshots[key]
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	return &s, nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snapshots, key)
	return nil
}
