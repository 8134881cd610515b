// Package redisstore 基于 Redis 的爬行器快照存储
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/junbin-yang/go-crawler/pkg/statemachine"
)

const DefaultPrefix = "crawler:snapshot:"

var (
	ErrInvalidURL = errors.New("redisstore: invalid connection url")
	ErrNotReady   = errors.New("redisstore: redis not ready")
)

// Config Redis 连接配置
type Config struct {
	URL            string        `yaml:"url" json:"url" env:"REDIS_URL"`
	Prefix         string        `yaml:"prefix" json:"prefix" env:"REDIS_PREFIX"`
	TTL            time.Duration `yaml:"ttl" json:"ttl" env:"REDIS_TTL"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" json:"connect_timeout"`
	RetryAttempts  int           `yaml:"retry_attempts" json:"retry_attempts"`
	RetryInterval  time.Duration `yaml:"retry_interval" json:"retry_interval"`
}

// Connect 解析连接串并在重试次数内等待 Redis 就绪
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, errors.Join(ErrInvalidURL, err)
	}

	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 1
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	var lastErr error
	for attempt := 1; ; attempt++ {
		client := redis.NewClient(opt)
		if lastErr = client.Ping(ctx).Err(); lastErr == nil {
			return client, nil
		}
		_ = client.Close()

		if attempt >= cfg.RetryAttempts {
			return nil, errors.Join(ErrNotReady, lastErr)
		}
		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrNotReady, lastErr, ctx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}
}

// Store 快照存储，值为 JSON 编码的 statemachine.Snapshot
type Store struct {
	db     redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ statemachine.SnapshotStore = (*Store)(nil)

// Option 存储选项
type Option func(*Store)

// WithPrefix 设置键前缀
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithTTL 设置快照过期时间，0 表示永不过期
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// New 创建快照存储
func New(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{db: client, prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFromConfig 按配置创建快照存储
func NewFromConfig(client redis.UniversalClient, cfg Config) *Store {
	s := New(client, WithTTL(cfg.TTL))
	if cfg.Prefix != "" {
		s.prefix = cfg.Prefix
	}
	return s
}

func (s *Store) key(k string) string {
	return s.prefix + k
}

func (s *Store) Save(ctx context.Context, key string, snapshot *statemachine.Snapshot) error {
	if snapshot == nil {
		return statemachine.ErrSnapshotNotFound
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("redisstore: marshal snapshot: %w", err)
	}
	return s.db.Set(ctx, s.key(key), data, s.ttl).Err()
}

func (s *Store) Load(ctx context.Context, key string) (*statemachine.Snapshot, error) {
	data, err := s.db.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, statemachine.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}

	var snapshot statemachine.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("redisstore: unmarshal snapshot %q: %w", key, err)
	}
	return &snapshot, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.db.Del(ctx, s.key(key)).Err()
}

// Close 关闭底层连接
func (s *Store) Close() error {
	return s.db.Close()
}
