package statemachine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestAsyncCrawler_MoveAsync(t *testing.T) {
	a := NewAsyncCrawler(newScenarioCrawler(t), 10)
	a.Start()
	defer a.Stop()

	ctx := context.Background()
	started, err := a.StartAsync(ctx)
	if err != nil {
		t.Fatalf("StartAsync failed: %v", err)
	}
	moved, err := a.MoveAsync(ctx, "running")
	if err != nil {
		t.Fatalf("MoveAsync failed: %v", err)
	}

	if err := <-started; err != nil {
		t.Errorf("启动失败: %v", err)
	}
	if err := <-moved; err != nil {
		t.Errorf("移动失败: %v", err)
	}
	if a.State() != "running" {
		t.Errorf("Expected state 'running', got '%s'", a.State())
	}
}

func TestAsyncCrawler_ErrorsAreDelivered(t *testing.T) {
	a := NewAsyncCrawler(newScenarioCrawler(t), 1)
	a.Start()
	defer a.Stop()

	res, err := a.MoveAsync(context.Background(), "running")
	if err != nil {
		t.Fatalf("MoveAsync failed: %v", err)
	}
	select {
	case err := <-res:
		if !errors.Is(err, ErrNotStarted) {
			t.Errorf("期望 ErrNotStarted, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("等待结果超时")
	}
}

func TestAsyncCrawler_ContextCancellation(t *testing.T) {
	a := NewAsyncCrawler(newScenarioCrawler(t), 0) // 无缓冲且未启动，入队会阻塞

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := a.MoveAsync(ctx, "running"); err == nil {
		t.Error("Expected error when context is cancelled")
	}
	if _, err := a.MoveAsync(context.Background(), ""); err == nil {
		t.Error("Expected error for empty state")
	}
}

func TestAsyncCrawler_StopCancelsPending(t *testing.T) {
	a := NewAsyncCrawler(newScenarioCrawler(t), 4)

	res, err := a.StartAsync(context.Background())
	if err != nil {
		t.Fatalf("StartAsync failed: %v", err)
	}
	if a.QueueLength() != 1 {
		t.Errorf("Expected queue length 1, got %d", a.QueueLength())
	}

	a.Start()
	a.Stop()

	// 请求要么已被处理，要么被取消
	select {
	case err := <-res:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("等待结果超时")
	}

	if _, err := a.MoveAsync(context.Background(), "running"); !errors.Is(err, context.Canceled) {
		t.Errorf("停止后入队应返回 context.Canceled, got %v", err)
	}
}

func TestAsyncCrawler_StopWithoutWorker(t *testing.T) {
	a := NewAsyncCrawler(newScenarioCrawler(t), 4)

	res, err := a.MoveAsync(context.Background(), "running")
	if err != nil {
		t.Fatalf("MoveAsync failed: %v", err)
	}

	// 从未启动处理协程，Stop 仍需回复已入队的请求
	a.Stop()

	select {
	case err := <-res:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("期望 context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Stop 后请求未得到回复 (queue len %d)", a.QueueLength())
	}
	if a.QueueLength() != 0 {
		t.Errorf("Stop 后队列应为空, got %d", a.QueueLength())
	}
}

func TestAsyncCrawler_EnqueueRacingStop(t *testing.T) {
	for round := 0; round < 50; round++ {
		a := NewAsyncCrawler(newScenarioCrawler(t), 8)
		a.Start()

		results := make(chan (<-chan error), 16)
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if res, err := a.StartAsync(context.Background()); err == nil {
					results <- res
				}
			}()
		}
		a.Stop()
		wg.Wait()
		close(results)

		// 每个被接受的请求都必须有结果
		for res := range results {
			select {
			case <-res:
			case <-time.After(time.Second):
				t.Fatalf("round %d: 已入队的请求未得到回复", round)
			}
		}
	}
}
