package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"go.uber.org/zap"

	"school-manager/config"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewClient(&config.RedisConfig{Addr: mr.Addr()}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewClient 失败: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func TestCache_SetGetDelete(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	if _, err := c.GetBytes(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("期望 ErrCacheMiss，实际: %v", err)
	}

	if err := c.SetBytes(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("SetBytes 失败: %v", err)
	}
	b, err := c.GetBytes(ctx, "k")
	if err != nil || string(b) != "v" {
		t.Fatalf("期望读到 v，实际 %q, err=%v", b, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete 失败: %v", err)
	}
	if _, err := c.GetBytes(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("删除后应未命中，实际: %v", err)
	}
}

func TestCache_Expires(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	_ = c.SetBytes(ctx, "k", []byte("v"), time.Second)
	mr.FastForward(2 * time.Second)

	if _, err := c.GetBytes(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("过期后应未命中，实际: %v", err)
	}
}

func TestLock_AcquireRelease(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	ok, err := c.AcquireLock(ctx, "publish:2025-09-01", "a", time.Minute)
	if err != nil || !ok {
		t.Fatalf("首次获取锁应成功: ok=%v err=%v", ok, err)
	}

	ok, _ = c.AcquireLock(ctx, "publish:2025-09-01", "b", time.Minute)
	if ok {
		t.Fatal("锁被持有时不应再次获取成功")
	}

	// 非持有者释放无效
	_ = c.ReleaseLock(ctx, "publish:2025-09-01", "b")
	ok, _ = c.AcquireLock(ctx, "publish:2025-09-01", "c", time.Minute)
	if ok {
		t.Fatal("非持有者释放后锁仍应被占用")
	}

	if err := c.ReleaseLock(ctx, "publish:2025-09-01", "a"); err != nil {
		t.Fatalf("ReleaseLock 失败: %v", err)
	}
	ok, _ = c.AcquireLock(ctx, "publish:2025-09-01", "d", time.Minute)
	if !ok {
		t.Error("持有者释放后应可重新获取")
	}
}

func TestRateLimit_Window(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		ok, err := c.CheckRateLimit(ctx, "rl", 3, time.Minute)
		if err != nil || !ok {
			t.Fatalf("第 %d 次应放行，实际 ok=%v err=%v", i, ok, err)
		}
	}
	if ok, _ := c.CheckRateLimit(ctx, "rl", 3, time.Minute); ok {
		t.Error("超过上限应拒绝")
	}

	mr.FastForward(time.Minute + time.Second)
	if ok, _ := c.CheckRateLimit(ctx, "rl", 3, time.Minute); !ok {
		t.Error("窗口过期后应重新放行")
	}
}

func TestPing(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	if err := c.Ping(ctx); err != nil {
		t.Fatalf("Ping 失败: %v", err)
	}

	mr.Close()
	if err := c.Ping(ctx); err == nil {
		t.Error("Redis 关闭后 Ping 应返回错误")
	}
}
