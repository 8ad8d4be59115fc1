package relay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Controller はリレーという単一ハードウェア資源への排他アクセスを提供する。
// 手動テストとスケジュール発火が同時に来ても、1つのmutexで鳴動が直列化され重なることはない。
// 鳴動は鳴動時間で上限が決まる短い操作なので、後続の呼び出しはブロックして待つ。
type Controller struct {
	driver Driver

	// mu はリレー排他ロック。保持中は鳴動が進行中。
	mu sync.Mutex
}

// NewController はControllerを生成する。
func NewController(driver Driver) *Controller {
	return &Controller{driver: driver}
}

// Ring はリレーを閉じてdだけ待ち、開放する。
// 進行中の鳴動がある場合はその完了を待ってから開始する。
// ctxがキャンセルされた場合は待ちを打ち切るが、開放は必ず試みる。
// ハードウェア操作の失敗はリトライせずそのまま返す。
func (c *Controller) Ring(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.driver.Set(true); err != nil {
		return fmt.Errorf("relay activation failed: %w", err)
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	var waitErr error
	select {
	case <-timer.C:
	case <-ctx.Done():
		waitErr = ctx.Err()
	}

	if err := c.driver.Set(false); err != nil {
		// 開放失敗は鳴りっぱなしを意味するので最優先で報告する
		slog.Error("リレーの開放に失敗しました", slog.String("error", err.Error()))
		return fmt.Errorf("relay deactivation failed: %w", err)
	}

	return waitErr
}
