// Package scheduler は週間スケジュールを評価し、鳴動時刻にリレーを発火させるエンジンを提供する。
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/bellman/internal/clock"
)

// State はエンジンの状態を表す。
type State string

const (
	// StateIdleWaiting はスケジュールが空で変更通知を待っている状態。
	StateIdleWaiting State = "IDLE_WAITING"
	// StateArmedForNext は次回鳴動時刻に向けて待機している状態。
	StateArmedForNext State = "ARMED_FOR_NEXT"
	// StateFiring はリレーを駆動中の状態。
	StateFiring State = "FIRING"
)

// ScheduleView はエンジンが必要とするスケジュールの読み取り専用ビュー。
// エンジンはスケジュールを決して変更しない。
type ScheduleView interface {
	// NextRing はnowより厳密に後の最も早い鳴動時刻を返す。スケジュールが空ならfalse。
	NextRing(now time.Time) (time.Time, bool)
	// Changes はスケジュール変更の通知チャネルを返す。
	Changes() <-chan struct{}
}

// Ringer はリレー鳴動の実行インターフェース。
// 実装（relay.Controller）が手動テストとの排他を保証する。
type Ringer interface {
	Ring(ctx context.Context, d time.Duration) error
}

// DurationProvider は現在設定されている鳴動時間を返す。
type DurationProvider interface {
	RingDuration() time.Duration
}

// Metrics はエンジンが記録するメトリクスのインターフェース。
type Metrics interface {
	RecordScheduledRing()
	RecordRelayFault()
}

// Engine はスケジュール発火の状態機械。
// 1本のバックグラウンドゴルーチンとして動作し、唯一のブロッキング操作は
// 「時刻Tまで、または変更通知まで待つ」というキャンセル可能なタイマー待ちで、ポーリングは行わない。
type Engine struct {
	view     ScheduleView
	ringer   Ringer
	duration DurationProvider
	clk      clock.Clock
	logger   *slog.Logger
	metrics  Metrics

	mu     sync.Mutex
	state  State
	nextAt time.Time // ARMED_FOR_NEXT中の発火予定時刻
}

// NewEngine はEngineを生成する。
func NewEngine(
	view ScheduleView,
	ringer Ringer,
	duration DurationProvider,
	clk clock.Clock,
	logger *slog.Logger,
	metrics Metrics,
) *Engine {
	return &Engine{
		view:     view,
		ringer:   ringer,
		duration: duration,
		clk:      clk,
		logger:   logger,
		metrics:  metrics,
		state:    StateIdleWaiting,
	}
}

// Run はエンジンのメインループを実行する。ctxのキャンセルまでブロックする。
// 起動時とスケジュール変更ごとに次回鳴動時刻を再計算し、発火後も再計算して次に備える。
func (e *Engine) Run(ctx context.Context) {
	e.logger.Info("スケジューラエンジンを開始しました")

	for {
		now := e.clk.Now()
		next, ok := e.view.NextRing(now)

		if !ok {
			// スケジュールが空: 変更通知が来るまで待つ
			e.setState(StateIdleWaiting, time.Time{})
			select {
			case <-ctx.Done():
				e.logger.Info("スケジューラエンジンを停止しました")
				return
			case <-e.view.Changes():
				continue
			}
		}

		e.setState(StateArmedForNext, next)
		e.logger.Info("次回鳴動に向けて待機します",
			slog.Time("next_ring_at", next),
		)

		timer := time.NewTimer(next.Sub(now))

		select {
		case <-ctx.Done():
			timer.Stop()
			e.logger.Info("スケジューラエンジンを停止しました")
			return

		case <-e.view.Changes():
			// 変更通知: 古いターゲットを破棄して即時再計算
			timer.Stop()
			continue

		case <-timer.C:
			e.fire(ctx)
			// 発火した時刻は過去になったので、次の計算は後の時刻を返す
		}
	}
}

// fire はリレーを1回鳴動させる。
// ハードウェア障害はログとメトリクスに記録するのみで、エンジンは次の鳴動に備えて継続する。
// 同一時刻内での再試行は行わない。
func (e *Engine) fire(ctx context.Context) {
	e.setState(StateFiring, time.Time{})

	d := e.duration.RingDuration()
	e.logger.Info("スケジュール鳴動を開始します", slog.Duration("ring_duration", d))

	if err := e.ringer.Ring(ctx, d); err != nil {
		// シャットダウンによる中断はハードウェア障害ではない
		if errors.Is(err, context.Canceled) {
			e.logger.Info("シャットダウンのため鳴動を中断しました")
			return
		}
		e.logger.Error("スケジュール鳴動に失敗しました", slog.String("error", err.Error()))
		e.metrics.RecordRelayFault()
		return
	}

	e.metrics.RecordScheduledRing()
}

// State は現在の状態を返す。ステータス表示用。
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// NextRingAt はARMED_FOR_NEXT中の発火予定時刻を返す。
// 待機中でない場合はfalseを返す。
func (e *Engine) NextRingAt() (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateArmedForNext {
		return time.Time{}, false
	}
	return e.nextAt, true
}

func (e *Engine) setState(s State, nextAt time.Time) {
	e.mu.Lock()
	e.state = s
	e.nextAt = nextAt
	e.mu.Unlock()
}
