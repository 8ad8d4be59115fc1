package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/bellman/internal/middleware"
	"github.com/hitoshi/bellman/internal/model"
)

// RingerInterface は手動鳴動ハンドラーが必要とするリレー操作インターフェース。
// スケジュール鳴動と同じ排他ロックを通る。
type RingerInterface interface {
	Ring(ctx context.Context, d time.Duration) error
}

// RingDurationProvider は鳴動時間の設定値を提供する。
type RingDurationProvider interface {
	RingDuration() time.Duration
}

// RelayMetrics は手動鳴動のメトリクス記録インターフェース。
type RelayMetrics interface {
	RecordManualRing()
	RecordRingDuration(d time.Duration)
}

// StatusAppender はステータスメッセージログへの追記インターフェース。
type StatusAppender interface {
	Append(text string)
}

// RelayHandler は手動鳴動のHTTPハンドラー。
type RelayHandler struct {
	ringer   RingerInterface
	duration RingDurationProvider
	metrics  RelayMetrics
	status   StatusAppender
}

// NewRelayHandler はRelayHandlerを生成する。
func NewRelayHandler(ringer RingerInterface, duration RingDurationProvider, metrics RelayMetrics, status StatusAppender) *RelayHandler {
	return &RelayHandler{
		ringer:   ringer,
		duration: duration,
		metrics:  metrics,
		status:   status,
	}
}

// ToggleRelay はリレーを設定された鳴動時間だけ手動で作動させる。
// GET /ToggleRelay
//
// スケジュール鳴動中はロック解放まで待機するため、作動が重なることはない。
func (h *RelayHandler) ToggleRelay(w http.ResponseWriter, r *http.Request) {
	d := h.duration.RingDuration()

	if err := h.ringer.Ring(r.Context(), d); err != nil {
		slog.Error("manual ring failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", d),
		)
		h.status.Append("手動鳴動に失敗しました: " + err.Error())
		middleware.WriteErrorResponse(w, http.StatusServiceUnavailable,
			model.NewHardwareFaultError(err.Error()))
		return
	}

	h.metrics.RecordManualRing()
	h.metrics.RecordRingDuration(d)
	h.status.Append("手動でベルを鳴らしました")

	writeText(w, http.StatusOK, "Relay toggle successful")
}
