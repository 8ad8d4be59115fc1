package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/bellman/internal/clock"
	"github.com/hitoshi/bellman/internal/middleware"
	"github.com/hitoshi/bellman/internal/model"
)

// noMoreRingsMessage は当日の残り鳴動がない場合の応答。
// 初代ファームウェアの文言をそのまま維持する。
const noMoreRingsMessage = "No more rings today"

// ScheduleServiceInterface はスケジュールハンドラーが必要とするサービスインターフェース。
type ScheduleServiceInterface interface {
	// Get は現在の週間スケジュールのスナップショットを返す。
	Get() model.WeeklySchedule
	// Replace は週間スケジュール全体を検証のうえ置き換える。
	Replace(ctx context.Context, raw map[string][]string) error
	// RemainingToday は当日残りの鳴動時刻を昇順で返す。
	RemainingToday(now time.Time) []model.ClockTime
}

// ScheduleHandler は週間スケジュール管理のHTTPハンドラー。
type ScheduleHandler struct {
	service ScheduleServiceInterface
	clk     clock.Clock
	status  StatusAppender
}

// NewScheduleHandler はScheduleHandlerを生成する。
func NewScheduleHandler(service ScheduleServiceInterface, clk clock.Clock, status StatusAppender) *ScheduleHandler {
	return &ScheduleHandler{
		service: service,
		clk:     clk,
		status:  status,
	}
}

// GetSchedule は週間スケジュール全体を返す。
// GET /getSchedule
//
// スケジュールは在席パターンを露呈するため認証が必要で、キャッシュも禁止する。
func (h *ScheduleHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	schedule := h.service.Get()

	// 曜日キーを常に全曜日出力する（クライアントは全キーを期待する）
	body := make(map[string][]string, len(model.Weekdays))
	for _, day := range model.Weekdays {
		times := schedule[day]
		strs := make([]string, 0, len(times))
		for _, ct := range times {
			strs = append(strs, ct.String())
		}
		body[string(day)] = strs
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, body)
}

// UpdateSchedule は週間スケジュール全体を置き換える。
// POST /updateSchedule
//
// 検証に失敗した場合は既存スケジュールを一切変更しない。
func (h *ScheduleHandler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	var raw map[string][]string
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("リクエストボディの形式が不正です。"))
		return
	}
	// JSONリテラルnullはエラーなしでnilマップになるため明示的に弾く
	// （空オブジェクト{}による全消去とは区別する）
	if raw == nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("スケジュールが指定されていません。"))
		return
	}

	if err := h.service.Replace(r.Context(), raw); err != nil {
		handleServiceError(w, err)
		return
	}

	h.status.Append("スケジュールを更新しました")
	writeText(w, http.StatusOK, "Schedule updated")
}

// GetTodayRemainingRingTimes は当日残りの鳴動時刻を返す。
// GET /getTodayRemainingRingTimes
//
// 初代ファームウェア互換のテキスト形式（"HH:MM,HH:MM" または "No more rings today"）。
func (h *ScheduleHandler) GetTodayRemainingRingTimes(w http.ResponseWriter, r *http.Request) {
	remaining := h.service.RemainingToday(h.clk.Now())
	if len(remaining) == 0 {
		writeText(w, http.StatusOK, noMoreRingsMessage)
		return
	}

	strs := make([]string, 0, len(remaining))
	for _, ct := range remaining {
		strs = append(strs, ct.String())
	}
	writeText(w, http.StatusOK, strings.Join(strs, ","))
}
