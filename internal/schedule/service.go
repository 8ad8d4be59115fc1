// Package schedule は週間鳴動スケジュールの保持・検証・次回鳴動時刻の計算を提供する。
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/bellman/internal/model"
	"github.com/hitoshi/bellman/internal/repository"
)

// Service は週間スケジュールの唯一の所有者。
// SQLiteへ永続化しつつ、常に一貫したスナップショットをメモリに保持する。
// 読み取りはスナップショットのクローンを返すため、置き換えの途中状態が見えることはない。
type Service struct {
	repo repository.ScheduleRepository

	mu      sync.RWMutex
	current model.WeeklySchedule

	// changes は置き換え成功をスケジューラエンジンへ通知する。
	// バッファ1: 通知が溜まっていれば追加の通知は不要（エンジンは毎回再計算する）。
	changes chan struct{}
}

// NewService はServiceを生成し、保存済みスケジュールをメモリへ読み込む。
func NewService(ctx context.Context, repo repository.ScheduleRepository) (*Service, error) {
	ws, err := repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule: %w", err)
	}

	return &Service{
		repo:    repo,
		current: ws.Normalize(),
		changes: make(chan struct{}, 1),
	}, nil
}

// Get は現在のスケジュールの一貫したスナップショットを返す。
// 各曜日の時刻は昇順・重複なし。
func (s *Service) Get() model.WeeklySchedule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Replace はスケジュール全体を検証のうえ置き換える。
// 検証失敗時はInvalidScheduleを返し、旧スケジュールがそのまま残る。
// 成功時は永続化・スナップショット更新・エンジンへの変更通知を行う。
func (s *Service) Replace(ctx context.Context, raw map[string][]string) error {
	ws, err := parseSchedule(raw)
	if err != nil {
		return err
	}

	normalized := ws.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Replace(ctx, normalized); err != nil {
		return fmt.Errorf("failed to persist schedule: %w", err)
	}
	s.current = normalized

	s.notify()
	slog.Info("スケジュールを更新しました", slog.Int("day_count", len(normalized)))
	return nil
}

// Clear は全曜日のスケジュールを空にする。
func (s *Service) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	empty := model.WeeklySchedule{}
	if err := s.repo.Replace(ctx, empty); err != nil {
		return fmt.Errorf("failed to clear schedule: %w", err)
	}
	s.current = empty

	s.notify()
	slog.Info("スケジュールを全消去しました")
	return nil
}

// Changes はスケジュール変更の通知チャネルを返す。
// 受信したらNextRingを再計算すること。
func (s *Service) Changes() <-chan struct{} {
	return s.changes
}

// NextRing はnowより厳密に後の最も早い鳴動時刻を返す。
// 今日の残り時刻→翌日以降、と最大1週間先まで走査する（翌週の同曜日へのラップを含む）。
// スケジュールが空の場合はfalseを返す。
func (s *Service) NextRing(now time.Time) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current.IsEmpty() {
		return time.Time{}, false
	}

	// 今日から7日後（翌週の同曜日）まで走査すれば必ず最初の候補に辿り着く
	for offset := 0; offset <= 7; offset++ {
		day := now.AddDate(0, 0, offset)
		times := s.current[model.WeekdayOf(day.Weekday())]
		for _, t := range times {
			instant := t.At(day)
			if instant.After(now) {
				return instant, true
			}
		}
	}

	return time.Time{}, false
}

// RemainingToday は今日これから鳴る時刻の一覧を昇順で返す。
func (s *Service) RemainingToday(now time.Time) []model.ClockTime {
	s.mu.RLock()
	defer s.mu.RUnlock()

	times := s.current[model.WeekdayOf(now.Weekday())]
	nowCT := model.ClockTime{Hour: now.Hour(), Minute: now.Minute()}

	var remaining []model.ClockTime
	for _, t := range times {
		// 現在の分と同じ時刻は「残り」に含めない（ファームウェアの厳密比較と同じ）
		if t.Compare(nowCT) > 0 {
			remaining = append(remaining, t)
		}
	}
	return remaining
}

// notify は変更通知を送る。呼び出し側がs.muを保持していること。
func (s *Service) notify() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

// parseSchedule はワイヤフォーマットのスケジュールを検証しながらドメイン型へ変換する。
func parseSchedule(raw map[string][]string) (model.WeeklySchedule, error) {
	ws := make(model.WeeklySchedule, len(raw))
	for dayStr, timeStrs := range raw {
		day, err := model.ParseWeekday(dayStr)
		if err != nil {
			return nil, model.NewInvalidScheduleError(fmt.Sprintf("不明な曜日キー %q", dayStr))
		}
		for _, timeStr := range timeStrs {
			t, err := model.ParseClockTime(timeStr)
			if err != nil {
				return nil, model.NewInvalidScheduleError(fmt.Sprintf("不正な時刻 %q", timeStr))
			}
			ws[day] = append(ws[day], t)
		}
	}
	return ws, nil
}
