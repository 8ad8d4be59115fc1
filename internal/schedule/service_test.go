package schedule

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hitoshi/bellman/internal/model"
	"github.com/hitoshi/bellman/internal/repository"
)

// --- モック定義 ---

type mockScheduleRepo struct {
	mu     sync.Mutex
	stored model.WeeklySchedule

	replaceErr error
}

func (m *mockScheduleRepo) Load(_ context.Context) (model.WeeklySchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stored == nil {
		return model.WeeklySchedule{}, nil
	}
	return m.stored.Clone(), nil
}

func (m *mockScheduleRepo) Replace(_ context.Context, ws model.WeeklySchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.stored = ws.Clone()
	return nil
}

// compile-time interface check
var _ repository.ScheduleRepository = (*mockScheduleRepo)(nil)

func newTestService(t *testing.T, repo *mockScheduleRepo) *Service {
	t.Helper()
	svc, err := NewService(context.Background(), repo)
	if err != nil {
		t.Fatalf("NewService() returned error: %v", err)
	}
	return svc
}

// monday0700 は月曜07:00のローカル時刻（2024-04-01は月曜日）。
func monday(hour, minute int) time.Time {
	return time.Date(2024, 4, 1, hour, minute, 0, 0, time.Local)
}

// --- テスト ---

func TestReplace_PersistsAndUpdatesSnapshot(t *testing.T) {
	repo := &mockScheduleRepo{}
	svc := newTestService(t, repo)

	err := svc.Replace(context.Background(), map[string][]string{
		"monday": {"08:00", "08:00", "15:30"},
	})
	if err != nil {
		t.Fatalf("Replace() returned error: %v", err)
	}

	got := svc.Get()
	times := got[model.Monday]
	if len(times) != 2 || times[0].String() != "08:00" || times[1].String() != "15:30" {
		t.Errorf("monday times = %v, want de-duplicated sorted [08:00 15:30]", times)
	}
}

func TestReplace_UnknownDayKeyKeepsOldSchedule(t *testing.T) {
	repo := &mockScheduleRepo{}
	svc := newTestService(t, repo)
	ctx := context.Background()

	if err := svc.Replace(ctx, map[string][]string{"monday": {"08:00"}}); err != nil {
		t.Fatalf("Replace() returned error: %v", err)
	}

	err := svc.Replace(ctx, map[string][]string{"notaday": {"08:00"}})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidSchedule {
		t.Fatalf("error = %v, want INVALID_SCHEDULE", err)
	}

	// 旧スケジュールが保持される
	got := svc.Get()
	if len(got[model.Monday]) != 1 {
		t.Errorf("old schedule should be retained, got %v", got)
	}
}

func TestReplace_InvalidTimeKeepsOldSchedule(t *testing.T) {
	repo := &mockScheduleRepo{}
	svc := newTestService(t, repo)
	ctx := context.Background()

	if err := svc.Replace(ctx, map[string][]string{"monday": {"08:00"}}); err != nil {
		t.Fatalf("Replace() returned error: %v", err)
	}

	err := svc.Replace(ctx, map[string][]string{"tuesday": {"25:00"}})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidSchedule {
		t.Fatalf("error = %v, want INVALID_SCHEDULE", err)
	}

	got := svc.Get()
	if _, ok := got[model.Tuesday]; ok {
		t.Error("invalid replace should not apply partially")
	}
}

func TestReplace_NotifiesChangeChannel(t *testing.T) {
	repo := &mockScheduleRepo{}
	svc := newTestService(t, repo)

	if err := svc.Replace(context.Background(), map[string][]string{"monday": {"08:00"}}); err != nil {
		t.Fatalf("Replace() returned error: %v", err)
	}

	select {
	case <-svc.Changes():
	default:
		t.Error("change notification should be pending after Replace")
	}
}

func TestClear_EmptiesAllDays(t *testing.T) {
	repo := &mockScheduleRepo{}
	svc := newTestService(t, repo)
	ctx := context.Background()

	if err := svc.Replace(ctx, map[string][]string{"monday": {"08:00"}, "friday": {"12:00"}}); err != nil {
		t.Fatalf("Replace() returned error: %v", err)
	}
	if err := svc.Clear(ctx); err != nil {
		t.Fatalf("Clear() returned error: %v", err)
	}

	if !svc.Get().IsEmpty() {
		t.Errorf("schedule should be empty after Clear, got %v", svc.Get())
	}
}

func TestNextRing_SameDayUpcomingTime(t *testing.T) {
	repo := &mockScheduleRepo{}
	svc := newTestService(t, repo)

	if err := svc.Replace(context.Background(), map[string][]string{
		"monday": {"08:00", "15:30"},
	}); err != nil {
		t.Fatalf("Replace() returned error: %v", err)
	}

	// 月曜07:00 → 月曜08:00
	next, ok := svc.NextRing(monday(7, 0))
	if !ok {
		t.Fatal("NextRing() should find an instant")
	}
	if want := monday(8, 0); !next.Equal(want) {
		t.Errorf("NextRing() = %v, want %v", next, want)
	}
}

func TestNextRing_StrictlyAfterNow(t *testing.T) {
	repo := &mockScheduleRepo{}
	svc := newTestService(t, repo)

	if err := svc.Replace(context.Background(), map[string][]string{
		"monday": {"08:00", "15:30"},
	}); err != nil {
		t.Fatalf("Replace() returned error: %v", err)
	}

	// 月曜08:00ちょうど（発火直後）→ 次は月曜15:30
	next, ok := svc.NextRing(monday(8, 0))
	if !ok {
		t.Fatal("NextRing() should find an instant")
	}
	if want := monday(15, 30); !next.Equal(want) {
		t.Errorf("NextRing() = %v, want %v", next, want)
	}
}

func TestNextRing_WrapsToNextWeek(t *testing.T) {
	repo := &mockScheduleRepo{}
	svc := newTestService(t, repo)

	if err := svc.Replace(context.Background(), map[string][]string{
		"monday": {"08:00", "15:30"},
	}); err != nil {
		t.Fatalf("Replace() returned error: %v", err)
	}

	// 月曜15:30発火後、他の曜日は空 → 翌週月曜08:00
	next, ok := svc.NextRing(monday(15, 30))
	if !ok {
		t.Fatal("NextRing() should find an instant")
	}
	if want := monday(8, 0).AddDate(0, 0, 7); !next.Equal(want) {
		t.Errorf("NextRing() = %v, want next monday %v", next, want)
	}
}

func TestNextRing_CrossesMidnight(t *testing.T) {
	repo := &mockScheduleRepo{}
	svc := newTestService(t, repo)

	if err := svc.Replace(context.Background(), map[string][]string{
		"tuesday": {"06:15"},
	}); err != nil {
		t.Fatalf("Replace() returned error: %v", err)
	}

	// 月曜23:59 → 火曜06:15
	next, ok := svc.NextRing(monday(23, 59))
	if !ok {
		t.Fatal("NextRing() should find an instant")
	}
	want := time.Date(2024, 4, 2, 6, 15, 0, 0, time.Local)
	if !next.Equal(want) {
		t.Errorf("NextRing() = %v, want %v", next, want)
	}
}

func TestNextRing_EmptyScheduleReturnsFalse(t *testing.T) {
	repo := &mockScheduleRepo{}
	svc := newTestService(t, repo)

	if _, ok := svc.NextRing(monday(7, 0)); ok {
		t.Error("NextRing() on empty schedule should return false")
	}
}

func TestRemainingToday_ExcludesPastAndCurrentMinute(t *testing.T) {
	repo := &mockScheduleRepo{}
	svc := newTestService(t, repo)

	if err := svc.Replace(context.Background(), map[string][]string{
		"monday": {"08:00", "12:00", "15:30"},
	}); err != nil {
		t.Fatalf("Replace() returned error: %v", err)
	}

	remaining := svc.RemainingToday(monday(12, 0))
	if len(remaining) != 1 || remaining[0].String() != "15:30" {
		t.Errorf("RemainingToday() = %v, want [15:30]", remaining)
	}

	remaining = svc.RemainingToday(monday(7, 0))
	if len(remaining) != 3 {
		t.Errorf("RemainingToday() = %v, want all three times", remaining)
	}

	remaining = svc.RemainingToday(monday(16, 0))
	if len(remaining) != 0 {
		t.Errorf("RemainingToday() = %v, want empty", remaining)
	}
}

func TestGet_SnapshotIsIsolatedFromMutation(t *testing.T) {
	repo := &mockScheduleRepo{}
	svc := newTestService(t, repo)

	if err := svc.Replace(context.Background(), map[string][]string{"monday": {"08:00"}}); err != nil {
		t.Fatalf("Replace() returned error: %v", err)
	}

	snapshot := svc.Get()
	snapshot[model.Monday][0] = model.ClockTime{Hour: 23, Minute: 0}

	if svc.Get()[model.Monday][0].Hour != 8 {
		t.Error("mutating a returned snapshot should not affect the service")
	}
}

func TestReplace_ConcurrentWithGet(t *testing.T) {
	repo := &mockScheduleRepo{}
	svc := newTestService(t, repo)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := svc.Replace(ctx, map[string][]string{
				"monday": {"08:00"}, "friday": {"17:00"},
			}); err != nil {
				t.Errorf("Replace() returned error: %v", err)
			}
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := svc.Get()
			// 完全な新旧いずれかのみが見える（部分適用は観測されない）
			if len(got) != 0 && len(got) != 2 {
				t.Errorf("observed torn schedule: %v", got)
			}
		}()
	}
	wg.Wait()
}
