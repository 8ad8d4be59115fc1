package settings

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

type mockSettingsRepo struct {
	mu     sync.Mutex
	stored *model.DeviceSettings

	saveErr error
}

func (m *mockSettingsRepo) Load(_ context.Context) (*model.DeviceSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stored == nil {
		return nil, nil
	}
	s := *m.stored
	return &s, nil
}

func (m *mockSettingsRepo) Save(_ context.Context, s *model.DeviceSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	stored := *s
	m.stored = &stored
	return nil
}

// compile-time interface check
var _ repository.SettingsRepository = (*mockSettingsRepo)(nil)

// --- テスト ---

func TestNewService_UsesDefaultsWhenUnset(t *testing.T) {
	svc, err := NewService(context.Background(), &mockSettingsRepo{})
	if err != nil {
		t.Fatalf("NewService() returned error: %v", err)
	}

	got := svc.Get()
	if got.DeviceName != "Bell Controller" || got.UniqueURL != "bellcontroller" {
		t.Errorf("default settings = %+v", got)
	}
	if svc.RingDuration() != 2*time.Second {
		t.Errorf("default ring duration = %v, want 2s", svc.RingDuration())
	}
}

func TestNewService_LoadsStoredSettings(t *testing.T) {
	repo := &mockSettingsRepo{stored: &model.DeviceSettings{
		DeviceName:   "School Bell",
		UniqueURL:    "school-bell",
		RingDuration: 5 * time.Second,
	}}

	svc, err := NewService(context.Background(), repo)
	if err != nil {
		t.Fatalf("NewService() returned error: %v", err)
	}

	if got := svc.Get(); got.DeviceName != "School Bell" || got.RingDuration != 5*time.Second {
		t.Errorf("loaded settings = %+v", got)
	}
}

func TestSave_PersistsAndUpdatesSnapshot(t *testing.T) {
	repo := &mockSettingsRepo{}
	svc, _ := NewService(context.Background(), repo)

	result, err := svc.Save(context.Background(), model.DeviceSettings{
		DeviceName:   "Gym Bell",
		UniqueURL:    "bellcontroller", // 識別子は変更なし
		RingDuration: 3 * time.Second,
	})
	if err != nil {
		t.Fatalf("Save() returned error: %v", err)
	}
	if result.RestartRequired {
		t.Error("unchanged unique URL should not require restart")
	}

	if got := svc.Get(); got.DeviceName != "Gym Bell" {
		t.Errorf("snapshot not updated: %+v", got)
	}
	if repo.stored == nil || repo.stored.DeviceName != "Gym Bell" {
		t.Error("settings should be persisted")
	}
}

func TestSave_UniqueURLChangeRequiresRestart(t *testing.T) {
	svc, _ := NewService(context.Background(), &mockSettingsRepo{})

	result, err := svc.Save(context.Background(), model.DeviceSettings{
		DeviceName:   "Bell Controller",
		UniqueURL:    "new-bell",
		RingDuration: 2 * time.Second,
	})
	if err != nil {
		t.Fatalf("Save() returned error: %v", err)
	}
	if !result.RestartRequired {
		t.Error("changing the unique URL should require restart")
	}
}

func TestSave_InvalidSettingsKeepOld(t *testing.T) {
	svc, _ := NewService(context.Background(), &mockSettingsRepo{})

	_, err := svc.Save(context.Background(), model.DeviceSettings{
		DeviceName:   "Bell Controller",
		UniqueURL:    "has space",
		RingDuration: 2 * time.Second,
	})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidRequest {
		t.Fatalf("error = %v, want INVALID_REQUEST", err)
	}

	if got := svc.Get(); got.UniqueURL != "bellcontroller" {
		t.Errorf("old settings should be retained, got %+v", got)
	}
}

func TestSave_PersistFailureKeepsSnapshot(t *testing.T) {
	repo := &mockSettingsRepo{saveErr: errors.New("disk full")}
	svc, _ := NewService(context.Background(), repo)

	_, err := svc.Save(context.Background(), model.DeviceSettings{
		DeviceName:   "Gym Bell",
		UniqueURL:    "bellcontroller",
		RingDuration: 3 * time.Second,
	})
	if err == nil {
		t.Fatal("Save() should propagate the repository error")
	}

	if got := svc.Get(); got.DeviceName != "Bell Controller" {
		t.Errorf("snapshot should be unchanged after a failed save, got %+v", got)
	}
}
