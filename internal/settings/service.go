// Package settings はデバイス設定の読み書きを提供する。
package settings

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/bellman/internal/model"
	"github.com/hitoshi/bellman/internal/repository"
)

// ファームウェア時代からの初期値。設定レコードが存在しない場合に使う。
var defaultSettings = model.DeviceSettings{
	DeviceName:   "Bell Controller",
	UniqueURL:    "bellcontroller",
	RingDuration: 2 * time.Second,
}

// SaveResult は設定保存の結果を表す。
type SaveResult struct {
	// RestartRequired はネットワーク識別子が変わり、mDNS再バインドのため
	// デバイスの再起動が必要な場合にtrue。再起動自体はこのコアの外で行われる。
	RestartRequired bool
}

// Service はデバイス設定の唯一の所有者。
// SQLiteへ永続化しつつ、鳴動時間の参照が高頻度でも問題ないようスナップショットを保持する。
type Service struct {
	repo repository.SettingsRepository

	mu      sync.RWMutex
	current model.DeviceSettings
}

// NewService はServiceを生成し、保存済み設定をメモリへ読み込む。
// 設定が未保存の場合は初期値を使う（この時点では永続化しない）。
func NewService(ctx context.Context, repo repository.SettingsRepository) (*Service, error) {
	stored, err := repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	current := defaultSettings
	if stored != nil {
		current = *stored
	}

	return &Service{
		repo:    repo,
		current: current,
	}, nil
}

// Get は現在のデバイス設定のコピーを返す。
func (s *Service) Get() model.DeviceSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// RingDuration は現在設定されている鳴動時間を返す。スケジューラエンジンが発火のたびに参照する。
func (s *Service) RingDuration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.RingDuration
}

// Save は設定を検証のうえ永続化する。
// 検証失敗時はInvalidRequestを返し、旧設定がそのまま残る。
// ネットワーク識別子が変わった場合はRestartRequiredを立てて返す。
func (s *Service) Save(ctx context.Context, in model.DeviceSettings) (SaveResult, error) {
	if err := in.Validate(); err != nil {
		return SaveResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	restartRequired := in.UniqueURL != s.current.UniqueURL

	if err := s.repo.Save(ctx, &in); err != nil {
		return SaveResult{}, fmt.Errorf("failed to persist settings: %w", err)
	}
	s.current = in

	slog.Info("デバイス設定を保存しました",
		slog.String("device_name", in.DeviceName),
		slog.String("unique_url", in.UniqueURL),
		slog.Duration("ring_duration", in.RingDuration),
		slog.Bool("restart_required", restartRequired),
	)

	return SaveResult{RestartRequired: restartRequired}, nil
}
