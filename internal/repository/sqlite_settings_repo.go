package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/bellman/internal/model"
)

// SQLiteSettingsRepo はSQLiteを使用したデバイス設定リポジトリ。
type SQLiteSettingsRepo struct {
	db *sql.DB
}

// NewSQLiteSettingsRepo はSQLiteSettingsRepoを生成する。
func NewSQLiteSettingsRepo(db *sql.DB) *SQLiteSettingsRepo {
	return &SQLiteSettingsRepo{db: db}
}

// Load は保存されているデバイス設定を取得する。未設定の場合はnilを返す。
func (r *SQLiteSettingsRepo) Load(ctx context.Context) (*model.DeviceSettings, error) {
	var (
		s           model.DeviceSettings
		durationSec int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT device_name, unique_url, ring_duration_sec FROM settings WHERE id = 1`,
	).Scan(&s.DeviceName, &s.UniqueURL, &durationSec)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	s.RingDuration = time.Duration(durationSec) * time.Second
	return &s, nil
}

// Save はデバイス設定を保存する。
func (r *SQLiteSettingsRepo) Save(ctx context.Context, settings *model.DeviceSettings) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO settings (id, device_name, unique_url, ring_duration_sec, updated_at)
		 VALUES (1, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   device_name = excluded.device_name,
		   unique_url = excluded.unique_url,
		   ring_duration_sec = excluded.ring_duration_sec,
		   updated_at = excluded.updated_at`,
		settings.DeviceName, settings.UniqueURL,
		int64(settings.RingDuration/time.Second), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// compile-time interface check
var _ SettingsRepository = (*SQLiteSettingsRepo)(nil)
