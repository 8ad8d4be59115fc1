// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/bellman/internal/model"
)

// CredentialRepository はデバイスパスワードのハッシュの永続化インターフェース。
// 単一オーナーデバイスのためレコードは常に1件。
type CredentialRepository interface {
	// LoadHash は保存されているパスワードハッシュを取得する。未設定の場合はnilを返す。
	LoadHash(ctx context.Context) ([]byte, error)

	// SaveHash はパスワードハッシュを保存する（既存レコードは上書き）。
	SaveHash(ctx context.Context, hash []byte) error
}

// ScheduleRepository は週間スケジュールの永続化インターフェース。
type ScheduleRepository interface {
	// Load は保存されている週間スケジュール全体を取得する。
	Load(ctx context.Context) (model.WeeklySchedule, error)

	// Replace は週間スケジュール全体を1トランザクションで置き換える。
	// 部分適用は発生しない（失敗時は旧スケジュールが残る）。
	Replace(ctx context.Context, ws model.WeeklySchedule) error
}

// SettingsRepository はデバイス設定の永続化インターフェース。
type SettingsRepository interface {
	// Load は保存されているデバイス設定を取得する。未設定の場合はnilを返す。
	Load(ctx context.Context) (*model.DeviceSettings, error)

	// Save はデバイス設定を保存する（既存レコードは上書き）。
	Save(ctx context.Context, settings *model.DeviceSettings) error
}
