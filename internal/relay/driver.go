// Package relay はベル鳴動用ハードウェアリレーの駆動を提供する。
package relay

import "log/slog"

// Driver はリレー出力ピンのレベル操作を抽象化する。
type Driver interface {
	// Set はリレーの開閉状態を設定する。
	Set(on bool) error
}

// NoopDriver はハードウェアなしで動作するDriver実装。
// 開発機やテストでの実行用で、状態遷移をログに出すだけ。
type NoopDriver struct{}

// Set は状態遷移をログに出力する。
func (NoopDriver) Set(on bool) error {
	slog.Debug("relay state changed (noop)", slog.Bool("on", on))
	return nil
}

// compile-time interface check
var _ Driver = NoopDriver{}
