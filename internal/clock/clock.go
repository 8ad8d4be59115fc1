// Package clock は時刻の取得を抽象化する。
// スケジューラの唯一の外部時刻依存であり、テストでは固定時刻を注入する。
package clock

import "time"

// Clock は現在時刻の提供インターフェース。
type Clock interface {
	// Now はデバイスのローカル時刻を返す。
	Now() time.Time
}

// System はtime.Nowをそのまま使うClock実装。
type System struct{}

// Now は現在のシステム時刻を返す。
func (System) Now() time.Time {
	return time.Now()
}

// Fixed は固定時刻を返すClock実装。テスト用。
type Fixed struct {
	T time.Time
}

// Now は固定された時刻を返す。
func (f Fixed) Now() time.Time {
	return f.T
}

// compile-time interface checks
var (
	_ Clock = System{}
	_ Clock = Fixed{}
)
