package model

import (
	"regexp"
	"time"
)

// DeviceSettings はデバイス本体の設定を表す。
// UniqueURLはmDNSホスト名（"<UniqueURL>.local"）として使われるため文字種を制限する。
type DeviceSettings struct {
	DeviceName   string        // 画面表示用のデバイス名
	UniqueURL    string        // ネットワーク識別子（mDNSホスト名の先頭部分）
	RingDuration time.Duration // 1回の鳴動でリレーを閉じる時間
}

const (
	// MaxDeviceNameLength はデバイス名の最大長。
	MaxDeviceNameLength = 32
	// MaxRingDuration は1回の鳴動時間の上限。
	MaxRingDuration = 60 * time.Second
)

var uniqueURLPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Validate は設定値を検証し、問題がある場合はAPIErrorを返す。
// スケジュールの状態には依存しない。
func (s *DeviceSettings) Validate() error {
	if s.DeviceName == "" || len(s.DeviceName) > MaxDeviceNameLength {
		return NewInvalidRequestError("デバイス名は1〜32文字で指定してください")
	}
	if !uniqueURLPattern.MatchString(s.UniqueURL) {
		return NewInvalidRequestError("識別子には英数字・ハイフン・アンダースコアのみ使用できます")
	}
	if s.RingDuration <= 0 || s.RingDuration > MaxRingDuration {
		return NewInvalidRequestError("鳴動時間は1〜60秒で指定してください")
	}
	return nil
}
