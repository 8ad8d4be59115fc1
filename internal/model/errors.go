// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, schedule, hardware, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeInvalidCredential = "INVALID_CREDENTIAL"
	ErrCodeWeakCredential    = "WEAK_CREDENTIAL"
	ErrCodeInvalidSchedule   = "INVALID_SCHEDULE"
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
	ErrCodeHardwareFault     = "HARDWARE_FAULT"
)

// NewUnauthorizedError は認証エラーを生成する。
// トークンが未提示・不一致・期限切れのいずれの場合も同じエラーを返す。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証されていません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewInvalidCredentialError はパスワード不一致エラーを生成する。
func NewInvalidCredentialError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredential,
		Message:  "パスワードが正しくありません。",
		Category: "auth",
		Action:   "パスワードを確認して再度お試しください。",
	}
}

// NewWeakCredentialError は新パスワードのポリシー違反エラーを生成する。
func NewWeakCredentialError(minLength int) *APIError {
	return &APIError{
		Code:     ErrCodeWeakCredential,
		Message:  fmt.Sprintf("新しいパスワードが短すぎます（%d文字以上が必要です）。", minLength),
		Category: "validation",
		Action:   fmt.Sprintf("%d文字以上のパスワードを指定してください。", minLength),
	}
}

// NewInvalidScheduleError はスケジュール検証エラーを生成する。
// reasonには不正な曜日キーや時刻値などの具体的な内容を指定する。
func NewInvalidScheduleError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidSchedule,
		Message:  fmt.Sprintf("スケジュールが不正です: %s", reason),
		Category: "schedule",
		Action:   "曜日はmonday〜sunday、時刻はHH:MM形式（00:00〜23:59）で指定してください。",
	}
}

// NewInvalidRequestError はリクエスト検証エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストが不正です: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewHardwareFaultError はリレー駆動失敗エラーを生成する。
func NewHardwareFaultError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeHardwareFault,
		Message:  fmt.Sprintf("リレーの駆動に失敗しました: %s", reason),
		Category: "hardware",
		Action:   "配線とデバイスの状態を確認してください。スケジューラは次回の鳴動に備えて動作を継続します。",
	}
}
