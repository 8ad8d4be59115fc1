package model

import "time"

// StatusMessage はダッシュボードに表示する運用メッセージを表す。
// 永続化されず、プロセス内のリングバッファにのみ保持される。
type StatusMessage struct {
	ID   string    `json:"id"`
	At   time.Time `json:"at"`
	Text string    `json:"text"`
}
