// Package status はダッシュボード表示用の運用メッセージを保持する。
package status

import (
	"sync"

	"github.com/google/uuid"

	"github.com/hitoshi/bellman/internal/clock"
	"github.com/hitoshi/bellman/internal/model"
)

// DefaultCapacity は保持するメッセージ件数の既定値。
const DefaultCapacity = 50

// Log は固定容量のメッセージリングバッファ。
// 容量を超えると古いメッセージから捨てられる。永続化はしない。
type Log struct {
	clk      clock.Clock
	capacity int

	mu       sync.Mutex
	messages []model.StatusMessage
}

// NewLog はLogを生成する。capacityが0以下の場合はDefaultCapacityを使う。
func NewLog(clk clock.Clock, capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{
		clk:      clk,
		capacity: capacity,
	}
}

// Append はメッセージを追加する。並行呼び出しに対して安全。
func (l *Log) Append(text string) {
	msg := model.StatusMessage{
		ID:   uuid.New().String(),
		At:   l.clk.Now(),
		Text: text,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.messages = append(l.messages, msg)
	if len(l.messages) > l.capacity {
		l.messages = l.messages[len(l.messages)-l.capacity:]
	}
}

// Recent は保持中のメッセージを新しい順で返す。
func (l *Log) Recent() []model.StatusMessage {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]model.StatusMessage, len(l.messages))
	for i, msg := range l.messages {
		out[len(l.messages)-1-i] = msg
	}
	return out
}
