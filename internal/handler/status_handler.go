package handler

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/hitoshi/bellman/internal/model"
)

// StatusLogInterface はステータスハンドラーが必要とするログインターフェース。
type StatusLogInterface interface {
	// Recent は新しい順のステータスメッセージを返す。
	Recent() []model.StatusMessage
}

// StatusHandler はステータスメッセージとヘルスチェックのHTTPハンドラー。
type StatusHandler struct {
	log StatusLogInterface
	db  *sql.DB
}

// NewStatusHandler はStatusHandlerを生成する。
func NewStatusHandler(log StatusLogInterface, db *sql.DB) *StatusHandler {
	return &StatusHandler{
		log: log,
		db:  db,
	}
}

// GetServerMessages は直近のステータスメッセージを新しい順で返す。
// GET /getServerMessages
func (h *StatusHandler) GetServerMessages(w http.ResponseWriter, r *http.Request) {
	messages := h.log.Recent()
	if messages == nil {
		messages = []model.StatusMessage{}
	}
	writeJSON(w, http.StatusOK, messages)
}

// Health はデータベース接続を含むヘルスチェックに応答する。
// GET /health
func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.PingContext(r.Context()); err != nil {
			slog.Error("health check failed", slog.String("error", err.Error()))
			writeText(w, http.StatusServiceUnavailable, "unhealthy")
			return
		}
	}
	writeText(w, http.StatusOK, "ok")
}
