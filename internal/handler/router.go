package handler

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/bellman/internal/clock"
	"github.com/hitoshi/bellman/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	TokenValidator    middleware.TokenValidator
	CORSAllowedOrigin string
	LoginRateLimiter  *middleware.LoginRateLimiter
	StatusMetrics     middleware.StatusRecorderMetrics

	// 認証
	AuthService AuthServiceInterface

	// スケジュール
	ScheduleService ScheduleServiceInterface
	Clock           clock.Clock

	// リレー
	Ringer       RingerInterface
	RingDuration RingDurationProvider
	RelayMetrics RelayMetrics

	// 設定
	SettingsService SettingsServiceInterface

	// ステータス
	StatusLog StatusAppenderLog
	DB        *sql.DB
}

// StatusAppenderLog はステータスログの追記と参照の両機能をまとめたインターフェース。
type StatusAppenderLog interface {
	StatusAppender
	StatusLogInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → Recovery → SecurityHeaders → Logging → (認証グループのみ) Token
//
// エンドポイントのパスは初代ファームウェアのクライアント互換で固定する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// 全ルート共通のミドルウェア
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.StatusMetrics))

	authHandler := NewAuthHandler(deps.AuthService, deps.StatusLog)
	scheduleHandler := NewScheduleHandler(deps.ScheduleService, deps.Clock, deps.StatusLog)
	relayHandler := NewRelayHandler(deps.Ringer, deps.RingDuration, deps.RelayMetrics, deps.StatusLog)
	settingsHandler := NewSettingsHandler(deps.SettingsService, deps.StatusLog)
	statusHandler := NewStatusHandler(deps.StatusLog, deps.DB)

	// --- 認証不要のルート ---

	// ログイン（総当たり対策のレート制限付き）
	r.With(deps.LoginRateLimiter.Middleware()).Post("/completeLogin", authHandler.CompleteLogin)

	// 玄関先の表示端末が使う公開エンドポイント
	r.Get("/getTodayRemainingRingTimes", scheduleHandler.GetTodayRemainingRingTimes)
	r.Get("/getServerMessages", statusHandler.GetServerMessages)
	r.Get("/health", statusHandler.Health)

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewTokenMiddleware(deps.TokenValidator))

		r.Get("/auth", authHandler.CheckAuth)
		r.Post("/logout", authHandler.Logout)
		r.Post("/finalizePassword", authHandler.FinalizePassword)

		// スケジュールは在席パターンを露呈するため参照にも認証を要求する
		r.Get("/getSchedule", scheduleHandler.GetSchedule)
		r.Post("/updateSchedule", scheduleHandler.UpdateSchedule)

		r.Get("/ToggleRelay", relayHandler.ToggleRelay)

		r.Get("/getMacAddress", settingsHandler.GetMacAddress)
		r.Post("/saveSettings", settingsHandler.SaveSettings)
	})

	return r
}
