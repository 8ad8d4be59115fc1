// Package app はアプリケーションの起動とワイヤリングを提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/bellman/internal/auth"
	"github.com/hitoshi/bellman/internal/clock"
	"github.com/hitoshi/bellman/internal/config"
	"github.com/hitoshi/bellman/internal/database"
	"github.com/hitoshi/bellman/internal/handler"
	"github.com/hitoshi/bellman/internal/logger"
	"github.com/hitoshi/bellman/internal/metrics"
	"github.com/hitoshi/bellman/internal/middleware"
	"github.com/hitoshi/bellman/internal/model"
	"github.com/hitoshi/bellman/internal/relay"
	"github.com/hitoshi/bellman/internal/repository"
	"github.com/hitoshi/bellman/internal/schedule"
	"github.com/hitoshi/bellman/internal/scheduler"
	"github.com/hitoshi/bellman/internal/settings"
	"github.com/hitoshi/bellman/internal/status"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting bellman",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("relay_mode", string(cfg.RelayMode)),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// serverWriteTimeout はHTTPレスポンスの書き込みデッドライン。
// /ToggleRelayは鳴動完了までブロックし、先行するスケジュール鳴動の
// ロック待ちが重なると最長で鳴動上限2回分かかるため、それより長くとる。
const serverWriteTimeout = 2*model.MaxRingDuration + 15*time.Second

// statusRinger はリレー鳴動の結果をステータスログに残すRingerラッパー。
// スケジュール鳴動と手動鳴動のどちらも同じControllerロックを通る。
type statusRinger struct {
	controller *relay.Controller
	status     *status.Log
}

// Ring はリレーを鳴動させ、結果をステータスログに追記する。
func (sr *statusRinger) Ring(ctx context.Context, d time.Duration) error {
	if err := sr.controller.Ring(ctx, d); err != nil {
		sr.status.Append("スケジュール鳴動に失敗しました: " + err.Error())
		return err
	}
	sr.status.Append("スケジュール鳴動を実行しました")
	return nil
}

var _ scheduler.Ringer = (*statusRinger)(nil)

// runServe はデーモンモードで起動する。
// マイグレーションを適用し、全依存関係をワイヤリングして
// HTTPサーバーとスケジューラエンジンを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. マイグレーション
	// デバイス上では運用者がいないため、起動時に未適用分を自動適用する
	if err := database.RunMigrations(cfg.DBPath); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	// 2. DB接続
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database opened", slog.String("path", cfg.DBPath))

	// 3. リポジトリの初期化
	credRepo := repository.NewSQLiteCredentialRepo(db)
	scheduleRepo := repository.NewSQLiteScheduleRepo(db)
	settingsRepo := repository.NewSQLiteSettingsRepo(db)

	clk := clock.System{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 4. ドメインサービスの初期化
	authService := auth.NewService(credRepo, clk, auth.ServiceConfig{
		TokenTTL:        cfg.TokenTTL,
		DefaultPassword: cfg.DefaultPassword,
	})
	if err := authService.EnsureCredential(ctx); err != nil {
		return fmt.Errorf("failed to ensure credential: %w", err)
	}

	scheduleService, err := schedule.NewService(ctx, scheduleRepo)
	if err != nil {
		return fmt.Errorf("failed to load schedule: %w", err)
	}

	settingsService, err := settings.NewService(ctx, settingsRepo)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	// 5. リレードライバの初期化
	var driver relay.Driver
	switch cfg.RelayMode {
	case config.RelayModeGPIO:
		driver, err = relay.NewGPIODriver(cfg.GPIOPin)
		if err != nil {
			return fmt.Errorf("failed to init GPIO driver: %w", err)
		}
	default:
		driver = relay.NoopDriver{}
	}
	controller := relay.NewController(driver)

	// 6. ステータスログとメトリクス
	statusLog := status.NewLog(clk, status.DefaultCapacity)
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 7. スケジューラエンジンの起動
	engine := scheduler.NewEngine(
		scheduleService,
		&statusRinger{controller: controller, status: statusLog},
		settingsService,
		clk,
		slog.Default(),
		collector,
	)
	go engine.Run(ctx)

	// 8. ルーターの構築
	loginLimiterCfg := middleware.DefaultLoginRateLimiterConfig()
	loginLimiterCfg.Rate = rate.Limit(float64(cfg.LoginRatePerMinute) / 60.0)
	loginLimiterCfg.Burst = cfg.LoginBurst
	loginLimiter := middleware.NewLoginRateLimiter(loginLimiterCfg)
	defer loginLimiter.Stop()

	deps := &handler.RouterDeps{
		Logger:            slog.Default(),
		TokenValidator:    authService,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		LoginRateLimiter:  loginLimiter,
		StatusMetrics:     collector,

		AuthService: authService,

		ScheduleService: scheduleService,
		Clock:           clk,

		Ringer:       controller,
		RingDuration: settingsService,
		RelayMetrics: collector,

		SettingsService: settingsService,

		StatusLog: statusLog,
		DB:        db,
	}

	router := handler.NewRouter(deps)

	// 9. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// メトリクスは外部公開しない内部ポートで配信する
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", metrics.Handler(registry))
	metricsServer := &http.Server{
		Addr:    ":" + cfg.MetricsPort,
		Handler: metricsMux,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	go func() {
		slog.Info("metrics server starting", slog.String("addr", metricsServer.Addr))
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down...")

	// エンジンを先に止めてから鳴動中のリレーを待つ
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("metrics server shutdown failed", slog.String("error", err.Error()))
	}

	slog.Info("stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations", slog.String("path", cfg.DBPath))

	if err := database.RunMigrations(cfg.DBPath); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// コンテナ環境でのヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
