// Package config はアプリケーション設定の読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// RelayMode はリレードライバの種別を表す。
type RelayMode string

const (
	// RelayModeGPIO はsysfs GPIO経由で実リレーを駆動するモード。
	RelayModeGPIO RelayMode = "gpio"
	// RelayModeNoop はハードウェアなしで動作するモード。開発機向け。
	RelayModeNoop RelayMode = "noop"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DBPath string

	// Server
	ServerPort  string
	MetricsPort string

	// Relay
	GPIOPin   int
	RelayMode RelayMode

	// Auth
	TokenTTL        time.Duration
	DefaultPassword string

	// Rate Limit（ログイン試行、1分あたり）
	LoginRatePerMinute int
	LoginBurst         int

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 不正な値が設定されている場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.DBPath = getEnvString("BELLMAN_DB_PATH", "bellman.db")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.MetricsPort = getEnvString("METRICS_PORT", "9090")

	// 初代ファームウェアのRELAY_PINに合わせてデフォルトはGPIO 5
	cfg.GPIOPin = getEnvInt("BELLMAN_GPIO_PIN", 5)
	if cfg.GPIOPin < 0 {
		return nil, fmt.Errorf("BELLMAN_GPIO_PIN must not be negative: %d", cfg.GPIOPin)
	}

	// デフォルトはnoop。開発機ではハードウェアなしで起動できる。
	cfg.RelayMode = RelayMode(getEnvString("BELLMAN_RELAY_MODE", string(RelayModeNoop)))
	switch cfg.RelayMode {
	case RelayModeGPIO, RelayModeNoop:
	default:
		return nil, fmt.Errorf("BELLMAN_RELAY_MODE must be %q or %q: %q",
			RelayModeGPIO, RelayModeNoop, cfg.RelayMode)
	}

	cfg.TokenTTL = getEnvDuration("TOKEN_TTL", 24*time.Hour)
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("TOKEN_TTL must be positive: %v", cfg.TokenTTL)
	}

	cfg.DefaultPassword = getEnvString("DEFAULT_PASSWORD", "admin")

	cfg.LoginRatePerMinute = getEnvInt("LOGIN_RATE", 10)
	cfg.LoginBurst = getEnvInt("LOGIN_BURST", 5)

	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "*")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
