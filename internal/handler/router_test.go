package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/bellman/internal/clock"
	"github.com/hitoshi/bellman/internal/middleware"
	"github.com/hitoshi/bellman/internal/model"
	"github.com/hitoshi/bellman/internal/settings"
)

type staticValidator string

func (v staticValidator) ValidateToken(presented string) bool {
	return presented == string(v)
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	rl := middleware.NewLoginRateLimiter(middleware.DefaultLoginRateLimiterConfig())
	t.Cleanup(rl.Stop)

	deps := &RouterDeps{
		Logger:            slog.New(slog.NewJSONHandler(io.Discard, nil)),
		TokenValidator:    staticValidator("valid-token"),
		CORSAllowedOrigin: "*",
		LoginRateLimiter:  rl,

		AuthService: &mockAuthService{
			loginFn: func(ctx context.Context, password string) (string, error) {
				if password == "admin" {
					return "valid-token", nil
				}
				return "", model.NewInvalidCredentialError()
			},
			changeFn: func(ctx context.Context, oldPassword, newPassword string) error {
				return nil
			},
		},
		ScheduleService: &mockScheduleService{
			getFn: func() model.WeeklySchedule {
				return model.WeeklySchedule{}
			},
			replaceFn: func(ctx context.Context, raw map[string][]string) error {
				return nil
			},
			remainingFn: func(now time.Time) []model.ClockTime {
				return nil
			},
		},
		Clock: clock.System{},
		Ringer: &mockRinger{
			ringFn: func(ctx context.Context, d time.Duration) error {
				return nil
			},
		},
		RingDuration: fixedRingDuration(2 * time.Second),
		RelayMetrics: &mockRelayMetrics{},
		SettingsService: &mockSettingsService{
			saveFn: func(ctx context.Context, in model.DeviceSettings) (settings.SaveResult, error) {
				return settings.SaveResult{}, nil
			},
		},
		StatusLog: &mockStatusLog{},
	}

	return NewRouter(deps)
}

func TestRouter_PublicEndpoints(t *testing.T) {
	router := newTestRouter(t)

	paths := []string{"/getTodayRemainingRingTimes", "/getServerMessages", "/health"}

	for _, path := range paths {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s: status = %d, want 200", path, rec.Code)
		}
	}
}

func TestRouter_ProtectedEndpointsRequireToken(t *testing.T) {
	router := newTestRouter(t)

	requests := []struct {
		method string
		path   string
	}{
		{"GET", "/auth"},
		{"POST", "/logout"},
		{"POST", "/finalizePassword"},
		{"GET", "/getSchedule"},
		{"POST", "/updateSchedule"},
		{"GET", "/ToggleRelay"},
		{"GET", "/getMacAddress"},
		{"POST", "/saveSettings"},
	}

	for _, tt := range requests {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without token: status = %d, want 401", tt.method, tt.path, rec.Code)
		}
	}
}

func TestRouter_ProtectedEndpointWithValidToken(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest("GET", "/auth", nil)
	req.Header.Set("Authorization", "valid-token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestRouter_ToggleRelayWithToken(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest("GET", "/ToggleRelay", nil)
	req.Header.Set("Authorization", "valid-token")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "Relay toggle successful" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestRouter_PreflightHandledByCORS(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("OPTIONS", "/updateSchedule", nil))

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
}

func TestRouter_SecurityHeadersApplied(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
}
