package handler

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/hitoshi/bellman/internal/middleware"
	"github.com/hitoshi/bellman/internal/model"
	"github.com/hitoshi/bellman/internal/settings"
)

// SettingsServiceInterface は設定ハンドラーが必要とするサービスインターフェース。
type SettingsServiceInterface interface {
	// Get は現在のデバイス設定のスナップショットを返す。
	Get() model.DeviceSettings
	// Save は設定を検証のうえ永続化する。
	Save(ctx context.Context, in model.DeviceSettings) (settings.SaveResult, error)
}

// SettingsHandler はデバイス設定のHTTPハンドラー。
type SettingsHandler struct {
	service SettingsServiceInterface
	status  StatusAppender
}

// NewSettingsHandler はSettingsHandlerを生成する。
func NewSettingsHandler(service SettingsServiceInterface, status StatusAppender) *SettingsHandler {
	return &SettingsHandler{
		service: service,
		status:  status,
	}
}

// saveSettingsRequest は設定保存リクエストのJSONボディ。
// フィールド名は初代ファームウェアのクライアントに合わせる。
type saveSettingsRequest struct {
	DeviceName   string `json:"deviceName"`
	UniqueURL    string `json:"uniqueURL"`
	RingDuration int    `json:"ringDuration"` // 秒
}

// SaveSettings はデバイス設定を保存する。
// POST /saveSettings
//
// ネットワーク識別子（uniqueURL）が変わった場合は再起動を促す文言を返す。
// 初代クライアントはこの文言を見てデバイスの再起動待ちに入る。
func (h *SettingsHandler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	var req saveSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("リクエストボディの形式が不正です。"))
		return
	}

	result, err := h.service.Save(r.Context(), model.DeviceSettings{
		DeviceName:   req.DeviceName,
		UniqueURL:    req.UniqueURL,
		RingDuration: time.Duration(req.RingDuration) * time.Second,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.status.Append("設定を保存しました")

	if result.RestartRequired {
		writeText(w, http.StatusOK, "URL saved successfully, device will restart to apply changes")
		return
	}
	writeText(w, http.StatusOK, "Settings saved successfully")
}

// GetMacAddress はデバイスのMACアドレスを返す。
// GET /getMacAddress
//
// ループバック以外で稼働中の最初のインターフェースのアドレスを返す。
func (h *SettingsHandler) GetMacAddress(w http.ResponseWriter, r *http.Request) {
	mac, err := firstMacAddress()
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeText(w, http.StatusOK, mac)
}

// firstMacAddress はループバック以外で稼働中の最初のインターフェースのMACアドレスを返す。
func firstMacAddress() (string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "", err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if iface.Flags&net.FlagUp == 0 {
			continue
		}
		if len(iface.HardwareAddr) == 0 {
			continue
		}
		return iface.HardwareAddr.String(), nil
	}

	return "", model.NewHardwareFaultError("利用可能なネットワークインターフェースが見つかりません")
}
