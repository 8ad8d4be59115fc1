// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/hitoshi/bellman/internal/middleware"
	"github.com/hitoshi/bellman/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// Login はパスワードを検証し、新しいトークンを発行する。
	// 発行と同時に既存トークンは無効になる。
	Login(ctx context.Context, password string) (string, error)
	// Logout は提示されたトークンが現行トークンと一致する場合のみ破棄する。
	Logout(presented string)
	// ChangePassword は現在のパスワードを検証してから新パスワードへ切り替える。
	ChangePassword(ctx context.Context, oldPassword, newPassword string) error
}

// AuthHandler は認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	status  StatusAppender
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, status StatusAppender) *AuthHandler {
	return &AuthHandler{
		service: service,
		status:  status,
	}
}

// loginRequest はログインリクエストのJSONボディ。
type loginRequest struct {
	Password string `json:"password"`
}

// loginResponse はログイン成功時のレスポンス。
type loginResponse struct {
	Token string `json:"token"`
}

// changePasswordRequest はパスワード変更リクエストのJSONボディ。
// 初代ファームウェアのフィールド名を踏襲する。
type changePasswordRequest struct {
	OldPassword string `json:"OldPassword"`
	NewPassword string `json:"NewPassword"`
}

// CompleteLogin はパスワードを検証してトークンを発行する。
// POST /completeLogin
//
// 初代クライアントはフォームエンコードで送るため、フォームとJSONの両方を受け付ける。
func (h *AuthHandler) CompleteLogin(w http.ResponseWriter, r *http.Request) {
	password, ok := formOrJSONValue(r, "password", func(req *loginRequest) string { return req.Password })
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("パスワードが指定されていません。"))
		return
	}

	token, err := h.service.Login(r.Context(), password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.status.Append("ログインしました")
	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

// CheckAuth はトークンの有効性を確認する。
// GET /auth
//
// トークン検証はミドルウェアで済んでいるため、到達した時点で認証済み。
func (h *AuthHandler) CheckAuth(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, "Authorized")
}

// Logout は現行トークンを破棄する。
// POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.service.Logout(middleware.TokenFromRequest(r))
	writeText(w, http.StatusOK, "Logged out")
}

// FinalizePassword はパスワードを変更する。
// POST /finalizePassword
//
// 成功時は現行トークンも無効になるため、クライアントは再ログインが必要になる。
func (h *AuthHandler) FinalizePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteErrorResponse(w, http.StatusBadRequest,
				model.NewInvalidRequestError("リクエストボディの形式が不正です。"))
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			middleware.WriteErrorResponse(w, http.StatusBadRequest,
				model.NewInvalidRequestError("リクエストボディの形式が不正です。"))
			return
		}
		req.OldPassword = r.PostForm.Get("OldPassword")
		req.NewPassword = r.PostForm.Get("NewPassword")
	}

	if err := h.service.ChangePassword(r.Context(), req.OldPassword, req.NewPassword); err != nil {
		handleServiceError(w, err)
		return
	}

	writeText(w, http.StatusOK, "Password updated")
}

// formOrJSONValue はフォームまたはJSONボディから単一の値を取り出す。
func formOrJSONValue(r *http.Request, formKey string, fromJSON func(*loginRequest) string) (string, bool) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/json") {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return "", false
		}
		value := fromJSON(&req)
		return value, value != ""
	}

	if err := r.ParseForm(); err != nil {
		return "", false
	}
	value := r.PostForm.Get(formKey)
	return value, value != ""
}
