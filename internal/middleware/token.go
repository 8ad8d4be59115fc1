// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"net/http"
)

// TokenValidator はベアラートークンの検証に必要なインターフェース。
// auth.Serviceの部分集合として定義する。
type TokenValidator interface {
	ValidateToken(presented string) bool
}

// NewTokenMiddleware はAuthorizationヘッダーからトークンを読み取り、
// 有効性を検証するミドルウェアを返す。
// クライアントはヘッダーにトークンをそのまま載せる（"Bearer "プレフィックスは付けても付けなくてもよい）。
// 未認証リクエストには統一フォーマットの401を返す。
func NewTokenMiddleware(validator TokenValidator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" || !validator.ValidateToken(token) {
				WriteUnauthorized(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// TokenFromRequest はAuthorizationヘッダーからトークンを取り出す。
// 歴代クライアントは生のトークンを送るが、"Bearer <token>"形式も受け付ける。
func TokenFromRequest(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && (header[:7] == "Bearer " || header[:7] == "bearer ") {
		return header[7:]
	}
	return header
}
