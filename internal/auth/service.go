// Package auth はデバイスパスワードの検証とベアラートークンの発行・検証を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/bellman/internal/clock"
	"github.com/hitoshi/bellman/internal/model"
	"github.com/hitoshi/bellman/internal/repository"
)

// MinPasswordLength は新パスワードの最低文字数ポリシー。
const MinPasswordLength = 8

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	TokenTTL        time.Duration // トークンの有効期間
	DefaultPassword string        // クレデンシャル未設定時の初期パスワード
}

// Service はデバイスの単一クレデンシャルと単一トークンのライフサイクルを管理する。
// トークンはプロセス内メモリにのみ保持され、再起動で無効になる（再ログインを強制する意図的な仕様）。
// 同時に有効なトークンは常に最大1つで、新規発行は直前のトークンを即時無効化する。
type Service struct {
	credRepo repository.CredentialRepository
	clk      clock.Clock
	config   ServiceConfig

	mu       sync.Mutex
	token    string
	issuedAt time.Time
}

// NewService はServiceを生成する。
func NewService(credRepo repository.CredentialRepository, clk clock.Clock, config ServiceConfig) *Service {
	return &Service{
		credRepo: credRepo,
		clk:      clk,
		config:   config,
	}
}

// EnsureCredential はクレデンシャルが未設定の場合に初期パスワードを設定する。
// 初回起動時に1回呼び出す。初期パスワードのまま運用しないよう警告ログを出す。
func (s *Service) EnsureCredential(ctx context.Context) error {
	hash, err := s.credRepo.LoadHash(ctx)
	if err != nil {
		return fmt.Errorf("failed to load credential: %w", err)
	}
	if hash != nil {
		return nil
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(s.config.DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash default password: %w", err)
	}
	if err := s.credRepo.SaveHash(ctx, newHash); err != nil {
		return fmt.Errorf("failed to save default credential: %w", err)
	}

	slog.Warn("初期パスワードを設定しました。早めに変更してください")
	return nil
}

// VerifyPassword は候補パスワードを保存済みハッシュと照合する。
// bcrypt比較は一定時間で行われ、候補の値はログに残さない。
func (s *Service) VerifyPassword(ctx context.Context, candidate string) (bool, error) {
	hash, err := s.credRepo.LoadHash(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load credential: %w", err)
	}
	if hash == nil {
		return false, nil
	}

	return bcrypt.CompareHashAndPassword(hash, []byte(candidate)) == nil, nil
}

// Login はパスワードを検証し、新しいトークンを発行する。
// 発行と直前トークンの無効化は同一ロック内で行われ、2つのトークンが同時に有効になる瞬間は存在しない。
func (s *Service) Login(ctx context.Context, password string) (string, error) {
	ok, err := s.VerifyPassword(ctx, password)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", model.NewInvalidCredentialError()
	}

	token, err := generateToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.mu.Lock()
	s.token = token
	s.issuedAt = s.clk.Now()
	s.mu.Unlock()

	slog.Info("login succeeded, token issued")
	return token, nil
}

// ValidateToken は提示されたトークンが現在の有効なトークンと一致するか検証する。
// Login/Logoutと並行して安全に呼び出せる。
func (s *Service) ValidateToken(presented string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == "" || presented == "" {
		return false
	}
	if s.clk.Now().Sub(s.issuedAt) > s.config.TokenTTL {
		// 期限切れトークンは破棄する
		s.token = ""
		return false
	}

	return subtle.ConstantTimeCompare([]byte(presented), []byte(s.token)) == 1
}

// Logout は提示されたトークンが現在のトークンと一致する場合に破棄する。
func (s *Service) Logout(presented string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && subtle.ConstantTimeCompare([]byte(presented), []byte(s.token)) == 1 {
		s.token = ""
		slog.Info("user logged out")
	}
}

// ChangePassword はパスワードを変更する。
// 旧パスワード不一致はInvalidCredential、新パスワードのポリシー違反はWeakCredentialを返す。
// 成功時は保存済みトークンを無効化し、再ログインを強制する。
func (s *Service) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	ok, err := s.VerifyPassword(ctx, oldPassword)
	if err != nil {
		return err
	}
	if !ok {
		return model.NewInvalidCredentialError()
	}

	if len(newPassword) < MinPasswordLength {
		return model.NewWeakCredentialError(MinPasswordLength)
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}
	if err := s.credRepo.SaveHash(ctx, newHash); err != nil {
		return fmt.Errorf("failed to save new credential: %w", err)
	}

	// 変更後は全トークンを無効化する
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()

	slog.Info("password changed, outstanding token invalidated")
	return nil
}

// generateToken は暗号的に安全なランダムトークンを生成する。
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
