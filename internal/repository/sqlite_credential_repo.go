package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLiteCredentialRepo はSQLiteを使用したクレデンシャルリポジトリ。
type SQLiteCredentialRepo struct {
	db *sql.DB
}

// NewSQLiteCredentialRepo はSQLiteCredentialRepoを生成する。
func NewSQLiteCredentialRepo(db *sql.DB) *SQLiteCredentialRepo {
	return &SQLiteCredentialRepo{db: db}
}

// LoadHash は保存されているパスワードハッシュを取得する。未設定の場合はnilを返す。
func (r *SQLiteCredentialRepo) LoadHash(ctx context.Context) ([]byte, error) {
	var hash []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT password_hash FROM credential WHERE id = 1`,
	).Scan(&hash)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}

	return hash, nil
}

// SaveHash はパスワードハッシュを保存する。
func (r *SQLiteCredentialRepo) SaveHash(ctx context.Context, hash []byte) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO credential (id, password_hash, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET password_hash = excluded.password_hash, updated_at = excluded.updated_at`,
		hash, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

// compile-time interface check
var _ CredentialRepository = (*SQLiteCredentialRepo)(nil)
