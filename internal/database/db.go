package database

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Open はSQLiteデータベース接続を開く。
// pathにはデバイス上のデータベースファイルのパスを指定する（例: "/var/lib/bellman/bellman.db"）。
// sql.Openは接続を試行しないため、実際の確認にはdb.Ping()を使用すること。
// 書き込みは1本のコネクションに直列化する（SQLiteはマルチライターを持たない）。
func Open(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	return db, nil
}
