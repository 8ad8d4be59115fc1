package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/bellman/internal/model"
)

// SQLiteScheduleRepo はSQLiteを使用したスケジュールリポジトリ。
type SQLiteScheduleRepo struct {
	db *sql.DB
}

// NewSQLiteScheduleRepo はSQLiteScheduleRepoを生成する。
func NewSQLiteScheduleRepo(db *sql.DB) *SQLiteScheduleRepo {
	return &SQLiteScheduleRepo{db: db}
}

// Load は保存されている週間スケジュール全体を取得する。
// DBに不正な値が混入していた場合はエラーを返す（マイグレーションとReplaceの検証が防ぐ前提）。
func (r *SQLiteScheduleRepo) Load(ctx context.Context) (model.WeeklySchedule, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT day, time FROM schedule_times ORDER BY day, time`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule: %w", err)
	}
	defer rows.Close()

	ws := make(model.WeeklySchedule)
	for rows.Next() {
		var dayStr, timeStr string
		if err := rows.Scan(&dayStr, &timeStr); err != nil {
			return nil, fmt.Errorf("failed to scan schedule row: %w", err)
		}

		day, err := model.ParseWeekday(dayStr)
		if err != nil {
			return nil, fmt.Errorf("corrupt schedule row: %w", err)
		}
		t, err := model.ParseClockTime(timeStr)
		if err != nil {
			return nil, fmt.Errorf("corrupt schedule row: %w", err)
		}

		ws[day] = append(ws[day], t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate schedule rows: %w", err)
	}

	return ws.Normalize(), nil
}

// Replace は週間スケジュール全体を1トランザクションで置き換える。
func (r *SQLiteScheduleRepo) Replace(ctx context.Context, ws model.WeeklySchedule) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM schedule_times`); err != nil {
		return fmt.Errorf("failed to clear schedule: %w", err)
	}

	for day, times := range ws {
		for _, t := range times {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO schedule_times (day, time) VALUES (?, ?)`,
				string(day), t.String(),
			); err != nil {
				return fmt.Errorf("failed to insert schedule time: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schedule: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ScheduleRepository = (*SQLiteScheduleRepo)(nil)
