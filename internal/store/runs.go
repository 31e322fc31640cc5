package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// 运行状态
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Run 一次计算运行
type Run struct {
	ID           string     `json:"id"`
	StartedAt    time.Time  `json:"startedAt"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	Status       string     `json:"status"`
	DurationMs   int64      `json:"durationMs"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	Backend      string     `json:"backend"`
}

// RunStats 运行统计（/api/status 使用）
type RunStats struct {
	Total       int        `json:"total"`
	Succeeded   int        `json:"succeeded"`
	Failed      int        `json:"failed"`
	Running     int        `json:"running"`
	AvgDuration int64      `json:"avgDurationMs"`
	LastRunAt   *time.Time `json:"lastRunAt,omitempty"`
}

// RunLog 运行日志接口，计算服务只依赖它
type RunLog interface {
	StartRun(ctx context.Context, id, backend string, startedAt time.Time) error
	FinishRun(ctx context.Context, id string, completedAt time.Time, runErr error) error
}

// StartRun 记录运行开始
func (s *Store) StartRun(ctx context.Context, id, backend string, startedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO calculation_runs (id, started_at, status, backend)
		VALUES (?, ?, ?, ?)
	`, id, startedAt.UTC(), StatusRunning, backend)
	if err != nil {
		return fmt.Errorf("failed to start run: %w", err)
	}
	return nil
}

// FinishRun 记录运行结束，runErr 为 nil 表示成功
func (s *Store) FinishRun(ctx context.Context, id string, completedAt time.Time, runErr error) error {
	status, msg := StatusSucceeded, ""
	if runErr != nil {
		status, msg = StatusFailed, runErr.Error()
	}

	var startedAt time.Time
	err := s.db.QueryRowContext(ctx, "SELECT started_at FROM calculation_runs WHERE id = ?", id).Scan(&startedAt)
	if err == sql.ErrNoRows {
		return fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}
	duration := completedAt.Sub(startedAt).Milliseconds()
	if duration < 0 {
		duration = 0
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE calculation_runs SET
			completed_at = ?,
			status = ?,
			error_message = ?,
			duration_ms = ?
		WHERE id = ?
	`, completedAt.UTC(), status, msg, duration, id)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run not found: %s", id)
	}
	return nil
}

// GetRun 读取单次运行
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, completed_at, status, duration_ms, error_message, backend
		FROM calculation_runs WHERE id = ?
	`, id)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	return r, err
}

// RecentRuns 最近的运行，按开始时间倒序
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, completed_at, status, duration_ms, error_message, backend
		FROM calculation_runs ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Stats 汇总统计
func (s *Store) Stats(ctx context.Context) (RunStats, error) {
	var (
		st      RunStats
		avg     sql.NullFloat64
		lastRun sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'succeeded' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'running' THEN 1 ELSE 0 END), 0),
			AVG(CASE WHEN status != 'running' THEN duration_ms END)
		FROM calculation_runs
	`).Scan(&st.Total, &st.Succeeded, &st.Failed, &st.Running, &avg)
	if err != nil {
		return RunStats{}, fmt.Errorf("failed to query run stats: %w", err)
	}
	if avg.Valid {
		st.AvgDuration = int64(avg.Float64 + 0.5)
	}

	err = s.db.QueryRowContext(ctx, `SELECT started_at FROM calculation_runs ORDER BY started_at DESC LIMIT 1`).Scan(&lastRun)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return RunStats{}, fmt.Errorf("failed to query last run: %w", err)
	case lastRun.Valid:
		t := lastRun.Time
		st.LastRunAt = &t
	}
	return st, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		r         Run
		completed sql.NullTime
	)
	if err := row.Scan(&r.ID, &r.StartedAt, &completed, &r.Status, &r.DurationMs, &r.ErrorMessage, &r.Backend); err != nil {
		return nil, err
	}
	if completed.Valid {
		t := completed.Time
		r.CompletedAt = &t
	}
	return &r, nil
}
