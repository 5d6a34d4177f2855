package repository

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
)

func (r *Repository) GetAllMeetingWindows(ctx context.Context) ([]*domain.MeetingWindow, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	// start_time 和 end_time 是 TIME 类型，转换成字符串之后格式为 15:04:05
	query := `
		SELECT id, start_time::text, end_time::text, created_at, version
		FROM meeting_windows
		ORDER BY start_time, id
	`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	windows := make([]*domain.MeetingWindow, 0)
	for rows.Next() {
		w := &domain.MeetingWindow{}
		dst := []any{&w.ID, &w.StartTime, &w.EndTime, &w.CreatedAt, &w.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		windows = append(windows, w)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return windows, nil
}

func (r *Repository) CreateMeetingWindow(ctx context.Context, w *domain.MeetingWindow) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO meeting_windows (start_time, end_time)
		VALUES ($1, $2)
		RETURNING id, created_at, version
	`

	if err := r.dbpool.QueryRowContext(ctx, query, w.StartTime, w.EndTime).Scan(&w.ID, &w.CreatedAt, &w.Version); err != nil {
		return err
	}

	return nil
}
