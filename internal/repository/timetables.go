package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
)

func (r *Repository) InsertTimetable(ctx context.Context, tt *domain.Timetable) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO timetables (fitness, conflicts, generations, seed)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, version
	`

	args := []any{tt.Fitness, tt.Conflicts, tt.Generations, tt.Seed}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&tt.ID, &tt.CreatedAt, &tt.Version); err != nil {
		return err
	}

	for _, c := range tt.Classes {
		query := `
			INSERT INTO timetable_classes (
				timetable_id, class_id, department_id, section_id, course_id,
				instructor_id, room_id, meeting_window_id, day_of_week
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`

		args := []any{tt.ID, c.ClassID, c.DepartmentID, c.SectionID, c.CourseID, c.InstructorID, c.RoomID, c.MeetingWindowID, c.Day}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetTimetableByID(ctx context.Context, id int64) (*domain.Timetable, error) {
	query := `
		SELECT
			t.id,
			t.fitness,
			t.conflicts,
			t.generations,
			t.seed,
			t.created_at,
			t.version,
			tc.class_id,
			tc.department_id,
			tc.section_id,
			tc.course_id,
			tc.instructor_id,
			tc.room_id,
			tc.meeting_window_id,
			tc.day_of_week,
			mw.start_time::text,
			mw.end_time::text
		FROM timetables t
		LEFT JOIN timetable_classes tc ON t.id = tc.timetable_id
		LEFT JOIN meeting_windows mw ON tc.meeting_window_id = mw.id
		WHERE t.id = $1
		ORDER BY tc.class_id
	`

	return r.queryTimetable(ctx, query, id)
}

func (r *Repository) GetLatestTimetable(ctx context.Context) (*domain.Timetable, error) {
	var id int64

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT id FROM timetables ORDER BY created_at DESC, id DESC LIMIT 1
	`
	if err := r.dbpool.QueryRowContext(ctx, query).Scan(&id); err != nil {
		return nil, err
	}

	return r.GetTimetableByID(ctx, id)
}

func (r *Repository) queryTimetable(ctx context.Context, query string, args ...any) (*domain.Timetable, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tt *domain.Timetable

	for rows.Next() {
		var row struct {
			ID              int64
			Fitness         float64
			Conflicts       int
			Generations     int
			Seed            int64
			CreatedAt       time.Time
			Version         int32
			ClassID         sql.NullInt64
			DepartmentID    sql.NullInt64
			SectionID       sql.NullInt64
			CourseID        sql.NullInt64
			InstructorID    sql.NullInt64
			RoomID          sql.NullInt64
			MeetingWindowID sql.NullInt64
			Day             sql.NullInt32
			StartTime       sql.NullString
			EndTime         sql.NullString
		}

		dst := []any{
			&row.ID,
			&row.Fitness,
			&row.Conflicts,
			&row.Generations,
			&row.Seed,
			&row.CreatedAt,
			&row.Version,
			&row.ClassID,
			&row.DepartmentID,
			&row.SectionID,
			&row.CourseID,
			&row.InstructorID,
			&row.RoomID,
			&row.MeetingWindowID,
			&row.Day,
			&row.StartTime,
			&row.EndTime,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		if tt == nil {
			tt = &domain.Timetable{
				ID:          row.ID,
				Classes:     make([]domain.ClassAssignment, 0),
				Fitness:     row.Fitness,
				Conflicts:   row.Conflicts,
				Generations: row.Generations,
				Seed:        row.Seed,
				CreatedAt:   row.CreatedAt,
				Version:     row.Version,
			}
		}

		// 没有任何课的课表也是合法的（例如没有任何班级）
		if !row.ClassID.Valid {
			continue
		}

		tt.Classes = append(tt.Classes, domain.ClassAssignment{
			ClassID:         int(row.ClassID.Int64),
			DepartmentID:    row.DepartmentID.Int64,
			SectionID:       row.SectionID.Int64,
			CourseID:        row.CourseID.Int64,
			InstructorID:    row.InstructorID.Int64,
			RoomID:          row.RoomID.Int64,
			MeetingWindowID: row.MeetingWindowID.Int64,
			Day:             row.Day.Int32,
			StartTime:       row.StartTime.String,
			EndTime:         row.EndTime.String,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if tt == nil {
		return nil, sql.ErrNoRows
	}

	return tt, nil
}
