package repository

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
)

func (r *Repository) GetAllCourses(ctx context.Context) ([]*domain.Course, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT id, code, name, credit, instructor_id, created_at, version FROM courses ORDER BY id
	`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courses := make([]*domain.Course, 0)
	for rows.Next() {
		course := &domain.Course{}
		dst := []any{&course.ID, &course.Code, &course.Name, &course.Credit, &course.InstructorID, &course.CreatedAt, &course.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return courses, nil
}

func (r *Repository) CreateCourse(ctx context.Context, course *domain.Course) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO courses (code, name, credit, instructor_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, version
	`

	args := []any{course.Code, course.Name, course.Credit, course.InstructorID}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&course.ID, &course.CreatedAt, &course.Version); err != nil {
		return err
	}

	return nil
}

// GetCourseIDsByCodes 按 codes 的顺序返回课程 ID，不存在的课程代码会出现在第二个返回值中
func (r *Repository) GetCourseIDsByCodes(ctx context.Context, codes []string) ([]int64, []string, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT id, code FROM courses WHERE code = ANY($1)
	`

	rows, err := r.dbpool.QueryContext(ctx, query, codes)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	idByCode := make(map[string]int64, len(codes))
	for rows.Next() {
		var id int64
		var code string
		if err := rows.Scan(&id, &code); err != nil {
			return nil, nil, err
		}
		idByCode[code] = id
	}

	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	ids := make([]int64, 0, len(codes))
	missing := make([]string, 0)
	for _, code := range codes {
		id, exists := idByCode[code]
		if !exists {
			missing = append(missing, code)
			continue
		}
		ids = append(ids, id)
	}

	return ids, missing, nil
}
