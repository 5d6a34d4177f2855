package repository

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
)

func (r *Repository) GetAllInstructors(ctx context.Context) ([]*domain.Instructor, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT id, code, name, created_at, version FROM instructors ORDER BY id
	`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	instructors := make([]*domain.Instructor, 0)
	for rows.Next() {
		instructor := &domain.Instructor{}
		dst := []any{&instructor.ID, &instructor.Code, &instructor.Name, &instructor.CreatedAt, &instructor.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		instructors = append(instructors, instructor)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return instructors, nil
}

func (r *Repository) CreateInstructor(ctx context.Context, instructor *domain.Instructor) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO instructors (code, name)
		VALUES ($1, $2)
		RETURNING id, created_at, version
	`

	if err := r.dbpool.QueryRowContext(ctx, query, instructor.Code, instructor.Name).Scan(&instructor.ID, &instructor.CreatedAt, &instructor.Version); err != nil {
		return err
	}

	return nil
}
