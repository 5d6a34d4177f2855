package repository

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
)

func (r *Repository) GetAllSections(ctx context.Context) ([]*domain.Section, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT id, code, capacity, department_id, created_at, version FROM sections ORDER BY id
	`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sections := make([]*domain.Section, 0)
	for rows.Next() {
		section := &domain.Section{}
		dst := []any{&section.ID, &section.Code, &section.Capacity, &section.DepartmentID, &section.CreatedAt, &section.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		sections = append(sections, section)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sections, nil
}

func (r *Repository) CreateSection(ctx context.Context, section *domain.Section) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO sections (code, capacity, department_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, version
	`

	args := []any{section.Code, section.Capacity, section.DepartmentID}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&section.ID, &section.CreatedAt, &section.Version); err != nil {
		return err
	}

	return nil
}
