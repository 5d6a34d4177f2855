package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
)

func (r *Repository) GetAllDepartments(ctx context.Context) ([]*domain.Department, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT
			d.id,
			d.code,
			d.name,
			d.created_at,
			d.version,
			dc.course_id
		FROM departments d
		LEFT JOIN department_courses dc ON d.id = dc.department_id
		ORDER BY d.id, dc.position
	`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	// 课程顺序决定了课表中课的排列顺序，所以这里不能用 map 来组装结果
	departments := make([]*domain.Department, 0)
	departmentsMap := make(map[int64]*domain.Department)

	for rows.Next() {
		var row struct {
			ID        int64
			Code      string
			Name      string
			CreatedAt time.Time
			Version   int32
			CourseID  sql.NullInt64
		}

		dst := []any{&row.ID, &row.Code, &row.Name, &row.CreatedAt, &row.Version, &row.CourseID}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		department, exists := departmentsMap[row.ID]
		if !exists {
			department = &domain.Department{
				ID:        row.ID,
				Code:      row.Code,
				Name:      row.Name,
				CourseIDs: make([]int64, 0),
				CreatedAt: row.CreatedAt,
				Version:   row.Version,
			}
			departmentsMap[row.ID] = department
			departments = append(departments, department)
		}

		// 如果 course_id 为空，则表示这个院系还没有任何课程
		if !row.CourseID.Valid {
			continue
		}

		department.CourseIDs = append(department.CourseIDs, row.CourseID.Int64)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return departments, nil
}

func (r *Repository) CreateDepartment(ctx context.Context, department *domain.Department) error {
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
		INSERT INTO departments (code, name)
		VALUES ($1, $2)
		RETURNING id, created_at, version
	`

	if err := tx.QueryRowContext(ctx, query, department.Code, department.Name).Scan(&department.ID, &department.CreatedAt, &department.Version); err != nil {
		return err
	}

	for position, courseID := range department.CourseIDs {
		query := `
			INSERT INTO department_courses (department_id, course_id, position)
			VALUES ($1, $2, $3)
		`

		if _, err := tx.ExecContext(ctx, query, department.ID, courseID, position); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}
