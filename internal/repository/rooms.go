package repository

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
)

func (r *Repository) GetAllRooms(ctx context.Context) ([]*domain.Room, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT id, code, capacity, created_at, version FROM rooms ORDER BY id
	`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rooms := make([]*domain.Room, 0)
	for rows.Next() {
		room := &domain.Room{}
		dst := []any{&room.ID, &room.Code, &room.Capacity, &room.CreatedAt, &room.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return rooms, nil
}

func (r *Repository) CreateRoom(ctx context.Context, room *domain.Room) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO rooms (code, capacity)
		VALUES ($1, $2)
		RETURNING id, created_at, version
	`

	if err := r.dbpool.QueryRowContext(ctx, query, room.Code, room.Capacity).Scan(&room.ID, &room.CreatedAt, &room.Version); err != nil {
		return err
	}

	return nil
}
