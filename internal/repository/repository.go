package repository

import (
	"database/sql"

	"github.com/sysu-ecnc-dev/timetable/backend/internal/config"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/scheduler"
)

// Repository 实现了 scheduler.Source，排课时直接从数据库读取快照
type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB
}

var _ scheduler.Source = (*Repository)(nil)

func NewRepository(cfg *config.Config, dbpool *sql.DB) *Repository {
	return &Repository{
		cfg:    cfg,
		dbpool: dbpool,
	}
}
