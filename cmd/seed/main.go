package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/sysu-ecnc-dev/timetable/backend/internal/config"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/csvio"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/repository"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/seed"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var dir string
	opts := seed.DefaultOptions()

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机排课数据, 2: 从 csv 目录导入排课数据)")
	flag.StringVar(&dir, "dir", "./data", "导入数据所在的目录")
	flag.IntVar(&opts.Instructors, "instructors", opts.Instructors, "随机教师数量")
	flag.IntVar(&opts.Courses, "courses", opts.Courses, "随机课程数量")
	flag.IntVar(&opts.MeetingWindows, "windows", opts.MeetingWindows, "每天的上课时间段数量")
	flag.IntVar(&opts.Departments, "departments", opts.Departments, "随机院系数量")
	flag.IntVar(&opts.SectionsPerDepartment, "sections", opts.SectionsPerDepartment, "每个院系的班级数量")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)

	// 执行操作
	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		ds := seed.GenerateDataset(opts)
		if err := seed.Insert(context.Background(), repo, ds); err != nil {
			slog.Error("无法插入随机数据", slog.String("error", err.Error()))
		}
	case 2:
		ds, err := seed.ReadDataset(context.Background(), csvio.NewLoader(dir))
		if err != nil {
			slog.Error("无法读取 csv 数据", slog.String("dir", dir), slog.String("error", err.Error()))
			return
		}
		if err := seed.Insert(context.Background(), repo, ds); err != nil {
			slog.Error("无法导入数据", slog.String("error", err.Error()))
		}
	default:
		slog.Error("指定的操作非法")
	}
}
