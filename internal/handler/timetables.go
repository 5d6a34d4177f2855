package handler

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/queue"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/utils"
)

// 所有字段都是可选的，没有给出的使用配置中的默认值
type generationRequest struct {
	PopulationSize     *int     `json:"populationSize" validate:"omitempty,min=1"`
	EliteCount         *int     `json:"eliteCount" validate:"omitempty,min=0"`
	TournamentSize     *int     `json:"tournamentSize" validate:"omitempty,min=1"`
	MutationRate       *float64 `json:"mutationRate" validate:"omitempty,min=0,max=1"`
	MaxGenerations     *int     `json:"maxGenerations" validate:"omitempty,min=0"`
	Seed               *int64   `json:"seed"`
	CountSelfConflicts *bool    `json:"countSelfConflicts"`
}

func (h *Handler) readGenerationParameters(r *http.Request) (*domain.GenerationParameters, error) {
	var req generationRequest

	// 允许不带请求体，全部使用默认参数
	if r.ContentLength != 0 {
		if err := h.readJSON(r, &req); err != nil {
			return nil, err
		}
	}
	if err := h.validate.Struct(req); err != nil {
		return nil, err
	}

	defaults := h.config.Scheduler
	gp := &domain.GenerationParameters{
		PopulationSize:     defaults.PopulationSize,
		EliteCount:         defaults.EliteCount,
		TournamentSize:     defaults.TournamentSize,
		MutationRate:       defaults.MutationRate,
		MaxGenerations:     defaults.MaxGenerations,
		CountSelfConflicts: defaults.CountSelfConflicts,
	}

	if req.PopulationSize != nil {
		gp.PopulationSize = *req.PopulationSize
	}
	if req.EliteCount != nil {
		gp.EliteCount = *req.EliteCount
	}
	if req.TournamentSize != nil {
		gp.TournamentSize = *req.TournamentSize
	}
	if req.MutationRate != nil {
		gp.MutationRate = *req.MutationRate
	}
	if req.MaxGenerations != nil {
		gp.MaxGenerations = *req.MaxGenerations
	}
	if req.Seed != nil {
		gp.Seed = *req.Seed
	}
	if req.CountSelfConflicts != nil {
		gp.CountSelfConflicts = *req.CountSelfConflicts
	}

	if err := utils.ValidateGenerationParameters(gp); err != nil {
		return nil, err
	}

	return gp, nil
}

// syncRunTimeout 是同步排课的时限，必须在 http.Server 的写超时之前完成排课并保存课表
func (h *Handler) syncRunTimeout() time.Duration {
	runTimeout := time.Duration(h.config.Scheduler.RunTimeout) * time.Second
	writeTimeout := time.Duration(h.config.Server.WriteTimeout) * time.Second
	if writeTimeout <= 0 {
		return runTimeout
	}

	limit := writeTimeout - time.Duration(h.config.Database.TransactionTimeout)*time.Second
	if limit <= 0 {
		limit = writeTimeout / 2
	}
	return min(runTimeout, limit)
}

// GenerateTimetable 同步地执行一次排课并把结果保存到数据库
func (h *Handler) GenerateTimetable(w http.ResponseWriter, r *http.Request) {
	gp, err := h.readGenerationParameters(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 获取排课锁，防止多个请求同时排课
	token := uuid.NewString()

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.Redis.OperationExpiration)*time.Second)
	defer cancel()

	if err := queue.AcquireLock(ctx, h.redisClient, token, time.Duration(h.config.Redis.LockExpiration)*time.Second); err != nil {
		h.schedulerError(w, r, err)
		return
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.Redis.OperationExpiration)*time.Second)
		defer cancel()
		if err := queue.ReleaseLock(ctx, h.redisClient, token); err != nil {
			slog.Error("无法释放排课锁", "error", err)
		}
	}()

	runCtx, cancelRun := context.WithTimeout(r.Context(), h.syncRunTimeout())
	defer cancelRun()

	opts := []scheduler.Option{}
	if h.recorder != nil {
		opts = append(opts, scheduler.WithRecorder(h.recorder))
	}

	result, err := scheduler.GenerateSchedule(runCtx, scheduler.NewParameters(*gp, h.config.Scheduler.Workers), h.repository, opts...)
	if err != nil {
		h.schedulerError(w, r, err)
		return
	}

	tt := &domain.Timetable{
		Classes:     result.Classes,
		Fitness:     result.Fitness,
		Conflicts:   result.Conflicts,
		Generations: result.Generations,
		Seed:        result.Seed,
	}

	if err := h.repository.InsertTimetable(r.Context(), tt); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "排课成功", tt)
}

func (h *Handler) GetLatestTimetable(w http.ResponseWriter, r *http.Request) {
	tt, err := h.repository.GetLatestTimetable(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.successResponse(w, r, "还没有生成过课表", nil)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "获取课表成功", tt)
}

func (h *Handler) GetTimetable(w http.ResponseWriter, r *http.Request) {
	tt := r.Context().Value(TimetableCtx).(*domain.Timetable)
	h.successResponse(w, r, "获取课表成功", tt)
}
