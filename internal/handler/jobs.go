package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/queue"
)

// CreateGenerationJob 把排课任务投递到消息队列，由 worker 异步执行
func (h *Handler) CreateGenerationJob(w http.ResponseWriter, r *http.Request) {
	gp, err := h.readGenerationParameters(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	userID, err := h.currentUserID(r)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	user, err := h.repository.GetUserByID(r.Context(), userID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	job := domain.GenerationJob{
		ID:          uuid.NewString(),
		Parameters:  *gp,
		RequestedBy: user.ID,
		NotifyEmail: user.Email,
		CreatedAt:   time.Now(),
	}

	// 先写入状态再投递，保证 worker 读到的任务一定有状态
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.Redis.OperationExpiration)*time.Second)
	defer cancel()

	status := &domain.GenerationJobStatus{
		ID:    job.ID,
		State: domain.GenerationJobQueued,
	}
	if err := queue.SetJobStatus(ctx, h.redisClient, status, time.Duration(h.config.Redis.JobExpiration)*time.Second); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	ctx, cancel = context.WithTimeout(r.Context(), time.Duration(h.config.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	if err := queue.PublishJSON(ctx, h.mqChannel, h.config.RabbitMQ.JobQueue, job); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "排课任务已提交", status)
}

func (h *Handler) GetGenerationJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		h.errorResponse(w, r, "任务ID无效")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.Redis.OperationExpiration)*time.Second)
	defer cancel()

	status, err := queue.GetJobStatus(ctx, h.redisClient, id)
	if err != nil {
		switch {
		case errors.Is(err, queue.ErrJobNotFound):
			h.errorResponse(w, r, "排课任务不存在或已过期")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "获取排课任务成功", status)
}
