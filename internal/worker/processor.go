package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/config"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/queue"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/scheduler"
)

// Store 是 worker 需要的数据库操作，由 repository.Repository 实现
type Store interface {
	scheduler.Source
	InsertTimetable(ctx context.Context, tt *domain.Timetable) error
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
}

type StatusStore interface {
	SetStatus(ctx context.Context, status *domain.GenerationJobStatus) error
}

type Locker interface {
	Acquire(ctx context.Context, token string) error
	Release(ctx context.Context, token string) error
}

// Processor 执行从队列中取出的排课任务
type Processor struct {
	cfg       *config.Config
	store     Store
	statuses  StatusStore
	locker    Locker
	publisher queue.Publisher
	recorder  scheduler.Recorder
	logger    *slog.Logger
}

func NewProcessor(cfg *config.Config, store Store, statuses StatusStore, locker Locker, publisher queue.Publisher, recorder scheduler.Recorder) *Processor {
	return &Processor{
		cfg:       cfg,
		store:     store,
		statuses:  statuses,
		locker:    locker,
		publisher: publisher,
		recorder:  recorder,
		logger:    slog.Default(),
	}
}

/**
 * Process 执行一个排课任务
 * 排课本身失败时（数据不完整、教室不够、超时等）会把任务标记为 failed 并返回 nil，
 * 只有拿不到锁或者无法更新任务状态时才返回错误，这时消息应该重新入队
 */
func (p *Processor) Process(ctx context.Context, job *domain.GenerationJob) error {
	logger := p.logger.With("jobID", job.ID)

	token := uuid.NewString()
	if err := p.locker.Acquire(ctx, token); err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(p.cfg.Redis.OperationExpiration)*time.Second)
		defer cancel()
		if err := p.locker.Release(ctx, token); err != nil {
			logger.Error("无法释放排课锁", "error", err)
		}
	}()

	status := &domain.GenerationJobStatus{
		ID:    job.ID,
		State: domain.GenerationJobRunning,
	}
	if err := p.statuses.SetStatus(ctx, status); err != nil {
		return fmt.Errorf("无法更新任务状态: %w", err)
	}

	tt, runErr := p.run(ctx, job, logger)
	if runErr != nil {
		logger.Error("排课任务失败", "error", runErr)
		status.State = domain.GenerationJobFailed
		status.Message = runErr.Error()
	} else {
		logger.Info("排课任务完成", "timetableID", tt.ID, "fitness", tt.Fitness)
		status.State = domain.GenerationJobSucceeded
		status.TimetableID = tt.ID
	}

	// 即使 ctx 已经被取消，也要记录最终状态
	statusCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Duration(p.cfg.Redis.OperationExpiration)*time.Second)
	defer cancel()
	if err := p.statuses.SetStatus(statusCtx, status); err != nil {
		return fmt.Errorf("无法更新任务状态: %w", err)
	}

	p.notify(statusCtx, job, tt, runErr, logger)

	return nil
}

func (p *Processor) run(ctx context.Context, job *domain.GenerationJob, logger *slog.Logger) (*domain.Timetable, error) {
	runCtx, cancel := context.WithTimeout(ctx, time.Duration(p.cfg.Scheduler.RunTimeout)*time.Second)
	defer cancel()

	opts := []scheduler.Option{scheduler.WithLogger(logger)}
	if p.recorder != nil {
		opts = append(opts, scheduler.WithRecorder(p.recorder))
	}

	params := scheduler.NewParameters(job.Parameters, p.cfg.Scheduler.Workers)
	result, err := scheduler.GenerateSchedule(runCtx, params, p.store, opts...)
	if err != nil {
		return nil, err
	}

	tt := &domain.Timetable{
		Classes:     result.Classes,
		Fitness:     result.Fitness,
		Conflicts:   result.Conflicts,
		Generations: result.Generations,
		Seed:        result.Seed,
	}
	if err := p.store.InsertTimetable(ctx, tt); err != nil {
		return nil, fmt.Errorf("无法保存课表: %w", err)
	}

	return tt, nil
}

// notify 把排课结果通过邮件告诉提交任务的用户，失败只记录日志
func (p *Processor) notify(ctx context.Context, job *domain.GenerationJob, tt *domain.Timetable, runErr error, logger *slog.Logger) {
	if job.NotifyEmail == "" {
		return
	}

	fullName := ""
	if user, err := p.store.GetUserByID(ctx, job.RequestedBy); err != nil {
		logger.Warn("无法获取提交任务的用户", "userID", job.RequestedBy, "error", err)
	} else {
		fullName = user.FullName
	}

	mailMessage := domain.MailMessage{
		To: job.NotifyEmail,
	}
	if runErr != nil {
		mailMessage.Type = "timetable_failed"
		mailMessage.Data = domain.TimetableFailedMailData{
			FullName: fullName,
			JobID:    job.ID,
			Reason:   runErr.Error(),
		}
	} else {
		mailMessage.Type = "timetable_ready"
		mailMessage.Data = domain.TimetableReadyMailData{
			FullName:    fullName,
			JobID:       job.ID,
			TimetableID: tt.ID,
			Fitness:     tt.Fitness,
			Conflicts:   tt.Conflicts,
			Generations: tt.Generations,
		}
	}

	publishCtx, cancel := context.WithTimeout(ctx, time.Duration(p.cfg.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	if err := queue.PublishJSON(publishCtx, p.publisher, p.cfg.RabbitMQ.MailQueue, mailMessage); err != nil {
		logger.Error("无法投递通知邮件", "error", err)
	}
}
