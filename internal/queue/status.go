package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
)

// 同一时间只允许一次排课写入数据库
const GenerateLockKey = "timetable_generate_lock"

var (
	ErrJobNotFound = errors.New("排课任务不存在")
	ErrLocked      = errors.New("已有排课正在进行")
)

func JobStatusKey(id string) string {
	return fmt.Sprintf("timetable_job_%s", id)
}

func SetJobStatus(ctx context.Context, rdb redis.Cmdable, status *domain.GenerationJobStatus, expiration time.Duration) error {
	status.UpdatedAt = time.Now()

	data, err := json.Marshal(status)
	if err != nil {
		return err
	}

	return rdb.Set(ctx, JobStatusKey(status.ID), data, expiration).Err()
}

func GetJobStatus(ctx context.Context, rdb redis.Cmdable, id string) (*domain.GenerationJobStatus, error) {
	data, err := rdb.Get(ctx, JobStatusKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}

	status := &domain.GenerationJobStatus{}
	if err := json.Unmarshal(data, status); err != nil {
		return nil, err
	}

	return status, nil
}

// AcquireLock 尝试获取排课锁，token 用于释放时确认锁仍属于自己
func AcquireLock(ctx context.Context, rdb redis.Cmdable, token string, expiration time.Duration) error {
	ok, err := rdb.SetNX(ctx, GenerateLockKey, token, expiration).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrLocked
	}
	return nil
}

// ReleaseLock 只有锁的值仍是 token 时才会删除，锁已经过期被别人拿走时什么都不做
func ReleaseLock(ctx context.Context, rdb redis.Cmdable, token string) error {
	script := redis.NewScript(`
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		end
		return 0
	`)
	return script.Run(ctx, rdb, []string{GenerateLockKey}, token).Err()
}

// Lock 是基于 redis 的排课锁
type Lock struct {
	rdb        redis.Cmdable
	expiration time.Duration
}

func NewLock(rdb redis.Cmdable, expiration time.Duration) *Lock {
	return &Lock{rdb: rdb, expiration: expiration}
}

func (l *Lock) Acquire(ctx context.Context, token string) error {
	return AcquireLock(ctx, l.rdb, token, l.expiration)
}

func (l *Lock) Release(ctx context.Context, token string) error {
	return ReleaseLock(ctx, l.rdb, token)
}

// StatusStore 把任务状态写入 redis，过期时间固定
type StatusStore struct {
	rdb        redis.Cmdable
	expiration time.Duration
}

func NewStatusStore(rdb redis.Cmdable, expiration time.Duration) *StatusStore {
	return &StatusStore{rdb: rdb, expiration: expiration}
}

func (s *StatusStore) SetStatus(ctx context.Context, status *domain.GenerationJobStatus) error {
	return SetJobStatus(ctx, s.rdb, status, s.expiration)
}
