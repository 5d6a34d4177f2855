package scheduler

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
)

var (
	ErrDataUnavailable  = errors.New("排课数据不可用")
	ErrCapacityExceeded = errors.New("没有容量足够的教室")
	ErrEngineBusy       = errors.New("排课正在进行中")
)

// CapacityExceededError 表示某个班级在初始化时找不到容量足够的剩余教室
type CapacityExceededError struct {
	SectionID int64
	Capacity  int32
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("班级 %d（人数 %d）%s", e.SectionID, e.Capacity, ErrCapacityExceeded.Error())
}

func (e *CapacityExceededError) Unwrap() error {
	return ErrCapacityExceeded
}

// 遗传算法参数
type Parameters struct {
	PopulationSize     int     `validate:"min=1"`                        // 种群大小
	EliteCount         int     `validate:"min=0,ltefield=PopulationSize"` // 精英数量
	TournamentSize     int     `validate:"min=1"`                        // 锦标赛选择的样本数量
	MutationRate       float64 `validate:"min=0,max=1"`                  // 每节课被替换的概率
	MaxGenerations     int     `validate:"min=0"`                        // 最大迭代次数
	Seed               int64   // 随机数种子，为 0 时使用当前时间
	Workers            int     `validate:"min=0"` // 并行计算适应度的 goroutine 数量，为 0 时使用 GOMAXPROCS
	CountSelfConflicts bool    // 为 true 时每节课也会和自己比较（会让适应度永远达不到 1）
}

func DefaultParameters() *Parameters {
	return &Parameters{
		PopulationSize: 10,
		EliteCount:     1,
		TournamentSize: 3,
		MutationRate:   0.1,
		MaxGenerations: 500,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (p *Parameters) Validate() error {
	return validate.Struct(p)
}

// Class 是一节具体的课。
// ID、DepartmentID、SectionID、CourseID 在创建时确定；InstructorID、RoomID、MeetingTime
// 在 Schedule 初始化时赋值一次，之后只会在变异时被整体替换
type Class struct {
	ID           int
	DepartmentID int64
	SectionID    int64
	CourseID     int64
	InstructorID int64
	RoomID       int64
	MeetingTime  int // Snapshot 中 meetingTimes 的下标
}

func newClass(id int, departmentID, sectionID, courseID int64) Class {
	return Class{
		ID:           id,
		DepartmentID: departmentID,
		SectionID:    sectionID,
		CourseID:     courseID,
	}
}

// NewParameters 把调用方给出的参数转换为引擎参数，workers 来自部署配置
func NewParameters(gp domain.GenerationParameters, workers int) *Parameters {
	return &Parameters{
		PopulationSize:     gp.PopulationSize,
		EliteCount:         gp.EliteCount,
		TournamentSize:     gp.TournamentSize,
		MutationRate:       gp.MutationRate,
		MaxGenerations:     gp.MaxGenerations,
		Seed:               gp.Seed,
		Workers:            workers,
		CountSelfConflicts: gp.CountSelfConflicts,
	}
}
