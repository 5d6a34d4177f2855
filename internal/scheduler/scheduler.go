package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/utils"
)

type State int32

const (
	StateIdle State = iota
	StateLoading
	StateEvolving
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateEvolving:
		return "evolving"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// GenerationReport 记录某一代中最佳课表的情况
type GenerationReport struct {
	Generation    int
	BestFitness   float64
	BestConflicts int
}

type Result struct {
	Classes     []domain.ClassAssignment
	Fitness     float64
	Conflicts   int
	Generations int
	Seed        int64
	History     []GenerationReport
}

// Recorder 用于收集排课过程的指标，由 metrics 包实现
type Recorder interface {
	ObserveGeneration(report GenerationReport)
	ObserveRun(state State, generations int, duration time.Duration)
}

type Option func(*Scheduler)

// WithRand 指定随机数来源，此时忽略 Parameters.Seed
func WithRand(rng *rand.Rand) Option {
	return func(s *Scheduler) {
		s.rng = rng
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

func WithRecorder(recorder Recorder) Option {
	return func(s *Scheduler) {
		s.recorder = recorder
	}
}

// WithObserver 在每一代排序完成后回调 fn
func WithObserver(fn func(GenerationReport)) Option {
	return func(s *Scheduler) {
		s.observer = fn
	}
}

type Scheduler struct {
	parameters *Parameters
	source     Source
	rng        *rand.Rand
	seed       int64
	logger     *slog.Logger
	recorder   Recorder
	observer   func(GenerationReport)

	mu         sync.Mutex
	state      State
	generation int
}

func New(parameters *Parameters, source Source, opts ...Option) (*Scheduler, error) {
	if err := parameters.Validate(); err != nil {
		return nil, err
	}

	s := &Scheduler{
		parameters: parameters,
		source:     source,
		seed:       parameters.Seed,
		logger:     slog.Default(),
		state:      StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.rng == nil {
		if s.seed == 0 {
			s.seed = time.Now().UnixNano()
		}
		s.rng = rand.New(rand.NewSource(s.seed))
	}

	return s, nil
}

// GenerateSchedule 创建一个 Scheduler 并执行一次完整的排课
func GenerateSchedule(ctx context.Context, parameters *Parameters, source Source, opts ...Option) (*Result, error) {
	s, err := New(parameters, source, opts...)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx)
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Scheduler) Generation() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

func (s *Scheduler) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Scheduler) setGeneration(generation int) {
	s.mu.Lock()
	s.generation = generation
	s.mu.Unlock()
}

// Run 执行一次排课：Idle -> Loading -> Evolving -> Done | Failed。
// 同一个 Scheduler 上不允许并发调用 Run，上一次结束后可以再次调用
func (s *Scheduler) Run(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	if s.state == StateLoading || s.state == StateEvolving {
		s.mu.Unlock()
		return nil, ErrEngineBusy
	}
	s.state = StateLoading
	s.generation = 0
	s.mu.Unlock()

	start := time.Now()
	s.logger.Info("开始排课",
		"populationSize", s.parameters.PopulationSize,
		"maxGenerations", s.parameters.MaxGenerations,
		"seed", s.seed,
	)

	result, err := s.run(ctx)
	duration := time.Since(start)
	generations := s.Generation()

	if err != nil {
		s.setState(StateFailed)
		s.logger.Error("排课失败", "generations", generations, "duration", duration, "error", err)
	} else {
		s.setState(StateDone)
		s.logger.Info("排课完成",
			"generations", result.Generations,
			"fitness", result.Fitness,
			"conflicts", result.Conflicts,
			"duration", duration,
		)
	}

	if s.recorder != nil {
		s.recorder.ObserveRun(s.State(), generations, duration)
	}

	return result, err
}

func (s *Scheduler) run(ctx context.Context) (*Result, error) {
	snapshot, err := LoadSnapshot(ctx, s.source)
	if err != nil {
		return nil, err
	}

	ga := NewGeneticAlgorithm(s.parameters, snapshot, s.rng)

	// 生成初始种群，任何一个课表初始化失败都会终止排课
	pop := NewPopulation(s.parameters.PopulationSize)
	for i := 0; i < s.parameters.PopulationSize; i++ {
		schedule, err := ga.NewRandomSchedule()
		if err != nil {
			return nil, err
		}
		pop.Add(schedule)
	}

	if err := pop.Evaluate(ctx, s.parameters.Workers); err != nil {
		return nil, fmt.Errorf("排课被取消: %w", err)
	}
	pop.SortByFitness()

	s.setState(StateEvolving)

	history := make([]GenerationReport, 0)
	generation := 0
	for {
		best := pop.Best()
		report := GenerationReport{
			Generation:    generation,
			BestFitness:   best.Fitness(),
			BestConflicts: best.Conflicts(),
		}
		history = append(history, report)
		s.observe(report)

		if report.BestFitness == 1.0 || generation >= s.parameters.MaxGenerations {
			break
		}

		// 只在两代之间检查是否取消，保证不会留下演化到一半的种群
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("排课被取消: %w", err)
		}

		pop, err = ga.Evolve(pop)
		if err != nil {
			return nil, err
		}
		if err := pop.Evaluate(ctx, s.parameters.Workers); err != nil {
			return nil, fmt.Errorf("排课被取消: %w", err)
		}
		pop.SortByFitness()

		generation++
		s.setGeneration(generation)
	}

	best := pop.Best()
	classes := best.Assignments()

	// 理论上不会出现，这里检查一下结果是否满足教室约束
	if err := utils.ValidateSectionRooms(classes); err != nil {
		return nil, err
	}

	return &Result{
		Classes:     classes,
		Fitness:     best.Fitness(),
		Conflicts:   best.Conflicts(),
		Generations: generation,
		Seed:        s.seed,
		History:     history,
	}, nil
}

func (s *Scheduler) observe(report GenerationReport) {
	s.logger.Debug("已完成一代演化",
		"generation", report.Generation,
		"fitness", report.BestFitness,
		"conflicts", report.BestConflicts,
	)
	if s.recorder != nil {
		s.recorder.ObserveGeneration(report)
	}
	if s.observer != nil {
		s.observer(report)
	}
}
