package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func testParameters() *Parameters {
	p := DefaultParameters()
	p.Seed = 42
	p.Workers = 2
	return p
}

type fakeRecorder struct {
	generations []GenerationReport
	runs        []State
	runGens     []int
}

func (r *fakeRecorder) ObserveGeneration(report GenerationReport) {
	r.generations = append(r.generations, report)
}

func (r *fakeRecorder) ObserveRun(state State, generations int, _ time.Duration) {
	r.runs = append(r.runs, state)
	r.runGens = append(r.runGens, generations)
}

func TestGenerateScheduleSingleSection(t *testing.T) {
	src := singleSectionSource()
	result, err := GenerateSchedule(context.Background(), testParameters(), src, WithLogger(discardLogger))
	require.NoError(t, err)

	assert.Equal(t, 1.0, result.Fitness)
	assert.Equal(t, 0, result.Conflicts)
	assert.Equal(t, int64(42), result.Seed)
	require.Len(t, result.Classes, 2)

	snapshot := mustSnapshot(t, src)
	days := make(map[int32]struct{})
	for i, c := range result.Classes {
		assert.Equal(t, i, c.ClassID)
		assert.Equal(t, int64(1), c.DepartmentID)
		assert.Equal(t, int64(1), c.SectionID)
		assert.Equal(t, int64(1), c.CourseID)
		assert.Equal(t, int64(1), c.InstructorID)
		assert.Equal(t, int64(1), c.RoomID)

		found := false
		for _, mt := range snapshot.MeetingTimes() {
			if mt.WindowID == c.MeetingWindowID && mt.Day == c.Day {
				assert.Equal(t, mt.StartTime, c.StartTime)
				assert.Equal(t, mt.EndTime, c.EndTime)
				found = true
			}
		}
		assert.True(t, found, "上课时间 (%d, %d) 不存在", c.MeetingWindowID, c.Day)
		days[c.Day] = struct{}{}
	}
	// 同一门课不能在同一天上两次
	assert.Len(t, days, 2)

	require.NotEmpty(t, result.History)
	last := result.History[len(result.History)-1]
	assert.Equal(t, result.Generations, last.Generation)
	assert.Equal(t, 1.0, last.BestFitness)
}

func TestGenerateScheduleIsReproducible(t *testing.T) {
	run := func() *Result {
		params := testParameters()
		params.MaxGenerations = 30
		params.CountSelfConflicts = true
		result, err := GenerateSchedule(context.Background(), params, sharedInstructorSource(), WithLogger(discardLogger))
		require.NoError(t, err)
		return result
	}

	first, second := run(), run()
	assert.Equal(t, first.Classes, second.Classes)
	assert.Equal(t, first.History, second.History)
	assert.Equal(t, 30, first.Generations)
}

func TestGenerateScheduleBestNeverGetsWorse(t *testing.T) {
	params := testParameters()
	params.MaxGenerations = 100
	params.PopulationSize = 6
	params.MutationRate = 0.3

	result, err := GenerateSchedule(context.Background(), params, sharedInstructorSource(), WithLogger(discardLogger))
	require.NoError(t, err)
	require.Len(t, result.History, result.Generations+1)

	for i := 1; i < len(result.History); i++ {
		prev, cur := result.History[i-1], result.History[i]
		assert.Equal(t, i, cur.Generation)
		assert.GreaterOrEqual(t, cur.BestFitness, prev.BestFitness)
		assert.LessOrEqual(t, cur.BestConflicts, prev.BestConflicts)
	}
}

func TestGenerateScheduleZeroGenerations(t *testing.T) {
	params := testParameters()
	params.MaxGenerations = 0
	params.CountSelfConflicts = true

	result, err := GenerateSchedule(context.Background(), params, sharedInstructorSource(), WithLogger(discardLogger))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Generations)
	require.Len(t, result.History, 1)
	assert.Less(t, result.Fitness, 1.0)
	assert.Len(t, result.Classes, 8)
}

func TestRunStates(t *testing.T) {
	recorder := &fakeRecorder{}
	var observed []State

	var s *Scheduler
	s, err := New(testParameters(), singleSectionSource(),
		WithLogger(discardLogger),
		WithRecorder(recorder),
		WithObserver(func(GenerationReport) {
			observed = append(observed, s.State())
		}),
	)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, s.State())

	_, err = s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateDone, s.State())
	require.NotEmpty(t, observed)
	for _, state := range observed {
		assert.Equal(t, StateEvolving, state)
	}

	assert.Len(t, recorder.generations, len(observed))
	assert.Equal(t, []State{StateDone}, recorder.runs)

	// 结束后可以再次运行
	_, err = s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []State{StateDone, StateDone}, recorder.runs)
}

func TestRunWhileRunningIsBusy(t *testing.T) {
	var busyErr error
	calls := 0

	var s *Scheduler
	s, err := New(testParameters(), singleSectionSource(),
		WithLogger(discardLogger),
		WithObserver(func(GenerationReport) {
			calls++
			if calls == 1 {
				_, busyErr = s.Run(context.Background())
			}
		}),
	)
	require.NoError(t, err)

	_, err = s.Run(context.Background())
	require.NoError(t, err)
	assert.ErrorIs(t, busyErr, ErrEngineBusy)
	assert.Equal(t, StateDone, s.State())
}

func TestRunCanceledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, err := New(testParameters(), singleSectionSource(), WithLogger(discardLogger))
	require.NoError(t, err)

	result, err := s.Run(ctx)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateFailed, s.State())
	assert.Equal(t, 0, s.Generation())
}

func TestRunCanceledBetweenGenerations(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	params := testParameters()
	params.CountSelfConflicts = true
	recorder := &fakeRecorder{}

	s, err := New(params, sharedInstructorSource(),
		WithLogger(discardLogger),
		WithRecorder(recorder),
		WithObserver(func(report GenerationReport) {
			if report.Generation == 3 {
				cancel()
			}
		}),
	)
	require.NoError(t, err)

	result, err := s.Run(ctx)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateFailed, s.State())
	assert.Equal(t, 3, s.Generation())
	assert.Equal(t, []State{StateFailed}, recorder.runs)
	assert.Equal(t, []int{3}, recorder.runGens)
}

func TestRunDataUnavailable(t *testing.T) {
	src := singleSectionSource()
	src.failOn = "courses"
	src.err = errors.New("connection refused")
	recorder := &fakeRecorder{}

	s, err := New(testParameters(), src, WithLogger(discardLogger), WithRecorder(recorder))
	require.NoError(t, err)

	_, err = s.Run(context.Background())
	assert.ErrorIs(t, err, ErrDataUnavailable)
	assert.ErrorIs(t, err, src.err)
	assert.Equal(t, StateFailed, s.State())
	assert.Empty(t, recorder.generations)
	assert.Equal(t, []State{StateFailed}, recorder.runs)
}

func TestRunRejectsDuplicateSections(t *testing.T) {
	src := singleSectionSource()
	src.rooms = append(src.rooms, &domain.Room{ID: 2, Code: "R2", Capacity: 25})
	src.sections = append(src.sections, &domain.Section{ID: 1, Code: "S2", Capacity: 20, DepartmentID: 1})
	recorder := &fakeRecorder{}

	params := testParameters()
	params.MaxGenerations = 50
	s, err := New(params, src, WithLogger(discardLogger), WithRecorder(recorder))
	require.NoError(t, err)

	_, err = s.Run(context.Background())
	assert.ErrorIs(t, err, ErrDataUnavailable)
	assert.ErrorContains(t, err, "班级 1 重复")
	assert.Equal(t, StateFailed, s.State())
	assert.Empty(t, recorder.generations)
}

func TestRunCapacityExceeded(t *testing.T) {
	src := singleSectionSource()
	src.sections[0].Capacity = 30

	s, err := New(testParameters(), src, WithLogger(discardLogger))
	require.NoError(t, err)

	_, err = s.Run(context.Background())
	var capErr *CapacityExceededError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, int64(1), capErr.SectionID)
	assert.Equal(t, StateFailed, s.State())
}

func TestRunWithoutClasses(t *testing.T) {
	src := singleSectionSource()
	src.sections = nil

	result, err := GenerateSchedule(context.Background(), testParameters(), src, WithLogger(discardLogger))
	require.NoError(t, err)
	assert.Empty(t, result.Classes)
	assert.Equal(t, 1.0, result.Fitness)
	assert.Equal(t, 0, result.Generations)
}

func TestNewValidatesParameters(t *testing.T) {
	tests := []struct {
		name   string
		modify func(p *Parameters)
	}{
		{"种群大小为 0", func(p *Parameters) { p.PopulationSize = 0 }},
		{"精英数量大于种群大小", func(p *Parameters) { p.EliteCount = p.PopulationSize + 1 }},
		{"精英数量为负数", func(p *Parameters) { p.EliteCount = -1 }},
		{"锦标赛样本数量为 0", func(p *Parameters) { p.TournamentSize = 0 }},
		{"变异率大于 1", func(p *Parameters) { p.MutationRate = 1.5 }},
		{"变异率为负数", func(p *Parameters) { p.MutationRate = -0.1 }},
		{"最大迭代次数为负数", func(p *Parameters) { p.MaxGenerations = -1 }},
		{"并发数为负数", func(p *Parameters) { p.Workers = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParameters()
			tt.modify(p)
			_, err := New(p, singleSectionSource())
			assert.Error(t, err)
		})
	}

	p := testParameters()
	p.EliteCount = p.PopulationSize
	_, err := New(p, singleSectionSource())
	assert.NoError(t, err)
}

func TestSeedIsReported(t *testing.T) {
	p := testParameters()
	p.Seed = 0
	p.MaxGenerations = 0

	result, err := GenerateSchedule(context.Background(), p, singleSectionSource(), WithLogger(discardLogger))
	require.NoError(t, err)
	assert.NotZero(t, result.Seed)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "evolving", StateEvolving.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "State(9)", State(9).String())
}
