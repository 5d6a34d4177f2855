package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPopulationSortByFitness(t *testing.T) {
	snapshot := mustSnapshot(t, sharedInstructorSource())
	conflicting := func() *Schedule {
		return scheduleWith(snapshot, false,
			Class{SectionID: 1, CourseID: 1, InstructorID: 1, MeetingTime: 0},
			Class{SectionID: 1, CourseID: 2, InstructorID: 1, MeetingTime: 0},
		)
	}
	clean := func() *Schedule {
		return scheduleWith(snapshot, false,
			Class{SectionID: 1, CourseID: 1, InstructorID: 1, MeetingTime: 0},
			Class{SectionID: 1, CourseID: 2, InstructorID: 1, MeetingTime: 1},
		)
	}

	a, b, c, d := conflicting(), clean(), conflicting(), clean()
	pop := NewPopulation(4)
	for _, s := range []*Schedule{a, b, c, d} {
		pop.Add(s)
	}
	require.Equal(t, 4, pop.Size())

	pop.SortByFitness()

	// 适应度相同的课表保持原有顺序
	want := []*Schedule{b, d, a, c}
	for i, s := range want {
		assert.Same(t, s, pop.Schedule(i))
	}
	assert.Same(t, b, pop.Best())
}

func TestPopulationBestEmpty(t *testing.T) {
	pop := NewPopulation(0)
	assert.Equal(t, 0, pop.Size())
	assert.Nil(t, pop.Best())
}

func TestPopulationEvaluate(t *testing.T) {
	ga := newTestGA(t, DefaultParameters(), sharedInstructorSource(), 1)
	pop := randomPopulation(t, ga, 8)
	// 同一个课表出现两次时只计算一次
	pop.Add(pop.Schedule(0))

	require.NoError(t, pop.Evaluate(context.Background(), 3))
	for _, s := range pop.Schedules() {
		assert.False(t, s.dirty)
		assert.Greater(t, s.fitness, 0.0)
	}
}

func TestPopulationEvaluateDefaultWorkers(t *testing.T) {
	ga := newTestGA(t, DefaultParameters(), sharedInstructorSource(), 2)
	pop := randomPopulation(t, ga, 4)

	require.NoError(t, pop.Evaluate(context.Background(), 0))
	for _, s := range pop.Schedules() {
		assert.False(t, s.dirty)
	}
}

func TestPopulationEvaluateCanceled(t *testing.T) {
	ga := newTestGA(t, DefaultParameters(), sharedInstructorSource(), 1)
	pop := randomPopulation(t, ga, 4)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, pop.Evaluate(ctx, 2), context.Canceled)
}
