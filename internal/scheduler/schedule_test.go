package scheduler

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
)

func TestInitializeAssignsOneRoomPerSection(t *testing.T) {
	snapshot := mustSnapshot(t, sharedInstructorSource())
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 20; i++ {
		s := NewSchedule(snapshot, false)
		require.NoError(t, s.Initialize(rng))
		require.Equal(t, snapshot.ExpectedClassCount(), s.Len())

		roomOf := make(map[int64]int64)
		sectionOf := make(map[int64]int64)
		for _, c := range s.Classes() {
			if room, ok := roomOf[c.SectionID]; ok {
				assert.Equal(t, room, c.RoomID)
			}
			if section, ok := sectionOf[c.RoomID]; ok {
				assert.Equal(t, section, c.SectionID)
			}
			roomOf[c.SectionID] = c.RoomID
			sectionOf[c.RoomID] = c.SectionID

			assert.Equal(t, int64(1), c.InstructorID)
			assert.GreaterOrEqual(t, c.MeetingTime, 0)
			assert.Less(t, c.MeetingTime, len(snapshot.MeetingTimes()))
		}
		// 30 人的班级用 40 人的教室，50 人的班级用 60 人的教室
		assert.Equal(t, map[int64]int64{1: 1, 2: 2}, roomOf)
	}
}

func TestInitializeClassOrder(t *testing.T) {
	s := NewSchedule(mustSnapshot(t, sharedInstructorSource()), false)
	require.NoError(t, s.Initialize(rand.New(rand.NewSource(1))))

	want := []struct{ section, course int64 }{
		{1, 1}, {1, 1}, {1, 2}, {1, 2},
		{2, 1}, {2, 1}, {2, 2}, {2, 2},
	}
	for i, w := range want {
		c := s.Class(i)
		assert.Equal(t, i, c.ID)
		assert.Equal(t, w.section, c.SectionID)
		assert.Equal(t, w.course, c.CourseID)
		assert.Equal(t, int64(1), c.DepartmentID)
	}
}

func TestInitializeBestFit(t *testing.T) {
	src := singleSectionSource()
	src.rooms = []*domain.Room{
		{ID: 1, Code: "R1", Capacity: 100},
		{ID: 2, Code: "R2", Capacity: 10},
		{ID: 3, Code: "R3", Capacity: 30},
		{ID: 4, Code: "R4", Capacity: 20},
		{ID: 5, Code: "R5", Capacity: 20},
	}
	s := NewSchedule(mustSnapshot(t, src), false)
	require.NoError(t, s.Initialize(rand.New(rand.NewSource(1))))

	// 容量刚好等于人数的教室剩余为 0，多个相同时取第一个
	for _, c := range s.Classes() {
		assert.Equal(t, int64(4), c.RoomID)
	}
}

func TestInitializeCapacityExceeded(t *testing.T) {
	src := singleSectionSource()
	src.sections[0].Capacity = 26

	s := NewSchedule(mustSnapshot(t, src), false)
	err := s.Initialize(rand.New(rand.NewSource(1)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCapacityExceeded))

	var capErr *CapacityExceededError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, int64(1), capErr.SectionID)
	assert.Equal(t, int32(26), capErr.Capacity)
}

func TestInitializeDoesNotReuseRooms(t *testing.T) {
	src := singleSectionSource()
	src.rooms = []*domain.Room{{ID: 1, Code: "R1", Capacity: 100}}
	src.sections = append(src.sections, &domain.Section{ID: 2, Code: "S2", Capacity: 10, DepartmentID: 1})

	s := NewSchedule(mustSnapshot(t, src), false)
	var capErr *CapacityExceededError
	require.ErrorAs(t, s.Initialize(rand.New(rand.NewSource(1))), &capErr)
	assert.Equal(t, int64(2), capErr.SectionID)
}

// scheduleWith 按给定的上课时间下标手动构造课表，classes 中只需要填写班级、课程和教师
func scheduleWith(snapshot *Snapshot, countSelfConflicts bool, classes ...Class) *Schedule {
	s := NewSchedule(snapshot, countSelfConflicts)
	for i, c := range classes {
		c.ID = i
		s.appendClass(c)
	}
	return s
}

func TestFitnessCountsConflicts(t *testing.T) {
	snapshot := mustSnapshot(t, sharedInstructorSource())
	// 下标 0: 周一 08:00，1: 周一 10:00，2: 周二 08:00
	tests := []struct {
		name      string
		classes   []Class
		conflicts int
	}{
		{
			name: "没有冲突",
			classes: []Class{
				{SectionID: 1, CourseID: 1, InstructorID: 1, MeetingTime: 0},
				{SectionID: 1, CourseID: 2, InstructorID: 1, MeetingTime: 1},
				{SectionID: 2, CourseID: 1, InstructorID: 1, MeetingTime: 2},
			},
			conflicts: 0,
		},
		{
			name: "同一个班级同一时间两节课",
			classes: []Class{
				{SectionID: 1, CourseID: 1, InstructorID: 1, MeetingTime: 0},
				{SectionID: 1, CourseID: 2, InstructorID: 1, MeetingTime: 0},
			},
			conflicts: 1,
		},
		{
			name: "同一个班级同一天两次同一门课",
			classes: []Class{
				{SectionID: 1, CourseID: 1, InstructorID: 1, MeetingTime: 0},
				{SectionID: 1, CourseID: 1, InstructorID: 1, MeetingTime: 1},
			},
			conflicts: 1,
		},
		{
			name: "同一时间同一门课同时违反两条规则",
			classes: []Class{
				{SectionID: 1, CourseID: 1, InstructorID: 1, MeetingTime: 0},
				{SectionID: 1, CourseID: 1, InstructorID: 1, MeetingTime: 0},
			},
			conflicts: 2,
		},
		{
			name: "教师同一时间给两个班级上课",
			classes: []Class{
				{SectionID: 1, CourseID: 1, InstructorID: 1, MeetingTime: 0},
				{SectionID: 2, CourseID: 2, InstructorID: 1, MeetingTime: 0},
			},
			conflicts: 1,
		},
		{
			name: "不同天不冲突",
			classes: []Class{
				{SectionID: 1, CourseID: 1, InstructorID: 1, MeetingTime: 0},
				{SectionID: 1, CourseID: 1, InstructorID: 1, MeetingTime: 2},
				{SectionID: 2, CourseID: 1, InstructorID: 1, MeetingTime: 2},
			},
			conflicts: 1,
		},
		{
			name: "三节课两两冲突",
			classes: []Class{
				{SectionID: 1, CourseID: 1, InstructorID: 1, MeetingTime: 0},
				{SectionID: 1, CourseID: 2, InstructorID: 1, MeetingTime: 0},
				{SectionID: 2, CourseID: 1, InstructorID: 1, MeetingTime: 0},
			},
			conflicts: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := scheduleWith(snapshot, false, tt.classes...)
			assert.Equal(t, tt.conflicts, s.Conflicts())
			assert.InDelta(t, 1/(1+float64(tt.conflicts)), s.Fitness(), 1e-12)
		})
	}
}

func TestFitnessCountSelfConflicts(t *testing.T) {
	snapshot := mustSnapshot(t, sharedInstructorSource())
	classes := []Class{
		{SectionID: 1, CourseID: 1, InstructorID: 1, MeetingTime: 0},
		{SectionID: 1, CourseID: 2, InstructorID: 1, MeetingTime: 1},
	}

	assert.Equal(t, 0, scheduleWith(snapshot, false, classes...).Conflicts())
	// 每节课和自己比较都会同时违反前两条规则
	self := scheduleWith(snapshot, true, classes...)
	assert.Equal(t, 4, self.Conflicts())
	assert.Less(t, self.Fitness(), 1.0)
}

func TestFitnessRangeOnRandomSchedules(t *testing.T) {
	snapshot := mustSnapshot(t, sharedInstructorSource())
	rng := rand.New(rand.NewSource(3))

	for i := 0; i < 100; i++ {
		s := NewSchedule(snapshot, false)
		require.NoError(t, s.Initialize(rng))

		f := s.Fitness()
		assert.Greater(t, f, 0.0)
		assert.LessOrEqual(t, f, 1.0)
		assert.Equal(t, f == 1.0, s.Conflicts() == 0)
	}
}

func TestFitnessIsCachedUntilChanged(t *testing.T) {
	snapshot := mustSnapshot(t, sharedInstructorSource())
	s := scheduleWith(snapshot, false,
		Class{SectionID: 1, CourseID: 1, InstructorID: 1, MeetingTime: 0},
		Class{SectionID: 1, CourseID: 2, InstructorID: 1, MeetingTime: 0},
	)

	f1, c1 := s.Fitness(), s.Conflicts()
	f2, c2 := s.Fitness(), s.Conflicts()
	assert.Equal(t, f1, f2)
	assert.Equal(t, c1, c2)
	assert.False(t, s.dirty)

	c := s.Class(1)
	c.MeetingTime = 1
	s.SetClass(1, c)
	assert.True(t, s.dirty)
	assert.Equal(t, 1.0, s.Fitness())
}

func TestClassesReturnsCopy(t *testing.T) {
	s := NewSchedule(mustSnapshot(t, singleSectionSource()), false)
	require.NoError(t, s.Initialize(rand.New(rand.NewSource(1))))

	classes := s.Classes()
	classes[0].RoomID = 99
	assert.Equal(t, int64(1), s.Class(0).RoomID)
}

func TestAssignments(t *testing.T) {
	snapshot := mustSnapshot(t, singleSectionSource())
	s := scheduleWith(snapshot, false,
		Class{DepartmentID: 1, SectionID: 1, CourseID: 1, InstructorID: 1, RoomID: 1, MeetingTime: 3},
	)

	assert.Equal(t, []domain.ClassAssignment{{
		ClassID:         0,
		DepartmentID:    1,
		SectionID:       1,
		CourseID:        1,
		InstructorID:    1,
		RoomID:          1,
		MeetingWindowID: 2,
		Day:             2,
		StartTime:       "10:00:00",
		EndTime:         "11:30:00",
	}}, s.Assignments())
}

func TestFitnessComparesNormalizedStartTimes(t *testing.T) {
	src := sharedInstructorSource()
	src.windows = []*domain.MeetingWindow{
		{ID: 1, StartTime: "8:00:00", EndTime: "09:00:00"},
		{ID: 2, StartTime: "08:00:00", EndTime: "09:30:00"},
	}
	snapshot := mustSnapshot(t, src)

	// 下标 0 和 1 分别是周一的两个时间段，开始时间相同
	s := scheduleWith(snapshot, false,
		Class{SectionID: 1, CourseID: 1, InstructorID: 1, MeetingTime: 0},
		Class{SectionID: 2, CourseID: 2, InstructorID: 1, MeetingTime: 1},
	)
	assert.Equal(t, 1, s.Conflicts())
}
