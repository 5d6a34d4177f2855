package scheduler

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
)

// memorySource 是内存中的数据源，failOn 不为空时对应的方法会返回 err
type memorySource struct {
	rooms       []*domain.Room
	windows     []*domain.MeetingWindow
	instructors []*domain.Instructor
	courses     []*domain.Course
	departments []*domain.Department
	sections    []*domain.Section

	failOn string
	err    error
}

func (s *memorySource) fail(name string) error {
	if s.failOn == name {
		return s.err
	}
	return nil
}

func (s *memorySource) GetAllRooms(context.Context) ([]*domain.Room, error) {
	return s.rooms, s.fail("rooms")
}

func (s *memorySource) GetAllMeetingWindows(context.Context) ([]*domain.MeetingWindow, error) {
	return s.windows, s.fail("windows")
}

func (s *memorySource) GetAllInstructors(context.Context) ([]*domain.Instructor, error) {
	return s.instructors, s.fail("instructors")
}

func (s *memorySource) GetAllCourses(context.Context) ([]*domain.Course, error) {
	return s.courses, s.fail("courses")
}

func (s *memorySource) GetAllDepartments(context.Context) ([]*domain.Department, error) {
	return s.departments, s.fail("departments")
}

func (s *memorySource) GetAllSections(context.Context) ([]*domain.Section, error) {
	return s.sections, s.fail("sections")
}

func twoWindows() []*domain.MeetingWindow {
	return []*domain.MeetingWindow{
		{ID: 1, StartTime: "08:00:00", EndTime: "09:30:00"},
		{ID: 2, StartTime: "10:00:00", EndTime: "11:30:00"},
	}
}

// singleSectionSource: 一个院系，一门两学分的课，一个 20 人的班级，一间 25 人的教室
func singleSectionSource() *memorySource {
	return &memorySource{
		rooms:       []*domain.Room{{ID: 1, Code: "R1", Capacity: 25}},
		windows:     twoWindows(),
		instructors: []*domain.Instructor{{ID: 1, Code: "zs1", Name: "张三"}},
		courses:     []*domain.Course{{ID: 1, Code: "MA101", Name: "高等数学", Credit: 2, InstructorID: 1}},
		departments: []*domain.Department{{ID: 1, Code: "MA", Name: "数学学院", CourseIDs: []int64{1}}},
		sections:    []*domain.Section{{ID: 1, Code: "S1", Capacity: 20, DepartmentID: 1}},
	}
}

// sharedInstructorSource: 两个班级的两门课都由同一个教师讲授
func sharedInstructorSource() *memorySource {
	return &memorySource{
		rooms: []*domain.Room{
			{ID: 1, Code: "R1", Capacity: 40},
			{ID: 2, Code: "R2", Capacity: 60},
		},
		windows:     twoWindows(),
		instructors: []*domain.Instructor{{ID: 1, Code: "zs1", Name: "张三"}},
		courses: []*domain.Course{
			{ID: 1, Code: "MA101", Name: "高等数学", Credit: 2, InstructorID: 1},
			{ID: 2, Code: "PH101", Name: "大学物理", Credit: 2, InstructorID: 1},
		},
		departments: []*domain.Department{{ID: 1, Code: "SC", Name: "理学院", CourseIDs: []int64{1, 2}}},
		sections: []*domain.Section{
			{ID: 1, Code: "S1", Capacity: 30, DepartmentID: 1},
			{ID: 2, Code: "S2", Capacity: 50, DepartmentID: 1},
		},
	}
}

func mustSnapshot(t *testing.T, src *memorySource) *Snapshot {
	t.Helper()
	snapshot, err := NewSnapshot(src.rooms, src.windows, src.instructors, src.courses, src.departments, src.sections)
	require.NoError(t, err)
	return snapshot
}

func newTestGA(t *testing.T, params *Parameters, src *memorySource, seed int64) *GeneticAlgorithm {
	t.Helper()
	return NewGeneticAlgorithm(params, mustSnapshot(t, src), rand.New(rand.NewSource(seed)))
}

func randomPopulation(t *testing.T, ga *GeneticAlgorithm, size int) *Population {
	t.Helper()
	pop := NewPopulation(size)
	for i := 0; i < size; i++ {
		s, err := ga.NewRandomSchedule()
		require.NoError(t, err)
		pop.Add(s)
	}
	return pop
}
