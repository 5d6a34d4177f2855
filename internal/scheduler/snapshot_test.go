package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
)

func TestNewSnapshotExpandsMeetingTimes(t *testing.T) {
	snapshot := mustSnapshot(t, singleSectionSource())

	times := snapshot.MeetingTimes()
	require.Len(t, times, 2*len(domain.Weekdays))

	// 星期优先：同一天的所有时间段排在一起
	assert.Equal(t, domain.MeetingTime{WindowID: 1, Day: 1, StartTime: "08:00:00", EndTime: "09:30:00"}, times[0])
	assert.Equal(t, domain.MeetingTime{WindowID: 2, Day: 1, StartTime: "10:00:00", EndTime: "11:30:00"}, times[1])
	assert.Equal(t, domain.MeetingTime{WindowID: 1, Day: 2, StartTime: "08:00:00", EndTime: "09:30:00"}, times[2])

	// 每个 (时间段, 星期) 都是不同的上课时间
	seen := make(map[[2]int64]struct{})
	for _, mt := range times {
		seen[[2]int64{mt.WindowID, int64(mt.Day)}] = struct{}{}
	}
	assert.Len(t, seen, len(times))
}

func TestNewSnapshotCopiesInput(t *testing.T) {
	src := singleSectionSource()
	snapshot := mustSnapshot(t, src)

	src.rooms[0].Capacity = 1
	src.departments[0].CourseIDs[0] = 99

	assert.Equal(t, int32(25), snapshot.Rooms()[0].Capacity)
	d, ok := snapshot.Department(1)
	require.True(t, ok)
	assert.Equal(t, []int64{1}, d.CourseIDs)

	// 访问器返回的也是副本
	d.CourseIDs[0] = 42
	again, _ := snapshot.Department(1)
	assert.Equal(t, []int64{1}, again.CourseIDs)
}

func TestNewSnapshotReportsAllIntegrityErrors(t *testing.T) {
	src := singleSectionSource()
	src.courses = append(src.courses,
		&domain.Course{ID: 2, Code: "X1", Name: "无教师", Credit: 1, InstructorID: 9},
		&domain.Course{ID: 3, Code: "X2", Name: "零学分", Credit: 0, InstructorID: 1},
	)
	src.departments[0].CourseIDs = []int64{1, 7}
	src.sections = append(src.sections, &domain.Section{ID: 2, Code: "S2", Capacity: 10, DepartmentID: 5})

	_, err := NewSnapshot(src.rooms, src.windows, src.instructors, src.courses, src.departments, src.sections)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDataUnavailable)

	msg := err.Error()
	assert.Contains(t, msg, "课程 2 的教师 9 不存在")
	assert.Contains(t, msg, "课程 3 的学分必须大于 0")
	assert.Contains(t, msg, "院系 1 的课程 7 不存在")
	assert.Contains(t, msg, "班级 2 的院系 5 不存在")
}

func TestNewSnapshotRejectsDuplicateIDs(t *testing.T) {
	src := singleSectionSource()
	src.rooms = append(src.rooms, &domain.Room{ID: 1, Code: "R2", Capacity: 30})
	src.windows = append(src.windows, &domain.MeetingWindow{ID: 2, StartTime: "14:00:00", EndTime: "15:30:00"})
	src.instructors = append(src.instructors, &domain.Instructor{ID: 1, Code: "ls1", Name: "李四"})
	src.courses = append(src.courses, &domain.Course{ID: 1, Code: "PH101", Name: "大学物理", Credit: 1, InstructorID: 1})
	src.departments = append(src.departments, &domain.Department{ID: 1, Code: "PH", Name: "物理学院", CourseIDs: []int64{1}})
	src.sections = append(src.sections, &domain.Section{ID: 1, Code: "S2", Capacity: 10, DepartmentID: 1})

	_, err := NewSnapshot(src.rooms, src.windows, src.instructors, src.courses, src.departments, src.sections)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDataUnavailable)

	msg := err.Error()
	for _, want := range []string{"教室 1 重复", "时间段 2 重复", "教师 1 重复", "课程 1 重复", "院系 1 重复", "班级 1 重复"} {
		assert.Contains(t, msg, want)
	}
}

func TestNewSnapshotNormalizesMeetingTimes(t *testing.T) {
	src := singleSectionSource()
	src.windows = []*domain.MeetingWindow{{ID: 1, StartTime: "8:00:00", EndTime: "9:30:00"}}

	snapshot := mustSnapshot(t, src)
	mt := snapshot.MeetingTime(0)
	assert.Equal(t, "08:00:00", mt.StartTime)
	assert.Equal(t, "09:30:00", mt.EndTime)
	assert.Equal(t, "8:00:00", src.windows[0].StartTime)
}

func TestNewSnapshotRejectsInvalidWindow(t *testing.T) {
	src := singleSectionSource()
	src.windows = []*domain.MeetingWindow{{ID: 1, StartTime: "10:00:00", EndTime: "09:00:00"}}

	_, err := NewSnapshot(src.rooms, src.windows, src.instructors, src.courses, src.departments, src.sections)
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestNewSnapshotWithoutMeetingTimes(t *testing.T) {
	src := singleSectionSource()
	src.windows = nil

	_, err := NewSnapshot(src.rooms, src.windows, src.instructors, src.courses, src.departments, src.sections)
	assert.ErrorIs(t, err, ErrDataUnavailable)

	// 没有需要排的课时，空的时间段是允许的
	src.sections = nil
	_, err = NewSnapshot(src.rooms, src.windows, src.instructors, src.courses, src.departments, src.sections)
	assert.NoError(t, err)
}

func TestLoadSnapshotSourceFailure(t *testing.T) {
	for _, name := range []string{"rooms", "windows", "instructors", "courses", "departments", "sections"} {
		t.Run(name, func(t *testing.T) {
			sourceErr := errors.New("连接断开")
			src := singleSectionSource()
			src.failOn = name
			src.err = sourceErr

			snapshot, err := LoadSnapshot(context.Background(), src)
			assert.Nil(t, snapshot)
			assert.ErrorIs(t, err, ErrDataUnavailable)
			assert.ErrorIs(t, err, sourceErr)
		})
	}
}

func TestExpectedClassCount(t *testing.T) {
	assert.Equal(t, 2, mustSnapshot(t, singleSectionSource()).ExpectedClassCount())
	// 两个班级，每个班级 2 + 2 节课
	assert.Equal(t, 8, mustSnapshot(t, sharedInstructorSource()).ExpectedClassCount())
}
