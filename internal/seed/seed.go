package seed

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/sysu-ecnc-dev/timetable/backend/internal/csvio"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/utils"
)

type Options struct {
	Instructors           int
	Courses               int
	MeetingWindows        int
	WindowDuration        int // 分钟
	Departments           int
	SectionsPerDepartment int
	ExtraRooms            int
}

func DefaultOptions() Options {
	return Options{
		Instructors:           8,
		Courses:               12,
		MeetingWindows:        4,
		WindowDuration:        90,
		Departments:           3,
		SectionsPerDepartment: 2,
		ExtraRooms:            2,
	}
}

// GenerateDataset 随机生成一组可以排课的数据，ID 从 1 开始按顺序分配。
// 每个班级都会有一间容量足够的教室，另外再加上 ExtraRooms 间随机教室
func GenerateDataset(opts Options) *csvio.Dataset {
	ds := &csvio.Dataset{}

	instructorCodes := make(map[string]struct{})
	for len(ds.Instructors) < opts.Instructors {
		instructor := utils.GenerateRandomInstructor()
		if _, exists := instructorCodes[instructor.Code]; exists {
			continue
		}
		instructorCodes[instructor.Code] = struct{}{}
		instructor.ID = int64(len(ds.Instructors) + 1)
		ds.Instructors = append(ds.Instructors, instructor)
	}

	courseCodes := make(map[string]struct{})
	courseIDs := make([]int64, 0, opts.Courses)
	for len(ds.Courses) < opts.Courses && len(ds.Instructors) > 0 {
		instructor := ds.Instructors[rand.Intn(len(ds.Instructors))]
		course := utils.GenerateRandomCourse(instructor.ID)
		if _, exists := courseCodes[course.Code]; exists {
			continue
		}
		courseCodes[course.Code] = struct{}{}
		course.ID = int64(len(ds.Courses) + 1)
		ds.Courses = append(ds.Courses, course)
		courseIDs = append(courseIDs, course.ID)
	}

	for i, w := range utils.GenerateMeetingWindows(opts.MeetingWindows, opts.WindowDuration) {
		w.ID = int64(i + 1)
		ds.MeetingWindows = append(ds.MeetingWindows, w)
	}

	departmentCodes := make(map[string]struct{})
	for len(ds.Departments) < opts.Departments {
		code := utils.GenerateRandomID(3, 0)
		if _, exists := departmentCodes[code]; exists {
			continue
		}
		departmentCodes[code] = struct{}{}
		ds.Departments = append(ds.Departments, &domain.Department{
			ID:        int64(len(ds.Departments) + 1),
			Code:      code,
			Name:      code + "学院",
			CourseIDs: utils.GenerateRandomSubset(courseIDs),
		})
	}

	for _, d := range ds.Departments {
		for i := 0; i < opts.SectionsPerDepartment; i++ {
			section := utils.GenerateRandomSection(d.ID)
			section.ID = int64(len(ds.Sections) + 1)
			section.Code = fmt.Sprintf("%s-%d", d.Code, i+1)
			ds.Sections = append(ds.Sections, section)

			// 容量向上取整到 10 的倍数，再随机多出 0~20 个座位
			room := utils.GenerateRandomRoom()
			room.Capacity = (section.Capacity+9)/10*10 + int32(rand.Intn(3))*10
			ds.Rooms = append(ds.Rooms, room)
		}
	}

	for i := 0; i < opts.ExtraRooms; i++ {
		ds.Rooms = append(ds.Rooms, utils.GenerateRandomRoom())
	}
	for i, room := range ds.Rooms {
		room.ID = int64(i + 1)
		room.Code = fmt.Sprintf("R%03d", i+1)
	}

	return ds
}

// ReadDataset 从任意 Source 中读出完整的数据
func ReadDataset(ctx context.Context, src scheduler.Source) (*csvio.Dataset, error) {
	ds := &csvio.Dataset{}
	var err error

	if ds.Rooms, err = src.GetAllRooms(ctx); err != nil {
		return nil, err
	}
	if ds.MeetingWindows, err = src.GetAllMeetingWindows(ctx); err != nil {
		return nil, err
	}
	if ds.Instructors, err = src.GetAllInstructors(ctx); err != nil {
		return nil, err
	}
	if ds.Courses, err = src.GetAllCourses(ctx); err != nil {
		return nil, err
	}
	if ds.Departments, err = src.GetAllDepartments(ctx); err != nil {
		return nil, err
	}
	if ds.Sections, err = src.GetAllSections(ctx); err != nil {
		return nil, err
	}

	return ds, nil
}

// Store 是插入数据需要的数据库操作
type Store interface {
	CreateRoom(ctx context.Context, room *domain.Room) error
	CreateMeetingWindow(ctx context.Context, w *domain.MeetingWindow) error
	CreateInstructor(ctx context.Context, instructor *domain.Instructor) error
	CreateCourse(ctx context.Context, course *domain.Course) error
	CreateDepartment(ctx context.Context, department *domain.Department) error
	CreateSection(ctx context.Context, section *domain.Section) error
}

/**
 * Insert 把 ds 插入数据库
 * 数据库会重新分配 ID，所以课程、院系、班级中引用的 ID 会按插入结果重新映射，
 * ds 中实体的 ID 会被更新为数据库中的 ID
 */
func Insert(ctx context.Context, store Store, ds *csvio.Dataset) error {
	if err := utils.ValidateMeetingWindows(ds.MeetingWindows); err != nil {
		return err
	}

	for _, room := range ds.Rooms {
		if err := store.CreateRoom(ctx, room); err != nil {
			return fmt.Errorf("无法插入教室 %s: %w", room.Code, err)
		}
	}

	for _, w := range ds.MeetingWindows {
		if err := store.CreateMeetingWindow(ctx, w); err != nil {
			return fmt.Errorf("无法插入上课时间段 %s-%s: %w", w.StartTime, w.EndTime, err)
		}
	}

	instructorIDs := make(map[int64]int64, len(ds.Instructors))
	for _, instructor := range ds.Instructors {
		oldID := instructor.ID
		if err := store.CreateInstructor(ctx, instructor); err != nil {
			return fmt.Errorf("无法插入教师 %s: %w", instructor.Code, err)
		}
		instructorIDs[oldID] = instructor.ID
	}

	courseIDs := make(map[int64]int64, len(ds.Courses))
	for _, course := range ds.Courses {
		oldID := course.ID
		newInstructorID, exists := instructorIDs[course.InstructorID]
		if !exists {
			return fmt.Errorf("课程 %s 的教师 %d 不存在", course.Code, course.InstructorID)
		}
		course.InstructorID = newInstructorID
		if err := store.CreateCourse(ctx, course); err != nil {
			return fmt.Errorf("无法插入课程 %s: %w", course.Code, err)
		}
		courseIDs[oldID] = course.ID
	}

	departmentIDs := make(map[int64]int64, len(ds.Departments))
	for _, d := range ds.Departments {
		oldID := d.ID
		mapped := make([]int64, 0, len(d.CourseIDs))
		for _, id := range d.CourseIDs {
			newID, exists := courseIDs[id]
			if !exists {
				return fmt.Errorf("院系 %s 的课程 %d 不存在", d.Code, id)
			}
			mapped = append(mapped, newID)
		}
		d.CourseIDs = mapped
		if err := store.CreateDepartment(ctx, d); err != nil {
			return fmt.Errorf("无法插入院系 %s: %w", d.Code, err)
		}
		departmentIDs[oldID] = d.ID
	}

	for _, s := range ds.Sections {
		newID, exists := departmentIDs[s.DepartmentID]
		if !exists {
			return fmt.Errorf("班级 %s 的院系 %d 不存在", s.Code, s.DepartmentID)
		}
		s.DepartmentID = newID
		if err := store.CreateSection(ctx, s); err != nil {
			return fmt.Errorf("无法插入班级 %s: %w", s.Code, err)
		}
	}

	slog.Info("插入数据完成",
		"rooms", len(ds.Rooms),
		"meetingWindows", len(ds.MeetingWindows),
		"instructors", len(ds.Instructors),
		"courses", len(ds.Courses),
		"departments", len(ds.Departments),
		"sections", len(ds.Sections),
	)

	return nil
}
