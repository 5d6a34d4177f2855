package scheduler

import (
	"context"
	"fmt"
	"slices"

	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/utils"
	"go.uber.org/multierr"
)

// Source 提供排课所需的全部实体，repository 和 csvio 都实现了这个接口
type Source interface {
	GetAllRooms(ctx context.Context) ([]*domain.Room, error)
	GetAllMeetingWindows(ctx context.Context) ([]*domain.MeetingWindow, error)
	GetAllInstructors(ctx context.Context) ([]*domain.Instructor, error)
	GetAllCourses(ctx context.Context) ([]*domain.Course, error)
	GetAllDepartments(ctx context.Context) ([]*domain.Department, error)
	GetAllSections(ctx context.Context) ([]*domain.Section, error)
}

// Snapshot 是一次排课过程中所有实体的只读快照
type Snapshot struct {
	rooms        []domain.Room
	meetingTimes []domain.MeetingTime
	instructors  []domain.Instructor
	courses      []domain.Course
	departments  []domain.Department
	sections     []domain.Section

	courseIndex     map[int64]int
	departmentIndex map[int64]int
	instructorIndex map[int64]int
}

// LoadSnapshot 从 src 中读取所有实体，要么返回完整的快照，要么返回 ErrDataUnavailable
func LoadSnapshot(ctx context.Context, src Source) (*Snapshot, error) {
	rooms, err := src.GetAllRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: 获取教室失败: %w", ErrDataUnavailable, err)
	}
	windows, err := src.GetAllMeetingWindows(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: 获取上课时间段失败: %w", ErrDataUnavailable, err)
	}
	instructors, err := src.GetAllInstructors(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: 获取教师失败: %w", ErrDataUnavailable, err)
	}
	courses, err := src.GetAllCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: 获取课程失败: %w", ErrDataUnavailable, err)
	}
	departments, err := src.GetAllDepartments(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: 获取院系失败: %w", ErrDataUnavailable, err)
	}
	sections, err := src.GetAllSections(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: 获取班级失败: %w", ErrDataUnavailable, err)
	}

	return NewSnapshot(rooms, windows, instructors, courses, departments, sections)
}

// NewSnapshot 复制传入的实体并检查它们之间的引用是否完整。
// 上课时间为 windows 与 domain.Weekdays 的笛卡尔积，按星期优先的顺序排列
func NewSnapshot(
	rooms []*domain.Room,
	windows []*domain.MeetingWindow,
	instructors []*domain.Instructor,
	courses []*domain.Course,
	departments []*domain.Department,
	sections []*domain.Section,
) (*Snapshot, error) {
	s := &Snapshot{
		rooms:           make([]domain.Room, 0, len(rooms)),
		meetingTimes:    make([]domain.MeetingTime, 0, len(windows)*len(domain.Weekdays)),
		instructors:     make([]domain.Instructor, 0, len(instructors)),
		courses:         make([]domain.Course, 0, len(courses)),
		departments:     make([]domain.Department, 0, len(departments)),
		sections:        make([]domain.Section, 0, len(sections)),
		courseIndex:     make(map[int64]int, len(courses)),
		departmentIndex: make(map[int64]int, len(departments)),
		instructorIndex: make(map[int64]int, len(instructors)),
	}

	var errs error

	roomIDs := make(map[int64]struct{}, len(rooms))
	for _, room := range rooms {
		if _, exists := roomIDs[room.ID]; exists {
			errs = multierr.Append(errs, fmt.Errorf("教室 %d 重复", room.ID))
		}
		roomIDs[room.ID] = struct{}{}
		if room.Capacity < 0 {
			errs = multierr.Append(errs, fmt.Errorf("教室 %d 的容量不能为负数", room.ID))
		}
		s.rooms = append(s.rooms, *room)
	}

	// 统一时间格式，"8:00:00" 和 "08:00:00" 是同一个时间
	normalized := make([]domain.MeetingWindow, 0, len(windows))
	windowIDs := make(map[int64]struct{}, len(windows))
	for _, window := range windows {
		if _, exists := windowIDs[window.ID]; exists {
			errs = multierr.Append(errs, fmt.Errorf("时间段 %d 重复", window.ID))
		}
		windowIDs[window.ID] = struct{}{}

		if err := utils.ValidateMeetingWindow(window); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		w := *window
		w.StartTime, _ = utils.NormalizeClockTime(window.StartTime)
		w.EndTime, _ = utils.NormalizeClockTime(window.EndTime)
		normalized = append(normalized, w)
	}
	for _, day := range domain.Weekdays {
		for _, window := range normalized {
			s.meetingTimes = append(s.meetingTimes, domain.MeetingTime{
				WindowID:  window.ID,
				Day:       day,
				StartTime: window.StartTime,
				EndTime:   window.EndTime,
			})
		}
	}

	for _, instructor := range instructors {
		if _, exists := s.instructorIndex[instructor.ID]; exists {
			errs = multierr.Append(errs, fmt.Errorf("教师 %d 重复", instructor.ID))
		}
		s.instructorIndex[instructor.ID] = len(s.instructors)
		s.instructors = append(s.instructors, *instructor)
	}

	for _, course := range courses {
		if _, exists := s.courseIndex[course.ID]; exists {
			errs = multierr.Append(errs, fmt.Errorf("课程 %d 重复", course.ID))
		}
		if course.Credit < 1 {
			errs = multierr.Append(errs, fmt.Errorf("课程 %d 的学分必须大于 0", course.ID))
		}
		if _, exists := s.instructorIndex[course.InstructorID]; !exists {
			errs = multierr.Append(errs, fmt.Errorf("课程 %d 的教师 %d 不存在", course.ID, course.InstructorID))
		}
		s.courseIndex[course.ID] = len(s.courses)
		s.courses = append(s.courses, *course)
	}

	for _, department := range departments {
		d := *department
		d.CourseIDs = slices.Clone(department.CourseIDs)
		if _, exists := s.departmentIndex[d.ID]; exists {
			errs = multierr.Append(errs, fmt.Errorf("院系 %d 重复", d.ID))
		}
		for _, courseID := range d.CourseIDs {
			if _, exists := s.courseIndex[courseID]; !exists {
				errs = multierr.Append(errs, fmt.Errorf("院系 %d 的课程 %d 不存在", d.ID, courseID))
			}
		}
		s.departmentIndex[d.ID] = len(s.departments)
		s.departments = append(s.departments, d)
	}

	sectionIDs := make(map[int64]struct{}, len(sections))
	for _, section := range sections {
		if _, exists := sectionIDs[section.ID]; exists {
			errs = multierr.Append(errs, fmt.Errorf("班级 %d 重复", section.ID))
		}
		sectionIDs[section.ID] = struct{}{}
		if section.Capacity < 0 {
			errs = multierr.Append(errs, fmt.Errorf("班级 %d 的人数不能为负数", section.ID))
		}
		if _, exists := s.departmentIndex[section.DepartmentID]; !exists {
			errs = multierr.Append(errs, fmt.Errorf("班级 %d 的院系 %d 不存在", section.ID, section.DepartmentID))
		}
		s.sections = append(s.sections, *section)
	}

	if errs == nil && len(s.meetingTimes) == 0 && s.ExpectedClassCount() > 0 {
		errs = fmt.Errorf("没有可用的上课时间段")
	}

	if errs != nil {
		return nil, fmt.Errorf("%w: %w", ErrDataUnavailable, errs)
	}

	return s, nil
}

func (s *Snapshot) Rooms() []domain.Room {
	return slices.Clone(s.rooms)
}

func (s *Snapshot) MeetingTimes() []domain.MeetingTime {
	return slices.Clone(s.meetingTimes)
}

func (s *Snapshot) MeetingTime(index int) domain.MeetingTime {
	return s.meetingTimes[index]
}

func (s *Snapshot) Instructors() []domain.Instructor {
	return slices.Clone(s.instructors)
}

func (s *Snapshot) Courses() []domain.Course {
	return slices.Clone(s.courses)
}

func (s *Snapshot) Departments() []domain.Department {
	departments := make([]domain.Department, len(s.departments))
	for i, d := range s.departments {
		departments[i] = d
		departments[i].CourseIDs = slices.Clone(d.CourseIDs)
	}
	return departments
}

func (s *Snapshot) Sections() []domain.Section {
	return slices.Clone(s.sections)
}

func (s *Snapshot) Course(id int64) (domain.Course, bool) {
	i, exists := s.courseIndex[id]
	if !exists {
		return domain.Course{}, false
	}
	return s.courses[i], true
}

func (s *Snapshot) Department(id int64) (domain.Department, bool) {
	i, exists := s.departmentIndex[id]
	if !exists {
		return domain.Department{}, false
	}
	d := s.departments[i]
	d.CourseIDs = slices.Clone(d.CourseIDs)
	return d, true
}

// ExpectedClassCount 返回每个 Schedule 应有的课程数量：所有班级所属院系课程学分之和
func (s *Snapshot) ExpectedClassCount() int {
	count := 0
	for _, section := range s.sections {
		i, exists := s.departmentIndex[section.DepartmentID]
		if !exists {
			continue
		}
		for _, courseID := range s.departments[i].CourseIDs {
			if j, exists := s.courseIndex[courseID]; exists {
				count += int(s.courses[j].Credit)
			}
		}
	}
	return count
}
