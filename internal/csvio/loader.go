package csvio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
)

const (
	RoomsFile          = "rooms.csv"
	MeetingWindowsFile = "meeting_windows.csv"
	InstructorsFile    = "instructors.csv"
	CoursesFile        = "courses.csv"
	DepartmentsFile    = "departments.csv"
	SectionsFile       = "sections.csv"
)

// 院系的课程列表在 csv 中以课程代码表示，用分号分隔
const courseCodeSeparator = ";"

type roomRow struct {
	ID       int64  `csv:"id"`
	Code     string `csv:"code"`
	Capacity int32  `csv:"capacity"`
}

type meetingWindowRow struct {
	ID        int64  `csv:"id"`
	StartTime string `csv:"start_time"`
	EndTime   string `csv:"end_time"`
}

type instructorRow struct {
	ID   int64  `csv:"id"`
	Code string `csv:"code"`
	Name string `csv:"name"`
}

type courseRow struct {
	ID           int64  `csv:"id"`
	Code         string `csv:"code"`
	Name         string `csv:"name"`
	Credit       int32  `csv:"credit"`
	InstructorID int64  `csv:"instructor_id"`
}

type departmentRow struct {
	ID      int64  `csv:"id"`
	Code    string `csv:"code"`
	Name    string `csv:"name"`
	Courses string `csv:"courses"`
}

type sectionRow struct {
	ID           int64  `csv:"id"`
	Code         string `csv:"code"`
	Capacity     int32  `csv:"capacity"`
	DepartmentID int64  `csv:"department_id"`
}

// Loader 从一个目录下的 csv 文件中读取排课数据，实现了 scheduler.Source。
// 每次调用都会重新读取对应的文件
type Loader struct {
	dir string
}

func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

func (l *Loader) Dir() string {
	return l.dir
}

func readRows[T any](ctx context.Context, dir string, name string) ([]*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(dir, name)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("无法打开 %s: %w", path, err)
	}
	defer f.Close()

	rows := []*T{}
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("无法解析 %s: %w", path, err)
	}

	return rows, nil
}

func (l *Loader) GetAllRooms(ctx context.Context) ([]*domain.Room, error) {
	rows, err := readRows[roomRow](ctx, l.dir, RoomsFile)
	if err != nil {
		return nil, err
	}

	rooms := make([]*domain.Room, 0, len(rows))
	for _, row := range rows {
		rooms = append(rooms, &domain.Room{
			ID:       row.ID,
			Code:     row.Code,
			Capacity: row.Capacity,
		})
	}

	return rooms, nil
}

func (l *Loader) GetAllMeetingWindows(ctx context.Context) ([]*domain.MeetingWindow, error) {
	rows, err := readRows[meetingWindowRow](ctx, l.dir, MeetingWindowsFile)
	if err != nil {
		return nil, err
	}

	windows := make([]*domain.MeetingWindow, 0, len(rows))
	for _, row := range rows {
		windows = append(windows, &domain.MeetingWindow{
			ID:        row.ID,
			StartTime: row.StartTime,
			EndTime:   row.EndTime,
		})
	}

	return windows, nil
}

func (l *Loader) GetAllInstructors(ctx context.Context) ([]*domain.Instructor, error) {
	rows, err := readRows[instructorRow](ctx, l.dir, InstructorsFile)
	if err != nil {
		return nil, err
	}

	instructors := make([]*domain.Instructor, 0, len(rows))
	for _, row := range rows {
		instructors = append(instructors, &domain.Instructor{
			ID:   row.ID,
			Code: row.Code,
			Name: row.Name,
		})
	}

	return instructors, nil
}

func (l *Loader) GetAllCourses(ctx context.Context) ([]*domain.Course, error) {
	rows, err := readRows[courseRow](ctx, l.dir, CoursesFile)
	if err != nil {
		return nil, err
	}

	courses := make([]*domain.Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, &domain.Course{
			ID:           row.ID,
			Code:         row.Code,
			Name:         row.Name,
			Credit:       row.Credit,
			InstructorID: row.InstructorID,
		})
	}

	return courses, nil
}

// GetAllDepartments 会同时读取课程文件，把院系中的课程代码转换为课程 ID，
// 出现不存在的课程代码时返回错误
func (l *Loader) GetAllDepartments(ctx context.Context) ([]*domain.Department, error) {
	courses, err := l.GetAllCourses(ctx)
	if err != nil {
		return nil, err
	}
	courseIDs := make(map[string]int64, len(courses))
	for _, c := range courses {
		courseIDs[c.Code] = c.ID
	}

	rows, err := readRows[departmentRow](ctx, l.dir, DepartmentsFile)
	if err != nil {
		return nil, err
	}

	departments := make([]*domain.Department, 0, len(rows))
	for _, row := range rows {
		d := &domain.Department{
			ID:        row.ID,
			Code:      row.Code,
			Name:      row.Name,
			CourseIDs: make([]int64, 0),
		}

		for _, code := range strings.Split(row.Courses, courseCodeSeparator) {
			code = strings.TrimSpace(code)
			if code == "" {
				continue
			}
			id, exists := courseIDs[code]
			if !exists {
				return nil, fmt.Errorf("院系 %s 中的课程 %s 不存在", row.Code, code)
			}
			d.CourseIDs = append(d.CourseIDs, id)
		}

		departments = append(departments, d)
	}

	return departments, nil
}

func (l *Loader) GetAllSections(ctx context.Context) ([]*domain.Section, error) {
	rows, err := readRows[sectionRow](ctx, l.dir, SectionsFile)
	if err != nil {
		return nil, err
	}

	sections := make([]*domain.Section, 0, len(rows))
	for _, row := range rows {
		sections = append(sections, &domain.Section{
			ID:           row.ID,
			Code:         row.Code,
			Capacity:     row.Capacity,
			DepartmentID: row.DepartmentID,
		})
	}

	return sections, nil
}
