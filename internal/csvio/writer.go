package csvio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
)

// WriteTimetable 把排课结果写成 csv，每一行是一节课
func WriteTimetable(w io.Writer, classes []domain.ClassAssignment) error {
	return gocsv.Marshal(&classes, w)
}

func WriteTimetableFile(path string, classes []domain.ClassAssignment) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := WriteTimetable(f, classes); err != nil {
		return err
	}

	return f.Close()
}

// Dataset 是一组可以写入目录的排课数据，格式和 Loader 读取的相同
type Dataset struct {
	Rooms          []*domain.Room
	MeetingWindows []*domain.MeetingWindow
	Instructors    []*domain.Instructor
	Courses        []*domain.Course
	Departments    []*domain.Department
	Sections       []*domain.Section
}

func writeRows[T any](dir string, name string, rows []*T) error {
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("无法创建 %s: %w", path, err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return fmt.Errorf("无法写入 %s: %w", path, err)
	}

	return f.Close()
}

func WriteDataset(dir string, ds *Dataset) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	rooms := make([]*roomRow, 0, len(ds.Rooms))
	for _, r := range ds.Rooms {
		rooms = append(rooms, &roomRow{ID: r.ID, Code: r.Code, Capacity: r.Capacity})
	}
	if err := writeRows(dir, RoomsFile, rooms); err != nil {
		return err
	}

	windows := make([]*meetingWindowRow, 0, len(ds.MeetingWindows))
	for _, w := range ds.MeetingWindows {
		windows = append(windows, &meetingWindowRow{ID: w.ID, StartTime: w.StartTime, EndTime: w.EndTime})
	}
	if err := writeRows(dir, MeetingWindowsFile, windows); err != nil {
		return err
	}

	instructors := make([]*instructorRow, 0, len(ds.Instructors))
	for _, i := range ds.Instructors {
		instructors = append(instructors, &instructorRow{ID: i.ID, Code: i.Code, Name: i.Name})
	}
	if err := writeRows(dir, InstructorsFile, instructors); err != nil {
		return err
	}

	courseCodes := make(map[int64]string, len(ds.Courses))
	courses := make([]*courseRow, 0, len(ds.Courses))
	for _, c := range ds.Courses {
		courseCodes[c.ID] = c.Code
		courses = append(courses, &courseRow{
			ID:           c.ID,
			Code:         c.Code,
			Name:         c.Name,
			Credit:       c.Credit,
			InstructorID: c.InstructorID,
		})
	}
	if err := writeRows(dir, CoursesFile, courses); err != nil {
		return err
	}

	departments := make([]*departmentRow, 0, len(ds.Departments))
	for _, d := range ds.Departments {
		codes := make([]string, 0, len(d.CourseIDs))
		for _, id := range d.CourseIDs {
			code, exists := courseCodes[id]
			if !exists {
				return fmt.Errorf("院系 %s 中的课程 %d 不存在", d.Code, id)
			}
			codes = append(codes, code)
		}
		departments = append(departments, &departmentRow{
			ID:      d.ID,
			Code:    d.Code,
			Name:    d.Name,
			Courses: strings.Join(codes, courseCodeSeparator),
		})
	}
	if err := writeRows(dir, DepartmentsFile, departments); err != nil {
		return err
	}

	sections := make([]*sectionRow, 0, len(ds.Sections))
	for _, s := range ds.Sections {
		sections = append(sections, &sectionRow{
			ID:           s.ID,
			Code:         s.Code,
			Capacity:     s.Capacity,
			DepartmentID: s.DepartmentID,
		})
	}
	return writeRows(dir, SectionsFile, sections)
}
