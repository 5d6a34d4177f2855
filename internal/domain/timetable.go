package domain

import "time"

// ClassAssignment 是排课结果中的一节课
type ClassAssignment struct {
	ClassID         int    `json:"classID" csv:"class_id"`
	DepartmentID    int64  `json:"departmentID" csv:"department_id"`
	SectionID       int64  `json:"sectionID" csv:"section_id"`
	CourseID        int64  `json:"courseID" csv:"course_id"`
	InstructorID    int64  `json:"instructorID" csv:"instructor_id"`
	RoomID          int64  `json:"roomID" csv:"room_id"`
	MeetingWindowID int64  `json:"meetingWindowID" csv:"meeting_window_id"`
	Day             int32  `json:"day" csv:"day"`
	StartTime       string `json:"startTime" csv:"start_time"`
	EndTime         string `json:"endTime" csv:"end_time"`
}

type Timetable struct {
	ID          int64             `json:"id"`
	Classes     []ClassAssignment `json:"classes"`
	Fitness     float64           `json:"fitness"`
	Conflicts   int               `json:"conflicts"`
	Generations int               `json:"generations"`
	Seed        int64             `json:"seed"`
	CreatedAt   time.Time         `json:"createdAt"`
	Version     int32             `json:"-"`
}
