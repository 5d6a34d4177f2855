package domain

import "time"

type Department struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	CourseIDs []int64   `json:"courseIDs"`
	CreatedAt time.Time `json:"createdAt"`
	Version   int32     `json:"-"`
}

type Section struct {
	ID           int64     `json:"id"`
	Code         string    `json:"code"`
	Capacity     int32     `json:"capacity"`
	DepartmentID int64     `json:"departmentID"`
	CreatedAt    time.Time `json:"createdAt"`
	Version      int32     `json:"-"`
}
