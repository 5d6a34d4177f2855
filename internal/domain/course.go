package domain

import "time"

type Instructor struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	Version   int32     `json:"-"`
}

type Course struct {
	ID           int64     `json:"id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Credit       int32     `json:"credit"` // 每周上课次数
	InstructorID int64     `json:"instructorID"`
	CreatedAt    time.Time `json:"createdAt"`
	Version      int32     `json:"-"`
}
