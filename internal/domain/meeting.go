package domain

import "time"

// 一周中参与排课的日子（1 表示周一，5 表示周五）
var Weekdays = []int32{1, 2, 3, 4, 5}

// MeetingWindow 是数据库中存储的原始上课时间段，不包含星期信息
type MeetingWindow struct {
	ID        int64     `json:"id"`
	StartTime string    `json:"startTime"`
	EndTime   string    `json:"endTime"`
	CreatedAt time.Time `json:"createdAt"`
	Version   int32     `json:"-"`
}

// MeetingTime 是时间段和星期的组合，(WindowID, Day) 唯一确定一个上课时间
type MeetingTime struct {
	WindowID  int64  `json:"windowID"`
	Day       int32  `json:"day"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}
