package domain

import "time"

type Room struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Capacity  int32     `json:"capacity"`
	CreatedAt time.Time `json:"createdAt"`
	Version   int32     `json:"-"`
}
