package domain

import "time"

type GenerationJobState string

const (
	GenerationJobQueued    GenerationJobState = "queued"
	GenerationJobRunning   GenerationJobState = "running"
	GenerationJobSucceeded GenerationJobState = "succeeded"
	GenerationJobFailed    GenerationJobState = "failed"
)

// GenerationParameters 是可以由调用方指定的遗传算法参数
type GenerationParameters struct {
	PopulationSize     int     `json:"populationSize"`
	EliteCount         int     `json:"eliteCount"`
	TournamentSize     int     `json:"tournamentSize"`
	MutationRate       float64 `json:"mutationRate"`
	MaxGenerations     int     `json:"maxGenerations"`
	Seed               int64   `json:"seed"`
	CountSelfConflicts bool    `json:"countSelfConflicts"`
}

// GenerationJob 是投递到消息队列中的异步排课任务
type GenerationJob struct {
	ID          string               `json:"id"`
	Parameters  GenerationParameters `json:"parameters"`
	RequestedBy int64                `json:"requestedBy"`
	NotifyEmail string               `json:"notifyEmail"`
	CreatedAt   time.Time            `json:"createdAt"`
}

type GenerationJobStatus struct {
	ID          string             `json:"id"`
	State       GenerationJobState `json:"state"`
	TimetableID int64              `json:"timetableID,omitempty"`
	Message     string             `json:"message,omitempty"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}
