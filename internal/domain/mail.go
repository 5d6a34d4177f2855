package domain

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type CreateUserMailData struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type TimetableReadyMailData struct {
	FullName    string  `json:"fullName"`
	JobID       string  `json:"jobID"`
	TimetableID int64   `json:"timetableID"`
	Fitness     float64 `json:"fitness"`
	Conflicts   int     `json:"conflicts"`
	Generations int     `json:"generations"`
}

type TimetableFailedMailData struct {
	FullName string `json:"fullName"`
	JobID    string `json:"jobID"`
	Reason   string `json:"reason"`
}
