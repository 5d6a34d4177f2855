package handler

import (
	"net/http"

	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/utils"
)

func (h *Handler) CreateMeetingWindow(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StartTime string `json:"startTime" validate:"required,datetime=15:04:05"`
		EndTime   string `json:"endTime" validate:"required,datetime=15:04:05"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	window := &domain.MeetingWindow{
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}

	// 新的时间段不能和已有的时间段重叠
	windows, err := h.repository.GetAllMeetingWindows(r.Context())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if err := utils.ValidateMeetingWindows(append(windows, window)); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.CreateMeetingWindow(r.Context(), window); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "创建上课时间段成功", window)
}

func (h *Handler) GetAllMeetingWindows(w http.ResponseWriter, r *http.Request) {
	windows, err := h.repository.GetAllMeetingWindows(r.Context())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取上课时间段列表成功", windows)
}
