package handler

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
)

func (h *Handler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code         string `json:"code" validate:"required"`
		Name         string `json:"name" validate:"required"`
		Credit       int32  `json:"credit" validate:"required,min=1"`
		InstructorID int64  `json:"instructorID" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	course := &domain.Course{
		Code:         req.Code,
		Name:         req.Name,
		Credit:       req.Credit,
		InstructorID: req.InstructorID,
	}

	if err := h.repository.CreateCourse(r.Context(), course); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch pgErr.ConstraintName {
			case "courses_code_key":
				h.errorResponse(w, r, "课程代码已存在")
			case "courses_name_key":
				h.errorResponse(w, r, "课程名称已存在")
			case "courses_instructor_id_fkey":
				h.errorResponse(w, r, "教师不存在")
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "创建课程成功", course)
}

func (h *Handler) GetAllCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.repository.GetAllCourses(r.Context())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取课程列表成功", courses)
}
