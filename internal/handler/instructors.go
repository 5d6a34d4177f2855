package handler

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
)

func (h *Handler) CreateInstructor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code" validate:"required"`
		Name string `json:"name" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	instructor := &domain.Instructor{
		Code: req.Code,
		Name: req.Name,
	}

	if err := h.repository.CreateInstructor(r.Context(), instructor); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "instructors_code_key":
			h.errorResponse(w, r, "教师工号已存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "创建教师成功", instructor)
}

func (h *Handler) GetAllInstructors(w http.ResponseWriter, r *http.Request) {
	instructors, err := h.repository.GetAllInstructors(r.Context())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取教师列表成功", instructors)
}
