package handler

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
)

func (h *Handler) CreateSection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code         string `json:"code" validate:"required"`
		Capacity     *int32 `json:"capacity" validate:"required,min=0"`
		DepartmentID int64  `json:"departmentID" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	section := &domain.Section{
		Code:         req.Code,
		Capacity:     *req.Capacity,
		DepartmentID: req.DepartmentID,
	}

	if err := h.repository.CreateSection(r.Context(), section); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch pgErr.ConstraintName {
			case "sections_code_key":
				h.errorResponse(w, r, "班级代码已存在")
			case "sections_department_id_fkey":
				h.errorResponse(w, r, "院系不存在")
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "创建班级成功", section)
}

func (h *Handler) GetAllSections(w http.ResponseWriter, r *http.Request) {
	sections, err := h.repository.GetAllSections(r.Context())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取班级列表成功", sections)
}
