package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
)

func (h *Handler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code        string   `json:"code" validate:"required"`
		Name        string   `json:"name" validate:"required"`
		CourseCodes []string `json:"courseCodes" validate:"required,min=1,unique,dive,required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 课程按代码给出，需要先转换为 ID
	courseIDs, missing, err := h.repository.GetCourseIDsByCodes(r.Context(), req.CourseCodes)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if len(missing) > 0 {
		h.errorResponse(w, r, fmt.Sprintf("课程 %s 不存在", strings.Join(missing, ", ")))
		return
	}

	department := &domain.Department{
		Code:      req.Code,
		Name:      req.Name,
		CourseIDs: courseIDs,
	}

	if err := h.repository.CreateDepartment(r.Context(), department); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "departments_code_key":
			h.errorResponse(w, r, "院系代码已存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "创建院系成功", department)
}

func (h *Handler) GetAllDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.repository.GetAllDepartments(r.Context())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取院系列表成功", departments)
}
