package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/config"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/queue"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/repository"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/scheduler"
)

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	repository  *repository.Repository
	translator  ut.Translator
	mqChannel   queue.Publisher
	redisClient *redis.Client
	recorder    scheduler.Recorder

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, mqCh queue.Publisher, rdb *redis.Client, recorder scheduler.Recorder) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:    validate,
		config:      cfg,
		repository:  repo,
		translator:  trans,
		mqChannel:   mqCh,
		redisClient: rdb,
		recorder:    recorder,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	h.Mux.Handle("/metrics", promhttp.Handler())

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)

		admin := h.RequiredRole([]domain.Role{domain.RoleAdmin})

		r.Route("/users", func(r chi.Router) {
			r.With(admin).Post("/", h.CreateUser)
			r.With(admin).Get("/", h.GetAllUsers)
			r.Get("/me", h.GetMyInfo)
		})

		r.Route("/rooms", func(r chi.Router) {
			r.With(admin).Post("/", h.CreateRoom)
			r.Get("/", h.GetAllRooms)
		})

		r.Route("/meeting-windows", func(r chi.Router) {
			r.With(admin).Post("/", h.CreateMeetingWindow)
			r.Get("/", h.GetAllMeetingWindows)
		})

		r.Route("/instructors", func(r chi.Router) {
			r.With(admin).Post("/", h.CreateInstructor)
			r.Get("/", h.GetAllInstructors)
		})

		r.Route("/courses", func(r chi.Router) {
			r.With(admin).Post("/", h.CreateCourse)
			r.Get("/", h.GetAllCourses)
		})

		r.Route("/departments", func(r chi.Router) {
			r.With(admin).Post("/", h.CreateDepartment)
			r.Get("/", h.GetAllDepartments)
		})

		r.Route("/sections", func(r chi.Router) {
			r.With(admin).Post("/", h.CreateSection)
			r.Get("/", h.GetAllSections)
		})

		r.Route("/timetables", func(r chi.Router) {
			r.With(admin).Post("/generate", h.GenerateTimetable)
			r.Get("/latest", h.GetLatestTimetable)
			r.Route("/jobs", func(r chi.Router) {
				r.Use(admin)
				r.Post("/", h.CreateGenerationJob)
				r.Get("/{id}", h.GetGenerationJob)
			})
			r.With(h.timetable).Get("/{id}", h.GetTimetable)
		})
	})
}
