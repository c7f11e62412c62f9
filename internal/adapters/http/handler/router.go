package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterOptions はルーター構築時の設定です。
type RouterOptions struct {
	AllowedOrigins []string
	// RequestTimeout が 0 より大きい場合、各リクエストのコンテキストに期限を設定します。
	RequestTimeout time.Duration
	// Health は /healthz から呼び出されます。nil の場合は常に 200 を返します。
	Health func(ctx context.Context) error
}

// NewRouter はすべてのルートとミドルウェアを設定したルーターを返します。
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(opts.RequestTimeout))
	}
	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if opts.Health != nil {
			if err := opts.Health(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "unavailable", Details: err.Error()})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Patch("/{id}", h.RenameEmployee)
			r.Delete("/{id}", h.DeleteEmployee)
			r.Get("/{id}/projects", h.GetAssignments)
			r.Put("/{id}/projects", h.SetAssignments)
			r.Get("/{id}/grids/{year}/{month}", h.GetMonthGrid)
			r.Put("/{id}/grids/{year}/{month}", h.SaveMonthGrid)
		})

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", h.ListProjects)
			r.Post("/", h.CreateProject)
			r.Get("/{id}", h.GetProject)
			r.Patch("/{id}", h.RenameProject)
			r.Delete("/{id}", h.DeleteProject)
		})

		r.Route("/entries", func(r chi.Router) {
			r.Get("/", h.ListEntries)
			r.Post("/", h.CreateEntry)
			r.Put("/{id}", h.UpdateEntry)
		})

		holidays := h.holidayBook()
		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", holidays.listHandler)
			r.Post("/", holidays.createHandler)
			r.Post("/generate", h.GenerateHolidays)
			r.Put("/{date}", holidays.updateHandler)
			r.Delete("/{date}", holidays.deleteHandler)
		})

		vacations := h.vacationBook()
		r.Route("/vacation-days", func(r chi.Router) {
			r.Get("/", vacations.listHandler)
			r.Post("/", vacations.createHandler)
			r.Put("/{date}", vacations.updateHandler)
			r.Delete("/{date}", vacations.deleteHandler)
		})

		r.Get("/years", h.Years)

		r.Route("/reports/{year}", func(r chi.Router) {
			r.Get("/pivot", h.Pivot)
			r.Get("/employees", h.EmployeeReport)
			r.Get("/projects", h.ProjectReport)
			r.Get("/export.csv", h.ExportCSV)
			r.Get("/export.pdf", h.ExportPDF)
		})
	})

	return r
}
