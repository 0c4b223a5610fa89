package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"staffgate/internal/directory/models"
	"staffgate/internal/platform/metrics"
	"staffgate/internal/platform/middleware"
	dErrors "staffgate/pkg/domain-errors"
	"staffgate/pkg/platform/httputil"
	"staffgate/pkg/platform/middleware/metadata"
	"staffgate/pkg/platform/middleware/requesttime"
)

// BasePath is where the employee routes are mounted.
const BasePath = "/api/v1/employee"

// Service defines the directory operations exposed over HTTP.
type Service interface {
	GetAll(ctx context.Context) ([]models.Employee, error)
	SearchByName(ctx context.Context, term string) ([]models.Employee, error)
	GetByID(ctx context.Context, id uuid.UUID) (models.Employee, error)
	HighestSalary(ctx context.Context) (int, error)
	TopTenNames(ctx context.Context) ([]string, error)
	Create(ctx context.Context, input *models.CreateEmployeeInput) (models.Employee, error)
	DeleteByID(ctx context.Context, id uuid.UUID) (string, error)
}

// Handler serves the employee directory endpoints.
type Handler struct {
	logger         *slog.Logger
	directory      Service
	metrics        *metrics.Metrics
	requestTimeout time.Duration
}

// New creates a new directory Handler. A zero requestTimeout disables the
// per-request deadline.
func New(directory Service, logger *slog.Logger, metrics *metrics.Metrics, requestTimeout time.Duration) *Handler {
	return &Handler{
		logger:         logger,
		directory:      directory,
		metrics:        metrics,
		requestTimeout: requestTimeout,
	}
}

// Register registers the directory routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	employees := chi.NewRouter()
	employees.Use(middleware.Recovery(h.logger))
	employees.Use(middleware.RequestID)
	employees.Use(requesttime.Middleware)
	employees.Use(metadata.ClientMetadata)
	employees.Use(middleware.Logger(h.logger))
	if h.requestTimeout > 0 {
		employees.Use(middleware.Timeout(h.requestTimeout))
	}
	employees.Use(middleware.ContentTypeJSON)
	employees.Use(middleware.LatencyMiddleware(h.metrics))

	employees.Get("/", h.handleGetAll)
	employees.Get("/search/{searchString}", h.handleSearch)
	employees.Get("/highestSalary", h.handleHighestSalary)
	employees.Get("/topTenHighestEarningEmployeeNames", h.handleTopTenNames)
	employees.Get("/{id}", h.handleGetByID)
	employees.Post("/", h.handleCreate)
	employees.Delete("/{id}", h.handleDelete)

	r.Mount(BasePath, employees)
}

func (h *Handler) handleGetAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	employees, err := h.directory.GetAll(ctx)
	if err != nil {
		h.fail(w, r, "failed to get all employees", err)
		return
	}
	h.logger.InfoContext(ctx, "returning employees",
		"request_id", middleware.GetRequestID(ctx),
		"count", len(employees),
	)
	httputil.WriteJSON(w, http.StatusOK, employeeList(employees))
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	term, err := parseSearchTerm(chi.URLParam(r, "searchString"))
	if err != nil {
		h.fail(w, r, "invalid search string", err)
		return
	}
	employees, err := h.directory.SearchByName(ctx, term)
	if err != nil {
		h.fail(w, r, "failed to search employees", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, employeeList(employees))
}

func (h *Handler) handleGetByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseEmployeeID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "invalid employee id", err)
		return
	}
	employee, err := h.directory.GetByID(r.Context(), id)
	if err != nil {
		h.fail(w, r, "failed to get employee", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, employee)
}

func (h *Handler) handleHighestSalary(w http.ResponseWriter, r *http.Request) {
	salary, err := h.directory.HighestSalary(r.Context())
	if err != nil {
		h.fail(w, r, "failed to get highest salary", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, salary)
}

func (h *Handler) handleTopTenNames(w http.ResponseWriter, r *http.Request) {
	names, err := h.directory.TopTenNames(r.Context())
	if err != nil {
		h.fail(w, r, "failed to get top earners", err)
		return
	}
	if names == nil {
		names = []string{}
	}
	httputil.WriteJSON(w, http.StatusOK, names)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var input models.CreateEmployeeInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		h.fail(w, r, "invalid create employee request", err)
		return
	}
	if err := checkCreateFormat(&input); err != nil {
		h.fail(w, r, "invalid create employee request", err)
		return
	}

	created, err := h.directory.Create(ctx, &input)
	if err != nil {
		h.fail(w, r, "failed to create employee", err)
		return
	}
	h.logger.InfoContext(ctx, "employee created",
		"request_id", middleware.GetRequestID(ctx),
		"employee_id", created.ID,
	)
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := parseEmployeeID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "invalid employee id", err)
		return
	}
	name, err := h.directory.DeleteByID(ctx, id)
	if err != nil {
		h.fail(w, r, "failed to delete employee", err)
		return
	}
	h.logger.InfoContext(ctx, "employee deleted",
		"request_id", middleware.GetRequestID(ctx),
		"employee_id", id,
	)
	httputil.WriteJSON(w, http.StatusOK, name)
}

// fail logs err at a level matching its kind and writes the error response.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	attrs := []any{
		"request_id", middleware.GetRequestID(ctx),
		"error", err.Error(),
	}
	switch dErrors.CodeOf(err) {
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput, dErrors.CodeNotFound:
		h.logger.WarnContext(ctx, msg, attrs...)
	default:
		h.logger.ErrorContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}

func employeeList(employees []models.Employee) []models.Employee {
	if employees == nil {
		return []models.Employee{}
	}
	return employees
}
