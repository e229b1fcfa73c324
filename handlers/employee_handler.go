package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/upb/structured-logger/middleware"
	"github.com/upb/structured-logger/models"
	"github.com/upb/structured-logger/services/employees"
	"github.com/upb/structured-logger/utils"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// EmployeeResponse represents an employee in API responses. The SSN is never returned.
type EmployeeResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Title     string `json:"title"`
	Salary    int64  `json:"salary"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// EmployeeHandler handles employee HTTP requests
type EmployeeHandler struct {
	service *employees.Service
	logger  *zap.Logger
}

// NewEmployeeHandler creates a new EmployeeHandler
func NewEmployeeHandler(service *employees.Service, logger *zap.Logger) *EmployeeHandler {
	return &EmployeeHandler{
		service: service,
		logger:  logger,
	}
}

// HandleList handles GET /api/v1/employees
func (h *EmployeeHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, err := queryInt(r, "limit", defaultPageSize)
	if err != nil || limit < 1 || limit > maxPageSize {
		_ = utils.WriteBadRequest(w, "Invalid limit", nil)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		_ = utils.WriteBadRequest(w, "Invalid offset", nil)
		return
	}

	list, err := h.service.List(ctx, limit, offset)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	responses := make([]EmployeeResponse, len(list))
	for i, e := range list {
		responses[i] = employeeToResponse(e)
	}

	_ = utils.WriteOK(w, responses)
}

// HandleCreate handles POST /api/v1/employees
func (h *EmployeeHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	processID := middleware.GetProcessIDFromContext(ctx)

	var req employees.HireInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to parse request body",
			zap.String("process_id", processID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	employee, err := h.service.Hire(ctx, req)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("employee hired",
		zap.String("process_id", processID),
		zap.Int64("employee_id", employee.ID))

	_ = utils.WriteCreated(w, employeeToResponse(employee))
}

// HandleGet handles GET /api/v1/employees/{id}
func (h *EmployeeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := employeeID(w, r)
	if !ok {
		return
	}

	employee, err := h.service.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, employeeToResponse(employee))
}

// HandleUpdate handles PATCH /api/v1/employees/{id}
func (h *EmployeeHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := employeeID(w, r)
	if !ok {
		return
	}

	var req employees.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	employee, err := h.service.Update(ctx, id, req)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("employee updated",
		zap.String("process_id", middleware.GetProcessIDFromContext(ctx)),
		zap.Int64("employee_id", id))

	_ = utils.WriteOK(w, employeeToResponse(employee))
}

// HandleDelete handles DELETE /api/v1/employees/{id}
func (h *EmployeeHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := employeeID(w, r)
	if !ok {
		return
	}

	if err := h.service.Terminate(ctx, id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("employee terminated",
		zap.String("process_id", middleware.GetProcessIDFromContext(ctx)),
		zap.Int64("employee_id", id))

	utils.WriteNoContent(w)
}

func employeeID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		_ = utils.WriteBadRequest(w, "Invalid employee ID", nil)
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, defaultValue int) (int, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(value)
}

func employeeToResponse(e *models.Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:        e.ID,
		Name:      e.Name,
		Email:     e.Email,
		Title:     e.Title,
		Salary:    e.Salary,
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
		UpdatedAt: e.UpdatedAt.Format(time.RFC3339),
	}
}
