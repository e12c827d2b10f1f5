package handlers

import (
	"net/http"
	"taskboard/internal/handlers/dto"
	"taskboard/internal/logger"
	"taskboard/internal/middleware"
	"taskboard/internal/models/task"
	"taskboard/internal/models/user"
	"taskboard/internal/service"
	"time"

	"go.uber.org/zap"
)

type TaskHandler struct {
	TaskService TaskService
	now         func() time.Time
}

func NewTaskHandler(taskService TaskService) *TaskHandler {
	return &TaskHandler{
		TaskService: taskService,
		now:         time.Now,
	}
}

// identity кладёт RequireSession; без неё обработчик не выполняется
func (h *TaskHandler) identity(w http.ResponseWriter, r *http.Request) (user.Identity, bool) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		responseWithError(w, http.StatusUnauthorized, "Unauthorized")
		return user.Identity{}, false
	}
	return identity, true
}

func (h *TaskHandler) requireJSON(w http.ResponseWriter, r *http.Request) bool {
	if checkContentType(r, "application/json") {
		return true
	}

	logger.Warn("HTTP: Неверный тип контента",
		zap.String("expected", "application/json"),
		zap.String("received", r.Header.Get("Content-Type")),
		zap.String("client_ip", r.RemoteAddr))

	responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
	return false
}

func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	filter, ok := task.ParseFilter(r.URL.Query().Get("filter"))
	if !ok {
		logger.Warn("HTTP: Неверное значение параметра",
			zap.String("query", "filter"),
			zap.String("value", r.URL.Query().Get("filter")))
		responseWithError(w, http.StatusBadRequest, "Unknown filter")
		return
	}

	tasks, err := h.TaskService.ListTasks(r.Context(), identity.Email, filter)
	if err != nil {
		handleServiceError(w, r, err, "list_tasks")
		return
	}

	logger.Info("HTTP_OUT: Задачи получены",
		zap.Int("count", len(tasks)),
		zap.Duration("ms", time.Since(start)))

	writeJSON(w, http.StatusOK, dto.FromTaskList(tasks, h.now()))
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	if !h.requireJSON(w, r) {
		return
	}

	var request dto.CreateTaskRequest
	if err := decodeJSON(w, r, &request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	id, err := h.TaskService.CreateTask(r.Context(), identity.Email, service.NewTask{
		Title:       request.Title,
		Description: request.Description,
		Completed:   request.Completed,
		DueDate:     request.DueDate.TimePtr(),
	})
	if err != nil {
		handleServiceError(w, r, err, "create_task")
		return
	}

	logger.Info("HTTP_OUT: Задача создана",
		zap.String("task_id", id.Hex()),
		zap.Duration("ms", time.Since(start)))

	responseWithJSON(w, http.StatusOK,
		toPayload("success", true),
		toPayload("taskId", id.Hex()),
	)
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	if !h.requireJSON(w, r) {
		return
	}

	var request dto.UpdateTaskRequest
	if err := decodeJSON(w, r, &request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.TaskService.UpdateTask(r.Context(), identity.Email, request.ID, request.Options()...)
	if err != nil {
		handleServiceError(w, r, err, "update_task")
		return
	}

	logger.Info("HTTP_OUT: Обновление задачи",
		zap.String("task_id", request.ID),
		zap.Bool("modified", updated),
		zap.Duration("ms", time.Since(start)))

	responseWithJSON(w, http.StatusOK, toPayload("success", updated))
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	if !h.requireJSON(w, r) {
		return
	}

	var request dto.DeleteTaskRequest
	if err := decodeJSON(w, r, &request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	deleted, err := h.TaskService.DeleteTask(r.Context(), identity.Email, request.ID)
	if err != nil {
		handleServiceError(w, r, err, "delete_task")
		return
	}

	logger.Info("HTTP_OUT: Удаление задачи",
		zap.String("task_id", request.ID),
		zap.Bool("deleted", deleted),
		zap.Duration("ms", time.Since(start)))

	responseWithJSON(w, http.StatusOK, toPayload("success", deleted))
}

func (h *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.TaskService.HealthCheck(r.Context()); err != nil {
		logger.Error("HTTP: Сервис недоступен", err)
		responseWithJSON(w, http.StatusServiceUnavailable,
			toPayload("status", "unavailable"),
			toPayload("service", "taskboard"),
		)
		return
	}

	responseWithJSON(w, http.StatusOK,
		toPayload("status", "ok"),
		toPayload("service", "taskboard"),
	)
}
