package handlers

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-tracker/internal/dto"
	apierrors "github.com/yukikurage/task-tracker/internal/errors"
	"github.com/yukikurage/task-tracker/internal/middleware"
	"github.com/yukikurage/task-tracker/internal/models"
	"github.com/yukikurage/task-tracker/internal/policy"
	"github.com/yukikurage/task-tracker/internal/services"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// ListTasks returns the tasks the current user created (lead) or is assigned
// to (team), newest first
func (h *TaskHandler) ListTasks(c *gin.Context) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		return
	}

	tasks, err := h.taskService.List(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTOs(tasks))
}

// GetTask returns a specific task by ID
func (h *TaskHandler) GetTask(c *gin.Context) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		return
	}
	taskID, _ := middleware.GetTaskID(c)

	task, err := h.taskService.Get(c.Request.Context(), actor, taskID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(c *gin.Context) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		return
	}

	type CreateTaskRequest struct {
		Title       string  `json:"title"`
		Description string  `json:"description"`
		AssignedTo  *uint64 `json:"assigned_to"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.Create(c.Request.Context(), actor, services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  req.AssignedTo,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Task created successfully",
		"task":    dto.ToTaskDTO(*task),
	})
}

// UpdateTask updates an existing task. Every key in the body is checked
// against the caller's allow-list, including keys this handler does not know.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		return
	}
	taskID, _ := middleware.GetTaskID(c)

	// Parse raw JSON to detect which fields were sent
	var rawReq map[string]json.RawMessage
	if err := c.ShouldBindJSON(&rawReq); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input, err := parseTaskUpdate(rawReq)
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	task, err := h.taskService.Update(c.Request.Context(), actor, taskID, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task updated successfully",
		"task":    dto.ToTaskDTO(*task),
	})
}

type invalidFieldError struct {
	field string
}

func (e *invalidFieldError) Error() string {
	return "Invalid value for " + e.field
}

func parseTaskUpdate(raw map[string]json.RawMessage) (services.UpdateTaskInput, error) {
	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	input := services.UpdateTaskInput{Fields: make([]policy.Field, 0, len(keys))}
	for _, key := range keys {
		field := policy.Field(key)
		input.Fields = append(input.Fields, field)
		value := raw[key]

		switch field {
		case policy.FieldTitle:
			if err := json.Unmarshal(value, &input.Title); err != nil || input.Title == nil {
				return input, &invalidFieldError{field: key}
			}
		case policy.FieldDescription:
			var description *string
			if err := json.Unmarshal(value, &description); err != nil {
				return input, &invalidFieldError{field: key}
			}
			if description == nil {
				description = new(string)
			}
			input.Description = description
		case policy.FieldStatus:
			var status *models.TaskStatus
			if err := json.Unmarshal(value, &status); err != nil || status == nil {
				return input, &invalidFieldError{field: key}
			}
			input.Status = status
		case policy.FieldAssignedTo:
			var assignee *uint64
			if err := json.Unmarshal(value, &assignee); err != nil {
				return input, &invalidFieldError{field: key}
			}
			input.AssignedTo = assignee
			input.ClearAssignee = assignee == nil
		}
	}

	return input, nil
}

// UpdateTaskStatus moves an assigned task to a new status
func (h *TaskHandler) UpdateTaskStatus(c *gin.Context) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		return
	}
	taskID, _ := middleware.GetTaskID(c)

	type UpdateStatusRequest struct {
		Status string `json:"status" binding:"required"`
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithCode(c, apierrors.ErrCodeInvalidStatus, "Invalid status", gin.H{"allowed": statusOptions()})
		return
	}

	task, err := h.taskService.UpdateStatus(c.Request.Context(), actor, taskID, models.TaskStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task status updated successfully",
		"task":    dto.ToTaskDTO(*task),
	})
}

// AssignTask sets the assignee of a task
func (h *TaskHandler) AssignTask(c *gin.Context) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		return
	}

	type AssignTaskRequest struct {
		TaskID       uint64 `json:"taskId" binding:"required"`
		AssignedToID uint64 `json:"assignedToId" binding:"required"`
	}

	var req AssignTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Missing taskId or assignedToId")
		return
	}

	task, err := h.taskService.Assign(c.Request.Context(), actor, req.TaskID, req.AssignedToID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task assigned successfully",
		"task":    dto.ToTaskDTO(*task),
	})
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		return
	}
	taskID, _ := middleware.GetTaskID(c)

	if err := h.taskService.Delete(c.Request.Context(), actor, taskID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":         "Task deleted successfully",
		"deleted_task_id": taskID,
	})
}

func statusOptions() []models.TaskStatus {
	return models.TaskStatuses
}
