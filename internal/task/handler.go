package task

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"coinvault/internal/api"
	"coinvault/internal/auth"
	"coinvault/internal/idempotency"
	"coinvault/internal/ledger"
	"coinvault/internal/logger"
)

type Handler struct {
	repo    *Repository
	service Service
}

func NewHandler(repo *Repository, service Service) *Handler {
	return &Handler{repo: repo, service: service}
}

type CompleteTaskRequest struct {
	TaskID int `json:"task_id" binding:"required"`
}

type CreateTaskRequest struct {
	Title        string          `json:"title" validate:"required,max=200"`
	Description  *string         `json:"description"`
	RewardSilver decimal.Decimal `json:"reward_silver" validate:"required"`
}

type BulkCreateTasksRequest struct {
	Tasks []CreateTaskRequest `json:"tasks" validate:"required,min=1,dive"`
}

// @Summary      Complete a task and claim its Silver reward
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        X-Idempotency-Key header string true "Idempotency token"
// @Param        request body CompleteTaskRequest true "Task to complete"
// @Success      200 {object} map[string]interface{}
// @Failure      400 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Security     BearerAuth
// @Router       /tasks/complete [post]
func (h *Handler) CompleteTask(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	var req CompleteTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "task_id is required"})
		return
	}

	entry, reward, err := h.service.CompleteTask(c.Request.Context(), idempotency.TxID(c), userID, req.TaskID)
	if err != nil {
		switch {
		case errors.Is(err, ErrTaskNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: err.Error()})
		case errors.Is(err, ErrTaskAlreadyCompleted):
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: err.Error()})
		case errors.Is(err, ledger.ErrDuplicateTransaction):
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "duplicate transaction detected"})
		case errors.Is(err, ledger.ErrTreasuryDepleted):
			c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{Error: err.Error()})
		case errors.Is(err, ledger.ErrWalletNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: err.Error()})
		default:
			logger.Errorf("task completion failed: %v", err)
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "task completed successfully",
		"reward_silver": reward,
		"tx_id":         entry.TxID,
	})
}

// @Summary      List all tasks
// @Tags         tasks
// @Produce      json
// @Success      200 {object} map[string]interface{}
// @Security     BearerAuth
// @Router       /tasks [get]
func (h *Handler) ListTasks(c *gin.Context) {
	tasks, err := h.repo.List(c.Request.Context())
	if err != nil {
		logger.Errorf("failed to list tasks: %v", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to load tasks"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// @Summary      Create a task
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request body CreateTaskRequest true "Task"
// @Success      201 {object} map[string]interface{}
// @Failure      400 {object} api.ErrorResponse
// @Security     BearerAuth
// @Router       /admin/tasks [post]
func (h *Handler) CreateTask(c *gin.Context) {
	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid payload"})
		return
	}
	if errs := api.ValidateStruct(req); len(errs) > 0 {
		api.RespondWithValidationErrors(c, errs)
		return
	}

	t, err := h.repo.Create(c.Request.Context(), req.Title, req.Description, req.RewardSilver)
	if err != nil {
		logger.Errorf("failed to create task: %v", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to create task"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "task created successfully",
		"task":    t,
	})
}

// @Summary      Create tasks in bulk
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request body BulkCreateTasksRequest true "Tasks"
// @Success      201 {object} map[string]interface{}
// @Failure      400 {object} api.ErrorResponse
// @Security     BearerAuth
// @Router       /admin/tasks/bulk [post]
func (h *Handler) CreateBulkTasks(c *gin.Context) {
	var req BulkCreateTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid payload"})
		return
	}
	if errs := api.ValidateStruct(req); len(errs) > 0 {
		api.RespondWithValidationErrors(c, errs)
		return
	}

	tasks := make([]Task, 0, len(req.Tasks))
	for _, t := range req.Tasks {
		tasks = append(tasks, Task{Title: t.Title, Description: t.Description, RewardSilver: t.RewardSilver})
	}

	created, err := h.repo.CreateBulk(c.Request.Context(), tasks)
	if err != nil {
		logger.Errorf("failed to bulk create tasks: %v", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to create tasks"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": strconv.Itoa(len(created)) + " tasks created successfully",
		"total":   len(created),
		"tasks":   created,
	})
}

// @Summary      Delete a task
// @Tags         admin
// @Produce      json
// @Param        taskID path int true "Task ID"
// @Success      200 {object} api.MessageResponse
// @Failure      404 {object} api.ErrorResponse
// @Security     BearerAuth
// @Router       /admin/tasks/{taskID} [delete]
func (h *Handler) DeleteTask(c *gin.Context) {
	taskID, err := strconv.Atoi(c.Param("taskID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid task id"})
		return
	}

	if err := h.repo.Delete(c.Request.Context(), taskID); err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: err.Error()})
			return
		}
		logger.Errorf("failed to delete task %d: %v", taskID, err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to delete task"})
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "task deleted successfully"})
}
