package handlers

import (
	"community-service/internal/api/response"
	"community-service/internal/models"
	"community-service/internal/services"

	"github.com/gofiber/fiber/v2"
)

// Tanggal dalam format YYYY-MM-DD, jam HH:MM atau HH:MM:SS.
type createTaskRequest struct {
	StartDate   *models.Date  `json:"start_date" validate:"required"`
	StartTime   *models.Clock `json:"start_time" validate:"required"`
	EndDate     *models.Date  `json:"end_date" validate:"required"`
	EndTime     *models.Clock `json:"end_time" validate:"required"`
	ServiceType string        `json:"service_type" validate:"required,max=255"`
	TasksList   *string       `json:"tasks_list"`
}

type editTaskRequest struct {
	StartDate   *models.Date  `json:"start_date"`
	StartTime   *models.Clock `json:"start_time"`
	EndDate     *models.Date  `json:"end_date"`
	EndTime     *models.Clock `json:"end_time"`
	ServiceType *string       `json:"service_type" validate:"omitempty,min=1,max=255"`
	TasksList   *string       `json:"tasks_list"`
}

type taskStatusRequest struct {
	Done *bool `json:"done" validate:"required"`
}

// CreateTask membooking shift untuk klien. Staff diambil dari token.
func (h *Handler) CreateTask(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	clientID, err := paramID(c, "clientId")
	if err != nil {
		return err
	}
	var req createTaskRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	task, err := h.deps.Scheduler.Create(c.UserContext(), p, clientID, services.CreateTaskInput{
		StartDate:   *req.StartDate,
		StartTime:   *req.StartTime,
		EndDate:     *req.EndDate,
		EndTime:     *req.EndTime,
		ServiceType: req.ServiceType,
		TasksList:   req.TasksList,
	})
	if err != nil {
		return err
	}
	return response.Created(c, "Task created successfully", task)
}

func (h *Handler) GetAllTasks(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	tasks, err := h.deps.Scheduler.All(c.UserContext(), p)
	if err != nil {
		return err
	}
	return response.OK(c, "Tasks fetched successfully", tasks)
}

func (h *Handler) GetMyTasks(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	tasks, err := h.deps.Scheduler.Mine(c.UserContext(), p)
	if err != nil {
		return err
	}
	return response.OK(c, "Tasks fetched successfully", tasks)
}

func (h *Handler) GetCurrentWeekTasks(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	tasks, err := h.deps.Scheduler.CurrentWeek(c.UserContext(), p)
	if err != nil {
		return err
	}
	return response.OK(c, "Tasks fetched successfully", tasks)
}

func (h *Handler) GetTasksByStaff(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	staffID, err := paramID(c, "staffId")
	if err != nil {
		return err
	}
	tasks, err := h.deps.Scheduler.ByStaff(c.UserContext(), p, staffID)
	if err != nil {
		return err
	}
	return response.OK(c, "Tasks fetched successfully", tasks)
}

func (h *Handler) GetTasksByClient(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	clientID, err := paramID(c, "clientId")
	if err != nil {
		return err
	}
	tasks, err := h.deps.Scheduler.ByClient(c.UserContext(), p, clientID)
	if err != nil {
		return err
	}
	return response.OK(c, "Tasks fetched successfully", tasks)
}

func (h *Handler) GetTask(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	task, err := h.deps.Scheduler.Get(c.UserContext(), p, id)
	if err != nil {
		return err
	}
	return response.OK(c, "Task found", task)
}

func (h *Handler) UpdateTask(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req editTaskRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	task, err := h.deps.Scheduler.Edit(c.UserContext(), p, id, services.EditTaskInput{
		StartDate:   req.StartDate,
		StartTime:   req.StartTime,
		EndDate:     req.EndDate,
		EndTime:     req.EndTime,
		ServiceType: req.ServiceType,
		TasksList:   req.TasksList,
	})
	if err != nil {
		return err
	}
	return response.OK(c, "Task updated successfully", task)
}

func (h *Handler) UpdateTaskStatus(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req taskStatusRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	task, err := h.deps.Scheduler.MarkStatus(c.UserContext(), p, id, *req.Done)
	if err != nil {
		return err
	}
	return response.OK(c, "Task status updated successfully", task)
}

func (h *Handler) DeleteTask(c *fiber.Ctx) error {
	p, err := caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.deps.Scheduler.Delete(c.UserContext(), p, id); err != nil {
		return err
	}
	return response.OK(c, "Task deleted successfully", nil)
}
