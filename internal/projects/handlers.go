package projects

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aldoetobex/freelance-portal/internal/auth"
	"github.com/aldoetobex/freelance-portal/internal/portal"
	"github.com/aldoetobex/freelance-portal/internal/store"
	"github.com/aldoetobex/freelance-portal/pkg/models"
	"github.com/aldoetobex/freelance-portal/pkg/validation"
)

const dateLayout = "2006-01-02"

/* ================================ DTOs ================================= */

type CreateProjectRequest struct {
	ClientID    string `json:"client_id" validate:"required,uuid"`
	Name        string `json:"name" validate:"required,notblank,max=160"`
	Description string `json:"description" validate:"max=5000"`
	BudgetCents int64  `json:"budget_cents" validate:"min=0"`
	StartDate   string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate     string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

type UpdateProjectRequest struct {
	Name        *string `json:"name" validate:"omitempty,notblank,max=160"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Status      *string `json:"status" validate:"omitempty,oneof=active paused completed cancelled"`
	Progress    *int    `json:"progress" validate:"omitempty,min=0,max=100"`
	EndDate     *string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

type MilestoneRequest struct {
	Title   string `json:"title" validate:"required,notblank,max=160"`
	Order   int    `json:"order" validate:"min=0"`
	DueDate string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
}

type TaskRequest struct {
	Title   string `json:"title" validate:"required,notblank,max=200"`
	DueDate string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
}

type UpdateTaskRequest struct {
	Title   *string `json:"title" validate:"omitempty,notblank,max=200"`
	Status  *string `json:"status" validate:"omitempty,oneof=todo in_progress completed"`
	DueDate *string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
}

/* ============================== Handler ================================= */

type Handler struct {
	st  *store.Store
	log *zap.Logger
	now func() time.Time
}

func NewHandler(st *store.Store, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{st: st, log: log, now: time.Now}
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

/* ============================ Client portal ============================= */

// @Summary      List my projects
// @Tags         portal
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  models.Project
// @Router       /portal/projects [get]
func (h *Handler) List(c *fiber.Ctx) error {
	clientID, err := auth.ClientUUID(c)
	if err != nil {
		return err
	}
	v := portal.Load(c.UserContext(), h.log, "projects", clientID.String(),
		func(ctx context.Context, _ string) ([]models.Project, error) {
			return h.st.ListProjectsByClient(ctx, clientID)
		}, portal.EmptySlice[models.Project])
	return portal.Respond(c, v)
}

// @Summary      Get my project
// @Description  Project with milestones ordered by their explicit order
// @Tags         portal
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "project id"
// @Success      200  {object}  models.Project
// @Failure      404  {object}  models.ErrorResponse
// @Router       /portal/projects/{id} [get]
func (h *Handler) Get(c *fiber.Ctx) error {
	clientID, err := auth.ClientUUID(c)
	if err != nil {
		return err
	}
	v := portal.Load(c.UserContext(), h.log, "project", c.Params("id"),
		func(ctx context.Context, id string) (*models.Project, error) {
			pid, err := uuid.Parse(id)
			if err != nil {
				return nil, portal.ErrNotFound
			}
			p, err := h.st.GetProject(ctx, pid)
			if err != nil {
				return nil, err
			}
			if p == nil || p.ClientID != clientID {
				return nil, portal.ErrNotFound
			}
			return p, nil
		}, nil)
	return portal.Respond(c, v)
}

/* ================================ Admin ================================= */

// @Summary      Create project (admin)
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  CreateProjectRequest  true  "Project"
// @Success      201  {object}  models.Project
// @Failure      400  {object}  models.ValidationErrorResponse
// @Router       /admin/projects [post]
func (h *Handler) Create(c *fiber.Ctx) error {
	var in CreateProjectRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}
	clientID, _ := uuid.Parse(in.ClientID)

	ctx := c.UserContext()
	cl, err := h.st.GetClient(ctx, clientID)
	if err != nil {
		return fiber.ErrInternalServerError
	}
	if cl == nil {
		return fiber.NewError(fiber.StatusNotFound, "client not found")
	}

	p := &models.Project{
		ClientID:    cl.ID,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Status:      models.ProjectActive,
		BudgetCents: in.BudgetCents,
		StartDate:   parseDate(in.StartDate),
		EndDate:     parseDate(in.EndDate),
	}
	if err := h.st.CreateProject(ctx, p); err != nil {
		h.log.Error("project create failed", zap.String("client_id", cl.ID.String()), zap.Error(err))
		return fiber.ErrInternalServerError
	}
	h.st.LogActivity(ctx, "project", p.ID, uuid.Nil, "created", "", string(p.Status), "")
	return c.Status(fiber.StatusCreated).JSON(p)
}

// @Summary      Update project (admin)
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                true  "project id"
// @Param        payload  body  UpdateProjectRequest  true  "Fields to change"
// @Success      200  {object}  models.Project
// @Router       /admin/projects/{id} [patch]
func (h *Handler) Update(c *fiber.Ctx) error {
	p, err := h.project(c)
	if err != nil {
		return err
	}
	var in UpdateProjectRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	fields := map[string]any{}
	if in.Name != nil {
		fields["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		fields["description"] = strings.TrimSpace(*in.Description)
	}
	if in.Progress != nil {
		fields["progress"] = *in.Progress
	}
	if in.EndDate != nil {
		fields["end_date"] = parseDate(*in.EndDate)
	}
	if in.Status != nil {
		fields["status"] = models.ProjectStatus(*in.Status)
		if models.ProjectStatus(*in.Status) == models.ProjectCompleted && in.Progress == nil {
			fields["progress"] = 100
		}
	}

	ctx := c.UserContext()
	if len(fields) > 0 {
		if err := h.st.UpdateProject(ctx, p.ID, fields); err != nil {
			h.log.Error("project update failed", zap.String("project_id", p.ID.String()), zap.Error(err))
			return fiber.ErrInternalServerError
		}
	}
	if in.Status != nil && models.ProjectStatus(*in.Status) != p.Status {
		h.st.LogActivity(ctx, "project", p.ID, uuid.Nil, "status_changed", string(p.Status), *in.Status, "")
	}

	updated, err := h.st.GetProject(ctx, p.ID)
	if err != nil || updated == nil {
		return fiber.ErrInternalServerError
	}
	return c.JSON(updated)
}

func (h *Handler) project(c *fiber.Ctx) (*models.Project, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid project id")
	}
	p, err := h.st.GetProject(c.UserContext(), id)
	if err != nil {
		h.log.Error("project lookup failed", zap.String("project_id", id.String()), zap.Error(err))
		return nil, fiber.ErrInternalServerError
	}
	if p == nil {
		return nil, fiber.ErrNotFound
	}
	return p, nil
}

// @Summary      Add milestone (admin)
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string            true  "project id"
// @Param        payload  body  MilestoneRequest  true  "Milestone"
// @Success      201  {object}  models.Milestone
// @Router       /admin/projects/{id}/milestones [post]
func (h *Handler) AddMilestone(c *fiber.Ctx) error {
	p, err := h.project(c)
	if err != nil {
		return err
	}
	var in MilestoneRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	order := in.Order
	if order == 0 {
		order = len(p.Milestones) + 1
	}
	m := &models.Milestone{
		ProjectID: p.ID,
		Title:     strings.TrimSpace(in.Title),
		Order:     order,
		Status:    models.MilestonePending,
		DueDate:   parseDate(in.DueDate),
	}
	if err := h.st.CreateMilestone(c.UserContext(), m); err != nil {
		h.log.Error("milestone create failed", zap.String("project_id", p.ID.String()), zap.Error(err))
		return fiber.ErrInternalServerError
	}
	return c.Status(fiber.StatusCreated).JSON(m)
}

// @Summary      Add task (admin)
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string       true  "project id"
// @Param        payload  body  TaskRequest  true  "Task"
// @Success      201  {object}  models.Task
// @Router       /admin/projects/{id}/tasks [post]
func (h *Handler) AddTask(c *fiber.Ctx) error {
	p, err := h.project(c)
	if err != nil {
		return err
	}
	var in TaskRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	t := &models.Task{
		ProjectID: p.ID,
		Title:     strings.TrimSpace(in.Title),
		Status:    models.TaskTodo,
		DueDate:   parseDate(in.DueDate),
	}
	if err := h.st.CreateTask(c.UserContext(), t); err != nil {
		h.log.Error("task create failed", zap.String("project_id", p.ID.String()), zap.Error(err))
		return fiber.ErrInternalServerError
	}
	return c.Status(fiber.StatusCreated).JSON(t)
}

// @Summary      Update task (admin)
// @Description  Completing a task stamps completed_at; reopening clears it
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string             true  "task id"
// @Param        payload  body  UpdateTaskRequest  true  "Fields to change"
// @Success      200  {object}  models.Task
// @Router       /admin/tasks/{id} [patch]
func (h *Handler) UpdateTask(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid task id")
	}
	var in UpdateTaskRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	ctx := c.UserContext()
	t, err := h.st.GetTask(ctx, id)
	if err != nil {
		return fiber.ErrInternalServerError
	}
	if t == nil {
		return fiber.ErrNotFound
	}

	fields := TaskChanges(*t, in, h.now())
	if len(fields) > 0 {
		if err := h.st.UpdateTask(ctx, id, fields); err != nil {
			h.log.Error("task update failed", zap.String("task_id", id.String()), zap.Error(err))
			return fiber.ErrInternalServerError
		}
	}
	updated, err := h.st.GetTask(ctx, id)
	if err != nil || updated == nil {
		return fiber.ErrInternalServerError
	}
	return c.JSON(updated)
}

// TaskChanges turns an update request into column changes. Moving into
// completed stamps completed_at with now; moving out of it clears the stamp.
func TaskChanges(t models.Task, in UpdateTaskRequest, now time.Time) map[string]any {
	fields := map[string]any{}
	if in.Title != nil {
		fields["title"] = strings.TrimSpace(*in.Title)
	}
	if in.DueDate != nil {
		fields["due_date"] = parseDate(*in.DueDate)
	}
	if in.Status != nil {
		next := models.TaskStatus(*in.Status)
		if next != t.Status {
			fields["status"] = next
			switch {
			case next == models.TaskCompleted:
				fields["completed_at"] = now
			case t.Status == models.TaskCompleted:
				fields["completed_at"] = nil
			}
		}
	}
	return fields
}
