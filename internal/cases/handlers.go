package cases

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"lawoffice/internal/auth"
	"lawoffice/pkg/models"
	"lawoffice/pkg/utils"
	"lawoffice/pkg/validation"
)

// ===== DTOs =====

type CreateCaseRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
	ClientID    string `json:"client_id" validate:"required,uuid"`
	Status      string `json:"status" validate:"omitempty,oneof=open in_progress pending closed"`
}

type UpdateCaseRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	ClientID    *string `json:"client_id" validate:"omitempty,uuid"`
	Status      *string `json:"status" validate:"omitempty,oneof=open in_progress pending closed"`
}

type AddNoteRequest struct {
	Content string `json:"content" validate:"required,max=5000"`
}

type Handler struct {
	db *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler { return &Handler{db: db} }

func parsePage(c *fiber.Ctx) (page, size int) {
	page, _ = strconv.Atoi(c.Query("page", "1"))
	size, _ = strconv.Atoi(c.Query("pageSize", "10"))
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 50 {
		size = 10
	}
	return
}

// scoped returns cases where the caller is the creator or an assignee.
func (h *Handler) scoped(userID string) *gorm.DB {
	return h.db.Model(&models.Case{}).
		Joins("LEFT JOIN case_assignees ca ON ca.case_id = cases.id").
		Where("cases.created_by_id = ? OR ca.user_id = ?", userID, userID)
}

// findVisible resolves a case id inside the caller's scope; misses read as 404.
func (h *Handler) findVisible(c *fiber.Ctx, id string) (models.Case, error) {
	var cs models.Case
	if _, err := uuid.Parse(id); err != nil {
		return cs, fiber.NewError(fiber.StatusBadRequest, "invalid case id")
	}
	err := h.scoped(auth.MustUserID(c)).
		Where("cases.id = ?", id).
		First(&cs).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return cs, fiber.ErrNotFound
		}
		return cs, fiber.ErrInternalServerError
	}
	return cs, nil
}

// ownsClient checks the referenced client belongs to the caller.
func (h *Handler) ownsClient(userID, clientID string) (bool, error) {
	var cnt int64
	err := h.db.Model(&models.Client{}).
		Where("id = ? AND created_by_id = ?", clientID, userID).
		Count(&cnt).Error
	return cnt > 0, err
}

// statusUpdates builds the column set for a status change. Both the general
// update path and the dedicated close action go through here, so a move into
// "closed" always stamps closed_at exactly once.
func statusUpdates(current models.Case, newStatus models.CaseStatus) map[string]any {
	updates := map[string]any{"status": newStatus}
	if newStatus == models.CaseClosed && current.Status != models.CaseClosed {
		updates["closed_at"] = time.Now()
	}
	return updates
}

/* =============================== CRUD =================================== */

// @Summary      Create case
// @Tags         cases
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  CreateCaseRequest  true  "Case payload"
// @Success      201  {object}  models.Case
// @Failure      400  {object}  models.ValidationErrorResponse
// @Failure      404  {object}  models.ErrorResponse  "client not found"
// @Router       /cases [post]
func (h *Handler) Create(c *fiber.Ctx) error {
	var in CreateCaseRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	userID := auth.MustUserID(c)
	ok, err := h.ownsClient(userID, in.ClientID)
	if err != nil {
		return fiber.ErrInternalServerError
	}
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "client not found")
	}

	creatorID, _ := uuid.Parse(userID)
	clientID, _ := uuid.Parse(in.ClientID)
	status := models.CaseStatus(in.Status)
	if status == "" {
		status = models.CaseOpen
	}

	cs := models.Case{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		ClientID:    clientID,
		Status:      status,
		CreatedByID: &creatorID,
	}
	if status == models.CaseClosed {
		now := time.Now()
		cs.ClosedAt = &now
	}
	if err := h.db.Create(&cs).Error; err != nil {
		return fiber.ErrInternalServerError
	}

	utils.LogActivity(c.Context(), h.db, creatorID, "case_created", "Created case "+cs.Title, &cs.ID)
	return c.Status(fiber.StatusCreated).JSON(cs)
}

type caseWithCounts struct {
	ID          uuid.UUID         `json:"id"`
	Title       string            `json:"title"`
	ClientID    uuid.UUID         `json:"client_id"`
	Status      models.CaseStatus `json:"status"`
	ClosedAt    *time.Time        `json:"closed_at"`
	CreatedAt   time.Time         `json:"created_at"`
	NotesCount  int64             `json:"notes_count"`
	CreatedByID *uuid.UUID        `json:"created_by"`
}

// @Summary      List cases
// @Description  Cases the caller created or is assigned to (paginated)
// @Tags         cases
// @Security     BearerAuth
// @Produce      json
// @Param        page      query int    false "page"
// @Param        pageSize  query int    false "pageSize"
// @Param        status    query string false "status filter"
// @Success      200  {object}  map[string]any
// @Failure      401  {object}  models.ErrorResponse
// @Router       /cases [get]
func (h *Handler) List(c *fiber.Ctx) error {
	userID := auth.MustUserID(c)
	page, size := parsePage(c)

	status := strings.TrimSpace(c.Query("status"))
	if status != "" {
		switch models.CaseStatus(status) {
		case models.CaseOpen, models.CaseInProgress, models.CasePending, models.CaseClosed:
		default:
			return fiber.NewError(fiber.StatusBadRequest, "invalid status filter")
		}
	}

	scoped := func() *gorm.DB {
		q := h.scoped(userID)
		if status != "" {
			q = q.Where("cases.status = ?", status)
		}
		return q
	}

	var total int64
	if err := scoped().Distinct("cases.id").Count(&total).Error; err != nil {
		return fiber.ErrInternalServerError
	}

	rows := make([]caseWithCounts, 0, size)
	if err := scoped().
		Select(`cases.id, cases.title, cases.client_id, cases.status, cases.closed_at,
          cases.created_at, cases.created_by_id,
          (SELECT COUNT(*) FROM case_notes WHERE case_notes.case_id = cases.id) AS notes_count`).
		Group("cases.id").
		Order("cases.created_at DESC").
		Offset((page - 1) * size).Limit(size).
		Scan(&rows).Error; err != nil {
		return fiber.ErrInternalServerError
	}

	return c.JSON(fiber.Map{
		"page": page, "pageSize": size, "total": total,
		"pages":   int(math.Ceil(float64(total) / float64(size))),
		"results": rows,
	})
}

// @Summary      Case detail
// @Description  Case with client, assignees and notes
// @Tags         cases
// @Security     BearerAuth
// @Produce      json
// @Param        id   path string true "case id (uuid)"
// @Success      200  {object}  models.Case
// @Failure      404  {object}  models.ErrorResponse
// @Router       /cases/{id} [get]
func (h *Handler) Get(c *fiber.Ctx) error {
	cs, err := h.findVisible(c, c.Params("id"))
	if err != nil {
		return err
	}

	if err := h.db.
		Preload("Client").
		Preload("Assignees").
		Preload("Notes", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") }).
		First(&cs, "id = ?", cs.ID).Error; err != nil {
		return fiber.ErrInternalServerError
	}

	if cs.Assignees == nil {
		cs.Assignees = []models.User{}
	}
	if cs.Notes == nil {
		cs.Notes = []models.CaseNote{}
	}
	return c.JSON(cs)
}

// @Summary      Update case
// @Description  Patching status to "closed" stamps closed_at
// @Tags         cases
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path string             true "case id (uuid)"
// @Param        payload  body UpdateCaseRequest  true "fields to change"
// @Success      200  {object}  models.Case
// @Failure      400  {object}  models.ValidationErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /cases/{id} [patch]
func (h *Handler) Update(c *fiber.Ctx) error {
	cs, err := h.findVisible(c, c.Params("id"))
	if err != nil {
		return err
	}

	var in UpdateCaseRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	updates := map[string]any{}
	if in.Title != nil {
		updates["title"] = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		updates["description"] = strings.TrimSpace(*in.Description)
	}
	if in.ClientID != nil {
		ok, err := h.ownsClient(auth.MustUserID(c), *in.ClientID)
		if err != nil {
			return fiber.ErrInternalServerError
		}
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "client not found")
		}
		updates["client_id"] = *in.ClientID
	}
	if in.Status != nil {
		for col, val := range statusUpdates(cs, models.CaseStatus(*in.Status)) {
			updates[col] = val
		}
	}
	if len(updates) > 0 {
		if err := h.db.Model(&cs).Updates(updates).Error; err != nil {
			return fiber.ErrInternalServerError
		}
	}

	if err := h.db.First(&cs, "id = ?", cs.ID).Error; err != nil {
		return fiber.ErrInternalServerError
	}

	userID, _ := uuid.Parse(auth.MustUserID(c))
	utils.LogActivity(c.Context(), h.db, userID, "case_updated", "Updated case "+cs.Title, &cs.ID)
	return c.JSON(cs)
}

// @Summary      Delete case
// @Tags         cases
// @Security     BearerAuth
// @Param        id   path string true "case id (uuid)"
// @Success      204  "no content"
// @Failure      404  {object}  models.ErrorResponse
// @Router       /cases/{id} [delete]
func (h *Handler) Delete(c *fiber.Ctx) error {
	cs, err := h.findVisible(c, c.Params("id"))
	if err != nil {
		return err
	}
	if err := h.db.Select("Notes", "Assignees").Delete(&cs).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	return c.SendStatus(fiber.StatusNoContent)
}

/* ============================== Actions ================================= */

// @Summary      Add case note
// @Tags         cases
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path string          true "case id (uuid)"
// @Param        payload  body AddNoteRequest  true "Note payload"
// @Success      201  {object}  models.CaseNote
// @Failure      400  {object}  models.ValidationErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /cases/{id}/add_note [post]
func (h *Handler) AddNote(c *fiber.Ctx) error {
	cs, err := h.findVisible(c, c.Params("id"))
	if err != nil {
		return err
	}

	var in AddNoteRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	authorID, _ := uuid.Parse(auth.MustUserID(c))
	note := models.CaseNote{
		CaseID:   cs.ID,
		AuthorID: &authorID,
		Content:  in.Content,
	}
	if err := h.db.Create(&note).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	return c.Status(fiber.StatusCreated).JSON(note)
}

// @Summary      Assign case to me
// @Description  Adds the caller to the assignee set; calling twice is a no-op
// @Tags         cases
// @Security     BearerAuth
// @Produce      json
// @Param        id   path string true "case id (uuid)"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  models.ErrorResponse
// @Router       /cases/{id}/assign_to_me [post]
func (h *Handler) AssignToMe(c *fiber.Ctx) error {
	cs, err := h.findVisible(c, c.Params("id"))
	if err != nil {
		return err
	}

	userID := auth.MustUserID(c)
	var cnt int64
	if err := h.db.Table("case_assignees").
		Where("case_id = ? AND user_id = ?", cs.ID, userID).
		Count(&cnt).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	if cnt == 0 {
		var u models.User
		if err := h.db.First(&u, "id = ?", userID).Error; err != nil {
			return fiber.ErrInternalServerError
		}
		if err := h.db.Model(&cs).Association("Assignees").Append(&u); err != nil {
			return fiber.ErrInternalServerError
		}
	}

	return c.JSON(fiber.Map{"status": "case assigned to you"})
}

// @Summary      Close case
// @Description  Forces status to closed and stamps closed_at
// @Tags         cases
// @Security     BearerAuth
// @Produce      json
// @Param        id   path string true "case id (uuid)"
// @Success      200  {object}  models.Case
// @Failure      404  {object}  models.ErrorResponse
// @Router       /cases/{id}/close [post]
func (h *Handler) Close(c *fiber.Ctx) error {
	cs, err := h.findVisible(c, c.Params("id"))
	if err != nil {
		return err
	}

	if err := h.db.Model(&cs).
		Updates(statusUpdates(cs, models.CaseClosed)).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	if err := h.db.First(&cs, "id = ?", cs.ID).Error; err != nil {
		return fiber.ErrInternalServerError
	}

	userID, _ := uuid.Parse(auth.MustUserID(c))
	utils.LogActivity(c.Context(), h.db, userID, "case_closed", "Closed case "+cs.Title, &cs.ID)
	return c.JSON(cs)
}
