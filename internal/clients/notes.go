package clients

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"lawoffice/internal/auth"
	"lawoffice/pkg/models"
	"lawoffice/pkg/validation"
)

type NoteRequest struct {
	Title   string `json:"title" validate:"required,max=255"`
	Content string `json:"content" validate:"required"`
}

type UpdateNoteRequest struct {
	Title   *string `json:"title" validate:"omitempty,min=1,max=255"`
	Content *string `json:"content" validate:"omitempty,min=1"`
}

// findOwnedNote resolves a note under a client the caller owns.
func (h *Handler) findOwnedNote(c *fiber.Ctx) (models.ClientNote, error) {
	var n models.ClientNote
	cl, err := h.findOwned(c, c.Params("id"))
	if err != nil {
		return n, err
	}
	noteID := c.Params("noteID")
	if _, err := uuid.Parse(noteID); err != nil {
		return n, fiber.NewError(fiber.StatusBadRequest, "invalid note id")
	}
	if err := h.db.Where("id = ? AND client_id = ?", noteID, cl.ID).First(&n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return n, fiber.ErrNotFound
		}
		return n, fiber.ErrInternalServerError
	}
	return n, nil
}

// @Summary      List client notes
// @Tags         clients
// @Security     BearerAuth
// @Produce      json
// @Param        id   path string true "client id (uuid)"
// @Success      200  {object}  map[string]any
// @Router       /clients/{id}/notes [get]
func (h *Handler) ListNotes(c *fiber.Ctx) error {
	cl, err := h.findOwned(c, c.Params("id"))
	if err != nil {
		return err
	}
	notes := []models.ClientNote{}
	if err := h.db.Where("client_id = ?", cl.ID).
		Order("created_at DESC").
		Find(&notes).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	return c.JSON(fiber.Map{"results": notes})
}

// @Summary      Add client note
// @Tags         clients
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path string       true "client id (uuid)"
// @Param        payload  body NoteRequest  true "Note payload"
// @Success      201  {object}  models.ClientNote
// @Failure      400  {object}  models.ValidationErrorResponse
// @Router       /clients/{id}/notes [post]
func (h *Handler) CreateNote(c *fiber.Ctx) error {
	cl, err := h.findOwned(c, c.Params("id"))
	if err != nil {
		return err
	}

	var in NoteRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	authorID, _ := uuid.Parse(auth.MustUserID(c))
	n := models.ClientNote{
		ClientID:    cl.ID,
		Title:       strings.TrimSpace(in.Title),
		Content:     in.Content,
		CreatedByID: &authorID,
	}
	if err := h.db.Create(&n).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	return c.Status(fiber.StatusCreated).JSON(n)
}

// @Summary      Update client note
// @Tags         clients
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id      path string true "client id (uuid)"
// @Param        noteID  path string true "note id (uuid)"
// @Success      200  {object}  models.ClientNote
// @Router       /clients/{id}/notes/{noteID} [patch]
func (h *Handler) UpdateNote(c *fiber.Ctx) error {
	n, err := h.findOwnedNote(c)
	if err != nil {
		return err
	}

	var in UpdateNoteRequest
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
	if in.Content != nil {
		updates["content"] = *in.Content
	}
	if len(updates) > 0 {
		if err := h.db.Model(&n).Updates(updates).Error; err != nil {
			return fiber.ErrInternalServerError
		}
	}
	return c.JSON(n)
}

// @Summary      Delete client note
// @Tags         clients
// @Security     BearerAuth
// @Param        id      path string true "client id (uuid)"
// @Param        noteID  path string true "note id (uuid)"
// @Success      204  "no content"
// @Router       /clients/{id}/notes/{noteID} [delete]
func (h *Handler) DeleteNote(c *fiber.Ctx) error {
	n, err := h.findOwnedNote(c)
	if err != nil {
		return err
	}
	if err := h.db.Delete(&n).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	return c.SendStatus(fiber.StatusNoContent)
}
