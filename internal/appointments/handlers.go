package appointments

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

type CreateAppointmentRequest struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description" validate:"max=2000"`
	StartTime   *time.Time `json:"start_time" validate:"required"`
	EndTime     *time.Time `json:"end_time" validate:"required"`
	ClientID    string     `json:"client_id" validate:"omitempty,uuid"`
	CaseID      string     `json:"case_id" validate:"omitempty,uuid"`
	Location    string     `json:"location" validate:"max=255"`
	Notes       string     `json:"notes" validate:"max=2000"`
}

type UpdateAppointmentRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	Location    *string    `json:"location" validate:"omitempty,max=255"`
	Notes       *string    `json:"notes" validate:"omitempty,max=2000"`
	Status      *string    `json:"status" validate:"omitempty,oneof=scheduled confirmed cancelled completed"`
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

func (h *Handler) scoped(c *fiber.Ctx) *gorm.DB {
	return h.db.Model(&models.Appointment{}).Where("user_id = ?", auth.MustUserID(c))
}

func (h *Handler) findOwned(c *fiber.Ctx, id string) (models.Appointment, error) {
	var a models.Appointment
	if _, err := uuid.Parse(id); err != nil {
		return a, fiber.NewError(fiber.StatusBadRequest, "invalid appointment id")
	}
	err := h.db.Where("id = ? AND user_id = ?", id, auth.MustUserID(c)).First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a, fiber.ErrNotFound
		}
		return a, fiber.ErrInternalServerError
	}
	return a, nil
}

// timeOrderError rejects start >= end with a field-level message. Overlapping
// appointments are intentionally allowed.
func timeOrderError(start, end time.Time) map[string][]string {
	if !start.Before(end) {
		return map[string][]string{
			"end_time": {"End time must be after start time"},
		}
	}
	return nil
}

func parseOptionalUUID(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}

/* =============================== CRUD =================================== */

// @Summary      Create appointment
// @Tags         appointments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  CreateAppointmentRequest  true  "Appointment payload"
// @Success      201  {object}  models.Appointment
// @Failure      400  {object}  models.ValidationErrorResponse
// @Router       /appointments [post]
func (h *Handler) Create(c *fiber.Ctx) error {
	var in CreateAppointmentRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}
	if errs := timeOrderError(*in.StartTime, *in.EndTime); errs != nil {
		return validation.Respond(c, errs)
	}

	userID, _ := uuid.Parse(auth.MustUserID(c))
	a := models.Appointment{
		UserID:      userID,
		ClientID:    parseOptionalUUID(in.ClientID),
		CaseID:      parseOptionalUUID(in.CaseID),
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		StartTime:   *in.StartTime,
		EndTime:     *in.EndTime,
		Status:      models.AppointmentScheduled,
		Location:    in.Location,
		Notes:       in.Notes,
	}
	if err := h.db.Create(&a).Error; err != nil {
		return fiber.ErrInternalServerError
	}

	utils.LogActivity(c.Context(), h.db, userID, "appointment_created", "Created appointment "+a.Title, &a.ID)
	return c.Status(fiber.StatusCreated).JSON(a)
}

// @Summary      List appointments
// @Description  Caller's appointments; filters on status, date range and client
// @Tags         appointments
// @Security     BearerAuth
// @Produce      json
// @Param        page        query int    false "page"
// @Param        pageSize    query int    false "pageSize"
// @Param        status      query string false "status filter"
// @Param        start_date  query string false "YYYY-MM-DD lower bound on start_time"
// @Param        end_date    query string false "YYYY-MM-DD upper bound on start_time"
// @Param        client      query string false "client id filter"
// @Success      200  {object}  map[string]any
// @Failure      401  {object}  models.ErrorResponse
// @Router       /appointments [get]
func (h *Handler) List(c *fiber.Ctx) error {
	page, size := parsePage(c)

	q := h.scoped(c)
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		switch models.AppointmentStatus(status) {
		case models.AppointmentScheduled, models.AppointmentConfirmed,
			models.AppointmentCancelled, models.AppointmentCompleted:
			q = q.Where("status = ?", status)
		default:
			return fiber.NewError(fiber.StatusBadRequest, "invalid status filter")
		}
	}
	if sd := c.Query("start_date"); sd != "" {
		if t, err := time.Parse("2006-01-02", sd); err == nil {
			q = q.Where("start_time >= ?", t)
		}
	}
	if ed := c.Query("end_date"); ed != "" {
		if t, err := time.Parse("2006-01-02", ed); err == nil {
			q = q.Where("start_time <= ?", t.Add(24*time.Hour))
		}
	}
	if clientID := c.Query("client"); clientID != "" {
		q = q.Where("client_id = ?", clientID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return fiber.ErrInternalServerError
	}

	list := []models.Appointment{}
	if err := q.Order("start_time DESC").
		Offset((page - 1) * size).Limit(size).
		Find(&list).Error; err != nil {
		return fiber.ErrInternalServerError
	}

	return c.JSON(fiber.Map{
		"page": page, "pageSize": size, "total": total,
		"pages":   int(math.Ceil(float64(total) / float64(size))),
		"results": list,
	})
}

// @Summary      Appointment detail
// @Tags         appointments
// @Security     BearerAuth
// @Produce      json
// @Param        id   path string true "appointment id (uuid)"
// @Success      200  {object}  models.Appointment
// @Failure      404  {object}  models.ErrorResponse
// @Router       /appointments/{id} [get]
func (h *Handler) Get(c *fiber.Ctx) error {
	a, err := h.findOwned(c, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(a)
}

// @Summary      Update appointment
// @Tags         appointments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path string                    true "appointment id (uuid)"
// @Param        payload  body UpdateAppointmentRequest  true "fields to change"
// @Success      200  {object}  models.Appointment
// @Failure      400  {object}  models.ValidationErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /appointments/{id} [patch]
func (h *Handler) Update(c *fiber.Ctx) error {
	a, err := h.findOwned(c, c.Params("id"))
	if err != nil {
		return err
	}

	var in UpdateAppointmentRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	// Time ordering is checked against the effective values after the patch.
	start, end := a.StartTime, a.EndTime
	if in.StartTime != nil {
		start = *in.StartTime
	}
	if in.EndTime != nil {
		end = *in.EndTime
	}
	if errs := timeOrderError(start, end); errs != nil {
		return validation.Respond(c, errs)
	}

	updates := map[string]any{}
	if in.Title != nil {
		updates["title"] = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.StartTime != nil {
		updates["start_time"] = *in.StartTime
	}
	if in.EndTime != nil {
		updates["end_time"] = *in.EndTime
	}
	if in.Location != nil {
		updates["location"] = *in.Location
	}
	if in.Notes != nil {
		updates["notes"] = *in.Notes
	}
	if in.Status != nil {
		updates["status"] = *in.Status
	}
	if len(updates) > 0 {
		if err := h.db.Model(&a).Updates(updates).Error; err != nil {
			return fiber.ErrInternalServerError
		}
	}
	if err := h.db.First(&a, "id = ?", a.ID).Error; err != nil {
		return fiber.ErrInternalServerError
	}

	userID, _ := uuid.Parse(auth.MustUserID(c))
	utils.LogActivity(c.Context(), h.db, userID, "appointment_updated", "Updated appointment "+a.Title, &a.ID)
	return c.JSON(a)
}

// @Summary      Delete appointment
// @Tags         appointments
// @Security     BearerAuth
// @Param        id   path string true "appointment id (uuid)"
// @Success      204  "no content"
// @Failure      404  {object}  models.ErrorResponse
// @Router       /appointments/{id} [delete]
func (h *Handler) Delete(c *fiber.Ctx) error {
	a, err := h.findOwned(c, c.Params("id"))
	if err != nil {
		return err
	}
	if err := h.db.Delete(&a).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	return c.SendStatus(fiber.StatusNoContent)
}

/* ============================== Actions ================================= */

func (h *Handler) setStatus(c *fiber.Ctx, status models.AppointmentStatus, action string) error {
	a, err := h.findOwned(c, c.Params("id"))
	if err != nil {
		return err
	}
	if err := h.db.Model(&a).Update("status", status).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	a.Status = status

	userID, _ := uuid.Parse(auth.MustUserID(c))
	utils.LogActivity(c.Context(), h.db, userID, action, a.Title, &a.ID)
	return c.JSON(a)
}

// @Summary      Confirm appointment
// @Tags         appointments
// @Security     BearerAuth
// @Param        id   path string true "appointment id (uuid)"
// @Success      200  {object}  models.Appointment
// @Router       /appointments/{id}/confirm [post]
func (h *Handler) Confirm(c *fiber.Ctx) error {
	return h.setStatus(c, models.AppointmentConfirmed, "appointment_confirmed")
}

// @Summary      Cancel appointment
// @Tags         appointments
// @Security     BearerAuth
// @Param        id   path string true "appointment id (uuid)"
// @Success      200  {object}  models.Appointment
// @Router       /appointments/{id}/cancel [post]
func (h *Handler) Cancel(c *fiber.Ctx) error {
	return h.setStatus(c, models.AppointmentCancelled, "appointment_cancelled")
}

// @Summary      Complete appointment
// @Tags         appointments
// @Security     BearerAuth
// @Param        id   path string true "appointment id (uuid)"
// @Success      200  {object}  models.Appointment
// @Router       /appointments/{id}/complete [post]
func (h *Handler) Complete(c *fiber.Ctx) error {
	return h.setStatus(c, models.AppointmentCompleted, "appointment_completed")
}

/* ========================== Derived listings ============================ */

// @Summary      Upcoming appointments
// @Description  Scheduled or confirmed appointments starting after now
// @Tags         appointments
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  map[string]any
// @Router       /appointments/upcoming [get]
func (h *Handler) Upcoming(c *fiber.Ctx) error {
	list := []models.Appointment{}
	if err := h.scoped(c).
		Where("start_time > ? AND status IN ?", time.Now(),
			[]models.AppointmentStatus{models.AppointmentScheduled, models.AppointmentConfirmed}).
		Order("start_time ASC").
		Find(&list).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	return c.JSON(fiber.Map{"results": list})
}

// @Summary      Today's appointments
// @Tags         appointments
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  map[string]any
// @Router       /appointments/today [get]
func (h *Handler) Today(c *fiber.Ctx) error {
	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	list := []models.Appointment{}
	if err := h.scoped(c).
		Where("start_time >= ? AND start_time < ?", dayStart, dayEnd).
		Order("start_time ASC").
		Find(&list).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	return c.JSON(fiber.Map{"results": list})
}

type calendarEntry struct {
	ID          uuid.UUID                `json:"id"`
	Title       string                   `json:"title"`
	Start       time.Time                `json:"start"`
	End         time.Time                `json:"end"`
	Status      models.AppointmentStatus `json:"status"`
	ClientName  string                   `json:"client_name"`
	Location    string                   `json:"location"`
	Description string                   `json:"description"`
}

func parseDateParam(s string) (t time.Time, dateOnly, ok bool) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, false, true
	}
	return time.Time{}, false, false
}

// @Summary      Calendar view
// @Description  Appointments in the window, flattened for calendar rendering
// @Tags         appointments
// @Security     BearerAuth
// @Produce      json
// @Param        start  query string true "window start (YYYY-MM-DD or RFC3339)"
// @Param        end    query string true "window end (YYYY-MM-DD or RFC3339)"
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  models.ErrorResponse
// @Router       /appointments/calendar [get]
func (h *Handler) Calendar(c *fiber.Ctx) error {
	from, _, okFrom := parseDateParam(c.Query("start"))
	to, toDateOnly, okTo := parseDateParam(c.Query("end"))
	if !okFrom || !okTo {
		return fiber.NewError(fiber.StatusBadRequest, "start and end parameters are required")
	}
	if toDateOnly {
		to = to.Add(24 * time.Hour)
	}

	rows := []calendarEntry{}
	if err := h.scoped(c).
		Select(`appointments.id, appointments.title,
	        appointments.start_time AS start, appointments.end_time AS "end",
	        appointments.status, appointments.location, appointments.description,
	        COALESCE(clients.first_name || ' ' || clients.last_name, 'No Client') AS client_name`).
		Joins("LEFT JOIN clients ON clients.id = appointments.client_id").
		Where("appointments.start_time >= ? AND appointments.start_time <= ?", from, to).
		Order("appointments.start_time ASC").
		Scan(&rows).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	return c.JSON(fiber.Map{"results": rows})
}

type statsResponse struct {
	Total     int64 `json:"total"`
	Today     int64 `json:"today"`
	Upcoming  int64 `json:"upcoming"`
	Completed int64 `json:"completed"`
	Cancelled int64 `json:"cancelled"`
}

// @Summary      Appointment statistics
// @Tags         appointments
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  statsResponse
// @Router       /appointments/stats [get]
func (h *Handler) Stats(c *fiber.Ctx) error {
	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var out statsResponse
	counts := []struct {
		dst  *int64
		cond func(*gorm.DB) *gorm.DB
	}{
		{&out.Total, func(q *gorm.DB) *gorm.DB { return q }},
		{&out.Today, func(q *gorm.DB) *gorm.DB {
			return q.Where("start_time >= ? AND start_time < ?", dayStart, dayStart.Add(24*time.Hour))
		}},
		{&out.Upcoming, func(q *gorm.DB) *gorm.DB {
			return q.Where("start_time > ? AND status IN ?", now,
				[]models.AppointmentStatus{models.AppointmentScheduled, models.AppointmentConfirmed})
		}},
		{&out.Completed, func(q *gorm.DB) *gorm.DB {
			return q.Where("status = ?", models.AppointmentCompleted)
		}},
		{&out.Cancelled, func(q *gorm.DB) *gorm.DB {
			return q.Where("status = ?", models.AppointmentCancelled)
		}},
	}
	for _, cnt := range counts {
		if err := cnt.cond(h.scoped(c)).Count(cnt.dst).Error; err != nil {
			return fiber.ErrInternalServerError
		}
	}
	return c.JSON(out)
}
