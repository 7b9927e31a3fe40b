package clients

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
	"lawoffice/internal/storage"
	"lawoffice/pkg/models"
	"lawoffice/pkg/utils"
	"lawoffice/pkg/validation"
)

// ===== DTOs =====

type CreateClientRequest struct {
	FirstName   string `json:"first_name" validate:"required,max=150"`
	LastName    string `json:"last_name" validate:"required,max=150"`
	Email       string `json:"email" validate:"required,email,max=120"`
	Phone       string `json:"phone" validate:"omitempty,phone"`
	Address     string `json:"address" validate:"max=500"`
	City        string `json:"city" validate:"max=100"`
	State       string `json:"state" validate:"max=100"`
	PostalCode  string `json:"postal_code" validate:"max=20"`
	Country     string `json:"country" validate:"max=100"`
	DateOfBirth string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Occupation  string `json:"occupation" validate:"max=100"`
	Company     string `json:"company" validate:"max=100"`
}

type UpdateClientRequest struct {
	FirstName   *string `json:"first_name" validate:"omitempty,min=1,max=150"`
	LastName    *string `json:"last_name" validate:"omitempty,min=1,max=150"`
	Email       *string `json:"email" validate:"omitempty,email,max=120"`
	Phone       *string `json:"phone" validate:"omitempty,phone"`
	Address     *string `json:"address" validate:"omitempty,max=500"`
	City        *string `json:"city" validate:"omitempty,max=100"`
	State       *string `json:"state" validate:"omitempty,max=100"`
	PostalCode  *string `json:"postal_code" validate:"omitempty,max=20"`
	Country     *string `json:"country" validate:"omitempty,max=100"`
	DateOfBirth *string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Occupation  *string `json:"occupation" validate:"omitempty,max=100"`
	Company     *string `json:"company" validate:"omitempty,max=100"`
}

// ClientResponse is a Client plus the derived full name.
type ClientResponse struct {
	models.Client
	FullName string `json:"full_name"`
}

func toResponse(cl models.Client) ClientResponse {
	return ClientResponse{Client: cl, FullName: cl.FullName()}
}

type CityCount struct {
	City  string `json:"city"`
	Count int64  `json:"count"`
}

type ClientStatsResponse struct {
	TotalClients        int64       `json:"total_clients"`
	ActiveClients       int64       `json:"active_clients"`
	InactiveClients     int64       `json:"inactive_clients"`
	NewClientsThisMonth int64       `json:"new_clients_this_month"`
	TopCities           []CityCount `json:"top_cities"`
}

type Handler struct {
	db *gorm.DB
	sb *storage.Supabase
}

func NewHandler(db *gorm.DB, sb *storage.Supabase) *Handler {
	return &Handler{db: db, sb: sb}
}

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

// scoped returns the caller's client queryset; every lookup goes through it.
func (h *Handler) scoped(c *fiber.Ctx) *gorm.DB {
	return h.db.Model(&models.Client{}).Where("created_by_id = ?", auth.MustUserID(c))
}

// findOwned resolves a client id inside the caller's scope; misses read as 404.
func (h *Handler) findOwned(c *fiber.Ctx, id string) (models.Client, error) {
	var cl models.Client
	if _, err := uuid.Parse(id); err != nil {
		return cl, fiber.NewError(fiber.StatusBadRequest, "invalid client id")
	}
	err := h.db.Where("id = ? AND created_by_id = ?", id, auth.MustUserID(c)).First(&cl).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return cl, fiber.ErrNotFound
		}
		return cl, fiber.ErrInternalServerError
	}
	return cl, nil
}

func parseDOB(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}

/* =============================== CRUD =================================== */

// @Summary      Create client
// @Tags         clients
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  CreateClientRequest  true  "Client payload"
// @Success      201  {object}  ClientResponse
// @Failure      400  {object}  models.ValidationErrorResponse
// @Failure      409  {object}  models.ErrorResponse  "email already exists"
// @Router       /clients [post]
func (h *Handler) Create(c *fiber.Ctx) error {
	var in CreateClientRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	userID, _ := uuid.Parse(auth.MustUserID(c))
	cl := models.Client{
		FirstName:   strings.TrimSpace(in.FirstName),
		LastName:    strings.TrimSpace(in.LastName),
		Email:       in.Email,
		Phone:       strings.TrimSpace(in.Phone),
		Address:     in.Address,
		City:        strings.TrimSpace(in.City),
		State:       in.State,
		PostalCode:  in.PostalCode,
		Country:     in.Country,
		DateOfBirth: parseDOB(in.DateOfBirth),
		Occupation:  in.Occupation,
		Company:     in.Company,
		IsActive:    true,
		CreatedByID: userID,
	}
	if err := h.db.Create(&cl).Error; err != nil {
		return fiber.NewError(fiber.StatusConflict, "email already exists")
	}

	utils.LogActivity(c.Context(), h.db, userID, "client_created", "Created client "+cl.FullName(), &cl.ID)
	return c.Status(fiber.StatusCreated).JSON(toResponse(cl))
}

// @Summary      List clients
// @Description  Clients created by the caller; supports search and filters
// @Tags         clients
// @Security     BearerAuth
// @Produce      json
// @Param        page       query int    false "page"
// @Param        pageSize   query int    false "pageSize"
// @Param        search     query string false "substring over name/email/phone"
// @Param        is_active  query bool   false "filter on active flag"
// @Param        city       query string false "exact city match"
// @Success      200  {object}  map[string]any
// @Failure      401  {object}  models.ErrorResponse
// @Router       /clients [get]
func (h *Handler) List(c *fiber.Ctx) error {
	page, size := parsePage(c)

	q := h.scoped(c)
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		pat := "%" + search + "%"
		q = q.Where(
			"first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ? OR phone ILIKE ?",
			pat, pat, pat, pat,
		)
	}
	if isActive := c.Query("is_active"); isActive != "" {
		b, err := strconv.ParseBool(isActive)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid is_active filter")
		}
		q = q.Where("is_active = ?", b)
	}
	if city := strings.TrimSpace(c.Query("city")); city != "" {
		q = q.Where("city = ?", city)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return fiber.ErrInternalServerError
	}

	var list []models.Client
	if err := q.Order("last_name ASC, first_name ASC").
		Offset((page - 1) * size).Limit(size).
		Find(&list).Error; err != nil {
		return fiber.ErrInternalServerError
	}

	items := make([]ClientResponse, 0, len(list))
	for _, cl := range list {
		items = append(items, toResponse(cl))
	}

	return c.JSON(fiber.Map{
		"page": page, "pageSize": size, "total": total,
		"pages":   int(math.Ceil(float64(total) / float64(size))),
		"results": items,
	})
}

// @Summary      Client detail
// @Tags         clients
// @Security     BearerAuth
// @Produce      json
// @Param        id   path string true "client id (uuid)"
// @Success      200  {object}  ClientResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /clients/{id} [get]
func (h *Handler) Get(c *fiber.Ctx) error {
	cl, err := h.findOwned(c, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(toResponse(cl))
}

// @Summary      Update client
// @Tags         clients
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path string               true "client id (uuid)"
// @Param        payload  body UpdateClientRequest  true "fields to change"
// @Success      200  {object}  ClientResponse
// @Failure      400  {object}  models.ValidationErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /clients/{id} [patch]
func (h *Handler) Update(c *fiber.Ctx) error {
	cl, err := h.findOwned(c, c.Params("id"))
	if err != nil {
		return err
	}

	var in UpdateClientRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	updates := map[string]any{}
	if in.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*in.LastName)
	}
	if in.Email != nil {
		updates["email"] = strings.ToLower(strings.TrimSpace(*in.Email))
	}
	if in.Phone != nil {
		updates["phone"] = strings.TrimSpace(*in.Phone)
	}
	if in.Address != nil {
		updates["address"] = *in.Address
	}
	if in.City != nil {
		updates["city"] = strings.TrimSpace(*in.City)
	}
	if in.State != nil {
		updates["state"] = *in.State
	}
	if in.PostalCode != nil {
		updates["postal_code"] = *in.PostalCode
	}
	if in.Country != nil {
		updates["country"] = *in.Country
	}
	if in.DateOfBirth != nil {
		updates["date_of_birth"] = parseDOB(*in.DateOfBirth)
	}
	if in.Occupation != nil {
		updates["occupation"] = *in.Occupation
	}
	if in.Company != nil {
		updates["company"] = *in.Company
	}
	if len(updates) > 0 {
		if err := h.db.Model(&cl).Updates(updates).Error; err != nil {
			return fiber.NewError(fiber.StatusConflict, "email already exists")
		}
	}

	userID, _ := uuid.Parse(auth.MustUserID(c))
	utils.LogActivity(c.Context(), h.db, userID, "client_updated", "Updated client "+cl.FullName(), &cl.ID)
	return c.JSON(toResponse(cl))
}

// @Summary      Delete client
// @Tags         clients
// @Security     BearerAuth
// @Param        id   path string true "client id (uuid)"
// @Success      204  "no content"
// @Failure      404  {object}  models.ErrorResponse
// @Router       /clients/{id} [delete]
func (h *Handler) Delete(c *fiber.Ctx) error {
	cl, err := h.findOwned(c, c.Params("id"))
	if err != nil {
		return err
	}

	// Stored objects go first; DB rows cascade with the client.
	var keys []string
	if err := h.db.Model(&models.ClientDocument{}).
		Where("client_id = ?", cl.ID).
		Pluck("key", &keys).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	if h.sb != nil {
		_ = h.sb.BulkDelete(keys)
	}

	if err := h.db.Select("Notes", "Documents").Delete(&cl).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	return c.SendStatus(fiber.StatusNoContent)
}

/* ============================== Actions ================================= */

func (h *Handler) setActive(c *fiber.Ctx, active bool) error {
	cl, err := h.findOwned(c, c.Params("id"))
	if err != nil {
		return err
	}
	if err := h.db.Model(&cl).Update("is_active", active).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	cl.IsActive = active

	action := "client_deactivated"
	if active {
		action = "client_activated"
	}
	userID, _ := uuid.Parse(auth.MustUserID(c))
	utils.LogActivity(c.Context(), h.db, userID, action, cl.FullName(), &cl.ID)
	return c.JSON(toResponse(cl))
}

// @Summary      Activate client
// @Tags         clients
// @Security     BearerAuth
// @Param        id   path string true "client id (uuid)"
// @Success      200  {object}  ClientResponse
// @Router       /clients/{id}/activate [post]
func (h *Handler) Activate(c *fiber.Ctx) error { return h.setActive(c, true) }

// @Summary      Deactivate client
// @Tags         clients
// @Security     BearerAuth
// @Param        id   path string true "client id (uuid)"
// @Success      200  {object}  ClientResponse
// @Router       /clients/{id}/deactivate [post]
func (h *Handler) Deactivate(c *fiber.Ctx) error { return h.setActive(c, false) }

/* =============================== Stats ================================== */

// @Summary      Client statistics
// @Description  Counts plus a top-5 city breakdown, computed per request
// @Tags         clients
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  ClientStatsResponse
// @Failure      401  {object}  models.ErrorResponse
// @Router       /clients/stats [get]
func (h *Handler) Stats(c *fiber.Ctx) error {
	var out ClientStatsResponse

	if err := h.scoped(c).Count(&out.TotalClients).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	if err := h.scoped(c).Where("is_active = ?", true).Count(&out.ActiveClients).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	out.InactiveClients = out.TotalClients - out.ActiveClients

	now := time.Now()
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	if err := h.scoped(c).Where("created_at >= ?", startOfMonth).
		Count(&out.NewClientsThisMonth).Error; err != nil {
		return fiber.ErrInternalServerError
	}

	out.TopCities = []CityCount{}
	if err := h.scoped(c).
		Select("city, COUNT(*) AS count").
		Where("city <> ''").
		Group("city").
		Order("count DESC").
		Limit(5).
		Scan(&out.TopCities).Error; err != nil {
		return fiber.ErrInternalServerError
	}

	return c.JSON(out)
}

/* ========================= Related collections ========================== */

// @Summary      Appointments for a client
// @Description  Caller's appointments that reference this client
// @Tags         clients
// @Security     BearerAuth
// @Produce      json
// @Param        id   path string true "client id (uuid)"
// @Success      200  {object}  map[string]any
// @Failure      404  {object}  models.ErrorResponse
// @Router       /clients/{id}/appointments [get]
func (h *Handler) Appointments(c *fiber.Ctx) error {
	cl, err := h.findOwned(c, c.Params("id"))
	if err != nil {
		return err
	}

	appts := []models.Appointment{}
	if err := h.db.
		Where("client_id = ? AND user_id = ?", cl.ID, auth.MustUserID(c)).
		Order("start_time DESC").
		Find(&appts).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	return c.JSON(fiber.Map{"results": appts})
}

type notesSummary struct {
	Count  int64               `json:"count"`
	Latest []models.ClientNote `json:"latest"`
}

// @Summary      Notes summary for a client
// @Description  Note count plus the three most recent notes
// @Tags         clients
// @Security     BearerAuth
// @Produce      json
// @Param        id   path string true "client id (uuid)"
// @Success      200  {object}  notesSummary
// @Failure      404  {object}  models.ErrorResponse
// @Router       /clients/{id}/notes_summary [get]
func (h *Handler) NotesSummary(c *fiber.Ctx) error {
	cl, err := h.findOwned(c, c.Params("id"))
	if err != nil {
		return err
	}

	var out notesSummary
	out.Latest = []models.ClientNote{}
	if err := h.db.Model(&models.ClientNote{}).
		Where("client_id = ?", cl.ID).
		Count(&out.Count).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	if err := h.db.
		Where("client_id = ?", cl.ID).
		Order("created_at DESC").
		Limit(3).
		Find(&out.Latest).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	return c.JSON(out)
}
