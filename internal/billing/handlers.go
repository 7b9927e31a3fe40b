package billing

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

type InvoiceItemRequest struct {
	Description string  `json:"description" validate:"required,max=200"`
	Quantity    float64 `json:"quantity" validate:"required,gt=0"`
	UnitPrice   float64 `json:"unit_price" validate:"required,gte=0"`
	TaxRate     float64 `json:"tax_rate" validate:"gte=0,lte=100"`
}

type CreateInvoiceRequest struct {
	InvoiceNumber string               `json:"invoice_number" validate:"omitempty,max=50"`
	ClientID      string               `json:"client_id" validate:"required,uuid"`
	CaseID        string               `json:"case_id" validate:"omitempty,uuid"`
	IssueDate     string               `json:"issue_date" validate:"required,datetime=2006-01-02"`
	DueDate       string               `json:"due_date" validate:"required,datetime=2006-01-02"`
	Notes         string               `json:"notes" validate:"max=2000"`
	Items         []InvoiceItemRequest `json:"items" validate:"required,min=1,dive"`
}

type UpdateInvoiceRequest struct {
	DueDate *string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	Notes   *string `json:"notes" validate:"omitempty,max=2000"`
	Status  *string `json:"status" validate:"omitempty,oneof=draft sent paid overdue cancelled"`
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
	return h.db.Model(&models.Invoice{}).Where("created_by_id = ?", auth.MustUserID(c))
}

func (h *Handler) findOwned(c *fiber.Ctx, id string) (models.Invoice, error) {
	var inv models.Invoice
	if _, err := uuid.Parse(id); err != nil {
		return inv, fiber.NewError(fiber.StatusBadRequest, "invalid invoice id")
	}
	err := h.db.Where("id = ? AND created_by_id = ?", id, auth.MustUserID(c)).First(&inv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return inv, fiber.ErrNotFound
		}
		return inv, fiber.ErrInternalServerError
	}
	return inv, nil
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

// buildItems computes per-line amounts and the invoice totals from the
// submitted items. Caller-supplied totals are never trusted.
func buildItems(in []InvoiceItemRequest) (items []models.InvoiceItem, subtotal, tax float64) {
	for _, it := range in {
		line := it.Quantity * it.UnitPrice
		lineTax := line * it.TaxRate / 100
		items = append(items, models.InvoiceItem{
			Description: strings.TrimSpace(it.Description),
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TaxRate:     it.TaxRate,
			Amount:      round2(line + lineTax),
		})
		subtotal += line
		tax += lineTax
	}
	return items, round2(subtotal), round2(tax)
}

/* =============================== CRUD =================================== */

// @Summary      Create invoice
// @Description  Accepts nested items; totals are computed from the lines
// @Tags         billing
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  CreateInvoiceRequest  true  "Invoice payload"
// @Success      201  {object}  models.Invoice
// @Failure      400  {object}  models.ValidationErrorResponse
// @Failure      404  {object}  models.ErrorResponse  "client not found"
// @Failure      409  {object}  models.ErrorResponse  "invoice number exists"
// @Router       /billing/invoices [post]
func (h *Handler) Create(c *fiber.Ctx) error {
	var in CreateInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	userID := auth.MustUserID(c)
	creatorID, _ := uuid.Parse(userID)

	// The billed client must belong to the caller.
	var cnt int64
	if err := h.db.Model(&models.Client{}).
		Where("id = ? AND created_by_id = ?", in.ClientID, userID).
		Count(&cnt).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	if cnt == 0 {
		return fiber.NewError(fiber.StatusNotFound, "client not found")
	}

	issueDate, _ := time.Parse("2006-01-02", in.IssueDate)
	dueDate, _ := time.Parse("2006-01-02", in.DueDate)
	if dueDate.Before(issueDate) {
		return validation.Respond(c, map[string][]string{
			"due_date": {"Due date must not be before issue date"},
		})
	}

	number := strings.TrimSpace(in.InvoiceNumber)
	if number == "" {
		number = utils.GenerateInvoiceNumber(time.Now())
	}

	clientID, _ := uuid.Parse(in.ClientID)
	items, subtotal, tax := buildItems(in.Items)

	inv := models.Invoice{
		InvoiceNumber: number,
		ClientID:      clientID,
		CaseID:        parseOptionalUUID(in.CaseID),
		IssueDate:     issueDate,
		DueDate:       dueDate,
		Status:        models.InvoiceDraft,
		Subtotal:      subtotal,
		TaxAmount:     tax,
		Total:         round2(subtotal + tax),
		Notes:         in.Notes,
		CreatedByID:   &creatorID,
		Items:         items,
	}

	tx := h.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	// Items are inserted with the invoice in one transaction.
	if err := tx.Create(&inv).Error; err != nil {
		tx.Rollback()
		return fiber.NewError(fiber.StatusConflict, "invoice number already exists")
	}
	if err := tx.Commit().Error; err != nil {
		return fiber.ErrInternalServerError
	}

	utils.LogActivity(c.Context(), h.db, creatorID, "invoice_created", "Created invoice "+inv.InvoiceNumber, &inv.ID)
	return c.Status(fiber.StatusCreated).JSON(inv)
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

// @Summary      List invoices
// @Tags         billing
// @Security     BearerAuth
// @Produce      json
// @Param        page      query int    false "page"
// @Param        pageSize  query int    false "pageSize"
// @Param        status    query string false "status filter"
// @Param        client    query string false "client id filter"
// @Success      200  {object}  map[string]any
// @Router       /billing/invoices [get]
func (h *Handler) List(c *fiber.Ctx) error {
	page, size := parsePage(c)

	q := h.scoped(c)
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		switch models.InvoiceStatus(status) {
		case models.InvoiceDraft, models.InvoiceSent, models.InvoicePaid,
			models.InvoiceOverdue, models.InvoiceCancelled:
			q = q.Where("status = ?", status)
		default:
			return fiber.NewError(fiber.StatusBadRequest, "invalid status filter")
		}
	}
	if clientID := c.Query("client"); clientID != "" {
		q = q.Where("client_id = ?", clientID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return fiber.ErrInternalServerError
	}

	list := []models.Invoice{}
	if err := q.Order("issue_date DESC, created_at DESC").
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

// @Summary      Invoice detail
// @Description  Invoice with its line items
// @Tags         billing
// @Security     BearerAuth
// @Produce      json
// @Param        id   path string true "invoice id (uuid)"
// @Success      200  {object}  models.Invoice
// @Failure      404  {object}  models.ErrorResponse
// @Router       /billing/invoices/{id} [get]
func (h *Handler) Get(c *fiber.Ctx) error {
	inv, err := h.findOwned(c, c.Params("id"))
	if err != nil {
		return err
	}
	if err := h.db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&inv, "id = ?", inv.ID).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	if inv.Items == nil {
		inv.Items = []models.InvoiceItem{}
	}
	return c.JSON(inv)
}

// @Summary      Update invoice
// @Description  Mutable fields only; line items and totals are fixed at creation
// @Tags         billing
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path string                true "invoice id (uuid)"
// @Param        payload  body UpdateInvoiceRequest  true "fields to change"
// @Success      200  {object}  models.Invoice
// @Failure      400  {object}  models.ValidationErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /billing/invoices/{id} [patch]
func (h *Handler) Update(c *fiber.Ctx) error {
	inv, err := h.findOwned(c, c.Params("id"))
	if err != nil {
		return err
	}

	var in UpdateInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	updates := map[string]any{}
	if in.DueDate != nil {
		d, _ := time.Parse("2006-01-02", *in.DueDate)
		updates["due_date"] = d
	}
	if in.Notes != nil {
		updates["notes"] = *in.Notes
	}
	if in.Status != nil {
		updates["status"] = *in.Status
		if models.InvoiceStatus(*in.Status) == models.InvoicePaid && inv.PaidAt == nil {
			updates["paid_at"] = time.Now()
		}
	}
	if len(updates) > 0 {
		if err := h.db.Model(&inv).Updates(updates).Error; err != nil {
			return fiber.ErrInternalServerError
		}
	}
	if err := h.db.First(&inv, "id = ?", inv.ID).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	return c.JSON(inv)
}

// @Summary      Delete invoice
// @Tags         billing
// @Security     BearerAuth
// @Param        id   path string true "invoice id (uuid)"
// @Success      204  "no content"
// @Failure      404  {object}  models.ErrorResponse
// @Router       /billing/invoices/{id} [delete]
func (h *Handler) Delete(c *fiber.Ctx) error {
	inv, err := h.findOwned(c, c.Params("id"))
	if err != nil {
		return err
	}
	if err := h.db.Select("Items").Delete(&inv).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	return c.SendStatus(fiber.StatusNoContent)
}

/* ============================== Actions ================================= */

// @Summary      Mark invoice paid
// @Description  Sets status to paid and stamps paid_at
// @Tags         billing
// @Security     BearerAuth
// @Produce      json
// @Param        id   path string true "invoice id (uuid)"
// @Success      200  {object}  models.Invoice
// @Failure      404  {object}  models.ErrorResponse
// @Router       /billing/invoices/{id}/mark_paid [post]
func (h *Handler) MarkPaid(c *fiber.Ctx) error {
	inv, err := h.findOwned(c, c.Params("id"))
	if err != nil {
		return err
	}

	updates := map[string]any{"status": models.InvoicePaid}
	if inv.PaidAt == nil {
		updates["paid_at"] = time.Now()
	}
	if err := h.db.Model(&inv).Updates(updates).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	if err := h.db.First(&inv, "id = ?", inv.ID).Error; err != nil {
		return fiber.ErrInternalServerError
	}

	userID, _ := uuid.Parse(auth.MustUserID(c))
	utils.LogActivity(c.Context(), h.db, userID, "invoice_paid", "Invoice "+inv.InvoiceNumber+" paid", &inv.ID)
	return c.JSON(inv)
}

// @Summary      Send invoice
// @Description  Moves a draft invoice to sent
// @Tags         billing
// @Security     BearerAuth
// @Produce      json
// @Param        id   path string true "invoice id (uuid)"
// @Success      200  {object}  models.Invoice
// @Failure      404  {object}  models.ErrorResponse
// @Failure      409  {object}  models.ErrorResponse  "not a draft"
// @Router       /billing/invoices/{id}/send [post]
func (h *Handler) Send(c *fiber.Ctx) error {
	inv, err := h.findOwned(c, c.Params("id"))
	if err != nil {
		return err
	}
	if inv.Status != models.InvoiceDraft {
		return fiber.NewError(fiber.StatusConflict, "only draft invoices can be sent")
	}
	if err := h.db.Model(&inv).Update("status", models.InvoiceSent).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	inv.Status = models.InvoiceSent

	userID, _ := uuid.Parse(auth.MustUserID(c))
	utils.LogActivity(c.Context(), h.db, userID, "invoice_sent", "Invoice "+inv.InvoiceNumber+" sent", &inv.ID)
	return c.JSON(inv)
}
