package auth

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"lawoffice/pkg/models"
	"lawoffice/pkg/validation"
)

/* ================================ DTOs ================================= */

// Request body for POST /auth/users (admin)
type CreateUserRequest struct {
	Email     string `json:"email" validate:"required,email,max=120"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"first_name" validate:"required,min=2,max=150"`
	LastName  string `json:"last_name" validate:"required,min=2,max=150"`
	Phone     string `json:"phone" validate:"omitempty,phone"`
	UserType  string `json:"user_type" validate:"required,oneof=admin lawyer paralegal"`
}

// Request body for PATCH /auth/users/{id}
type UpdateUserRequest struct {
	Email     *string `json:"email" validate:"omitempty,email,max=120"`
	FirstName *string `json:"first_name" validate:"omitempty,min=2,max=150"`
	LastName  *string `json:"last_name" validate:"omitempty,min=2,max=150"`
	Phone     *string `json:"phone" validate:"omitempty,phone"`
	UserType  *string `json:"user_type" validate:"omitempty,oneof=admin lawyer paralegal"`
	IsActive  *bool   `json:"is_active"`
}

// Request body for PATCH /auth/profile
type UpdateProfileRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,min=2,max=150"`
	LastName  *string `json:"last_name" validate:"omitempty,min=2,max=150"`
	Phone     *string `json:"phone" validate:"omitempty,phone"`
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

// resolveUser loads the target user, honoring the "me" alias.
func (h *Handler) resolveUser(c *fiber.Ctx, id string) (models.User, error) {
	var u models.User
	if id == "me" {
		id = MustUserID(c)
	}
	if _, err := uuid.Parse(id); err != nil {
		return u, fiber.NewError(fiber.StatusBadRequest, "invalid user id")
	}
	if err := h.db.First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return u, fiber.ErrNotFound
		}
		return u, fiber.ErrInternalServerError
	}
	return u, nil
}

/* =========================== User management =========================== */

// @Summary      List users
// @Description  Paginated staff directory, admin only
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Param        page      query int false "page"
// @Param        pageSize  query int false "pageSize"
// @Success      200  {object}  map[string]any
// @Failure      403  {object}  models.ErrorResponse
// @Router       /auth/users [get]
func (h *Handler) ListUsers(c *fiber.Ctx) error {
	page, size := parsePage(c)

	var total int64
	if err := h.db.Model(&models.User{}).Count(&total).Error; err != nil {
		return fiber.ErrInternalServerError
	}

	users := []models.User{}
	if err := h.db.
		Order("created_at DESC").
		Offset((page - 1) * size).Limit(size).
		Find(&users).Error; err != nil {
		return fiber.ErrInternalServerError
	}

	results := make([]UserResponse, 0, len(users))
	for _, u := range users {
		results = append(results, toUserResponse(u))
	}
	return c.JSON(fiber.Map{
		"page": page, "pageSize": size, "total": total,
		"pages":   int(math.Ceil(float64(total) / float64(size))),
		"results": results,
	})
}

// @Summary      Create user
// @Description  Admin creates a staff account with an explicit role
// @Tags         users
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  CreateUserRequest  true  "User payload"
// @Success      201  {object}  UserResponse
// @Failure      400  {object}  models.ValidationErrorResponse
// @Failure      403  {object}  models.ErrorResponse
// @Failure      409  {object}  models.ErrorResponse  "email already exists"
// @Router       /auth/users [post]
func (h *Handler) CreateUser(c *fiber.Ctx) error {
	var in CreateUserRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.ErrBadRequest
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}

	hash, _ := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	u := models.User{
		Email:        in.Email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Phone:        strings.TrimSpace(in.Phone),
		UserType:     models.UserType(in.UserType),
		IsActive:     true,
	}
	if err := h.db.Create(&u).Error; err != nil {
		return fiber.NewError(fiber.StatusConflict, "email already exists")
	}
	return c.Status(fiber.StatusCreated).JSON(toUserResponse(u))
}

// @Summary      User detail
// @Description  Any authenticated user; "me" resolves to the caller
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Param        id   path string true "user id (uuid) or \"me\""
// @Success      200  {object}  UserResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /auth/users/{id} [get]
func (h *Handler) GetUser(c *fiber.Ctx) error {
	u, err := h.resolveUser(c, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(toUserResponse(u))
}

// @Summary      Update user
// @Description  Self or admin; role and active-flag changes are admin only
// @Tags         users
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path string             true "user id (uuid) or \"me\""
// @Param        payload  body  UpdateUserRequest  true "fields to change"
// @Success      200  {object}  UserResponse
// @Failure      400  {object}  models.ValidationErrorResponse
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /auth/users/{id} [patch]
func (h *Handler) UpdateUser(c *fiber.Ctx) error {
	u, err := h.resolveUser(c, c.Params("id"))
	if err != nil {
		return err
	}
	isAdmin := MustUserType(c) == string(models.UserAdmin)
	if !isAdmin && u.ID.String() != MustUserID(c) {
		return fiber.ErrForbidden
	}

	var in UpdateUserRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.ErrBadRequest
	}
	if errs, _ := validation.Validate(in); errs != nil {
		return validation.Respond(c, errs)
	}
	if !isAdmin && (in.UserType != nil || in.IsActive != nil) {
		return fiber.ErrForbidden
	}

	updates := map[string]any{}
	if in.Email != nil {
		updates["email"] = strings.ToLower(strings.TrimSpace(*in.Email))
	}
	if in.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*in.LastName)
	}
	if in.Phone != nil {
		updates["phone"] = strings.TrimSpace(*in.Phone)
	}
	if in.UserType != nil {
		updates["user_type"] = *in.UserType
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if len(updates) > 0 {
		if err := h.db.Model(&u).Updates(updates).Error; err != nil {
			return fiber.NewError(fiber.StatusConflict, "email already exists")
		}
	}
	if err := h.db.First(&u, "id = ?", u.ID).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	return c.JSON(toUserResponse(u))
}

// @Summary      Delete user
// @Description  Self or admin
// @Tags         users
// @Security     BearerAuth
// @Param        id   path string true "user id (uuid) or \"me\""
// @Success      204  "no content"
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /auth/users/{id} [delete]
func (h *Handler) DeleteUser(c *fiber.Ctx) error {
	u, err := h.resolveUser(c, c.Params("id"))
	if err != nil {
		return err
	}
	if MustUserType(c) != string(models.UserAdmin) && u.ID.String() != MustUserID(c) {
		return fiber.ErrForbidden
	}
	if err := h.db.Delete(&u).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	return c.SendStatus(fiber.StatusNoContent)
}

/* =============================== Profile ================================ */

// @Summary      Get profile
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  UserResponse
// @Router       /auth/profile [get]
func (h *Handler) Profile(c *fiber.Ctx) error {
	u, err := h.resolveUser(c, "me")
	if err != nil {
		return err
	}
	return c.JSON(toUserResponse(u))
}

// @Summary      Update profile
// @Description  Caller updates their own name and phone
// @Tags         users
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  UpdateProfileRequest  true  "fields to change"
// @Success      200  {object}  UserResponse
// @Failure      400  {object}  models.ValidationErrorResponse
// @Router       /auth/profile [patch]
func (h *Handler) UpdateProfile(c *fiber.Ctx) error {
	u, err := h.resolveUser(c, "me")
	if err != nil {
		return err
	}

	var in UpdateProfileRequest
	if err := c.BodyParser(&in); err != nil {
		return fiber.ErrBadRequest
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
	if in.Phone != nil {
		updates["phone"] = strings.TrimSpace(*in.Phone)
	}
	if len(updates) > 0 {
		if err := h.db.Model(&u).Updates(updates).Error; err != nil {
			return fiber.ErrInternalServerError
		}
	}
	if err := h.db.First(&u, "id = ?", u.ID).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	return c.JSON(toUserResponse(u))
}
