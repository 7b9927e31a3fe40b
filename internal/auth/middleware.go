package auth

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"lawoffice/pkg/models"
)

/* ============================== JWT Claims ============================== */

// Claims represents the JWT payload we issue and expect.
type Claims struct {
	Sub      string `json:"sub"`       // user ID
	UserType string `json:"user_type"` // "admin" | "lawyer" | "paralegal"
	TokenUse string `json:"token_use"` // "access" | "refresh"
	jwt.RegisteredClaims
}

const (
	accessTokenTTL  = 30 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
)

/* ============================== JWT Helpers ============================= */

func issueToken(userID, userType, use string, ttl time.Duration) (string, error) {
	claims := &Claims{
		Sub:      userID,
		UserType: userType,
		TokenUse: use,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(os.Getenv("JWT_SECRET")))
}

// IssueAccessToken signs a short-lived access JWT for the given user.
func IssueAccessToken(userID, userType string) (string, error) {
	return issueToken(userID, userType, "access", accessTokenTTL)
}

// IssueRefreshToken signs a longer-lived refresh JWT for the given user.
func IssueRefreshToken(userID, userType string) (string, error) {
	return issueToken(userID, userType, "refresh", refreshTokenTTL)
}

// ParseToken validates a signed token of the expected use ("access" or
// "refresh") and returns its claims.
func ParseToken(tokenStr, expectedUse string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		return nil, fiber.ErrUnauthorized
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || claims.TokenUse != expectedUse {
		return nil, fiber.ErrUnauthorized
	}
	return claims, nil
}

/* ============================== Middleware ============================== */

// RequireAuth validates a Bearer access JWT and injects userID and userType
// into the context. Refresh tokens are rejected here.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		h := c.Get("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			return fiber.ErrUnauthorized
		}
		claims, err := ParseToken(strings.TrimPrefix(h, "Bearer "), "access")
		if err != nil {
			return fiber.ErrUnauthorized
		}

		c.Locals("userID", claims.Sub)
		c.Locals("userType", claims.UserType)
		return c.Next()
	}
}

// MustUserID reads the authenticated user ID from context or panics (programming error).
func MustUserID(c *fiber.Ctx) string {
	if v := c.Locals("userID"); v != nil {
		return v.(string)
	}
	panic(errors.New("user not in context"))
}

// MustUserType reads the authenticated user type from context or panics (programming error).
func MustUserType(c *fiber.Ctx) string {
	if v := c.Locals("userType"); v != nil {
		return v.(string)
	}
	panic(errors.New("user type not in context"))
}

// RequireUserType ensures the authenticated user has the expected type.
func RequireUserType(userType string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if MustUserType(c) != userType {
			return fiber.ErrForbidden
		}
		return c.Next()
	}
}

/* =========================== Error Formatting =========================== */

// httpCodeToString converts an HTTP status code to a short, stable string.
func httpCodeToString(code int) string {
	switch code {
	case fiber.StatusBadRequest:
		return "BAD_REQUEST"
	case fiber.StatusUnauthorized:
		return "UNAUTHORIZED"
	case fiber.StatusForbidden:
		return "FORBIDDEN"
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusConflict:
		return "CONFLICT"
	case fiber.StatusUnprocessableEntity:
		return "UNPROCESSABLE_ENTITY"
	case fiber.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	default:
		return "INTERNAL_SERVER_ERROR"
	}
}

// ErrorHandler is a global Fiber error handler that returns a consistent JSON shape.
func ErrorHandler(c *fiber.Ctx, err error) error {
	// Defaults
	code := fiber.StatusInternalServerError
	msg := "Internal Server Error"

	// Fiber errors carry status codes
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		if strings.TrimSpace(e.Message) != "" {
			msg = e.Message
		} else {
			// Use Fiber's default messages per status code
			msg = fiber.ErrInternalServerError.Message
			switch code {
			case fiber.StatusBadRequest:
				msg = fiber.ErrBadRequest.Message
			case fiber.StatusUnauthorized:
				msg = fiber.ErrUnauthorized.Message
			case fiber.StatusForbidden:
				msg = fiber.ErrForbidden.Message
			case fiber.StatusNotFound:
				msg = fiber.ErrNotFound.Message
			case fiber.StatusConflict:
				msg = fiber.ErrConflict.Message
			}
		}
	}

	return c.Status(code).JSON(models.ErrorResponse{
		Code:    httpCodeToString(code),
		Error:   true,
		Message: msg,
	})
}
