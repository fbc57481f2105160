package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/aldoetobex/freelance-portal/pkg/models"
)

/* ============================== JWT Claims ============================== */

// Claims represents the JWT payload we issue and expect.
type Claims struct {
	Sub      string `json:"sub"`                 // user ID ("admin" for the studio admin)
	Role     string `json:"role"`                // "client" | "admin"
	ClientID string `json:"client_id,omitempty"` // set for portal clients
	jwt.RegisteredClaims
}

/* ============================== JWT Helpers ============================= */

// Tokens signs and verifies HS256 JWTs with one secret.
type Tokens struct {
	secret []byte
	ttl    time.Duration
}

// NewTokens builds a signer; ttl is the default lifetime of client tokens.
func NewTokens(secret string, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Tokens{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token for the given user and role that expires after the default ttl.
func (t *Tokens) Issue(userID, role, clientID string) (string, error) {
	return t.IssueUntil(userID, role, clientID, "", time.Now().Add(t.ttl))
}

// IssueUntil signs a token with an explicit expiry and token id.
func (t *Tokens) IssueUntil(userID, role, clientID, tokenID string, expiresAt time.Time) (string, error) {
	claims := &Claims{
		Sub:      userID,
		Role:     role,
		ClientID: clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(t.secret)
}

// Parse verifies a token string and returns its claims.
func (t *Tokens) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(tk *jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	return claims, nil
}

/* ============================== Middleware ============================== */

// RequireAuth validates a Bearer JWT and injects userID, role, clientID and
// sessionID into the context. SSE clients that cannot set headers may pass
// the token as ?token=.
func (t *Tokens) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := ""
		if h := c.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
			tokenStr = strings.TrimPrefix(h, "Bearer ")
		} else if q := c.Query("token"); q != "" {
			tokenStr = q
		}
		if tokenStr == "" {
			return fiber.ErrUnauthorized
		}

		claims, err := t.Parse(tokenStr)
		if err != nil {
			return fiber.ErrUnauthorized
		}

		c.Locals("userID", claims.Sub)
		c.Locals("role", claims.Role)
		c.Locals("clientID", claims.ClientID)
		c.Locals("sessionID", claims.ID)
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

// MustRole reads the authenticated user role from context or panics (programming error).
func MustRole(c *fiber.Ctx) string {
	if v := c.Locals("role"); v != nil {
		return v.(string)
	}
	panic(errors.New("role not in context"))
}

// ClientID returns the portal client bound to the token, or "".
func ClientID(c *fiber.Ctx) string {
	if v, ok := c.Locals("clientID").(string); ok {
		return v
	}
	return ""
}

// UserUUID parses the authenticated user id.
func UserUUID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(MustUserID(c))
	if err != nil {
		return uuid.Nil, fiber.ErrUnauthorized
	}
	return id, nil
}

// ClientUUID parses the portal client bound to the token. Tokens without a
// client are refused.
func ClientUUID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ClientID(c))
	if err != nil {
		return uuid.Nil, fiber.ErrForbidden
	}
	return id, nil
}

// SessionID returns the token id, or "".
func SessionID(c *fiber.Ctx) string {
	if v, ok := c.Locals("sessionID").(string); ok {
		return v
	}
	return ""
}

// RequireRole ensures the authenticated user has the expected role.
func RequireRole(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if MustRole(c) != string(role) {
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
	case fiber.StatusPaymentRequired:
		return "PAYMENT_REQUIRED"
	case fiber.StatusForbidden:
		return "FORBIDDEN"
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusConflict:
		return "CONFLICT"
	case fiber.StatusGone:
		return "GONE"
	case fiber.StatusUnprocessableEntity:
		return "UNPROCESSABLE_ENTITY"
	case fiber.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case fiber.StatusBadGateway:
		return "BAD_GATEWAY"
	case fiber.StatusNotImplemented:
		return "NOT_IMPLEMENTED"
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
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		if strings.TrimSpace(e.Message) != "" {
			msg = e.Message
		} else {
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
