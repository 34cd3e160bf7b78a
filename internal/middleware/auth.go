package middleware

import (
	"github.com/gofiber/fiber/v3"
)

const (
	userIDLocal = "userID"
	tokenLocal  = "ytToken"
)

// RequireUser extracts and validates the X-User-ID header and stashes it in
// request locals, alongside the optional per-user X-YouTube-Token. Requests
// without a valid user id are rejected before any handler runs.
func RequireUser() fiber.Handler {
	return func(c fiber.Ctx) error {
		userID, errMsg := ValidateUserID(c.Get("X-User-ID"))
		if errMsg != "" {
			return ErrorResponse(c, fiber.StatusUnauthorized, "UNAUTHENTICATED", errMsg)
		}
		c.Locals(userIDLocal, userID)
		c.Locals(tokenLocal, c.Get("X-YouTube-Token"))
		return c.Next()
	}
}

// UserID returns the authenticated user id set by RequireUser.
func UserID(c fiber.Ctx) string {
	if v, ok := c.Locals(userIDLocal).(string); ok {
		return v
	}
	return ""
}

// YouTubeToken returns the caller's OAuth token, empty when the request
// carries none (the server's API key is used instead).
func YouTubeToken(c fiber.Ctx) string {
	if v, ok := c.Locals(tokenLocal).(string); ok {
		return v
	}
	return ""
}
