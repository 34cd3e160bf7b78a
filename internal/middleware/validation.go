package middleware

import (
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v3"
)

// Field length limits.
const (
	MaxVideoIDLen   = 16
	MaxChannelIDLen = 32
	MaxUserIDLen    = 64
	MaxQueryLen     = 200
	MaxNameLen      = 120
)

var (
	// videoIDRe matches YouTube video IDs: alphanumeric, dash, underscore.
	videoIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	// channelIDRe matches YouTube channel IDs: alphanumeric, dash, underscore.
	channelIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	// userIDRe matches user identifiers carried in the X-User-ID header.
	userIDRe = regexp.MustCompile(`^[A-Za-z0-9@._-]+$`)
)

// ErrorResponse is a helper that returns a standard API error response.
func ErrorResponse(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}

// ValidateVideoID checks that a video ID is well-formed.
func ValidateVideoID(id string) (string, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "videoId is required"
	}
	if len(id) > MaxVideoIDLen {
		return "", "videoId must be at most 16 characters"
	}
	if !videoIDRe.MatchString(id) {
		return "", "videoId contains invalid characters"
	}
	return id, ""
}

// ValidateChannelID checks that a channel ID is well-formed.
func ValidateChannelID(id string) (string, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "channelId is required"
	}
	if len(id) > MaxChannelIDLen {
		return "", "channelId must be at most 32 characters"
	}
	if !channelIDRe.MatchString(id) {
		return "", "channelId contains invalid characters"
	}
	return id, ""
}

// ValidateSubscriptionID accepts either an external channel id or a
// subscription document id (UUID).
func ValidateSubscriptionID(id string) (string, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "id is required"
	}
	if len(id) > MaxUserIDLen {
		return "", "id must be at most 64 characters"
	}
	if !channelIDRe.MatchString(id) {
		return "", "id contains invalid characters"
	}
	return id, ""
}

// ValidateUserID checks the identity header value.
func ValidateUserID(id string) (string, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "X-User-ID header is required"
	}
	if len(id) > MaxUserIDLen {
		return "", "user id must be at most 64 characters"
	}
	if !userIDRe.MatchString(id) {
		return "", "user id contains invalid characters"
	}
	return id, ""
}

// ValidateSearchQuery trims and bounds a free-text search query.
func ValidateSearchQuery(q string) (string, string) {
	q = strings.TrimSpace(q)
	if q == "" {
		return "", "q is required"
	}
	if len(q) > MaxQueryLen {
		return "", "q must be at most 200 characters"
	}
	return q, ""
}

// ValidateName trims and bounds a playlist name.
func ValidateName(name string) (string, string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "name is required"
	}
	if len(name) > MaxNameLen {
		return "", "name must be at most 120 characters"
	}
	return name, ""
}
