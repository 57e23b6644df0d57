package serverutils

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// SessionGuard rejects requests to protected routes when no operator
// session is established. Routes under a public prefix pass through.
func SessionGuard(isSignedIn func() bool, publicPrefixes []string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if routeIsPublic(ctx.Path(), publicPrefixes) {
			return ctx.Next()
		}
		if !isSignedIn() {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"code":    fiber.StatusUnauthorized,
				"message": "Not signed in",
			})
		}
		return ctx.Next()
	}
}

func routeIsPublic(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if path == prefix {
			return true
		}
		if prefix != "/" && strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}
