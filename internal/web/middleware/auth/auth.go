package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/vendahub/vendahub/internal/rbac"
	"github.com/vendahub/vendahub/internal/web/handler"
	"github.com/vendahub/vendahub/internal/web/handler/login"
	"github.com/vendahub/vendahub/internal/web/session"
)

// LocalsSessionKey is the fiber.Locals key the resolved session is stored
// under.
const LocalsSessionKey = "CurrentSession"

// Middleware is a Fiber middleware that resolves the session record and
// stores it in locals. The role placed in locals is the claim snapshot
// taken at session issue time; it is the only role authorization decisions
// may read.
func Middleware(c *fiber.Ctx) error {
	var (
		isLoginPage   = IsLoginPage(c)
		isLogoutPage  = IsLogoutPage(c)
		sessDataValid bool
	)

	originalURL := strings.ToLower(c.OriginalURL())
	if strings.HasPrefix(originalURL, "/static") {
		return c.Next()
	}

	// Allow logout page without authentication
	if isLogoutPage {
		return c.Next()
	}

	// get session cookie
	loginCookie := c.Cookies(handler.SessionCookie)

	// if no session cookie, redirect to login page
	if loginCookie == "" && !isLoginPage {
		if isAPIRequest(c) {
			return handler.JSONError(c, rbac.PermissionDenied("authentication required"))
		}

		return c.Redirect(login.Path)
	}

	// check session validity
	sessData := new(session.Data)
	if err := sessData.Read(loginCookie); err != nil || sessData.UID == "" {
		// If we're already on the login page, don't redirect (would cause loop)
		if isLoginPage {
			return c.Next()
		}

		if isAPIRequest(c) {
			return handler.JSONError(c, rbac.PermissionDenied("authentication required"))
		}

		return c.Redirect(login.Path)
	}

	if sessData.UID != "" {
		sessDataValid = true
		c.Locals(LocalsSessionKey, *sessData)
	}

	if sessDataValid && isLoginPage {
		return c.Redirect("/dashboard")
	}

	return c.Next()
}

// RequireSuperAdmin gates a route on the SUPER_ADMIN role. The check runs
// against the session's claim snapshot and denies before the handler can
// touch any store.
func RequireSuperAdmin() fiber.Handler {
	var policy rbac.ServerAuthorizationPolicy

	return func(c *fiber.Ctx) error {
		sess, ok := CurrentSession(c)
		if !ok {
			return handler.JSONError(c, rbac.PermissionDenied("authentication required"))
		}

		if !policy.CanManageUsers(sess.Role) {
			return handler.JSONError(c, rbac.PermissionDenied("access denied"))
		}

		return c.Next()
	}
}

// CurrentSession returns the resolved session from locals.
func CurrentSession(c *fiber.Ctx) (session.Data, bool) {
	sess, ok := c.Locals(LocalsSessionKey).(session.Data)
	return sess, ok
}

// IsLoginPage checks if the current request is for the login page.
func IsLoginPage(c *fiber.Ctx) bool {
	originalURL := strings.ToLower(c.OriginalURL())
	return strings.HasPrefix(originalURL, login.Path)
}

// IsLogoutPage checks if the current request is for the logout page.
func IsLogoutPage(c *fiber.Ctx) bool {
	originalURL := strings.ToLower(c.OriginalURL())
	return strings.HasPrefix(originalURL, "/logout")
}

func isAPIRequest(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.OriginalURL()), "/api")
}
