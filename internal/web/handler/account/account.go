// Package account provides the signed-in user's own API surface: profile,
// menu and session refresh.
package account

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/vendahub/vendahub/internal/config"
	"github.com/vendahub/vendahub/internal/rbac"
	"github.com/vendahub/vendahub/internal/roles"
	"github.com/vendahub/vendahub/internal/web/handler"
	"github.com/vendahub/vendahub/internal/web/middleware/auth"
	"github.com/vendahub/vendahub/internal/web/navigation"
)

const (
	// Path is the base path for the account API.
	Path = handler.RootPath + "api"
)

// Service provides the account API handlers.
type Service struct {
	handler.Service
	cfg   *config.Config
	db    *gorm.DB
	roles *roles.Service
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, roleService *roles.Service) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.db = db
	s.roles = roleService

	app.Get(Path+"/me", s.Me)
	app.Get(Path+"/menu", s.Menu)
	app.Post(Path+"/session/refresh", s.RefreshSession)
}

// Me returns the caller's profile, creating it from the current claim when missing.
func (s *Service) Me(c *fiber.Ctx) error {
	sess, ok := auth.CurrentSession(c)
	if !ok {
		return handler.JSONError(c, rbac.PermissionDenied("authentication required"))
	}

	p, err := s.roles.EnsureProfile(c.Context(), sess.UID, sess.Email, sess.DisplayName)
	if err != nil {
		log.Error().Err(err).Str("uid", sess.UID).Msg("failed to load profile")
		return handler.JSONError(c, err)
	}

	return c.JSON(fiber.Map{
		"uid":          p.UID,
		"email":        p.Email,
		"displayName":  p.DisplayName,
		"role":         p.Role,
		"isActive":     p.IsActive,
		"totalPoints":  p.TotalPoints,
		"level":        p.Level,
		"badges":       p.Badges,
		"achievements": p.Achievements,
		"lastActivity": p.LastActivity,
		"createdAt":    p.CreatedAt,
	})
}

// Menu returns the caller's menu, derived from the session's role snapshot.
// Advisory only; privileged routes stay gated server-side either way.
func (s *Service) Menu(c *fiber.Ctx) error {
	sess, ok := auth.CurrentSession(c)
	if !ok {
		return handler.JSONError(c, rbac.PermissionDenied("authentication required"))
	}

	return c.JSON(fiber.Map{
		"role":  sess.Role,
		"items": navigation.MenuFor(sess.Role),
	})
}

// RefreshSession re-reads the caller's role claim and rewrites the session
// record with the fresh snapshot. This is how a promoted user picks up
// their new role without logging out.
func (s *Service) RefreshSession(c *fiber.Ctx) error {
	sess, ok := auth.CurrentSession(c)
	if !ok {
		return handler.JSONError(c, rbac.PermissionDenied("authentication required"))
	}

	role, err := s.roles.Reconcile(c.Context(), sess.UID)
	if err != nil {
		log.Error().Err(err).Str("uid", sess.UID).Msg("failed to reconcile role at refresh")
		return handler.JSONError(c, err)
	}

	sessionID := c.Cookies(handler.SessionCookie)

	sess.Role = role
	if err = sess.Write(sessionID, s.cfg.Webserver.Session.ExpiryTime); err != nil {
		log.Error().Err(err).Str("uid", sess.UID).Msg("failed to rewrite session")
		return handler.JSONError(c, rbac.Internal("failed to refresh session", err))
	}

	return c.JSON(fiber.Map{
		"role": role,
	})
}
