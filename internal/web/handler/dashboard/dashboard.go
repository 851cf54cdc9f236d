// Package dashboard provides the dashboard handler: the signed-in landing
// page with the role-derived menu and the caller's gamification stats.
package dashboard

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/vendahub/vendahub/internal/config"
	"github.com/vendahub/vendahub/internal/gamification"
	"github.com/vendahub/vendahub/internal/rbac"
	"github.com/vendahub/vendahub/internal/roles"
	"github.com/vendahub/vendahub/internal/web/handler"
	"github.com/vendahub/vendahub/internal/web/middleware/auth"
	"github.com/vendahub/vendahub/internal/web/navigation"
)

const (
	// Path is the path to the dashboard page.
	Path = handler.RootPath + "dashboard"

	// TemplateName is the name of the dashboard template.
	TemplateName = "dashboard/dashboard"

	// ActivityFeedSize is the number of recent activities shown.
	ActivityFeedSize = 10
)

// Service is the dashboard handler service.
type Service struct {
	handler.Service
	cfg   *config.Config
	db    *gorm.DB
	roles *roles.Service
	game  *gamification.Service
}

// Handler is the dashboard handler.
var Handler = Service{}

// Init initializes the dashboard handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, roleService *roles.Service, game *gamification.Service) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.db = db
	s.cfg = cfg
	s.roles = roleService
	s.game = game

	app.Get(Path, s.Get)
}

// Get handles the dashboard page rendering. The menu comes from the
// session's role snapshot; hiding a section here never replaces the
// server-side gate on the routes behind it.
func (s *Service) Get(c *fiber.Ctx) error {
	sess, ok := auth.CurrentSession(c)
	if !ok {
		return c.Redirect("/login")
	}

	nav := navigation.NewContext("Dashboard", "dashboard", "dashboard").
		AddBreadcrumb("Home", Path, false).
		AddBreadcrumb("Dashboard", Path, true)

	profile, err := s.roles.EnsureProfile(c.Context(), sess.UID, sess.Email, sess.DisplayName)
	if err != nil {
		log.Error().Err(err).Str("uid", sess.UID).Msg("failed to load profile for dashboard")

		return c.Status(handler.StatusOf(err)).Render(TemplateName, fiber.Map{
			"Navigation": nav,
			"Error":      "Failed to load profile",
		}, handler.BaseLayout)
	}

	activities, err := s.game.Activities(c.Context(), sess.UID, ActivityFeedSize)
	if err != nil {
		log.Error().Err(err).Str("uid", sess.UID).Msg("failed to load activity feed")
		// non-fatal, render without the feed
	}

	var policy rbac.ClientVisibilityPolicy

	return c.Render(TemplateName, fiber.Map{
		"Navigation": nav,
		"Menu":       navigation.MenuFor(sess.Role),
		"Profile":    profile,
		"Activities": activities,
		"IsAdmin":    policy.IsAdmin(sess.Role),
	}, handler.BaseLayout)
}
