// Package user provides the admin API for managing users and their roles.
package user

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/vendahub/vendahub/internal/config"
	"github.com/vendahub/vendahub/internal/profile"
	"github.com/vendahub/vendahub/internal/rbac"
	"github.com/vendahub/vendahub/internal/roles"
	"github.com/vendahub/vendahub/internal/web/handler"
	"github.com/vendahub/vendahub/internal/web/middleware/auth"
)

const (
	// Path is the base path for user management.
	Path = handler.RootPath + "api/users"

	// DefaultPageSize for pagination.
	DefaultPageSize = 25
)

// Service provides user management operations.
type Service struct {
	handler.Service
	cfg       *config.Config
	db        *gorm.DB
	roles     *roles.Service
	profiles  *profile.Store
	validator *validator.Validate
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes. Every route carries the SUPER_ADMIN gate; the role
// service rechecks the caller's role on top, so a misrouted registration
// still denies.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, roleService *roles.Service, profiles *profile.Store) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.db = db
	s.cfg = cfg
	s.roles = roleService
	s.profiles = profiles
	s.validator = validator.New()

	app.Get(Path, auth.RequireSuperAdmin(), s.List)
	app.Post(Path, auth.RequireSuperAdmin(), s.Create)
	app.Post(Path+"/:uid/role", auth.RequireSuperAdmin(), s.UpdateRole)
}

// List returns profiles with simple pagination.
func (s *Service) List(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	pageSize := c.QueryInt("pageSize", DefaultPageSize)
	if pageSize < 1 || pageSize > 100 {
		pageSize = DefaultPageSize
	}

	offset := (page - 1) * pageSize

	profiles, total, err := s.profiles.List(c.Context(), pageSize, offset)
	if err != nil {
		log.Error().Err(err).Msg("failed to list profiles")
		return handler.JSONError(c, rbac.Internal("failed to list users", err))
	}

	return c.JSON(fiber.Map{
		"users":      profiles,
		"page":       page,
		"pageSize":   pageSize,
		"totalItems": total,
	})
}

// Create creates an identity with an explicit role through the role
// assignment service.
func (s *Service) Create(c *fiber.Ctx) error {
	var in struct {
		Email       string `json:"email"       validate:"required,email,max=255"`
		Password    string `json:"password"    validate:"required,min=8,max=128"`
		DisplayName string `json:"displayName" validate:"max=255"`
		Role        string `json:"role"`
	}

	if err := c.BodyParser(&in); err != nil {
		return handler.JSONError(c, rbac.InvalidArgument("invalid request body"))
	}

	if err := s.validator.Struct(in); err != nil {
		return handler.JSONError(c, rbac.InvalidArgument("invalid request body"))
	}

	sess, _ := auth.CurrentSession(c)

	uid, err := s.roles.CreateUser(c.Context(), sess.Role, in.Email, in.Password, in.DisplayName, rbac.Role(in.Role))
	if err != nil {
		log.Error().Err(err).Str("caller", sess.UID).Msg("failed to create user")
		return handler.JSONError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"uid": uid,
	})
}

// UpdateRole promotes the target user to a new role. The caller's role
// comes from the session claim snapshot, never from the request.
func (s *Service) UpdateRole(c *fiber.Ctx) error {
	uid := c.Params("uid")

	var in struct {
		Role string `json:"role" validate:"required"`
	}

	if err := c.BodyParser(&in); err != nil {
		return handler.JSONError(c, rbac.InvalidArgument("invalid request body"))
	}

	if err := s.validator.Struct(in); err != nil {
		return handler.JSONError(c, rbac.InvalidArgument("invalid request body"))
	}

	sess, _ := auth.CurrentSession(c)

	if err := s.roles.Promote(c.Context(), sess.Role, uid, rbac.Role(in.Role)); err != nil {
		log.Error().Err(err).Str("caller", sess.UID).Str("target", uid).Msg("failed to update role")
		return handler.JSONError(c, err)
	}

	return c.JSON(fiber.Map{
		"uid":  uid,
		"role": in.Role,
	})
}
